// Package config собирает конфигурацию сервиса из окружения (и .env, если он есть).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DB      DBConfig
	HTTP    HTTPConfig
	GRPC    GRPCConfig
	PortOne PortOneConfig
	Expiry  ExpiryConfig
	Auth    AuthConfig
	Redis   RedisConfig
	Rabbit  RabbitConfig
	OTEL    OTELConfig
	Log     LogConfig

	// Зона, в которой живут гражданские даты и время расписаний.
	TimeZone string `envconfig:"APP_TIMEZONE" default:"Asia/Seoul"`
}

type HTTPConfig struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

type GRPCConfig struct {
	Addr string `envconfig:"GRPC_ADDR" default:":50051"`
}

type PortOneConfig struct {
	APISecret     string        `envconfig:"PORTONE_API_SECRET"`
	WebhookSecret string        `envconfig:"PORTONE_WEBHOOK_SECRET"`
	StoreID       string        `envconfig:"PORTONE_STORE_ID"`
	ChannelKey    string        `envconfig:"PORTONE_CHANNEL_KEY"`
	BaseURL       string        `envconfig:"PORTONE_BASE_URL" default:"https://api.portone.io"`
	Timeout       time.Duration `envconfig:"PORTONE_TIMEOUT" default:"10s"`
}

type ExpiryConfig struct {
	PendingTTLMinutes    int `envconfig:"PENDING_TTL_MINUTES" default:"15"`
	SweepIntervalMinutes int `envconfig:"SWEEP_INTERVAL_MINUTES" default:"5"`
}

func (c ExpiryConfig) TTL() time.Duration { return time.Duration(c.PendingTTLMinutes) * time.Minute }

func (c ExpiryConfig) Interval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

type AuthConfig struct {
	JWTSecret string `envconfig:"JWT_SECRET"`
}

// Пустой адрес: Redis не используется, блокировка чистки локальная.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
	Prefix   string `envconfig:"REDIS_PREFIX" default:"reservation:"`
}

// Пустой URL: события не публикуются.
type RabbitConfig struct {
	URL      string `envconfig:"RABBIT_URL"`
	Exchange string `envconfig:"RABBIT_EXCHANGE" default:"reservation.exchange"`
}

type OTELConfig struct {
	Endpoint    string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `envconfig:"OTEL_SERVICE_NAME" default:"reservation-engine"`
	Environment string `envconfig:"ENV" default:"dev"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load читает .env (если файл есть) и затем окружение.
// Переменные окружения имеют приоритет над .env.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if err := c.DB.validate(); err != nil {
		return err
	}
	if c.Expiry.PendingTTLMinutes <= 0 || c.Expiry.SweepIntervalMinutes <= 0 {
		return fmt.Errorf("invalid expiry config: ttl and interval must be positive")
	}
	if c.PortOne.Timeout <= 0 {
		return fmt.Errorf("invalid portone config: timeout must be positive")
	}
	return nil
}
