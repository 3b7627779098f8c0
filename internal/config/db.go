package config

import (
	"fmt"
	"time"
)

type DBConfig struct {
	Host            string        `envconfig:"DB_HOST" default:"postgres"`
	Port            int           `envconfig:"DB_PORT" default:"5432"`
	User            string        `envconfig:"DB_USER" default:"reservation"`
	Password        string        `envconfig:"DB_PASSWORD" default:"reservation"`
	Name            string        `envconfig:"DB_NAME" default:"reservation_db"`
	SSLMode         string        `envconfig:"DB_SSLMODE" default:"disable"`
	TimeZone        string        `envconfig:"DB_TIMEZONE" default:"UTC"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifeTime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
	// silent | error | warn | info; info пишет каждый SQL-запрос
	LogLevel string `envconfig:"DB_LOG_LEVEL" default:"warn"`
}

func (c DBConfig) validate() error {
	// минимальная валидация
	if c.Host == "" || c.User == "" || c.Name == "" {
		return fmt.Errorf("invalid DB config: host/user/name must not be empty")
	}
	switch c.LogLevel {
	case "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("invalid DB config: unknown log level %q", c.LogLevel)
	}
	return nil
}

// DSN — строка подключения для драйвера postgres.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.Host,
		c.User,
		c.Password,
		c.Name,
		c.Port,
		c.SSLMode,
		c.TimeZone,
	)
}
