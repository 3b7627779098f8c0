package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Leganyst/reservation-engine/internal/api/handler"
	"github.com/Leganyst/reservation-engine/internal/api/middleware"
	"github.com/Leganyst/reservation-engine/internal/api/router"
	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/config"
	"github.com/Leganyst/reservation-engine/internal/db"
	"github.com/Leganyst/reservation-engine/internal/events"
	"github.com/Leganyst/reservation-engine/internal/lock"
	"github.com/Leganyst/reservation-engine/internal/logger"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/portone"
	"github.com/Leganyst/reservation-engine/internal/repository"
	"github.com/Leganyst/reservation-engine/internal/service"
	"github.com/Leganyst/reservation-engine/internal/tracing"
)

// version подставляется через -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Конфиг из env (и .env, если есть).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatalf("JWT_SECRET is required")
	}
	loc, err := calendar.LoadZone(cfg.TimeZone)
	if err != nil {
		log.Fatalf("load time zone %q: %v", cfg.TimeZone, err)
	}

	// 2. Логгер.
	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	// 3. Трейсинг. Без endpoint спаны никуда не уходят.
	shutdownTracing, err := tracing.Init(ctx, cfg.OTEL, version)
	if err != nil {
		logg.Fatal("init tracing", zap.Error(err))
	}

	// 4. БД и миграции.
	gormDB, err := db.NewGormDB(ctx, cfg.DB)
	if err != nil {
		logg.Fatal("init db", zap.Error(err))
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		logg.Fatal("auto migrate", zap.Error(err))
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logg.Fatal("sql DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// 5. Репозитории.
	repo := repository.New(gormDB)

	// 6. Публикация событий: RabbitMQ, если задан URL.
	var publisher events.Publisher = events.Nop{}
	if cfg.Rabbit.URL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			logg.Fatal("init amqp publisher", zap.Error(err))
		}
		defer amqpPub.Close()
		publisher = amqpPub
	}

	// 7. Блокировка чистки: Redis, если задан адрес, иначе локальная.
	var locker lock.Locker = lock.Local{}
	if cfg.Redis.Addr != "" {
		rdb, err := lock.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logg.Fatal("init redis", zap.Error(err))
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Redis.Prefix)
	}

	// 8. PortOne.
	provider := portone.NewClient(portone.Config{
		BaseURL:   cfg.PortOne.BaseURL,
		APISecret: cfg.PortOne.APISecret,
		StoreID:   cfg.PortOne.StoreID,
		Timeout:   cfg.PortOne.Timeout,
	})
	var verifier *portone.Verifier
	if cfg.PortOne.WebhookSecret != "" {
		verifier, err = portone.NewVerifier(cfg.PortOne.WebhookSecret)
		if err != nil {
			logg.Fatal("init webhook verifier", zap.Error(err))
		}
	} else {
		logg.Warn("PORTONE_WEBHOOK_SECRET is empty, webhooks will be rejected")
	}

	// 9. Сервисы.
	deps := service.Deps{Repo: repo, Location: loc, Logger: logg, Publisher: publisher}
	avail := service.NewAvailabilityService(deps)
	expiry := service.NewExpiryService(deps, service.ExpiryConfig{
		TTL:      cfg.Expiry.TTL(),
		Interval: cfg.Expiry.Interval(),
	}, locker)

	h := handler.New(handler.Services{
		Availability: avail,
		Reservations: service.NewReservationService(deps, avail),
		Payments: service.NewPaymentService(deps, provider, service.CheckoutConfig{
			StoreID:    cfg.PortOne.StoreID,
			ChannelKey: cfg.PortOne.ChannelKey,
		}),
		Cancellations: service.NewCancellationService(deps, provider),
		Pricing:       service.NewPricingService(deps),
		Schedules:     service.NewScheduleService(deps),
		Blackouts:     service.NewBlackoutService(deps),
		Calendar:      service.NewCalendarService(deps),
		Expiry:        expiry,
	}, verifier, loc, logg)

	// 10. HTTP API.
	auth := middleware.JWTAuth(cfg.Auth.JWTSecret, service.NewIdentityService(repo.Users))
	engine := router.Setup(h, auth, logg)
	httpServer := &http.Server{Addr: cfg.HTTP.Addr, Handler: engine}

	// 11. Фоновая чистка брошенных PENDING.
	go expiry.Run(ctx)

	// 12. HTTP-сервер.
	go func() {
		logg.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("http serve", zap.Error(err))
		}
	}()

	// 13. gRPC: health и reflection.
	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		logg.Fatal("grpc listen", zap.String("addr", cfg.GRPC.Addr), zap.Error(err))
	}
	go func() {
		logg.Info("grpc server listening", zap.String("addr", cfg.GRPC.Addr))
		if err := grpcServer.Serve(lis); err != nil {
			logg.Fatal("grpc serve", zap.Error(err))
		}
	}()

	// 14. Грейсфул-шатдаун по сигналу.
	<-ctx.Done()
	logg.Info("shutting down")

	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logg.Error("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		logg.Error("tracing shutdown", zap.Error(err))
	}
}
