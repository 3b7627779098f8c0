package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/events"
	"github.com/Leganyst/reservation-engine/internal/lock"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/repository"
)

const (
	DefaultPendingTTL    = 15 * time.Minute
	DefaultSweepInterval = 5 * time.Minute

	DefaultExpiryLogLimit = 50
	MaxExpiryLogLimit     = 200

	sweepLockKey = "sweeper:expire-pending"
)

type ExpiryConfig struct {
	TTL      time.Duration
	Interval time.Duration
}

// ExpireResult — итог одного прохода чистки.
type ExpireResult struct {
	Cutoff                time.Time   `json:"cutoff"`
	TTLMinutes            int         `json:"ttlMinutes"`
	ExpiredReservationIDs []uuid.UUID `json:"expiredReservationIds"`
}

// ExpiryService отменяет брошенные PENDING-бронирования, освобождая их слоты.
type ExpiryService struct {
	deps   Deps
	cfg    ExpiryConfig
	locker lock.Locker
}

func NewExpiryService(deps Deps, cfg ExpiryConfig, locker lock.Locker) *ExpiryService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultPendingTTL
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultSweepInterval
	}
	if locker == nil {
		locker = lock.Local{}
	}
	return &ExpiryService{deps: deps.withDefaults(), cfg: cfg, locker: locker}
}

// ExpirePending отменяет PENDING-бронирования старше ttl с неоплаченным платежом.
// Каждое бронирование — отдельная транзакция; изменённые параллельно и сбойные строки пропускаются.
func (s *ExpiryService) ExpirePending(ctx context.Context, ttl time.Duration) (ExpireResult, error) {
	if ttl <= 0 {
		ttl = s.cfg.TTL
	}
	now := s.deps.Now()
	res := ExpireResult{
		Cutoff:                now.Add(-ttl).UTC(),
		TTLMinutes:            int(ttl / time.Minute),
		ExpiredReservationIDs: []uuid.UUID{},
	}

	ctx, span := tracer.Start(ctx, "ExpiryService.ExpirePending")
	defer span.End()

	candidates, err := s.deps.Repo.Reservations.ListExpiredPending(ctx, res.Cutoff)
	if err != nil {
		span.RecordError(err)
		return res, fmt.Errorf("list expired reservations: %w", err)
	}

	for i := range candidates {
		r := &candidates[i]
		if r.Payment == nil {
			continue
		}
		expired, err := s.expireOne(ctx, r, res.TTLMinutes)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			// сбой одной строки не прерывает проход
			span.RecordError(err)
			s.deps.Logger.Error("expire reservation failed",
				zap.String("reservation_id", r.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !expired {
			continue
		}
		res.ExpiredReservationIDs = append(res.ExpiredReservationIDs, r.ID)

		r.Status = model.ReservationStatusCancelled
		r.Payment.Status = model.PaymentStatusCancelled
		s.deps.publish(ctx, events.KeyReservationExpired, reservationEvent(r, now))
		s.deps.publish(ctx, events.KeyPaymentCancelled, paymentEvent(r.Payment, now))
	}

	span.SetAttributes(attribute.Int("expiry.count", len(res.ExpiredReservationIDs)))
	if len(res.ExpiredReservationIDs) > 0 {
		s.deps.Logger.Info("pending reservations expired",
			zap.Int("count", len(res.ExpiredReservationIDs)),
			zap.Int("ttl_minutes", res.TTLMinutes),
		)
	}
	return res, nil
}

func (s *ExpiryService) expireOne(ctx context.Context, r *model.Reservation, ttlMinutes int) (bool, error) {
	var expired bool
	err := s.deps.Repo.Transaction(ctx, func(tx *repository.Repository) error {
		ok, err := tx.Payments.Transition(ctx, r.Payment.ID, model.PaymentStatusPending, model.PaymentStatusCancelled, repository.PaymentPatch{})
		if err != nil || !ok {
			return err
		}
		ok, err = tx.Reservations.TransitionStatus(ctx, r.ID,
			[]model.ReservationStatus{model.ReservationStatusPending}, model.ReservationStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			// бронирование уже сменило статус: откатываем и отмену платежа
			return errSkipExpiry
		}
		expired = true
		return writeAudit(ctx, tx.Notifications, auditEntry{
			Kind:          model.NotificationKindExpired,
			UserID:        r.UserID,
			ReservationID: r.ID,
			Title:         model.ExpiredByTTLTitle,
			Message:       fmt.Sprintf("pending payment not completed within %d minutes", ttlMinutes),
			Details: map[string]any{
				"ttlMinutes": ttlMinutes,
				"amount":     r.Payment.Amount,
				"createdAt":  r.CreatedAt.UTC(),
			},
		})
	})
	if errors.Is(err, errSkipExpiry) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("expire reservation %s: %w", r.ID, err)
	}
	return expired, nil
}

var errSkipExpiry = errors.New("reservation changed concurrently")

// Run запускает чистку по тикеру до отмены ctx. Ошибки прохода логируются, цикл продолжается.
func (s *ExpiryService) Run(ctx context.Context) {
	s.deps.Logger.Info("pending sweeper started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("ttl", s.cfg.TTL),
	)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.tick(ctx)

		select {
		case <-ctx.Done():
			s.deps.Logger.Info("pending sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *ExpiryService) tick(ctx context.Context) {
	release, ok, err := s.locker.TryLock(ctx, sweepLockKey, s.cfg.Interval)
	if err != nil {
		s.deps.Logger.Warn("sweeper lock failed", zap.Error(err))
		return
	}
	if !ok {
		s.deps.Logger.Debug("sweeper tick skipped: lock held by another instance")
		return
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.deps.Logger.Warn("sweeper lock release failed", zap.Error(err))
		}
	}()

	if _, err := s.ExpirePending(ctx, s.cfg.TTL); err != nil {
		s.deps.Logger.Error("expire pending reservations failed", zap.Error(err))
	}
}

// ListExpiryLogs возвращает записи аудита об истечении TTL, свежие первыми.
func (s *ExpiryService) ListExpiryLogs(ctx context.Context, limit int) ([]model.NotificationLog, error) {
	limit = calendar.ClampLimit(limit, DefaultExpiryLogLimit, MaxExpiryLogLimit)
	list, err := s.deps.Repo.Notifications.ListByTitle(ctx, model.ExpiredByTTLTitle, limit)
	if err != nil {
		return nil, fmt.Errorf("list expiry logs: %w", err)
	}
	return list, nil
}
