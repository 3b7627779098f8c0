package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Leganyst/reservation-engine/internal/events"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/repository"
)

// Clock — источник текущего времени; в тестах подменяется.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

var tracer = otel.Tracer("github.com/Leganyst/reservation-engine/internal/service")

// Deps — общие зависимости сервисов.
type Deps struct {
	Repo      *repository.Repository
	Location  *time.Location
	Logger    *zap.Logger
	Publisher events.Publisher
	Now       Clock
}

func (d Deps) withDefaults() Deps {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Publisher == nil {
		d.Publisher = events.Nop{}
	}
	if d.Now == nil {
		d.Now = systemClock
	}
	return d
}

// publish отправляет событие после коммита. Ошибка брокера не откатывает операцию.
func (d Deps) publish(ctx context.Context, key string, payload any) {
	if err := d.Publisher.PublishJSON(ctx, key, payload); err != nil {
		d.Logger.Warn("publish event failed", zap.String("key", key), zap.Error(err))
	}
}

// auditEntry — запись в журнал notification_logs.
type auditEntry struct {
	Kind          model.NotificationKind
	Status        model.NotificationStatus
	UserID        uuid.UUID
	ReservationID uuid.UUID
	Title         string
	Message       string
	Error         string
	Details       any
}

func writeAudit(ctx context.Context, repo repository.NotificationRepository, e auditEntry) error {
	log := &model.NotificationLog{
		Kind:    e.Kind,
		Status:  e.Status,
		Title:   e.Title,
		Message: e.Message,
	}
	if log.Status == "" {
		log.Status = model.NotificationStatusSent
	}
	if e.UserID != uuid.Nil {
		uid := e.UserID
		log.UserID = &uid
	}
	if e.ReservationID != uuid.Nil {
		rid := e.ReservationID
		log.ReservationID = &rid
	}
	if e.Error != "" {
		msg := e.Error
		log.Error = &msg
	}
	if e.Details != nil {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		log.Details = datatypes.JSON(b)
	}
	return repo.Create(ctx, log)
}

func reservationEvent(r *model.Reservation, at time.Time) events.ReservationEvent {
	return events.ReservationEvent{
		ReservationID: r.ID,
		UserID:        r.UserID,
		Status:        string(r.Status),
		TotalAmount:   r.TotalAmount,
		At:            at,
	}
}

func paymentEvent(p *model.Payment, at time.Time) events.PaymentEvent {
	ev := events.PaymentEvent{
		PaymentID:     p.ID,
		ReservationID: p.ReservationID,
		Status:        string(p.Status),
		Amount:        p.Amount,
		At:            at,
	}
	if p.ProviderPaymentID != nil {
		ev.ProviderPaymentID = *p.ProviderPaymentID
	}
	if p.RefundedAmount != nil {
		ev.RefundedAmount = *p.RefundedAmount
	}
	return ev
}

func strPtr(s string) *string { return &s }
