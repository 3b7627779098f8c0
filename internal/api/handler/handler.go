// Package handler содержит HTTP-обработчики ядра бронирований.
package handler

import (
	"time"

	"go.uber.org/zap"

	"github.com/Leganyst/reservation-engine/internal/portone"
	"github.com/Leganyst/reservation-engine/internal/service"
)

// Services: сервисы, которые нужны обработчикам.
type Services struct {
	Availability  *service.AvailabilityService
	Reservations  *service.ReservationService
	Payments      *service.PaymentService
	Cancellations *service.CancellationService
	Pricing       *service.PricingService
	Schedules     *service.ScheduleService
	Blackouts     *service.BlackoutService
	Calendar      *service.CalendarService
	Expiry        *service.ExpiryService
}

type Handler struct {
	svc      Services
	verifier *portone.Verifier
	loc      *time.Location
	log      *zap.Logger
}

// New: verifier может быть nil, тогда вебхуки отклоняются.
func New(svc Services, verifier *portone.Verifier, loc *time.Location, log *zap.Logger) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, verifier: verifier, loc: loc, log: log}
}
