package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Leganyst/reservation-engine/internal/apperr"
	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/events"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/portone"
	"github.com/Leganyst/reservation-engine/internal/repository"
)

// RefundPercent: доля возврата в целых процентах.
type RefundPercent int

func (p RefundPercent) Ratio() float64 { return float64(p) / 100 }

// Of: сумма возврата, округлённая вниз.
func (p RefundPercent) Of(total int64) int64 { return total * int64(p) / 100 }

const policyDay = 24 * time.Hour

// RefundPercentByPolicy считает долю возврата по времени до начала брони:
// 10+ дней 100%, 7+ 80%, 5+ 60%, 3+ 40%, меньше 10%, после начала 0.
func RefundPercentByPolicy(startAt, now time.Time) RefundPercent {
	diff := startAt.Sub(now)
	switch {
	case diff <= 0:
		return 0
	case diff >= 10*policyDay:
		return 100
	case diff >= 7*policyDay:
		return 80
	case diff >= 5*policyDay:
		return 60
	case diff >= 3*policyDay:
		return 40
	default:
		return 10
	}
}

// CancelResult: итог отмены. Для отмены без оплаты поля возврата нулевые.
type CancelResult struct {
	Reservation   *model.Reservation
	RefundPercent RefundPercent
	RefundAmount  int64
}

type CancellationService struct {
	deps     Deps
	provider PaymentProvider
}

func NewCancellationService(deps Deps, provider PaymentProvider) *CancellationService {
	return &CancellationService{deps: deps.withDefaults(), provider: provider}
}

// Бронирования, которые ещё можно отменить.
var cancellable = []model.ReservationStatus{model.ReservationStatusPending, model.ReservationStatusConfirmed}

// CancelWithRefund возвращает деньги по политике и отменяет оплаченное бронирование.
// Если провайдер отказал, локальное состояние не меняется.
func (s *CancellationService) CancelWithRefund(ctx context.Context, reservationID uuid.UUID, reason string) (*CancelResult, error) {
	ctx, span := tracer.Start(ctx, "CancellationService.CancelWithRefund")
	defer span.End()
	span.SetAttributes(attribute.String("reservation.id", reservationID.String()))

	res, err := loadReservation(ctx, s.deps.Repo.Reservations, reservationID)
	if err != nil {
		return nil, err
	}
	pay := res.Payment
	switch {
	case res.Status == model.ReservationStatusCancelled:
		return nil, apperr.Conflict(CodeAlreadyCancelled, "reservation is already cancelled")
	case pay == nil:
		return nil, apperr.NotFound(CodePaymentNotFound, "payment not found")
	case pay.Status != model.PaymentStatusPaid:
		return nil, apperr.Conflict(CodePaymentNotPaid, "payment is not paid").WithDetail("status", pay.Status)
	case pay.ProviderPaymentID == nil:
		return nil, apperr.Conflict(CodeNoProviderPaymentID, "payment has no provider payment id")
	}

	now := s.deps.Now()
	pct := RefundPercentByPolicy(res.StartAt(), now)
	if pct == 0 {
		return nil, apperr.Conflict(CodeRefundNotAllowed, "refund is not allowed after the reservation has started")
	}
	amount := pct.Of(pay.Amount)
	if amount <= 0 {
		return nil, apperr.Conflict(CodeRefundAmountZero, "refund amount is zero")
	}
	span.SetAttributes(attribute.Int("refund.percent", int(pct)), attribute.Int64("refund.amount", amount))

	log := s.deps.Logger.With(
		zap.String("reservation_id", res.ID.String()),
		zap.String("payment_id", pay.ID.String()),
	)

	_, err = s.provider.CancelPayment(ctx, portone.CancelRequest{
		PaymentID:      *pay.ProviderPaymentID,
		Amount:         amount,
		Reason:         reason,
		IdempotencyKey: portone.IdempotencyKey(portone.OpRefund, res.ID, pay.ID),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider cancel failed")
		log.Error("refund: provider cancel failed", zap.Int64("amount", amount), zap.Error(err))
		if auditErr := writeAudit(ctx, s.deps.Repo.Notifications, auditEntry{
			Kind:          model.NotificationKindRefund,
			Status:        model.NotificationStatusFailed,
			UserID:        res.UserID,
			ReservationID: res.ID,
			Title:         "Refund failed",
			Message:       reason,
			Error:         err.Error(),
			Details:       map[string]any{"amount": amount, "percent": int(pct)},
		}); auditErr != nil {
			log.Error("refund: write audit failed", zap.Error(auditErr))
		}
		return nil, apperr.Gateway(CodeRefundFailed, "payment provider refused the refund", err)
	}

	to := model.PaymentStatusPartiallyRefunded
	if amount >= pay.Amount {
		to = model.PaymentStatusRefunded
	}

	err = s.deps.Repo.Transaction(ctx, func(tx *repository.Repository) error {
		ok, err := tx.Payments.Transition(ctx, pay.ID, model.PaymentStatusPaid, to, repository.PaymentPatch{
			RefundedAmount: &amount,
			RefundReason:   &reason,
			RefundedAt:     paymentNow(s.deps.Now),
		})
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict(CodeInvalidStateChange, "payment changed during refund")
		}
		if _, err := tx.Reservations.TransitionStatus(ctx, res.ID, cancellable, model.ReservationStatusCancelled); err != nil {
			return err
		}
		return writeAudit(ctx, tx.Notifications, auditEntry{
			Kind:          model.NotificationKindRefund,
			UserID:        res.UserID,
			ReservationID: res.ID,
			Title:         "Refund completed",
			Message:       reason,
			Details: map[string]any{
				"amount":  amount,
				"percent": int(pct),
				"status":  to,
			},
		})
	})
	if err != nil {
		// деньги у провайдера уже вернулись: повтор с тем же ключом идемпотентности безопасен
		log.Error("refund: local update failed after provider cancel", zap.Error(err))
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("apply refund: %w", err)
	}

	log.Info("refund completed", zap.Int64("amount", amount), zap.Int("percent", int(pct)))

	pay.Status = to
	pay.RefundedAmount = &amount
	s.deps.publish(ctx, events.KeyPaymentRefunded, paymentEvent(pay, now))
	res.Status = model.ReservationStatusCancelled
	s.deps.publish(ctx, events.KeyReservationCancelled, reservationEvent(res, now))

	updated, err := loadReservation(ctx, s.deps.Repo.Reservations, res.ID)
	if err != nil {
		return nil, err
	}
	return &CancelResult{Reservation: updated, RefundPercent: pct, RefundAmount: amount}, nil
}

// CancelPending отменяет неоплаченное бронирование без обращения к провайдеру.
func (s *CancellationService) CancelPending(ctx context.Context, reservationID uuid.UUID, reason string) (*CancelResult, error) {
	res, err := loadReservation(ctx, s.deps.Repo.Reservations, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Payment == nil {
		return nil, apperr.NotFound(CodePaymentNotFound, "payment not found")
	}

	err = s.deps.Repo.Transaction(ctx, func(tx *repository.Repository) error {
		ok, err := tx.Payments.Transition(ctx, res.Payment.ID, model.PaymentStatusPending, model.PaymentStatusCancelled, repository.PaymentPatch{})
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict(CodePaymentNotPending, "payment is not pending")
		}
		if _, err := tx.Reservations.TransitionStatus(ctx, res.ID, cancellable, model.ReservationStatusCancelled); err != nil {
			return err
		}
		return writeAudit(ctx, tx.Notifications, auditEntry{
			Kind:          model.NotificationKindCancellation,
			UserID:        res.UserID,
			ReservationID: res.ID,
			Title:         "Reservation cancelled",
			Message:       reason,
			Details:       map[string]any{"amount": res.Payment.Amount},
		})
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("cancel pending reservation: %w", err)
	}

	now := s.deps.Now()
	res.Status = model.ReservationStatusCancelled
	res.Payment.Status = model.PaymentStatusCancelled
	s.deps.publish(ctx, events.KeyPaymentCancelled, paymentEvent(res.Payment, now))
	s.deps.publish(ctx, events.KeyReservationCancelled, reservationEvent(res, now))

	updated, err := loadReservation(ctx, s.deps.Repo.Reservations, res.ID)
	if err != nil {
		return nil, err
	}
	return &CancelResult{Reservation: updated}, nil
}

// Confirm: ручное подтверждение админом. Отменённое бронирование подтвердить нельзя.
func (s *CancellationService) Confirm(ctx context.Context, reservationID uuid.UUID) (*model.Reservation, error) {
	res, err := loadReservation(ctx, s.deps.Repo.Reservations, reservationID)
	if err != nil {
		return nil, err
	}

	err = s.deps.Repo.Transaction(ctx, func(tx *repository.Repository) error {
		ok, err := tx.Reservations.TransitionStatus(ctx, res.ID, cancellable, model.ReservationStatusConfirmed)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict(CodeInvalidStateChange, "reservation can not be confirmed").
				WithDetail("status", res.Status)
		}
		return writeAudit(ctx, tx.Notifications, auditEntry{
			Kind:          model.NotificationKindAdminAction,
			UserID:        res.UserID,
			ReservationID: res.ID,
			Title:         "Reservation confirmed by admin",
		})
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("confirm reservation: %w", err)
	}

	res.Status = model.ReservationStatusConfirmed
	s.deps.publish(ctx, events.KeyReservationConfirmed, reservationEvent(res, s.deps.Now()))
	return loadReservation(ctx, s.deps.Repo.Reservations, res.ID)
}

// ManualProvider: провайдер платежа, проведённого админом вручную.
const ManualProvider = "manual"

// MarkPaid: ручная отметка оплаты (например, банковский перевод).
func (s *CancellationService) MarkPaid(ctx context.Context, reservationID uuid.UUID) (*model.Reservation, error) {
	res, err := loadReservation(ctx, s.deps.Repo.Reservations, reservationID)
	if err != nil {
		return nil, err
	}
	if res.Payment == nil {
		return nil, apperr.NotFound(CodePaymentNotFound, "payment not found")
	}

	err = s.deps.Repo.Transaction(ctx, func(tx *repository.Repository) error {
		ok, err := tx.Payments.Transition(ctx, res.Payment.ID, model.PaymentStatusPending, model.PaymentStatusPaid, repository.PaymentPatch{
			Provider: strPtr(ManualProvider),
			PaidAt:   paymentNow(s.deps.Now),
		})
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict(CodePaymentNotPending, "payment is not pending")
		}
		if _, err := tx.Reservations.TransitionStatus(ctx, res.ID, cancellable, model.ReservationStatusConfirmed); err != nil {
			return err
		}
		return writeAudit(ctx, tx.Notifications, auditEntry{
			Kind:          model.NotificationKindAdminAction,
			UserID:        res.UserID,
			ReservationID: res.ID,
			Title:         "Payment marked paid by admin",
			Details:       map[string]any{"amount": res.Payment.Amount},
		})
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("mark paid: %w", err)
	}

	now := s.deps.Now()
	res.Payment.Status = model.PaymentStatusPaid
	s.deps.publish(ctx, events.KeyPaymentPaid, paymentEvent(res.Payment, now))
	return loadReservation(ctx, s.deps.Repo.Reservations, res.ID)
}

// AdminCancel: неоплаченное отменяется сразу, оплаченное возвращается по политике.
func (s *CancellationService) AdminCancel(ctx context.Context, reservationID uuid.UUID, reason string) (*CancelResult, error) {
	res, err := loadReservation(ctx, s.deps.Repo.Reservations, reservationID)
	if err != nil {
		return nil, err
	}
	return s.cancelByPaymentState(ctx, res, reason)
}

// UserCancel: отмена владельцем. Повторная отмена возвращает бронирование как есть.
func (s *CancellationService) UserCancel(
	ctx context.Context,
	user *calendar.ValidatedUser,
	reservationID uuid.UUID,
	reason string,
) (*CancelResult, error) {
	res, err := loadReservation(ctx, s.deps.Repo.Reservations, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrForbidden
	}
	if res.Status == model.ReservationStatusCancelled {
		return &CancelResult{Reservation: res}, nil
	}
	if reason == "" {
		reason = "cancelled by user"
	}
	return s.cancelByPaymentState(ctx, res, reason)
}

func (s *CancellationService) cancelByPaymentState(ctx context.Context, res *model.Reservation, reason string) (*CancelResult, error) {
	if res.Payment == nil {
		return nil, apperr.NotFound(CodePaymentNotFound, "payment not found")
	}
	switch res.Payment.Status {
	case model.PaymentStatusPending:
		return s.CancelPending(ctx, res.ID, reason)
	case model.PaymentStatusPaid:
		return s.CancelWithRefund(ctx, res.ID, reason)
	default:
		return nil, apperr.Conflict(CodeInvalidStateChange, "reservation can not be cancelled in its payment state").
			WithDetail("paymentStatus", res.Payment.Status)
	}
}

// AdminAction: действие админа над бронированием.
type AdminAction string

const (
	AdminActionConfirm  AdminAction = "CONFIRM"
	AdminActionCancel   AdminAction = "CANCEL"
	AdminActionMarkPaid AdminAction = "MARK_PAID"
)

func (s *CancellationService) Apply(ctx context.Context, reservationID uuid.UUID, action AdminAction, reason string) (*model.Reservation, error) {
	switch action {
	case AdminActionConfirm:
		return s.Confirm(ctx, reservationID)
	case AdminActionMarkPaid:
		return s.MarkPaid(ctx, reservationID)
	case AdminActionCancel:
		if reason == "" {
			reason = "cancelled by admin"
		}
		out, err := s.AdminCancel(ctx, reservationID, reason)
		if err != nil {
			return nil, err
		}
		return out.Reservation, nil
	default:
		return nil, invalid("action must be CONFIRM, CANCEL or MARK_PAID")
	}
}
