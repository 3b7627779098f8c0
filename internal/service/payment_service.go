package service

import (
	"context"
	"errors"
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

// PaymentProvider: операции провайдера, которые нужны ядру.
type PaymentProvider interface {
	GetPayment(ctx context.Context, paymentID string) (*portone.Payment, error)
	CancelPayment(ctx context.Context, req portone.CancelRequest) (*portone.Cancellation, error)
}

// Причины в результате сверки.
const (
	ReasonPaymentNotFound   = "PAYMENT_NOT_FOUND"
	ReasonAmountMismatch    = "AMOUNT_MISMATCH"
	ReasonEventIgnored      = "EVENT_IGNORED"
	ReasonUnhandledStatus   = "UNHANDLED_PROVIDER_STATUS"
	ReasonPaymentNotPending = "PAYMENT_NOT_PENDING"
)

// VerifyResult: итог сверки платежа с провайдером.
type VerifyResult struct {
	OK             bool   `json:"ok"`
	Ignored        bool   `json:"ignored,omitempty"`
	Reason         string `json:"reason,omitempty"`
	AlreadyApplied bool   `json:"alreadyApplied,omitempty"`
	Status         string `json:"status,omitempty"`
	ProviderStatus string `json:"providerStatus,omitempty"`
}

// CheckoutConfig: публичные параметры платёжного окна.
type CheckoutConfig struct {
	StoreID    string
	ChannelKey string
}

type CheckoutCustomer struct {
	CustomerID  string `json:"customerId"`
	FullName    string `json:"fullName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Email       string `json:"email,omitempty"`
}

type CheckoutParams struct {
	StoreID     string           `json:"storeId"`
	ChannelKey  string           `json:"channelKey"`
	PaymentID   string           `json:"paymentId"`
	OrderName   string           `json:"orderName"`
	TotalAmount int64            `json:"totalAmount"`
	Currency    string           `json:"currency"`
	Customer    CheckoutCustomer `json:"customer"`
	CustomData  map[string]any   `json:"customData"`
}

type PaymentService struct {
	deps     Deps
	provider PaymentProvider
	checkout CheckoutConfig
}

func NewPaymentService(deps Deps, provider PaymentProvider, checkout CheckoutConfig) *PaymentService {
	return &PaymentService{deps: deps.withDefaults(), provider: provider, checkout: checkout}
}

// Checkout готовит параметры оплаты для владельца PENDING-бронирования.
// Идентификатор платежа у провайдера присваивается один раз и дальше не меняется.
func (s *PaymentService) Checkout(ctx context.Context, userID, reservationID uuid.UUID) (*CheckoutParams, error) {
	res, err := loadReservation(ctx, s.deps.Repo.Reservations, reservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != userID {
		return nil, ErrForbidden
	}
	if res.Payment == nil {
		return nil, apperr.NotFound(CodePaymentNotFound, "payment not found")
	}
	if res.Status != model.ReservationStatusPending || res.Payment.Status != model.PaymentStatusPending {
		return nil, apperr.Conflict(CodePaymentNotPending, "payment is not pending").
			WithDetail("status", res.Payment.Status)
	}

	user, err := s.deps.Repo.Users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound(CodeUserNotFound, "user not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	providerPaymentID := portone.PaymentIDFor(res.ID)
	if res.Payment.ProviderPaymentID != nil {
		providerPaymentID = *res.Payment.ProviderPaymentID
	} else {
		if _, err := s.deps.Repo.Payments.AssignProvider(ctx, res.Payment.ID, portone.ProviderName, providerPaymentID); err != nil {
			return nil, fmt.Errorf("assign provider payment id: %w", err)
		}
		// при гонке двух checkout выигрывает первый, id у обоих одинаковый
	}

	return &CheckoutParams{
		StoreID:     s.checkout.StoreID,
		ChannelKey:  s.checkout.ChannelKey,
		PaymentID:   providerPaymentID,
		OrderName:   "Reservation " + res.ID.String()[:8],
		TotalAmount: res.Payment.Amount,
		Currency:    "KRW",
		Customer: CheckoutCustomer{
			CustomerID:  user.ID.String(),
			FullName:    user.Name,
			PhoneNumber: user.Phone,
			Email:       user.Email,
		},
		CustomData: map[string]any{
			"reservationId":  res.ID.String(),
			"userId":         user.ID.String(),
			"expectedAmount": res.Payment.Amount,
		},
	}, nil
}

// Complete: сверка по возврату клиента из платёжного окна.
// Чужой платёж сверять нельзя, неизвестный просто игнорируется.
func (s *PaymentService) Complete(ctx context.Context, user *calendar.ValidatedUser, providerPaymentID string) (VerifyResult, error) {
	if providerPaymentID == "" {
		return VerifyResult{}, invalid("paymentId is required")
	}
	pay, err := s.deps.Repo.Payments.GetByProviderPaymentID(ctx, providerPaymentID)
	switch {
	case err == nil:
		res, err := loadReservation(ctx, s.deps.Repo.Reservations, pay.ReservationID)
		if err != nil {
			return VerifyResult{}, err
		}
		if res.UserID != user.ID && !user.IsAdmin() {
			return VerifyResult{}, ErrForbidden
		}
	case !repository.IsNotFound(err):
		return VerifyResult{}, fmt.Errorf("load payment: %w", err)
	}
	return s.VerifyAndApply(ctx, providerPaymentID)
}

// HandleWebhook сверяет платёж по проверенному событию вебхука.
func (s *PaymentService) HandleWebhook(ctx context.Context, ev *portone.WebhookEvent) (VerifyResult, error) {
	if !ev.Relevant() || ev.Data.PaymentID == "" {
		s.deps.Logger.Debug("webhook ignored", zap.String("type", ev.Type))
		return VerifyResult{OK: true, Ignored: true, Reason: ReasonEventIgnored}, nil
	}
	return s.VerifyAndApply(ctx, ev.Data.PaymentID)
}

// errAlreadyPaid откатывает транзакцию, если платёж успели провести параллельно.
var errAlreadyPaid = errors.New("payment already paid")

// notPendingError откатывает транзакцию, если платёж уже закрыт не оплатой
// (обычно бронь истекла по TTL, пока клиент был на странице оплаты).
type notPendingError struct {
	status model.PaymentStatus
}

func (e *notPendingError) Error() string {
	return fmt.Sprintf("payment is %s, can not mark paid", e.status)
}

// VerifyAndApply читает статус платежа у провайдера и переносит его в локальное состояние.
// Повторные вызовы безопасны: все переходы через compare-and-set по текущему статусу.
func (s *PaymentService) VerifyAndApply(ctx context.Context, providerPaymentID string) (VerifyResult, error) {
	ctx, span := tracer.Start(ctx, "PaymentService.VerifyAndApply")
	defer span.End()
	span.SetAttributes(attribute.String("payment.provider_id", providerPaymentID))

	log := s.deps.Logger.With(zap.String("provider_payment_id", providerPaymentID))

	pay, err := s.deps.Repo.Payments.GetByProviderPaymentID(ctx, providerPaymentID)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Warn("verify: unknown payment id")
			return VerifyResult{OK: true, Ignored: true, Reason: ReasonPaymentNotFound}, nil
		}
		return VerifyResult{}, fmt.Errorf("load payment: %w", err)
	}

	remote, err := s.provider.GetPayment(ctx, providerPaymentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider unavailable")
		log.Error("verify: provider lookup failed", zap.Error(err))
		return VerifyResult{}, apperr.Gateway(CodeProviderUnavailable, "payment provider request failed", err)
	}
	span.SetAttributes(attribute.String("payment.provider_status", remote.Status))

	if remote.Amount.Total != pay.Amount {
		return s.applyMismatch(ctx, pay, remote)
	}

	switch remote.Status {
	case portone.StatusPaid:
		return s.applyPaid(ctx, pay, remote)
	case portone.StatusCancelled:
		return s.applyCancelled(ctx, pay, remote)
	default:
		return VerifyResult{
			OK:             true,
			Reason:         ReasonUnhandledStatus,
			Status:         string(pay.Status),
			ProviderStatus: remote.Status,
		}, nil
	}
}

func (s *PaymentService) applyMismatch(ctx context.Context, pay *model.Payment, remote *portone.Payment) (VerifyResult, error) {
	now := s.deps.Now()
	status := pay.Status
	var failed bool

	err := s.deps.Repo.Transaction(ctx, func(tx *repository.Repository) error {
		if pay.Status == model.PaymentStatusPending {
			ok, err := tx.Payments.Transition(ctx, pay.ID, model.PaymentStatusPending, model.PaymentStatusFailed, repository.PaymentPatch{})
			if err != nil {
				return err
			}
			if ok {
				failed = true
				status = model.PaymentStatusFailed
				if _, err := tx.Reservations.TransitionStatus(ctx, pay.ReservationID,
					[]model.ReservationStatus{model.ReservationStatusPending, model.ReservationStatusConfirmed},
					model.ReservationStatusCancelled); err != nil {
					return err
				}
			}
		}
		return writeAudit(ctx, tx.Notifications, auditEntry{
			Kind:          model.NotificationKindPaymentMismatch,
			Status:        model.NotificationStatusFailed,
			UserID:        payerID(pay),
			ReservationID: pay.ReservationID,
			Title:         "Payment amount mismatch",
			Message:       fmt.Sprintf("expected %d, provider reported %d", pay.Amount, remote.Amount.Total),
			Error:         ReasonAmountMismatch,
			Details: map[string]any{
				"paymentId":         pay.ID,
				"providerPaymentId": providerID(pay),
				"expectedAmount":    pay.Amount,
				"providerAmount":    remote.Amount.Total,
				"providerStatus":    remote.Status,
			},
		})
	})
	if err != nil {
		return VerifyResult{}, fmt.Errorf("apply amount mismatch: %w", err)
	}

	s.deps.Logger.Warn("payment amount mismatch",
		zap.String("payment_id", pay.ID.String()),
		zap.Int64("expected", pay.Amount),
		zap.Int64("actual", remote.Amount.Total),
	)
	if failed {
		pay.Status = model.PaymentStatusFailed
		s.deps.publish(ctx, events.KeyPaymentFailed, paymentEvent(pay, now))
	}
	return VerifyResult{OK: false, Reason: ReasonAmountMismatch, Status: string(status), ProviderStatus: remote.Status}, nil
}

func (s *PaymentService) applyPaid(ctx context.Context, pay *model.Payment, remote *portone.Payment) (VerifyResult, error) {
	if pay.Status == model.PaymentStatusPaid {
		return VerifyResult{OK: true, AlreadyApplied: true, Status: string(pay.Status), ProviderStatus: remote.Status}, nil
	}

	now := s.deps.Now()
	paidAt := now
	if remote.PaidAt != nil {
		paidAt = remote.PaidAt.UTC()
	}

	err := s.deps.Repo.Transaction(ctx, func(tx *repository.Repository) error {
		ok, err := tx.Payments.Transition(ctx, pay.ID, model.PaymentStatusPending, model.PaymentStatusPaid, repository.PaymentPatch{
			Provider:          strPtr(portone.ProviderName),
			ProviderPaymentID: pay.ProviderPaymentID,
			PaidAt:            &paidAt,
		})
		if err != nil {
			return err
		}
		if !ok {
			current, err := tx.Payments.GetByID(ctx, pay.ID)
			if err != nil {
				return err
			}
			if current.Status == model.PaymentStatusPaid {
				return errAlreadyPaid
			}
			return &notPendingError{status: current.Status}
		}

		if _, err := tx.Reservations.TransitionStatus(ctx, pay.ReservationID,
			[]model.ReservationStatus{model.ReservationStatusPending}, model.ReservationStatusConfirmed); err != nil {
			return err
		}
		return writeAudit(ctx, tx.Notifications, auditEntry{
			Kind:          model.NotificationKindPaymentConfirmed,
			UserID:        payerID(pay),
			ReservationID: pay.ReservationID,
			Title:         "Payment confirmed",
			Message:       fmt.Sprintf("payment %s confirmed for %d KRW", providerID(pay), pay.Amount),
			Details: map[string]any{
				"paymentId":         pay.ID,
				"providerPaymentId": providerID(pay),
				"amount":            pay.Amount,
			},
		})
	})
	if errors.Is(err, errAlreadyPaid) {
		return VerifyResult{OK: true, AlreadyApplied: true, Status: string(model.PaymentStatusPaid), ProviderStatus: remote.Status}, nil
	}
	var np *notPendingError
	if errors.As(err, &np) {
		return s.applyLatePaid(ctx, pay, remote, np.status)
	}
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return VerifyResult{}, err
		}
		return VerifyResult{}, fmt.Errorf("apply paid: %w", err)
	}

	s.deps.Logger.Info("payment confirmed",
		zap.String("payment_id", pay.ID.String()),
		zap.String("reservation_id", pay.ReservationID.String()),
	)
	pay.Status = model.PaymentStatusPaid
	s.deps.publish(ctx, events.KeyPaymentPaid, paymentEvent(pay, now))
	s.deps.publish(ctx, events.KeyReservationConfirmed, events.ReservationEvent{
		ReservationID: pay.ReservationID,
		Status:        string(model.ReservationStatusConfirmed),
		TotalAmount:   pay.Amount,
		At:            now,
	})
	return VerifyResult{OK: true, Status: string(model.PaymentStatusPaid), ProviderStatus: remote.Status}, nil
}

// applyLatePaid фиксирует в журнале деньги, списанные по уже закрытому платежу.
// Статусы не меняются: возврат делает админ. Повторный вебхук не плодит записи.
func (s *PaymentService) applyLatePaid(
	ctx context.Context,
	pay *model.Payment,
	remote *portone.Payment,
	local model.PaymentStatus,
) (VerifyResult, error) {
	result := VerifyResult{OK: false, Reason: ReasonPaymentNotPending, Status: string(local), ProviderStatus: remote.Status}

	logs, err := s.deps.Repo.Notifications.ListByReservation(ctx, pay.ReservationID)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("load audit: %w", err)
	}
	for _, l := range logs {
		if l.Kind == model.NotificationKindLatePayment {
			return result, nil
		}
	}

	err = writeAudit(ctx, s.deps.Repo.Notifications, auditEntry{
		Kind:          model.NotificationKindLatePayment,
		Status:        model.NotificationStatusFailed,
		UserID:        payerID(pay),
		ReservationID: pay.ReservationID,
		Title:         "Payment captured after close",
		Message:       fmt.Sprintf("provider reported %d KRW paid for %s payment %s", remote.Amount.Total, local, providerID(pay)),
		Error:         ReasonPaymentNotPending,
		Details: map[string]any{
			"paymentId":         pay.ID,
			"providerPaymentId": providerID(pay),
			"providerAmount":    remote.Amount.Total,
			"providerStatus":    remote.Status,
			"localStatus":       local,
		},
	})
	if err != nil {
		return VerifyResult{}, fmt.Errorf("write late payment audit: %w", err)
	}

	s.deps.Logger.Error("payment captured for closed payment",
		zap.String("payment_id", pay.ID.String()),
		zap.String("reservation_id", pay.ReservationID.String()),
		zap.String("local_status", string(local)),
		zap.Int64("amount", remote.Amount.Total),
	)
	return result, nil
}

func (s *PaymentService) applyCancelled(ctx context.Context, pay *model.Payment, remote *portone.Payment) (VerifyResult, error) {
	if pay.Status != model.PaymentStatusPending {
		return VerifyResult{OK: true, Reason: ReasonPaymentNotPending, Status: string(pay.Status), ProviderStatus: remote.Status}, nil
	}

	now := s.deps.Now()
	var changed bool
	err := s.deps.Repo.Transaction(ctx, func(tx *repository.Repository) error {
		ok, err := tx.Payments.Transition(ctx, pay.ID, model.PaymentStatusPending, model.PaymentStatusCancelled, repository.PaymentPatch{})
		if err != nil || !ok {
			return err
		}
		changed = true
		if _, err := tx.Reservations.TransitionStatus(ctx, pay.ReservationID,
			[]model.ReservationStatus{model.ReservationStatusPending}, model.ReservationStatusCancelled); err != nil {
			return err
		}
		return writeAudit(ctx, tx.Notifications, auditEntry{
			Kind:          model.NotificationKindPaymentCancelled,
			UserID:        payerID(pay),
			ReservationID: pay.ReservationID,
			Title:         "Payment cancelled",
			Message:       fmt.Sprintf("payment %s cancelled by provider", providerID(pay)),
			Details:       map[string]any{"paymentId": pay.ID, "providerPaymentId": providerID(pay)},
		})
	})
	if err != nil {
		return VerifyResult{}, fmt.Errorf("apply cancelled: %w", err)
	}
	if !changed {
		current, err := s.deps.Repo.Payments.GetByID(ctx, pay.ID)
		if err != nil {
			return VerifyResult{}, fmt.Errorf("reload payment: %w", err)
		}
		return VerifyResult{OK: true, Reason: ReasonPaymentNotPending, Status: string(current.Status), ProviderStatus: remote.Status}, nil
	}

	pay.Status = model.PaymentStatusCancelled
	s.deps.publish(ctx, events.KeyPaymentCancelled, paymentEvent(pay, now))
	return VerifyResult{OK: true, Status: string(model.PaymentStatusCancelled), ProviderStatus: remote.Status}, nil
}

// paymentNow: момент для полей *_at платежа.
func paymentNow(c Clock) *time.Time {
	t := c().UTC()
	return &t
}

func payerID(p *model.Payment) uuid.UUID {
	if p.Reservation == nil {
		return uuid.Nil
	}
	return p.Reservation.UserID
}

func providerID(p *model.Payment) string {
	if p.ProviderPaymentID == nil {
		return ""
	}
	return *p.ProviderPaymentID
}
