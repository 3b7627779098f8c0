package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reservation-engine/internal/model"
)

// PaymentPatch — поля, которые меняются вместе со статусом. nil — не трогать.
type PaymentPatch struct {
	Provider          *string
	ProviderPaymentID *string
	PaidAt            *time.Time
	RefundedAmount    *int64
	RefundReason      *string
	RefundedAt        *time.Time
}

func (p PaymentPatch) columns() map[string]any {
	m := map[string]any{}
	if p.Provider != nil {
		m["provider"] = *p.Provider
	}
	if p.ProviderPaymentID != nil {
		m["provider_payment_id"] = *p.ProviderPaymentID
	}
	if p.PaidAt != nil {
		m["paid_at"] = p.PaidAt.UTC()
	}
	if p.RefundedAmount != nil {
		m["refunded_amount"] = *p.RefundedAmount
	}
	if p.RefundReason != nil {
		m["refund_reason"] = *p.RefundReason
	}
	if p.RefundedAt != nil {
		m["refunded_at"] = p.RefundedAt.UTC()
	}
	return m
}

type PaymentRepository interface {
	// Получить платёж по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	// Получить платёж по идентификатору платежа у провайдера.
	GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*model.Payment, error)
	// Перевести статус from -> to (compare-and-set). false — статус уже другой.
	Transition(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, patch PaymentPatch) (bool, error)
	// Привязать провайдера и его payment id, если они ещё не заданы.
	AssignProvider(ctx context.Context, id uuid.UUID, provider, providerPaymentID string) (bool, error)
}

type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).
		Preload("Reservation").
		Where("provider_payment_id = ?", providerPaymentID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPaymentRepository) Transition(
	ctx context.Context,
	id uuid.UUID,
	from, to model.PaymentStatus,
	patch PaymentPatch,
) (bool, error) {
	if !model.CanTransition(from, to) {
		return false, fmt.Errorf("payment transition %s -> %s is not allowed", from, to)
	}

	update := patch.columns()
	update["status"] = to

	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(update)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormPaymentRepository) AssignProvider(ctx context.Context, id uuid.UUID, provider, providerPaymentID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND provider_payment_id IS NULL", id).
		Updates(map[string]any{
			"provider":            provider,
			"provider_payment_id": providerPaymentID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
