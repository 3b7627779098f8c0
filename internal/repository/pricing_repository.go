package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reservation-engine/internal/model"
)

type PricingRepository interface {
	// Создать правило.
	Create(ctx context.Context, rule *model.PricingRule) error
	// Активные правила ресурса, свежие первыми.
	ListActiveByResource(ctx context.Context, resourceID uuid.UUID) ([]model.PricingRule, error)
	// Все правила ресурса (для админки).
	ListByResource(ctx context.Context, resourceID uuid.UUID, includeInactive bool) ([]model.PricingRule, error)
	// Включить/выключить правило.
	SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error)
	// Удалить правило.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type GormPricingRepository struct {
	db *gorm.DB
}

func NewGormPricingRepository(db *gorm.DB) *GormPricingRepository {
	return &GormPricingRepository{db: db}
}

func (r *GormPricingRepository) Create(ctx context.Context, rule *model.PricingRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *GormPricingRepository) ListActiveByResource(ctx context.Context, resourceID uuid.UUID) ([]model.PricingRule, error) {
	return r.ListByResource(ctx, resourceID, false)
}

func (r *GormPricingRepository) ListByResource(ctx context.Context, resourceID uuid.UUID, includeInactive bool) ([]model.PricingRule, error) {
	q := r.db.WithContext(ctx).Where("resource_id = ?", resourceID)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	var rules []model.PricingRule
	if err := q.Order("created_at DESC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *GormPricingRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.PricingRule{}).
		Where("id = ?", id).
		Update("is_active", active)
	return res.RowsAffected > 0, res.Error
}

func (r *GormPricingRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.PricingRule{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}
