package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/model"
)

// BlackoutFilter — фильтр выборки блокировок.
type BlackoutFilter struct {
	ResourceID *uuid.UUID
	Kind       *model.BlackoutKind
	// Только блокировки, пересекающие диапазон.
	Range *calendar.TimeRange
}

type BlackoutRepository interface {
	// Создать блокировки пачкой.
	CreateBatch(ctx context.Context, list []model.Blackout) error
	// Блокировки по фильтру, по возрастанию начала.
	List(ctx context.Context, f BlackoutFilter) ([]model.Blackout, error)
	// Удалить блокировку.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type GormBlackoutRepository struct {
	db *gorm.DB
}

func NewGormBlackoutRepository(db *gorm.DB) *GormBlackoutRepository {
	return &GormBlackoutRepository{db: db}
}

func (r *GormBlackoutRepository) CreateBatch(ctx context.Context, list []model.Blackout) error {
	if len(list) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&list).Error
}

func (r *GormBlackoutRepository) List(ctx context.Context, f BlackoutFilter) ([]model.Blackout, error) {
	q := r.db.WithContext(ctx).Model(&model.Blackout{})
	if f.ResourceID != nil {
		q = q.Where("resource_id = ?", *f.ResourceID)
	}
	if f.Kind != nil {
		q = q.Where("kind = ?", *f.Kind)
	}
	if f.Range != nil {
		q = q.Where("start_at < ? AND end_at > ?", f.Range.End.UTC(), f.Range.Start.UTC())
	}

	var list []model.Blackout
	if err := q.Order("start_at ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GormBlackoutRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.Blackout{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}
