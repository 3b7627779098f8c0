package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/reservation-engine/internal/model"
)

type ResourceRepository interface {
	// Создать ресурс.
	Create(ctx context.Context, res *model.Resource) error
	// Получить ресурс по ID (включая удалённые).
	GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error)
	// ID всех активных ресурсов.
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
	// Заблокировать строки ресурсов до конца транзакции (SELECT ... FOR UPDATE).
	LockByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Resource, error)
}

type GormResourceRepository struct {
	db *gorm.DB
}

func NewGormResourceRepository(db *gorm.DB) *GormResourceRepository {
	return &GormResourceRepository{db: db}
}

func (r *GormResourceRepository) Create(ctx context.Context, res *model.Resource) error {
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *GormResourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Resource, error) {
	var res model.Resource
	if err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormResourceRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.Resource{}).
		Where("status = ?", model.ResourceStatusActive).
		Order("id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// LockByIDs берёт блокировки в порядке id, чтобы две транзакции с пересекающимися
// наборами ресурсов не ловили взаимную блокировку.
func (r *GormResourceRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Resource, error) {
	var list []model.Resource
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
