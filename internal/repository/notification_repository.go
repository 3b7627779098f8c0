package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reservation-engine/internal/model"
)

type NotificationRepository interface {
	// Добавить запись аудита.
	Create(ctx context.Context, log *model.NotificationLog) error
	// Последние записи с указанным заголовком.
	ListByTitle(ctx context.Context, title string, limit int) ([]model.NotificationLog, error)
	// Записи по бронированию, старые первыми.
	ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]model.NotificationLog, error)
}

type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) *GormNotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Create(ctx context.Context, log *model.NotificationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *GormNotificationRepository) ListByTitle(ctx context.Context, title string, limit int) ([]model.NotificationLog, error) {
	var list []model.NotificationLog
	q := r.db.WithContext(ctx).Where("title = ?", title).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GormNotificationRepository) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]model.NotificationLog, error) {
	var list []model.NotificationLog
	err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
