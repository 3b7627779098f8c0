package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/model"
)

// ReservationFilter — типизированный фильтр списка бронирований.
// Нулевые поля не ограничивают выборку.
type ReservationFilter struct {
	UserID        *uuid.UUID
	Status        *model.ReservationStatus
	PaymentStatus *model.PaymentStatus
	// Ресурс хотя бы одной позиции.
	ResourceID *uuid.UUID
	// Начало хотя бы одной позиции в [From, To).
	From *time.Time
	To   *time.Time
	// Подстрока email / имени / телефона пользователя.
	Query string

	Limit  int
	Offset int
}

type ReservationRepository interface {
	// Записать бронирование, позиции и платёж. Вызывается внутри транзакции.
	Create(ctx context.Context, r *model.Reservation, items []model.ReservationItem, p *model.Payment) error
	// Получить бронирование с позициями и платежом.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error)
	// Неотменённые позиции ресурса, пересекающие интервал.
	ListActiveItemsOverlapping(ctx context.Context, resourceID uuid.UUID, tr calendar.TimeRange) ([]model.ReservationItem, error)
	// Позиции ресурса в заданных статусах, пересекающие интервал.
	ListItemsOverlapping(ctx context.Context, resourceID uuid.UUID, tr calendar.TimeRange, statuses []model.ReservationStatus) ([]model.ReservationItem, error)
	// Сменить статус бронирования и всех его позиций, если текущий статус входит в from.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []model.ReservationStatus, to model.ReservationStatus) (bool, error)
	// Список по фильтру с общим количеством.
	List(ctx context.Context, f ReservationFilter) ([]model.Reservation, int64, error)
	// PENDING-бронирования старше cutoff с платежом в PENDING.
	ListExpiredPending(ctx context.Context, cutoff time.Time) ([]model.Reservation, error)
}

type GormReservationRepository struct {
	db *gorm.DB
}

func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

func (r *GormReservationRepository) Create(
	ctx context.Context,
	res *model.Reservation,
	items []model.ReservationItem,
	p *model.Payment,
) error {
	db := r.db.WithContext(ctx)

	if err := db.Omit(clause.Associations).Create(res).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].ReservationID = res.ID
	}
	if err := db.Omit(clause.Associations).Create(&items).Error; err != nil {
		return err
	}
	p.ReservationID = res.ID
	if err := db.Omit(clause.Associations).Create(p).Error; err != nil {
		return err
	}

	res.Items = items
	res.Payment = p
	return nil
}

func (r *GormReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("start_at ASC") }).
		Preload("Payment").
		First(&res, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *GormReservationRepository) ListActiveItemsOverlapping(
	ctx context.Context,
	resourceID uuid.UUID,
	tr calendar.TimeRange,
) ([]model.ReservationItem, error) {
	var items []model.ReservationItem
	err := r.db.WithContext(ctx).
		Where("resource_id = ? AND status <> ?", resourceID, model.ReservationStatusCancelled).
		Where("start_at < ? AND end_at > ?", tr.End.UTC(), tr.Start.UTC()).
		Order("start_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormReservationRepository) ListItemsOverlapping(
	ctx context.Context,
	resourceID uuid.UUID,
	tr calendar.TimeRange,
	statuses []model.ReservationStatus,
) ([]model.ReservationItem, error) {
	var items []model.ReservationItem
	err := r.db.WithContext(ctx).
		Where("resource_id = ? AND status IN ?", resourceID, statuses).
		Where("start_at < ? AND end_at > ?", tr.End.UTC(), tr.Start.UTC()).
		Order("start_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormReservationRepository) TransitionStatus(
	ctx context.Context,
	id uuid.UUID,
	from []model.ReservationStatus,
	to model.ReservationStatus,
) (bool, error) {
	db := r.db.WithContext(ctx)

	res := db.Model(&model.Reservation{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := db.Model(&model.ReservationItem{}).
		Where("reservation_id = ?", id).
		Update("status", to).Error
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *GormReservationRepository) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, int64, error) {
	var (
		list  []model.Reservation
		total int64
	)

	q := r.db.WithContext(ctx).Model(&model.Reservation{})

	if f.UserID != nil {
		q = q.Where("reservations.user_id = ?", *f.UserID)
	}
	if f.Status != nil {
		q = q.Where("reservations.status = ?", *f.Status)
	}
	if f.PaymentStatus != nil {
		q = q.Where(
			"EXISTS (SELECT 1 FROM payments p WHERE p.reservation_id = reservations.id AND p.status = ?)",
			*f.PaymentStatus,
		)
	}
	if f.ResourceID != nil || f.From != nil || f.To != nil {
		sub := r.db.Model(&model.ReservationItem{}).
			Select("1").
			Where("reservation_items.reservation_id = reservations.id")
		if f.ResourceID != nil {
			sub = sub.Where("reservation_items.resource_id = ?", *f.ResourceID)
		}
		if f.From != nil {
			sub = sub.Where("reservation_items.start_at >= ?", f.From.UTC())
		}
		if f.To != nil {
			sub = sub.Where("reservation_items.start_at < ?", f.To.UTC())
		}
		q = q.Where("EXISTS (?)", sub)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Query)); s != "" {
		like := "%" + s + "%"
		q = q.Where(
			"EXISTS (SELECT 1 FROM users u WHERE u.id = reservations.user_id AND "+
				"(LOWER(u.email) LIKE ? OR LOWER(u.name) LIKE ? OR u.phone LIKE ?))",
			like, like, like,
		)
	}

	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	err := q.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("start_at ASC") }).
		Preload("Payment").
		Order("reservations.created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

func (r *GormReservationRepository) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]model.Reservation, error) {
	var list []model.Reservation
	err := r.db.WithContext(ctx).
		Preload("Payment").
		Where("status = ? AND created_at < ?", model.ReservationStatusPending, cutoff.UTC()).
		Where(
			"EXISTS (SELECT 1 FROM payments p WHERE p.reservation_id = reservations.id AND p.status = ?)",
			model.PaymentStatusPending,
		).
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
