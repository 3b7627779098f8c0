package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/model"
)

// ScheduleFilter — фильтр выборки расписаний. Нулевые поля не ограничивают выборку.
type ScheduleFilter struct {
	ResourceID *uuid.UUID
	DayOfWeek  *int
	// Диапазон дат исключений, обе границы включительно.
	From *calendar.Date
	To   *calendar.Date
}

type ScheduleRepository interface {
	// Создать недельный шаблон.
	CreateWeekly(ctx context.Context, s *model.WeeklySchedule) error
	// Создать исключение на дату.
	CreateException(ctx context.Context, e *model.ScheduleException) error
	// Перезаписать часы/закрытие существующего исключения.
	UpdateException(ctx context.Context, e *model.ScheduleException) error
	// Последний созданный недельный шаблон для дня недели; nil, если нет.
	LatestWeekly(ctx context.Context, resourceID uuid.UUID, dow time.Weekday) (*model.WeeklySchedule, error)
	// Последнее созданное исключение на дату; nil, если нет.
	LatestException(ctx context.Context, resourceID uuid.UUID, date calendar.Date) (*model.ScheduleException, error)
	// Недельные шаблоны по фильтру.
	ListWeekly(ctx context.Context, f ScheduleFilter) ([]model.WeeklySchedule, error)
	// Исключения по фильтру, свежие первыми.
	ListExceptions(ctx context.Context, f ScheduleFilter) ([]model.ScheduleException, error)
	// Удалить недельный шаблон.
	DeleteWeekly(ctx context.Context, id uuid.UUID) (bool, error)
	// Удалить исключения по списку ID.
	DeleteExceptions(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type GormScheduleRepository struct {
	db *gorm.DB
}

func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

// DateValue — значение колонки date для гражданской даты.
func DateValue(d calendar.Date) datatypes.Date {
	return datatypes.Date(d.UTCMidnight())
}

func (r *GormScheduleRepository) CreateWeekly(ctx context.Context, s *model.WeeklySchedule) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *GormScheduleRepository) CreateException(ctx context.Context, e *model.ScheduleException) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *GormScheduleRepository) UpdateException(ctx context.Context, e *model.ScheduleException) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleException{}).
		Where("id = ?", e.ID).
		Updates(map[string]any{
			"is_closed":  e.IsClosed,
			"open_time":  e.OpenTime,
			"close_time": e.CloseTime,
		}).Error
}

func (r *GormScheduleRepository) LatestWeekly(ctx context.Context, resourceID uuid.UUID, dow time.Weekday) (*model.WeeklySchedule, error) {
	var list []model.WeeklySchedule
	err := r.db.WithContext(ctx).
		Where("resource_id = ? AND day_of_week = ?", resourceID, int(dow)).
		Order("created_at DESC").
		Limit(1).
		Find(&list).Error
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (r *GormScheduleRepository) LatestException(ctx context.Context, resourceID uuid.UUID, date calendar.Date) (*model.ScheduleException, error) {
	var list []model.ScheduleException
	err := r.db.WithContext(ctx).
		Where("resource_id = ? AND date = ?", resourceID, DateValue(date)).
		Order("created_at DESC").
		Limit(1).
		Find(&list).Error
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (r *GormScheduleRepository) ListWeekly(ctx context.Context, f ScheduleFilter) ([]model.WeeklySchedule, error) {
	q := r.db.WithContext(ctx).Model(&model.WeeklySchedule{})
	if f.ResourceID != nil {
		q = q.Where("resource_id = ?", *f.ResourceID)
	}
	if f.DayOfWeek != nil {
		q = q.Where("day_of_week = ?", *f.DayOfWeek)
	}

	var list []model.WeeklySchedule
	if err := q.Order("resource_id, day_of_week, created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GormScheduleRepository) ListExceptions(ctx context.Context, f ScheduleFilter) ([]model.ScheduleException, error) {
	q := r.db.WithContext(ctx).Model(&model.ScheduleException{})
	if f.ResourceID != nil {
		q = q.Where("resource_id = ?", *f.ResourceID)
	}
	if f.From != nil {
		q = q.Where("date >= ?", DateValue(*f.From))
	}
	if f.To != nil {
		q = q.Where("date <= ?", DateValue(*f.To))
	}

	var list []model.ScheduleException
	if err := q.Order("date ASC, created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GormScheduleRepository) DeleteWeekly(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.WeeklySchedule{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

func (r *GormScheduleRepository) DeleteExceptions(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Delete(&model.ScheduleException{}, "id IN ?", ids)
	return res.RowsAffected, res.Error
}
