package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Leganyst/reservation-engine/internal/apperr"
	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/repository"
)

type ScheduleStatus string

const (
	ScheduleOpen       ScheduleStatus = "OPEN"
	ScheduleClosed     ScheduleStatus = "CLOSED"
	ScheduleNoSchedule ScheduleStatus = "NO_SCHEDULE"
)

type ScheduleSource string

const (
	ScheduleSourceException ScheduleSource = "EXCEPTION"
	ScheduleSourceWeekly    ScheduleSource = "WEEKLY"
)

// ResolvedSchedule — рабочие часы ресурса на конкретную дату.
// Open/Close заполнены только для OPEN.
type ResolvedSchedule struct {
	Status ScheduleStatus `json:"status"`
	Source ScheduleSource `json:"source,omitempty"`
	Open   calendar.Clock `json:"-"`
	Close  calendar.Clock `json:"-"`
}

type ScheduleService struct {
	deps Deps
}

func NewScheduleService(deps Deps) *ScheduleService {
	return &ScheduleService{deps: deps.withDefaults()}
}

// Resolve определяет часы работы на дату.
// Порядок: исключение на дату (последнее созданное), затем недельный шаблон дня недели.
func (s *ScheduleService) Resolve(ctx context.Context, resourceID uuid.UUID, date calendar.Date) (ResolvedSchedule, error) {
	return resolveSchedule(ctx, s.deps.Repo.Schedules, resourceID, date)
}

func resolveSchedule(
	ctx context.Context,
	repo repository.ScheduleRepository,
	resourceID uuid.UUID,
	date calendar.Date,
) (ResolvedSchedule, error) {
	exc, err := repo.LatestException(ctx, resourceID, date)
	if err != nil {
		return ResolvedSchedule{}, fmt.Errorf("load schedule exception: %w", err)
	}
	if exc != nil {
		if exc.IsClosed {
			return ResolvedSchedule{Status: ScheduleClosed, Source: ScheduleSourceException}, nil
		}
		if exc.OpenTime != nil && exc.CloseTime != nil {
			return ResolvedSchedule{
				Status: ScheduleOpen,
				Source: ScheduleSourceException,
				Open:   clockOf(*exc.OpenTime),
				Close:  clockOf(*exc.CloseTime),
			}, nil
		}
		// исключение без часов и не выходной: действует недельный шаблон
	}

	weekly, err := repo.LatestWeekly(ctx, resourceID, date.Weekday())
	if err != nil {
		return ResolvedSchedule{}, fmt.Errorf("load weekly schedule: %w", err)
	}
	if weekly == nil {
		return ResolvedSchedule{Status: ScheduleNoSchedule}, nil
	}
	return ResolvedSchedule{
		Status: ScheduleOpen,
		Source: ScheduleSourceWeekly,
		Open:   clockOf(weekly.OpenTime),
		Close:  clockOf(weekly.CloseTime),
	}, nil
}

func clockOf(t datatypes.Time) calendar.Clock {
	return calendar.ClockFromDuration(time.Duration(t))
}

func timeOf(c calendar.Clock) datatypes.Time {
	return datatypes.Time(c.Duration())
}

type WeeklyInput struct {
	ResourceID uuid.UUID
	DayOfWeek  int
	Open       calendar.Clock
	Close      calendar.Clock
}

// CreateWeekly добавляет недельный шаблон. Старые записи не трогаются: действует последняя.
func (s *ScheduleService) CreateWeekly(ctx context.Context, in WeeklyInput) (*model.WeeklySchedule, error) {
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return nil, invalid("dayOfWeek must be 0..6")
	}
	if in.Open >= in.Close {
		return nil, invalid("openTime must be before closeTime")
	}
	if err := s.requireResource(ctx, in.ResourceID); err != nil {
		return nil, err
	}

	ws := &model.WeeklySchedule{
		ResourceID: in.ResourceID,
		DayOfWeek:  in.DayOfWeek,
		OpenTime:   timeOf(in.Open),
		CloseTime:  timeOf(in.Close),
	}
	if err := s.deps.Repo.Schedules.CreateWeekly(ctx, ws); err != nil {
		return nil, fmt.Errorf("create weekly schedule: %w", err)
	}
	return ws, nil
}

type ExceptionInput struct {
	ResourceID uuid.UUID
	Date       calendar.Date
	IsClosed   bool
	Open       *calendar.Clock
	Close      *calendar.Clock
}

// CreateException записывает исключение на дату. Если на эту дату уже есть запись,
// перезаписывается последняя из них и deduped = true.
func (s *ScheduleService) CreateException(ctx context.Context, in ExceptionInput) (*model.ScheduleException, bool, error) {
	if in.Date.IsZero() {
		return nil, false, invalid("date is required")
	}
	if (in.Open == nil) != (in.Close == nil) {
		return nil, false, invalid("openTime and closeTime must be given together")
	}
	if in.Open != nil && *in.Open >= *in.Close {
		return nil, false, invalid("openTime must be before closeTime")
	}
	if err := s.requireResource(ctx, in.ResourceID); err != nil {
		return nil, false, err
	}

	exc := &model.ScheduleException{
		ResourceID: in.ResourceID,
		Date:       repository.DateValue(in.Date),
		IsClosed:   in.IsClosed,
	}
	if in.Open != nil && !in.IsClosed {
		open, closeAt := timeOf(*in.Open), timeOf(*in.Close)
		exc.OpenTime = &open
		exc.CloseTime = &closeAt
	}

	var deduped bool
	err := s.deps.Repo.Transaction(ctx, func(tx *repository.Repository) error {
		existing, err := tx.Schedules.LatestException(ctx, in.ResourceID, in.Date)
		if err != nil {
			return err
		}
		if existing == nil {
			return tx.Schedules.CreateException(ctx, exc)
		}
		deduped = true
		exc.ID = existing.ID
		exc.CreatedAt = existing.CreatedAt
		return tx.Schedules.UpdateException(ctx, exc)
	})
	if err != nil {
		return nil, false, fmt.Errorf("save schedule exception: %w", err)
	}
	return exc, deduped, nil
}

type ScheduleListInput struct {
	ResourceID *uuid.UUID
	// weekly | exception | пусто — оба
	Type string
	From *calendar.Date
	To   *calendar.Date
}

type ScheduleList struct {
	Weekly     []model.WeeklySchedule
	Exceptions []model.ScheduleException
}

func (s *ScheduleService) List(ctx context.Context, in ScheduleListInput) (ScheduleList, error) {
	var out ScheduleList
	f := repository.ScheduleFilter{ResourceID: in.ResourceID, From: in.From, To: in.To}

	switch in.Type {
	case "", "weekly", "exception":
	default:
		return out, invalid("type must be weekly or exception")
	}

	if in.Type != "exception" {
		list, err := s.deps.Repo.Schedules.ListWeekly(ctx, f)
		if err != nil {
			return out, fmt.Errorf("list weekly schedules: %w", err)
		}
		out.Weekly = list
	}
	if in.Type != "weekly" {
		list, err := s.deps.Repo.Schedules.ListExceptions(ctx, f)
		if err != nil {
			return out, fmt.Errorf("list schedule exceptions: %w", err)
		}
		out.Exceptions = list
	}
	return out, nil
}

func (s *ScheduleService) DeleteWeekly(ctx context.Context, id uuid.UUID) error {
	ok, err := s.deps.Repo.Schedules.DeleteWeekly(ctx, id)
	if err != nil {
		return fmt.Errorf("delete weekly schedule: %w", err)
	}
	if !ok {
		return apperr.NotFound(CodeScheduleNotFound, "schedule not found")
	}
	return nil
}

func (s *ScheduleService) DeleteException(ctx context.Context, id uuid.UUID) error {
	n, err := s.deps.Repo.Schedules.DeleteExceptions(ctx, []uuid.UUID{id})
	if err != nil {
		return fmt.Errorf("delete schedule exception: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(CodeScheduleNotFound, "schedule exception not found")
	}
	return nil
}

type CleanupMode string

const (
	CleanupKeepLatest CleanupMode = "keepLatest"
	CleanupDeleteAll  CleanupMode = "deleteAll"
)

type CleanupInput struct {
	ResourceID *uuid.UUID
	From       *calendar.Date
	To         *calendar.Date
	Mode       CleanupMode
}

type CleanupResult struct {
	// число групп (ресурс, дата), где записей больше одной
	DuplicatesFound int         `json:"duplicatesFound"`
	Deleted         int64       `json:"deleted"`
	DeletedIDs      []uuid.UUID `json:"deletedIds"`
}

// CleanupExceptions убирает дубли исключений по (ресурс, дата).
// keepLatest оставляет последнюю созданную запись группы, deleteAll удаляет всю группу.
// Одиночные записи не трогаются.
func (s *ScheduleService) CleanupExceptions(ctx context.Context, in CleanupInput) (CleanupResult, error) {
	var res CleanupResult
	if in.Mode == "" {
		in.Mode = CleanupKeepLatest
	}
	if in.Mode != CleanupKeepLatest && in.Mode != CleanupDeleteAll {
		return res, invalid("mode must be keepLatest or deleteAll")
	}

	type groupKey struct {
		resourceID uuid.UUID
		date       calendar.Date
	}

	err := s.deps.Repo.Transaction(ctx, func(tx *repository.Repository) error {
		list, err := tx.Schedules.ListExceptions(ctx, repository.ScheduleFilter{
			ResourceID: in.ResourceID,
			From:       in.From,
			To:         in.To,
		})
		if err != nil {
			return err
		}

		groups := make(map[groupKey][]model.ScheduleException)
		var order []groupKey
		for _, e := range list {
			k := groupKey{e.ResourceID, calendar.DateOf(time.Time(e.Date), time.UTC)}
			if _, ok := groups[k]; !ok {
				order = append(order, k)
			}
			groups[k] = append(groups[k], e)
		}

		var ids []uuid.UUID
		for _, k := range order {
			g := groups[k]
			if len(g) < 2 {
				continue
			}
			res.DuplicatesFound++
			// внутри даты список уже отсортирован created_at DESC
			start := 1
			if in.Mode == CleanupDeleteAll {
				start = 0
			}
			for _, e := range g[start:] {
				ids = append(ids, e.ID)
			}
		}

		n, err := tx.Schedules.DeleteExceptions(ctx, ids)
		if err != nil {
			return err
		}
		res.Deleted = n
		res.DeletedIDs = ids
		return nil
	})
	if err != nil {
		return CleanupResult{}, fmt.Errorf("cleanup schedule exceptions: %w", err)
	}

	s.deps.Logger.Info("schedule exceptions cleaned",
		zap.Int("duplicates", res.DuplicatesFound),
		zap.Int64("deleted", res.Deleted),
		zap.String("mode", string(in.Mode)),
	)
	return res, nil
}

func (s *ScheduleService) requireResource(ctx context.Context, id uuid.UUID) error {
	_, err := loadBookableResource(ctx, s.deps.Repo.Resources, id)
	return err
}

// loadBookableResource возвращает активный ресурс; удалённый считается отсутствующим.
func loadBookableResource(ctx context.Context, repo repository.ResourceRepository, id uuid.UUID) (*model.Resource, error) {
	res, err := repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrResourceNotFound.WithDetail("resourceId", id)
		}
		return nil, fmt.Errorf("load resource: %w", err)
	}
	if !res.IsBookable() {
		return nil, ErrResourceNotFound.WithDetail("resourceId", id)
	}
	return res, nil
}
