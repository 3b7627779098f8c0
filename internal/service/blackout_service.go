package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/apperr"
	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/repository"
)

type BlackoutInput struct {
	// nil — на все активные ресурсы
	ResourceID *uuid.UUID
	StartAt    time.Time
	EndAt      time.Time
	Kind       model.BlackoutKind
	Reason     string
}

type BlackoutService struct {
	deps Deps
}

func NewBlackoutService(deps Deps) *BlackoutService {
	return &BlackoutService{deps: deps.withDefaults()}
}

// Create добавляет блокировку на ресурс или, без ресурса, на каждый активный ресурс.
func (s *BlackoutService) Create(ctx context.Context, in BlackoutInput) ([]model.Blackout, error) {
	tr, err := calendar.NewTimeRange(in.StartAt, in.EndAt)
	if err != nil {
		return nil, invalid("startAt must be before endAt")
	}
	if in.Kind == "" {
		in.Kind = model.BlackoutKindBlock
	}
	if in.Kind != model.BlackoutKindBlock && in.Kind != model.BlackoutKindAllow {
		return nil, invalid("type must be BLOCK or ALLOW")
	}

	var ids []uuid.UUID
	if in.ResourceID != nil {
		if _, err := loadBookableResource(ctx, s.deps.Repo.Resources, *in.ResourceID); err != nil {
			return nil, err
		}
		ids = []uuid.UUID{*in.ResourceID}
	} else {
		ids, err = s.deps.Repo.Resources.ListActiveIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list active resources: %w", err)
		}
	}

	tr = tr.UTC()
	list := make([]model.Blackout, 0, len(ids))
	for _, id := range ids {
		list = append(list, model.Blackout{
			ResourceID: id,
			StartAt:    tr.Start,
			EndAt:      tr.End,
			Kind:       in.Kind,
			Reason:     in.Reason,
		})
	}
	if err := s.deps.Repo.Blackouts.CreateBatch(ctx, list); err != nil {
		return nil, fmt.Errorf("create blackouts: %w", err)
	}
	return list, nil
}

type BlackoutListInput struct {
	ResourceID *uuid.UUID
	From       *calendar.Date
	To         *calendar.Date
}

// List возвращает блокировки; From/To — гражданские даты, To включительно.
func (s *BlackoutService) List(ctx context.Context, in BlackoutListInput) ([]model.Blackout, error) {
	f := repository.BlackoutFilter{ResourceID: in.ResourceID}
	if in.From != nil || in.To != nil {
		tr := calendar.TimeRange{
			Start: time.Unix(0, 0).UTC(),
			End:   time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		if in.From != nil {
			tr.Start = in.From.StartOf(s.deps.Location)
		}
		if in.To != nil {
			tr.End = in.To.AddDays(1).StartOf(s.deps.Location)
		}
		f.Range = &tr
	}

	list, err := s.deps.Repo.Blackouts.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list blackouts: %w", err)
	}
	return list, nil
}

func (s *BlackoutService) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.deps.Repo.Blackouts.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete blackout: %w", err)
	}
	if !ok {
		return apperr.NotFound(CodeBlackoutNotFound, "blackout not found")
	}
	return nil
}
