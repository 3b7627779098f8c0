package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/repository"
)

// Причины пустой доступности.
const (
	ReasonResourceNotFound      = "RESOURCE_NOT_FOUND"
	ReasonNotTimeUnit           = "NOT_TIME_UNIT"
	ReasonClosedException       = "CLOSED_EXCEPTION"
	ReasonNoSchedule            = "NO_SCHEDULE"
	ReasonInvalidScheduleWindow = "INVALID_SCHEDULE_WINDOW"
)

const (
	DefaultSlotMinutes      = 60
	DefaultMultiSlotMinutes = 30
	MinSlotMinutes          = 15
	MaxSlotMinutes          = 240
	MinDurationMinutes      = 15
	MaxDurationMinutes      = 480
	MinMultiResources       = 2
	MaxMultiResources       = 10
	DefaultLimitBlocks      = 50
	MaxLimitBlocks          = 200
)

// Availability — свободные слоты одного ресурса на дату.
// OK = false означает, что ресурс нельзя бронировать по слотам вообще.
type Availability struct {
	OK         bool                 `json:"ok"`
	Reason     string               `json:"reason,omitempty"`
	ResourceID uuid.UUID            `json:"resourceId"`
	Date       calendar.Date        `json:"date"`
	OpenTime   *calendar.Clock      `json:"-"`
	CloseTime  *calendar.Clock      `json:"-"`
	Slots      []calendar.TimeRange `json:"slots"`
	BusyCount  int                  `json:"busyCount"`
}

type AvailabilityService struct {
	deps Deps
}

func NewAvailabilityService(deps Deps) *AvailabilityService {
	return &AvailabilityService{deps: deps.withDefaults()}
}

// Compute считает свободные слоты ресурса на гражданскую дату.
func (s *AvailabilityService) Compute(ctx context.Context, resourceID uuid.UUID, date calendar.Date, slotMinutes int) (Availability, error) {
	if slotMinutes == 0 {
		slotMinutes = DefaultSlotMinutes
	}
	if err := checkSlotMinutes(slotMinutes); err != nil {
		return Availability{}, err
	}
	if date.IsZero() {
		return Availability{}, invalid("date is required")
	}
	return computeAvailability(ctx, s.deps.Repo, s.deps.Location, resourceID, date, slotMinutes)
}

func computeAvailability(
	ctx context.Context,
	repo *repository.Repository,
	loc *time.Location,
	resourceID uuid.UUID,
	date calendar.Date,
	slotMinutes int,
) (Availability, error) {
	out := Availability{ResourceID: resourceID, Date: date, Slots: []calendar.TimeRange{}}

	res, err := repo.Resources.GetByID(ctx, resourceID)
	if err != nil && !repository.IsNotFound(err) {
		return out, fmt.Errorf("load resource: %w", err)
	}
	if err != nil || !res.IsBookable() {
		out.Reason = ReasonResourceNotFound
		return out, nil
	}
	if res.BookingUnit != model.BookingUnitTimeSlot {
		out.Reason = ReasonNotTimeUnit
		return out, nil
	}

	out.OK = true

	sched, err := resolveSchedule(ctx, repo.Schedules, resourceID, date)
	if err != nil {
		return out, err
	}
	switch sched.Status {
	case ScheduleClosed:
		out.Reason = ReasonClosedException
		return out, nil
	case ScheduleNoSchedule:
		out.Reason = ReasonNoSchedule
		return out, nil
	}

	open, closeAt := sched.Open, sched.Close
	out.OpenTime, out.CloseTime = &open, &closeAt
	if open >= closeAt {
		out.Reason = ReasonInvalidScheduleWindow
		return out, nil
	}

	window := calendar.TimeRange{Start: date.At(open, loc), End: date.At(closeAt, loc)}

	busy, err := busyRanges(ctx, repo, resourceID, window)
	if err != nil {
		return out, err
	}
	out.BusyCount = len(busy)

	free, err := calendar.FreeSlots(window, time.Duration(slotMinutes)*time.Minute, busy)
	if err != nil {
		return out, err
	}
	for i := range free {
		free[i] = free[i].UTC()
	}
	out.Slots = free
	return out, nil
}

// busyRanges — занятые интервалы окна: все блокировки (BLOCK и ALLOW)
// и неотменённые позиции бронирований.
func busyRanges(ctx context.Context, repo *repository.Repository, resourceID uuid.UUID, window calendar.TimeRange) ([]calendar.TimeRange, error) {
	blackouts, err := repo.Blackouts.List(ctx, repository.BlackoutFilter{ResourceID: &resourceID, Range: &window})
	if err != nil {
		return nil, fmt.Errorf("load blackouts: %w", err)
	}
	items, err := repo.Reservations.ListActiveItemsOverlapping(ctx, resourceID, window)
	if err != nil {
		return nil, fmt.Errorf("load reservation items: %w", err)
	}

	busy := make([]calendar.TimeRange, 0, len(blackouts)+len(items))
	for _, b := range blackouts {
		busy = append(busy, calendar.TimeRange{Start: b.StartAt, End: b.EndAt})
	}
	for _, it := range items {
		busy = append(busy, calendar.TimeRange{Start: it.StartAt, End: it.EndAt})
	}
	return busy, nil
}

func checkSlotMinutes(m int) error {
	if m < MinSlotMinutes || m > MaxSlotMinutes {
		return invalid(fmt.Sprintf("slotMinutes must be %d..%d", MinSlotMinutes, MaxSlotMinutes))
	}
	return nil
}

type MultiQuery struct {
	ResourceIDs     []uuid.UUID
	Date            calendar.Date
	SlotMinutes     int
	DurationMinutes int // 0 — без сборки блоков

	IncludePerResource bool
	OnlyBlockStartAt   bool
	LimitBlocks        int
}

// MultiAvailability — общие свободные слоты нескольких ресурсов
// и, если задана длительность, непрерывные блоки из них.
type MultiAvailability struct {
	OK              bool                 `json:"ok"`
	Reason          string               `json:"reason,omitempty"`
	FailedResource  *uuid.UUID           `json:"failedResourceId,omitempty"`
	Date            calendar.Date        `json:"date"`
	SlotMinutes     int                  `json:"slotMinutes"`
	DurationMinutes int                  `json:"durationMinutes,omitempty"`
	CommonSlots     []calendar.TimeRange `json:"commonSlots"`
	Blocks          []calendar.Block     `json:"blocks,omitempty"`
	TotalBlocks     int                  `json:"totalBlocks"`
	PerResource     []Availability       `json:"perResource,omitempty"`
}

// ComputeMulti считает доступность ресурсов параллельно и пересекает слоты.
func (s *AvailabilityService) ComputeMulti(ctx context.Context, q MultiQuery) (MultiAvailability, error) {
	q, err := normalizeMultiQuery(q)
	if err != nil {
		return MultiAvailability{}, err
	}

	per := make([]Availability, len(q.ResourceIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range q.ResourceIDs {
		g.Go(func() error {
			a, err := computeAvailability(gctx, s.deps.Repo, s.deps.Location, id, q.Date, q.SlotMinutes)
			if err != nil {
				return err
			}
			per[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MultiAvailability{}, err
	}

	return combineAvailability(q, per), nil
}

func normalizeMultiQuery(q MultiQuery) (MultiQuery, error) {
	n := len(q.ResourceIDs)
	if n < MinMultiResources || n > MaxMultiResources {
		return q, invalid(fmt.Sprintf("resourceIds must contain %d..%d ids", MinMultiResources, MaxMultiResources))
	}
	seen := make(map[uuid.UUID]struct{}, n)
	for _, id := range q.ResourceIDs {
		if _, dup := seen[id]; dup {
			return q, invalid("resourceIds must be distinct")
		}
		seen[id] = struct{}{}
	}
	if q.Date.IsZero() {
		return q, invalid("date is required")
	}

	if q.SlotMinutes == 0 {
		q.SlotMinutes = DefaultMultiSlotMinutes
	}
	if err := checkSlotMinutes(q.SlotMinutes); err != nil {
		return q, err
	}

	if q.DurationMinutes != 0 {
		if q.DurationMinutes < MinDurationMinutes || q.DurationMinutes > MaxDurationMinutes {
			return q, invalid(fmt.Sprintf("durationMinutes must be %d..%d", MinDurationMinutes, MaxDurationMinutes))
		}
		if q.DurationMinutes%q.SlotMinutes != 0 {
			return q, invalid("durationMinutes must be a multiple of slotMinutes")
		}
	}

	q.LimitBlocks = calendar.ClampLimit(q.LimitBlocks, DefaultLimitBlocks, MaxLimitBlocks)
	return q, nil
}

func combineAvailability(q MultiQuery, per []Availability) MultiAvailability {
	out := MultiAvailability{
		OK:              true,
		Date:            q.Date,
		SlotMinutes:     q.SlotMinutes,
		DurationMinutes: q.DurationMinutes,
		CommonSlots:     []calendar.TimeRange{},
	}
	if q.IncludePerResource {
		out.PerResource = per
	}

	lists := make([][]calendar.TimeRange, 0, len(per))
	for _, a := range per {
		if !a.OK {
			id := a.ResourceID
			out.OK = false
			out.Reason = a.Reason
			out.FailedResource = &id
			return out
		}
		lists = append(lists, a.Slots)
	}
	out.CommonSlots = calendar.IntersectSlots(lists...)

	if q.DurationMinutes == 0 {
		return out
	}

	blocks, err := calendar.BuildBlocks(
		out.CommonSlots,
		time.Duration(q.SlotMinutes)*time.Minute,
		time.Duration(q.DurationMinutes)*time.Minute,
	)
	if err != nil {
		// параметры уже проверены в normalizeMultiQuery
		blocks = nil
	}
	out.TotalBlocks = len(blocks)

	page := calendar.Window(blocks, 0, q.LimitBlocks)
	out.Blocks = page.Items
	if q.OnlyBlockStartAt {
		trimmed := make([]calendar.Block, len(out.Blocks))
		for i, b := range out.Blocks {
			trimmed[i] = calendar.Block{Start: b.Start, End: b.End}
		}
		out.Blocks = trimmed
	}
	if out.Blocks == nil {
		out.Blocks = []calendar.Block{}
	}
	return out
}
