package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Leganyst/reservation-engine/internal/apperr"
	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/events"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/repository"
)

const MaxReservationLines = 20

// ReservationLine — одна позиция заявки: ресурс, интервал и количество.
type ReservationLine struct {
	ResourceID uuid.UUID
	StartAt    time.Time
	EndAt      time.Time
	Quantity   int
}

type CreateInput struct {
	UserID      uuid.UUID
	Category    model.UserCategory
	Lines       []ReservationLine
	DocumentURL *string
}

// ConflictError — интервал ресурса уже занят.
type ConflictError struct {
	ResourceID uuid.UUID
	Range      calendar.TimeRange
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("resource %s is already booked for %s - %s",
		e.ResourceID, e.Range.Start.UTC().Format(time.RFC3339), e.Range.End.UTC().Format(time.RFC3339))
}

func slotConflict(resourceID uuid.UUID, tr calendar.TimeRange) *apperr.Error {
	e := apperr.Conflict(CodeSlotConflict, "time slot is already booked").
		WithDetail("resourceId", resourceID).
		WithDetail("startAt", tr.Start.UTC()).
		WithDetail("endAt", tr.End.UTC())
	e.Err = &ConflictError{ResourceID: resourceID, Range: tr.UTC()}
	return e
}

type ReservationService struct {
	deps  Deps
	avail *AvailabilityService
}

func NewReservationService(deps Deps, avail *AvailabilityService) *ReservationService {
	return &ReservationService{deps: deps.withDefaults(), avail: avail}
}

// validateLines проверяет заявку до транзакции. Пересечения строк одного ресурса
// внутри заявки ловятся здесь, с уже сохранёнными бронями — в транзакции.
func validateLines(lines []ReservationLine) error {
	if len(lines) == 0 {
		return invalid("at least one item is required")
	}
	if len(lines) > MaxReservationLines {
		return invalid(fmt.Sprintf("at most %d items per reservation", MaxReservationLines))
	}

	byResource := make(map[uuid.UUID][]calendar.TimeRange, len(lines))
	for i, l := range lines {
		if l.ResourceID == uuid.Nil {
			return invalid(fmt.Sprintf("items[%d]: resourceId is required", i))
		}
		tr, err := calendar.NewTimeRange(l.StartAt, l.EndAt)
		if err != nil {
			return invalid(fmt.Sprintf("items[%d]: startAt must be before endAt", i))
		}
		if l.Quantity < 1 {
			return invalid(fmt.Sprintf("items[%d]: quantity must be at least 1", i))
		}
		if conflict, _ := calendar.HasOverlap(tr, byResource[l.ResourceID]); conflict {
			return apperr.Validation(CodeInvalidInput, "items of the same resource overlap").
				WithDetail("resourceId", l.ResourceID)
		}
		byResource[l.ResourceID] = append(byResource[l.ResourceID], tr)
	}
	return nil
}

// Create атомарно создаёт бронирование: ресурсы блокируются в порядке id,
// пересечения перепроверяются, цена считается в той же транзакции.
// Бронирование, позиции и платёж создаются в PENDING.
func (s *ReservationService) Create(ctx context.Context, in CreateInput) (*model.Reservation, error) {
	ctx, span := tracer.Start(ctx, "ReservationService.Create")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", in.UserID.String()),
		attribute.Int("reservation.lines", len(in.Lines)),
	)

	if err := validateLines(in.Lines); err != nil {
		span.SetStatus(codes.Error, "invalid input")
		return nil, err
	}
	if in.Category == "" {
		in.Category = model.UserCategoryPersonal
	}

	ids := distinctResourceIDs(in.Lines)

	var created *model.Reservation
	err := s.deps.Repo.Transaction(ctx, func(tx *repository.Repository) error {
		locked, err := tx.Resources.LockByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock resources: %w", err)
		}
		if err := requireAllBookable(ids, locked); err != nil {
			return err
		}

		items := make([]model.ReservationItem, 0, len(in.Lines))
		var total int64
		for _, l := range in.Lines {
			tr := calendar.TimeRange{Start: l.StartAt, End: l.EndAt}.UTC()

			existing, err := tx.Reservations.ListActiveItemsOverlapping(ctx, l.ResourceID, tr)
			if err != nil {
				return fmt.Errorf("check overlaps: %w", err)
			}
			if len(existing) > 0 {
				return slotConflict(l.ResourceID, calendar.TimeRange{Start: existing[0].StartAt, End: existing[0].EndAt})
			}

			quote, err := resolveUnitPrice(ctx, tx.Pricing, s.deps.Location, l.ResourceID, tr.Start, in.Category)
			if err != nil {
				return err
			}

			ruleID := quote.RuleID
			amount := quote.UnitPrice * int64(l.Quantity)
			total += amount
			items = append(items, model.ReservationItem{
				ResourceID:      l.ResourceID,
				StartAt:         tr.Start,
				EndAt:           tr.End,
				Quantity:        l.Quantity,
				UnitPrice:       quote.UnitPrice,
				Amount:          amount,
				PricingRuleID:   &ruleID,
				PricingRuleKind: quote.RuleKind,
				Status:          model.ReservationStatusPending,
			})
		}

		res := &model.Reservation{
			UserID:      in.UserID,
			Status:      model.ReservationStatusPending,
			TotalAmount: total,
			DocumentURL: in.DocumentURL,
		}
		pay := &model.Payment{
			Status: model.PaymentStatusPending,
			Amount: total,
		}
		if err := tx.Reservations.Create(ctx, res, items, pay); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		created = res
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create reservation failed")
		if _, ok := apperr.As(err); !ok {
			s.deps.Logger.Error("create reservation failed", zap.String("user_id", in.UserID.String()), zap.Error(err))
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.String("reservation.id", created.ID.String()),
		attribute.Int64("reservation.total", created.TotalAmount),
	)
	s.deps.Logger.Info("reservation created",
		zap.String("reservation_id", created.ID.String()),
		zap.String("user_id", created.UserID.String()),
		zap.Int64("total", created.TotalAmount),
	)
	s.deps.publish(ctx, events.KeyReservationCreated, reservationEvent(created, s.deps.Now()))
	return created, nil
}

func distinctResourceIDs(lines []ReservationLine) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ResourceID]; ok {
			continue
		}
		seen[l.ResourceID] = struct{}{}
		ids = append(ids, l.ResourceID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func requireAllBookable(ids []uuid.UUID, locked []model.Resource) error {
	byID := make(map[uuid.UUID]*model.Resource, len(locked))
	for i := range locked {
		byID[locked[i].ID] = &locked[i]
	}
	for _, id := range ids {
		if !byID[id].IsBookable() {
			return ErrResourceNotFound.WithDetail("resourceId", id)
		}
	}
	return nil
}

type MultiCreateInput struct {
	UserID           uuid.UUID
	Category         model.UserCategory
	ResourceIDs      []uuid.UUID
	Date             calendar.Date
	SlotMinutes      int
	DurationMinutes  int
	SlotIndex        int
	PreferredStartAt *time.Time
	// Количество по ресурсу; по умолчанию 1.
	Quantities  map[uuid.UUID]int
	DocumentURL *string
}

// CreateMulti подбирает общий непрерывный блок для нескольких ресурсов
// и бронирует его одной заявкой.
func (s *ReservationService) CreateMulti(ctx context.Context, in MultiCreateInput) (*model.Reservation, error) {
	if in.DurationMinutes == 0 {
		return nil, invalid("durationMinutes is required")
	}
	if in.SlotIndex < 0 {
		return nil, invalid("slotIndex must not be negative")
	}

	avail, err := s.avail.ComputeMulti(ctx, MultiQuery{
		ResourceIDs:      in.ResourceIDs,
		Date:             in.Date,
		SlotMinutes:      in.SlotMinutes,
		DurationMinutes:  in.DurationMinutes,
		OnlyBlockStartAt: true,
		LimitBlocks:      MaxLimitBlocks,
	})
	if err != nil {
		return nil, err
	}
	if !avail.OK {
		e := apperr.Validation(avail.Reason, "resource is not available for slot booking")
		if avail.FailedResource != nil {
			e = e.WithDetail("resourceId", *avail.FailedResource)
		}
		return nil, e
	}
	if len(avail.Blocks) == 0 {
		return nil, apperr.Conflict(CodeNoContinuousSlots, "no available continuous slots")
	}

	var block calendar.Block
	switch {
	case in.PreferredStartAt != nil:
		found := false
		for _, b := range avail.Blocks {
			if b.Start.Equal(*in.PreferredStartAt) {
				block, found = b, true
				break
			}
		}
		if !found {
			return nil, apperr.Conflict(CodePreferredStartTaken, "preferred start not available")
		}
	case in.SlotIndex >= len(avail.Blocks):
		return nil, apperr.Conflict(CodeSlotIndexOutOfRange, "slot index out of range").
			WithDetail("blocks", len(avail.Blocks))
	default:
		block = avail.Blocks[in.SlotIndex]
	}

	lines := make([]ReservationLine, 0, len(in.ResourceIDs))
	for _, id := range in.ResourceIDs {
		qty := in.Quantities[id]
		if qty == 0 {
			qty = 1
		}
		lines = append(lines, ReservationLine{ResourceID: id, StartAt: block.Start, EndAt: block.End, Quantity: qty})
	}

	return s.Create(ctx, CreateInput{
		UserID:      in.UserID,
		Category:    in.Category,
		Lines:       lines,
		DocumentURL: in.DocumentURL,
	})
}

// Get возвращает бронирование с позициями и платежом.
func (s *ReservationService) Get(ctx context.Context, id uuid.UUID) (*model.Reservation, error) {
	return loadReservation(ctx, s.deps.Repo.Reservations, id)
}

func loadReservation(ctx context.Context, repo repository.ReservationRepository, id uuid.UUID) (*model.Reservation, error) {
	res, err := repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrReservationNotFound.WithDetail("reservationId", id)
		}
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	return res, nil
}

// GetOwned возвращает бронирование, если оно принадлежит пользователю или пользователь — админ.
func (s *ReservationService) GetOwned(ctx context.Context, user *calendar.ValidatedUser, id uuid.UUID) (*model.Reservation, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrForbidden
	}
	return res, nil
}

func (s *ReservationService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.Reservation, error) {
	list, _, err := s.deps.Repo.Reservations.List(ctx, repository.ReservationFilter{UserID: &userID})
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return list, nil
}

// ListQuery — фильтр админского списка; даты гражданские, по началу позиции.
type ListQuery struct {
	Status        *model.ReservationStatus
	PaymentStatus *model.PaymentStatus
	ResourceID    *uuid.UUID
	From          *calendar.Date
	To            *calendar.Date
	Query         string
	Limit         int
	Offset        int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

func (s *ReservationService) List(ctx context.Context, q ListQuery) ([]model.Reservation, int64, error) {
	f := repository.ReservationFilter{
		Status:        q.Status,
		PaymentStatus: q.PaymentStatus,
		ResourceID:    q.ResourceID,
		Query:         q.Query,
		Limit:         calendar.ClampLimit(q.Limit, DefaultListLimit, MaxListLimit),
		Offset:        q.Offset,
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if q.From != nil {
		from := q.From.StartOf(s.deps.Location).UTC()
		f.From = &from
	}
	if q.To != nil {
		// To включительно: до начала следующего дня
		to := q.To.AddDays(1).StartOf(s.deps.Location).UTC()
		f.To = &to
	}

	list, total, err := s.deps.Repo.Reservations.List(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	return list, total, nil
}
