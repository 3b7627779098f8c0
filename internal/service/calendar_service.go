package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/repository"
)

type CalendarEventType string

const (
	CalendarEventReservation CalendarEventType = "RESERVATION"
	CalendarEventBlock       CalendarEventType = "BLOCK"
	CalendarEventAllow       CalendarEventType = "ALLOW"
)

// CalendarEvent — элемент админского календаря ресурса.
type CalendarEvent struct {
	ID            uuid.UUID         `json:"id"`
	Type          CalendarEventType `json:"type"`
	Title         string            `json:"title"`
	StartAt       time.Time         `json:"startAt"`
	EndAt         time.Time         `json:"endAt"`
	ReservationID *uuid.UUID        `json:"reservationId,omitempty"`
	// ALLOW-блокировки только показываются и занятость не отменяют.
	DisplayOnly bool `json:"displayOnly,omitempty"`
}

// CalendarService собирает календарь ресурса: подтверждённые брони и блокировки.
type CalendarService struct {
	deps Deps
}

func NewCalendarService(deps Deps) *CalendarService {
	return &CalendarService{deps: deps.withDefaults()}
}

// Events возвращает события ресурса в диапазоне гражданских дат [from, to].
func (s *CalendarService) Events(ctx context.Context, resourceID uuid.UUID, from, to calendar.Date) ([]CalendarEvent, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, invalid("from and to are required, from <= to")
	}
	if _, err := loadBookableResource(ctx, s.deps.Repo.Resources, resourceID); err != nil {
		return nil, err
	}

	loc := s.deps.Location
	tr := calendar.TimeRange{Start: from.StartOf(loc), End: to.AddDays(1).StartOf(loc)}.UTC()

	items, err := s.deps.Repo.Reservations.ListItemsOverlapping(ctx, resourceID, tr,
		[]model.ReservationStatus{model.ReservationStatusConfirmed})
	if err != nil {
		return nil, fmt.Errorf("load confirmed items: %w", err)
	}
	blackouts, err := s.deps.Repo.Blackouts.List(ctx, repository.BlackoutFilter{ResourceID: &resourceID, Range: &tr})
	if err != nil {
		return nil, fmt.Errorf("load blackouts: %w", err)
	}

	out := make([]CalendarEvent, 0, len(items)+len(blackouts))
	for _, it := range items {
		rid := it.ReservationID
		out = append(out, CalendarEvent{
			ID:            it.ID,
			Type:          CalendarEventReservation,
			Title:         fmt.Sprintf("Reservation x%d", it.Quantity),
			StartAt:       it.StartAt.UTC(),
			EndAt:         it.EndAt.UTC(),
			ReservationID: &rid,
		})
	}
	for _, b := range blackouts {
		ev := CalendarEvent{
			ID:      b.ID,
			Type:    CalendarEventBlock,
			Title:   "Blocked",
			StartAt: b.StartAt.UTC(),
			EndAt:   b.EndAt.UTC(),
		}
		if b.Kind == model.BlackoutKindAllow {
			ev.Type = CalendarEventAllow
			ev.Title = "Notice"
			ev.DisplayOnly = true
		}
		if b.Reason != "" {
			ev.Title += ": " + b.Reason
		}
		out = append(out, ev)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

// ICS отдаёт те же события в формате iCalendar.
func (s *CalendarService) ICS(ctx context.Context, resourceID uuid.UUID, from, to calendar.Date) (string, error) {
	list, err := s.Events(ctx, resourceID, from, to)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//reservation-engine//resource calendar//EN")
	cal.SetXWRCalName("resource " + resourceID.String())

	stamp := s.deps.Now().UTC()
	for _, e := range list {
		ev := cal.AddEvent(e.ID.String())
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(e.StartAt)
		ev.SetEndAt(e.EndAt)
		ev.SetSummary(e.Title)
		ev.SetDescription(calendar.FormatRange(calendar.TimeRange{Start: e.StartAt, End: e.EndAt}, s.deps.Location))
		ev.SetProperty(ics.ComponentPropertyCategories, string(e.Type))
		if e.DisplayOnly {
			ev.SetProperty(ics.ComponentPropertyTransp, "TRANSPARENT")
		} else {
			ev.SetProperty(ics.ComponentPropertyStatus, "CONFIRMED")
		}
	}
	return cal.Serialize(), nil
}
