package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/apperr"
	"github.com/Leganyst/reservation-engine/internal/model"
)

func TestBlackoutService_CreateListDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewBlackoutService(f.deps)
	first := f.bookable(10000)
	second := f.bookable(10000)

	one, err := svc.Create(ctx, BlackoutInput{
		ResourceID: &first.ID,
		StartAt:    f.at("2025-01-06", "12:00"),
		EndAt:      f.at("2025-01-06", "13:00"),
		Reason:     "cleaning",
	})
	if err != nil {
		t.Fatalf("create blackout: %v", err)
	}
	if len(one) != 1 || one[0].Kind != model.BlackoutKindBlock {
		t.Fatalf("unexpected blackout: %+v", one)
	}

	all, err := svc.Create(ctx, BlackoutInput{
		StartAt: f.at("2025-01-13", "09:00"),
		EndAt:   f.at("2025-01-13", "18:00"),
		Kind:    model.BlackoutKindAllow,
		Reason:  "open day",
	})
	if err != nil {
		t.Fatalf("create blackout for all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected blackout per active resource, got %d", len(all))
	}

	from, to := f.date("2025-01-06"), f.date("2025-01-06")
	list, err := svc.List(ctx, BlackoutListInput{From: &from, To: &to})
	if err != nil {
		t.Fatalf("list blackouts: %v", err)
	}
	if len(list) != 1 || list[0].ID != one[0].ID {
		t.Fatalf("expected only the Monday blackout, got %+v", list)
	}

	list, err = svc.List(ctx, BlackoutListInput{ResourceID: &second.ID})
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one blackout for second resource, got %d err=%v", len(list), err)
	}

	if err := svc.Delete(ctx, one[0].ID); err != nil {
		t.Fatalf("delete blackout: %v", err)
	}
	if err := svc.Delete(ctx, one[0].ID); !apperr.IsCode(err, CodeBlackoutNotFound) {
		t.Fatalf("expected BLACKOUT_NOT_FOUND, got %v", err)
	}
}

func TestBlackoutService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewBlackoutService(f.deps)
	r := f.bookable(10000)

	cases := []BlackoutInput{
		{ResourceID: &r.ID, StartAt: f.at("2025-01-06", "13:00"), EndAt: f.at("2025-01-06", "12:00")},
		{ResourceID: &r.ID, StartAt: f.at("2025-01-06", "12:00"), EndAt: f.at("2025-01-06", "13:00"), Kind: "MAYBE"},
	}
	for i, in := range cases {
		if _, err := svc.Create(ctx, in); apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}

	missing := uuid.New()
	_, err := svc.Create(ctx, BlackoutInput{ResourceID: &missing, StartAt: f.at("2025-01-06", "12:00"), EndAt: f.at("2025-01-06", "13:00")})
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCalendarService_EventsAndICS(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.bookable(10000)
	u := f.user(model.UserCategoryPersonal)

	reservations := NewReservationService(f.deps, NewAvailabilityService(f.deps))
	cancel := NewCancellationService(f.deps, newFakeProvider())
	blackouts := NewBlackoutService(f.deps)

	confirmed := f.reserve(reservations, u.ID, line(r.ID, f.at("2025-01-06", "10:00"), f.at("2025-01-06", "11:00")))
	if _, err := cancel.Confirm(ctx, confirmed.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	// неподтверждённые брони в календарь не попадают
	f.reserve(reservations, u.ID, line(r.ID, f.at("2025-01-06", "14:00"), f.at("2025-01-06", "15:00")))

	if _, err := blackouts.Create(ctx, BlackoutInput{
		ResourceID: &r.ID,
		StartAt:    f.at("2025-01-06", "09:00"),
		EndAt:      f.at("2025-01-06", "10:00"),
		Reason:     "cleaning",
	}); err != nil {
		t.Fatalf("create blackout: %v", err)
	}
	if _, err := blackouts.Create(ctx, BlackoutInput{
		ResourceID: &r.ID,
		StartAt:    f.at("2025-01-06", "16:00"),
		EndAt:      f.at("2025-01-06", "17:00"),
		Kind:       model.BlackoutKindAllow,
	}); err != nil {
		t.Fatalf("create allow blackout: %v", err)
	}

	svc := NewCalendarService(f.deps)
	day := f.date("2025-01-06")
	list, err := svc.Events(ctx, r.ID, day, day)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 events, got %+v", list)
	}
	wantTypes := []CalendarEventType{CalendarEventBlock, CalendarEventReservation, CalendarEventAllow}
	for i, want := range wantTypes {
		if list[i].Type != want {
			t.Fatalf("event %d type = %s, want %s", i, list[i].Type, want)
		}
	}
	if list[0].Title != "Blocked: cleaning" || !list[2].DisplayOnly || list[1].ReservationID == nil || *list[1].ReservationID != confirmed.ID {
		t.Fatalf("unexpected events: %+v", list)
	}

	feed, err := svc.ICS(ctx, r.ID, day, day)
	if err != nil {
		t.Fatalf("ics: %v", err)
	}
	for _, want := range []string{"BEGIN:VCALENDAR", "BEGIN:VEVENT", "TRANSPARENT", "Blocked: cleaning"} {
		if !strings.Contains(feed, want) {
			t.Fatalf("feed must contain %q:\n%s", want, feed)
		}
	}

	if _, err := svc.Events(ctx, r.ID, day, f.date("2025-01-05")); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for reversed range, got %v", err)
	}
}
