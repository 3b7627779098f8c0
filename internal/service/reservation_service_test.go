package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/apperr"
	"github.com/Leganyst/reservation-engine/internal/events"
	"github.com/Leganyst/reservation-engine/internal/model"
)

func TestValidateLines(t *testing.T) {
	rid := uuid.New()
	start := time.Date(2025, 1, 6, 1, 0, 0, 0, time.UTC)

	tooMany := make([]ReservationLine, MaxReservationLines+1)
	for i := range tooMany {
		tooMany[i] = line(uuid.New(), start, start.Add(time.Hour))
	}

	cases := []struct {
		name  string
		lines []ReservationLine
		ok    bool
	}{
		{"single line", []ReservationLine{line(rid, start, start.Add(time.Hour))}, true},
		{"touching lines of one resource", []ReservationLine{
			line(rid, start, start.Add(time.Hour)),
			line(rid, start.Add(time.Hour), start.Add(2*time.Hour)),
		}, true},
		{"empty", nil, false},
		{"too many", tooMany, false},
		{"empty range", []ReservationLine{line(rid, start, start)}, false},
		{"zero quantity", []ReservationLine{{ResourceID: rid, StartAt: start, EndAt: start.Add(time.Hour)}}, false},
		{"nil resource", []ReservationLine{line(uuid.Nil, start, start.Add(time.Hour))}, false},
		{"overlap inside request", []ReservationLine{
			line(rid, start, start.Add(2*time.Hour)),
			line(rid, start.Add(time.Hour), start.Add(3*time.Hour)),
		}, false},
	}
	for _, tc := range cases {
		err := validateLines(tc.lines)
		if tc.ok && err != nil {
			t.Fatalf("%s: expected valid, got %v", tc.name, err)
		}
		if !tc.ok && apperr.KindOf(err) != apperr.KindValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestReservationService_CreatePricesAndPendingPayment(t *testing.T) {
	f := newFixture(t)
	a := f.bookable(10000)
	b := f.bookable(25000)
	u := f.user(model.UserCategoryPersonal)
	svc := NewReservationService(f.deps, NewAvailabilityService(f.deps))

	res, err := svc.Create(context.Background(), CreateInput{
		UserID: u.ID,
		Lines: []ReservationLine{
			{ResourceID: a.ID, StartAt: f.at("2025-01-06", "10:00"), EndAt: f.at("2025-01-06", "11:00"), Quantity: 2},
			line(b.ID, f.at("2025-01-06", "10:00"), f.at("2025-01-06", "12:00")),
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.TotalAmount != 45000 {
		t.Fatalf("total = %d, want 45000", res.TotalAmount)
	}

	got := f.assertStatuses(res.ID, model.ReservationStatusPending, model.PaymentStatusPending)
	if got.Payment.Amount != 45000 {
		t.Fatalf("payment amount = %d, want 45000", got.Payment.Amount)
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got.Items))
	}
	var sum int64
	for _, it := range got.Items {
		if it.Amount != it.UnitPrice*int64(it.Quantity) || it.PricingRuleKind != model.PricingRuleDefault || it.PricingRuleID == nil {
			t.Fatalf("unexpected item pricing: %+v", it)
		}
		sum += it.Amount
	}
	if sum != got.Payment.Amount {
		t.Fatalf("items sum %d != payment %d", sum, got.Payment.Amount)
	}
	if keys := f.rec.Keys(); len(keys) != 1 || keys[0] != events.KeyReservationCreated {
		t.Fatalf("expected reservation.created, got %v", keys)
	}
}

func TestReservationService_ConflictAndTouching(t *testing.T) {
	f := newFixture(t)
	r := f.bookable(10000)
	u := f.user(model.UserCategoryPersonal)
	svc := NewReservationService(f.deps, NewAvailabilityService(f.deps))
	ctx := context.Background()

	f.reserve(svc, u.ID, line(r.ID, f.at("2025-01-06", "10:00"), f.at("2025-01-06", "11:00")))

	_, err := svc.Create(ctx, CreateInput{UserID: u.ID, Lines: []ReservationLine{
		line(r.ID, f.at("2025-01-06", "10:30"), f.at("2025-01-06", "11:30")),
	}})
	if !apperr.IsCode(err, CodeSlotConflict) || apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected SLOT_CONFLICT, got %v", err)
	}
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.ResourceID != r.ID || !ce.Range.Start.Equal(f.at("2025-01-06", "10:00")) {
		t.Fatalf("expected ConflictError for the booked interval, got %v", err)
	}

	// касание концами не пересечение
	f.reserve(svc, u.ID, line(r.ID, f.at("2025-01-06", "11:00"), f.at("2025-01-06", "12:00")))

	// отмена освобождает интервал
	cancelled := f.reserve(svc, u.ID, line(r.ID, f.at("2025-01-06", "13:00"), f.at("2025-01-06", "14:00")))
	if _, err := f.repo.Reservations.TransitionStatus(ctx, cancelled.ID,
		[]model.ReservationStatus{model.ReservationStatusPending}, model.ReservationStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	f.reserve(svc, u.ID, line(r.ID, f.at("2025-01-06", "13:00"), f.at("2025-01-06", "14:00")))
}

func TestReservationService_MissingResourceOrPrice(t *testing.T) {
	f := newFixture(t)
	u := f.user(model.UserCategoryPersonal)
	svc := NewReservationService(f.deps, NewAvailabilityService(f.deps))
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{UserID: u.ID, Lines: []ReservationLine{
		line(uuid.New(), f.at("2025-01-06", "10:00"), f.at("2025-01-06", "11:00")),
	}})
	if !apperr.IsCode(err, CodeResourceNotFound) {
		t.Fatalf("expected RESOURCE_NOT_FOUND, got %v", err)
	}

	unpriced := f.resource(model.BookingUnitTimeSlot)
	_, err = svc.Create(ctx, CreateInput{UserID: u.ID, Lines: []ReservationLine{
		line(unpriced.ID, f.at("2025-01-06", "10:00"), f.at("2025-01-06", "11:00")),
	}})
	if !apperr.IsCode(err, CodeNoPricingRule) {
		t.Fatalf("expected NO_PRICING_RULE, got %v", err)
	}

	var count int64
	if err := f.db.Model(&model.Reservation{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed creates must not leave rows, got %d", count)
	}
}

func TestReservationService_ConcurrentCreateAdmitsOne(t *testing.T) {
	f := newFixture(t)
	r := f.bookable(10000)
	u := f.user(model.UserCategoryPersonal)
	svc := NewReservationService(f.deps, NewAvailabilityService(f.deps))

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), CreateInput{UserID: u.ID, Lines: []ReservationLine{
				line(r.ID, f.at("2025-01-06", "10:00"), f.at("2025-01-06", "11:00")),
			}})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperr.IsCode(err, CodeSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || conflicts != n-1 {
		t.Fatalf("expected exactly one admission, got ok=%d conflicts=%d", ok, conflicts)
	}
}

func TestReservationService_CreateMulti(t *testing.T) {
	f := newFixture(t)
	a := f.bookable(10000)
	b := f.bookable(20000)
	u := f.user(model.UserCategoryPersonal)
	svc := NewReservationService(f.deps, NewAvailabilityService(f.deps))
	ctx := context.Background()

	f.reserve(svc, u.ID, line(b.ID, f.at("2025-01-06", "09:00"), f.at("2025-01-06", "10:00")))

	preferred := f.at("2025-01-06", "14:00")
	res, err := svc.CreateMulti(ctx, MultiCreateInput{
		UserID:           u.ID,
		ResourceIDs:      []uuid.UUID{a.ID, b.ID},
		Date:             f.date("2025-01-06"),
		SlotMinutes:      60,
		DurationMinutes:  120,
		PreferredStartAt: &preferred,
		Quantities:       map[uuid.UUID]int{a.ID: 3},
	})
	if err != nil {
		t.Fatalf("create multi: %v", err)
	}
	if len(res.Items) != 2 || res.TotalAmount != 3*10000+20000 {
		t.Fatalf("unexpected reservation: items=%d total=%d", len(res.Items), res.TotalAmount)
	}
	for _, it := range res.Items {
		if !it.StartAt.Equal(preferred) || it.EndAt.Sub(it.StartAt) != 2*time.Hour {
			t.Fatalf("unexpected item interval: %v - %v", it.StartAt, it.EndAt)
		}
	}

	// по индексу: первый общий блок 10:00-12:00
	res, err = svc.CreateMulti(ctx, MultiCreateInput{
		UserID: u.ID, ResourceIDs: []uuid.UUID{a.ID, b.ID}, Date: f.date("2025-01-06"),
		SlotMinutes: 60, DurationMinutes: 120,
	})
	if err != nil {
		t.Fatalf("create multi by index: %v", err)
	}
	if !res.Items[0].StartAt.Equal(f.at("2025-01-06", "10:00")) {
		t.Fatalf("expected first block at 10:00, got %v", res.Items[0].StartAt)
	}

	_, err = svc.CreateMulti(ctx, MultiCreateInput{
		UserID: u.ID, ResourceIDs: []uuid.UUID{a.ID, b.ID}, Date: f.date("2025-01-06"),
		SlotMinutes: 60, DurationMinutes: 120, PreferredStartAt: &preferred,
	})
	if !apperr.IsCode(err, CodePreferredStartTaken) {
		t.Fatalf("expected preferred start conflict, got %v", err)
	}
	_, err = svc.CreateMulti(ctx, MultiCreateInput{
		UserID: u.ID, ResourceIDs: []uuid.UUID{a.ID, b.ID}, Date: f.date("2025-01-06"),
		SlotMinutes: 60, DurationMinutes: 120, SlotIndex: 50,
	})
	if !apperr.IsCode(err, CodeSlotIndexOutOfRange) {
		t.Fatalf("expected slot index out of range, got %v", err)
	}
	_, err = svc.CreateMulti(ctx, MultiCreateInput{
		UserID: u.ID, ResourceIDs: []uuid.UUID{a.ID, b.ID}, Date: f.date("2025-01-07"),
		SlotMinutes: 60, DurationMinutes: 120,
	})
	if !apperr.IsCode(err, CodeNoContinuousSlots) {
		t.Fatalf("expected no continuous slots on a day without schedule, got %v", err)
	}
}

func TestReservationService_ListFilters(t *testing.T) {
	f := newFixture(t)
	a := f.bookable(10000)
	b := f.bookable(10000)
	u1 := f.user(model.UserCategoryPersonal)
	u2 := f.user(model.UserCategoryBusiness)
	svc := NewReservationService(f.deps, NewAvailabilityService(f.deps))
	ctx := context.Background()

	r1 := f.reserve(svc, u1.ID, line(a.ID, f.at("2025-01-06", "10:00"), f.at("2025-01-06", "11:00")))
	f.reserve(svc, u2.ID, line(b.ID, f.at("2025-01-13", "10:00"), f.at("2025-01-13", "11:00")))

	mine, err := svc.ListMine(ctx, u1.ID)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != r1.ID {
		t.Fatalf("unexpected own list: %+v", mine)
	}

	from, to := f.date("2025-01-06"), f.date("2025-01-06")
	list, total, err := svc.List(ctx, ListQuery{From: &from, To: &to})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || list[0].ID != r1.ID {
		t.Fatalf("date filter: total=%d", total)
	}

	list, total, err = svc.List(ctx, ListQuery{ResourceID: &b.ID})
	if err != nil || total != 1 || list[0].UserID != u2.ID {
		t.Fatalf("resource filter: total=%d err=%v", total, err)
	}

	paid := model.PaymentStatusPaid
	if _, total, _ = svc.List(ctx, ListQuery{PaymentStatus: &paid}); total != 0 {
		t.Fatalf("payment status filter: total=%d", total)
	}

	_, total, err = svc.List(ctx, ListQuery{Query: u2.Email[:8]})
	if err != nil || total != 1 {
		t.Fatalf("query filter: total=%d err=%v", total, err)
	}

	if _, err := svc.Get(ctx, uuid.New()); !apperr.IsCode(err, CodeReservationNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReservationService_GetOwned(t *testing.T) {
	f := newFixture(t)
	r := f.bookable(10000)
	owner := f.user(model.UserCategoryPersonal)
	other := f.user(model.UserCategoryPersonal)
	svc := NewReservationService(f.deps, NewAvailabilityService(f.deps))
	identity := NewIdentityService(f.repo.Users)
	ctx := context.Background()

	res := f.reserve(svc, owner.ID, line(r.ID, f.at("2025-01-06", "10:00"), f.at("2025-01-06", "11:00")))

	ownerUser, err := identity.Authenticate(ctx, owner.ID)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := svc.GetOwned(ctx, ownerUser, res.ID); err != nil {
		t.Fatalf("owner must see reservation: %v", err)
	}

	otherUser, err := identity.Authenticate(ctx, other.ID)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := svc.GetOwned(ctx, otherUser, res.ID); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	if err := f.db.Model(other).Update("role", model.UserRoleAdmin).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}
	admin, err := identity.Authenticate(ctx, other.ID)
	if err != nil || !admin.IsAdmin() {
		t.Fatalf("expected admin, got %+v err=%v", admin, err)
	}
	if _, err := svc.GetOwned(ctx, admin, res.ID); err != nil {
		t.Fatalf("admin must see reservation: %v", err)
	}

	if _, err := identity.Authenticate(ctx, uuid.New()); apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("unknown user must be rejected, got %v", err)
	}
}

