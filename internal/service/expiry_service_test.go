package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/events"
	"github.com/Leganyst/reservation-engine/internal/lock"
	"github.com/Leganyst/reservation-engine/internal/model"
)

type expiryFixture struct {
	*fixture
	expiry       *ExpiryService
	reservations *ReservationService
	resource     *model.Resource
	owner        *model.User
}

func newExpiryFixture(t *testing.T, locker lock.Locker) *expiryFixture {
	f := newFixture(t)
	e := &expiryFixture{fixture: f}
	e.expiry = NewExpiryService(f.deps, ExpiryConfig{TTL: 15 * time.Minute, Interval: time.Minute}, locker)
	e.reservations = NewReservationService(f.deps, NewAvailabilityService(f.deps))
	e.resource = f.bookable(10000)
	e.owner = f.user(model.UserCategoryPersonal)
	return e
}

// created создаёт PENDING-бронирование, созданное age назад.
func (e *expiryFixture) created(date string, age time.Duration) *model.Reservation {
	e.t.Helper()
	res := e.reserve(e.reservations, e.owner.ID, line(e.resource.ID, e.at(date, "10:00"), e.at(date, "11:00")))
	err := e.db.Model(&model.Reservation{}).
		Where("id = ?", res.ID).
		Update("created_at", time.Now().UTC().Add(-age)).Error
	if err != nil {
		e.t.Fatalf("backdate reservation: %v", err)
	}
	return res
}

func TestExpiryService_ExpirePending(t *testing.T) {
	e := newExpiryFixture(t, nil)
	ctx := context.Background()

	stale := e.created("2025-01-06", 20*time.Minute)
	fresh := e.created("2025-01-13", time.Minute)

	out, err := e.expiry.ExpirePending(ctx, 0)
	if err != nil {
		t.Fatalf("expire pending: %v", err)
	}
	if out.TTLMinutes != 15 || len(out.ExpiredReservationIDs) != 1 || out.ExpiredReservationIDs[0] != stale.ID {
		t.Fatalf("unexpected result: %+v", out)
	}

	e.assertStatuses(stale.ID, model.ReservationStatusCancelled, model.PaymentStatusCancelled)
	e.assertStatuses(fresh.ID, model.ReservationStatusPending, model.PaymentStatusPending)

	logs := e.audit(stale.ID)
	if len(logs) != 1 || logs[0].Title != model.ExpiredByTTLTitle || logs[0].Kind != model.NotificationKindExpired {
		t.Fatalf("expected one expiry audit entry, got %+v", logs)
	}

	keys := e.rec.Keys()
	if !containsKey(keys, events.KeyReservationExpired) || !containsKey(keys, events.KeyPaymentCancelled) {
		t.Fatalf("expected expiry events, got %v", keys)
	}

	// второй проход ничего не находит
	again, err := e.expiry.ExpirePending(ctx, 0)
	if err != nil || len(again.ExpiredReservationIDs) != 0 {
		t.Fatalf("second pass: %+v err=%v", again, err)
	}

	list, err := e.expiry.ListExpiryLogs(ctx, 0)
	if err != nil {
		t.Fatalf("list expiry logs: %v", err)
	}
	if len(list) != 1 || list[0].ReservationID == nil || *list[0].ReservationID != stale.ID {
		t.Fatalf("unexpected expiry logs: %+v", list)
	}
}

func TestExpiryService_FreesSlot(t *testing.T) {
	e := newExpiryFixture(t, nil)
	stale := e.created("2025-01-06", time.Hour)

	if _, err := e.expiry.ExpirePending(context.Background(), 30*time.Minute); err != nil {
		t.Fatalf("expire pending: %v", err)
	}
	res := e.reserve(e.reservations, e.owner.ID, line(e.resource.ID, e.at("2025-01-06", "10:00"), e.at("2025-01-06", "11:00")))
	if res.ID == stale.ID {
		t.Fatalf("expected a new reservation")
	}
}

func TestExpiryService_SkipsConfirmed(t *testing.T) {
	e := newExpiryFixture(t, nil)
	res := e.created("2025-01-06", time.Hour)

	cancel := NewCancellationService(e.deps, newFakeProvider())
	if _, err := cancel.Confirm(context.Background(), res.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	out, err := e.expiry.ExpirePending(context.Background(), 0)
	if err != nil {
		t.Fatalf("expire pending: %v", err)
	}
	if len(out.ExpiredReservationIDs) != 0 {
		t.Fatalf("confirmed reservation must not expire: %+v", out)
	}
	e.assertStatuses(res.ID, model.ReservationStatusConfirmed, model.PaymentStatusPending)
}

func TestExpiryService_FailedRowDoesNotStopPass(t *testing.T) {
	e := newExpiryFixture(t, nil)
	broken := e.created("2025-01-06", 2*time.Hour)
	stale := e.created("2025-01-13", time.Hour)

	payID := e.reload(broken.ID).Payment.ID
	trigger := fmt.Sprintf(`CREATE TRIGGER payments_locked BEFORE UPDATE ON payments
		WHEN OLD.id = '%s' BEGIN SELECT RAISE(ABORT, 'row locked'); END;`, payID)
	if err := e.db.Exec(trigger).Error; err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	out, err := e.expiry.ExpirePending(context.Background(), 0)
	if err != nil {
		t.Fatalf("expire pending: %v", err)
	}
	if len(out.ExpiredReservationIDs) != 1 || out.ExpiredReservationIDs[0] != stale.ID {
		t.Fatalf("expected only the healthy reservation to expire, got %+v", out)
	}
	e.assertStatuses(broken.ID, model.ReservationStatusPending, model.PaymentStatusPending)
	e.assertStatuses(stale.ID, model.ReservationStatusCancelled, model.PaymentStatusCancelled)
	if logs := e.audit(broken.ID); len(logs) != 0 {
		t.Fatalf("failed row must not leave audit entries, got %+v", logs)
	}
}

type busyLocker struct{ calls int }

func (l *busyLocker) TryLock(context.Context, string, time.Duration) (func(context.Context) error, bool, error) {
	l.calls++
	return nil, false, nil
}

func TestExpiryService_TickRespectsLock(t *testing.T) {
	locker := &busyLocker{}
	e := newExpiryFixture(t, locker)
	res := e.created("2025-01-06", time.Hour)

	e.expiry.tick(context.Background())
	if locker.calls != 1 {
		t.Fatalf("expected one lock attempt, got %d", locker.calls)
	}
	e.assertStatuses(res.ID, model.ReservationStatusPending, model.PaymentStatusPending)

	free := newExpiryFixture(t, nil)
	other := free.created("2025-01-06", time.Hour)
	free.expiry.tick(context.Background())
	free.assertStatuses(other.ID, model.ReservationStatusCancelled, model.PaymentStatusCancelled)
}

func TestExpiryService_ListLimits(t *testing.T) {
	e := newExpiryFixture(t, nil)
	for i := 0; i < 3; i++ {
		r := &model.NotificationLog{
			UserID:        ptrUUID(e.owner.ID),
			ReservationID: ptrUUID(uuid.New()),
			Kind:          model.NotificationKindExpired,
			Status:        model.NotificationStatusSent,
			Title:         model.ExpiredByTTLTitle,
		}
		if err := e.repo.Notifications.Create(context.Background(), r); err != nil {
			t.Fatalf("create log: %v", err)
		}
	}
	list, err := e.expiry.ListExpiryLogs(context.Background(), 2)
	if err != nil || len(list) != 2 {
		t.Fatalf("expected 2 logs, got %d err=%v", len(list), err)
	}
}

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }
