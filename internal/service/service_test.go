package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/dbtest"
	"github.com/Leganyst/reservation-engine/internal/events"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/portone"
	"github.com/Leganyst/reservation-engine/internal/repository"
)

type fixture struct {
	t    *testing.T
	db   *gorm.DB
	repo *repository.Repository
	rec  *events.Recorder
	loc  *time.Location
	deps Deps

	mu  sync.Mutex
	now time.Time // нулевое — реальное время
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	loc, err := calendar.LoadZone(calendar.DefaultZoneName)
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}

	db := dbtest.Open(t)
	f := &fixture{
		t:    t,
		db:   db,
		repo: repository.New(db),
		rec:  &events.Recorder{},
		loc:  loc,
	}
	f.deps = Deps{
		Repo:      f.repo,
		Location:  loc,
		Publisher: f.rec,
		Now:       f.clock,
	}
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.now.IsZero() {
		return time.Now().UTC()
	}
	return f.now
}

func (f *fixture) setNow(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}

// at — момент "дата HH:MM" в зоне фикстуры.
func (f *fixture) at(date, hhmm string) time.Time {
	f.t.Helper()
	d, err := calendar.ParseDate(date)
	if err != nil {
		f.t.Fatalf("parse date: %v", err)
	}
	c, err := calendar.ParseClock(hhmm)
	if err != nil {
		f.t.Fatalf("parse clock: %v", err)
	}
	return d.At(c, f.loc)
}

func (f *fixture) date(s string) calendar.Date {
	f.t.Helper()
	d, err := calendar.ParseDate(s)
	if err != nil {
		f.t.Fatalf("parse date: %v", err)
	}
	return d
}

func (f *fixture) user(category model.UserCategory) *model.User {
	f.t.Helper()
	u := &model.User{
		Email:    uuid.NewString() + "@example.com",
		Name:     "Kim Minsu",
		Phone:    "010-1234-5678",
		Category: category,
		Role:     model.UserRoleUser,
		Active:   true,
	}
	if err := f.repo.Users.Create(context.Background(), u); err != nil {
		f.t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) resource(unit model.BookingUnit) *model.Resource {
	f.t.Helper()
	r := &model.Resource{
		Name:        "Room " + uuid.NewString()[:4],
		Category:    model.ResourceCategorySpace,
		BookingUnit: unit,
		Status:      model.ResourceStatusActive,
	}
	if err := f.repo.Resources.Create(context.Background(), r); err != nil {
		f.t.Fatalf("create resource: %v", err)
	}
	return r
}

func (f *fixture) weekly(resourceID uuid.UUID, dow time.Weekday, open, closeAt string) {
	f.t.Helper()
	o, _ := calendar.ParseClock(open)
	c, _ := calendar.ParseClock(closeAt)
	err := f.repo.Schedules.CreateWeekly(context.Background(), &model.WeeklySchedule{
		ResourceID: resourceID,
		DayOfWeek:  int(dow),
		OpenTime:   timeOf(o),
		CloseTime:  timeOf(c),
	})
	if err != nil {
		f.t.Fatalf("create weekly: %v", err)
	}
}

func (f *fixture) defaultPrice(resourceID uuid.UUID, price int64) *model.PricingRule {
	f.t.Helper()
	r := &model.PricingRule{ResourceID: resourceID, Kind: model.PricingRuleDefault, Price: price, IsActive: true}
	if err := f.repo.Pricing.Create(context.Background(), r); err != nil {
		f.t.Fatalf("create pricing rule: %v", err)
	}
	return r
}

// bookable — ресурс по слотам с расписанием Пн 09–18 и ценой по умолчанию.
func (f *fixture) bookable(price int64) *model.Resource {
	r := f.resource(model.BookingUnitTimeSlot)
	f.weekly(r.ID, time.Monday, "09:00", "18:00")
	f.defaultPrice(r.ID, price)
	return r
}

func (f *fixture) reserve(svc *ReservationService, userID uuid.UUID, lines ...ReservationLine) *model.Reservation {
	f.t.Helper()
	res, err := svc.Create(context.Background(), CreateInput{UserID: userID, Lines: lines})
	if err != nil {
		f.t.Fatalf("create reservation: %v", err)
	}
	return res
}

func (f *fixture) reload(id uuid.UUID) *model.Reservation {
	f.t.Helper()
	res, err := f.repo.Reservations.GetByID(context.Background(), id)
	if err != nil {
		f.t.Fatalf("reload reservation: %v", err)
	}
	return res
}

func (f *fixture) assertStatuses(id uuid.UUID, rs model.ReservationStatus, ps model.PaymentStatus) *model.Reservation {
	f.t.Helper()
	res := f.reload(id)
	if res.Status != rs {
		f.t.Fatalf("reservation status = %s, want %s", res.Status, rs)
	}
	for _, it := range res.Items {
		if it.Status != rs {
			f.t.Fatalf("item %s status = %s, want %s", it.ID, it.Status, rs)
		}
	}
	if res.Payment == nil || res.Payment.Status != ps {
		f.t.Fatalf("payment = %+v, want status %s", res.Payment, ps)
	}
	return res
}

func (f *fixture) audit(reservationID uuid.UUID) []model.NotificationLog {
	f.t.Helper()
	list, err := f.repo.Notifications.ListByReservation(context.Background(), reservationID)
	if err != nil {
		f.t.Fatalf("list audit: %v", err)
	}
	return list
}

func line(resourceID uuid.UUID, start, end time.Time) ReservationLine {
	return ReservationLine{ResourceID: resourceID, StartAt: start, EndAt: end, Quantity: 1}
}

// fakeProvider — провайдер в памяти.
type fakeProvider struct {
	mu        sync.Mutex
	payments  map[string]*portone.Payment
	getErr    error
	cancelErr error
	cancels   []portone.CancelRequest
	gets      int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{payments: map[string]*portone.Payment{}}
}

func (p *fakeProvider) set(id, status string, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pay := &portone.Payment{ID: id, Status: status, Currency: "KRW"}
	pay.Amount.Total = total
	if status == portone.StatusPaid {
		pay.Amount.Paid = total
	}
	p.payments[id] = pay
}

func (p *fakeProvider) GetPayment(_ context.Context, id string) (*portone.Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gets++
	if p.getErr != nil {
		return nil, p.getErr
	}
	pay, ok := p.payments[id]
	if !ok {
		return nil, portone.ErrPaymentNotFound
	}
	cp := *pay
	return &cp, nil
}

func (p *fakeProvider) CancelPayment(_ context.Context, req portone.CancelRequest) (*portone.Cancellation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelErr != nil {
		return nil, p.cancelErr
	}
	p.cancels = append(p.cancels, req)
	return &portone.Cancellation{Status: "SUCCEEDED", ID: "cancel-" + req.PaymentID, TotalAmount: req.Amount}, nil
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
