package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/service"
)

const dateLayout = "2006-01-02"

func clockString(t datatypes.Time) string {
	return calendar.ClockFromDuration(time.Duration(t)).String()
}

func clockPtrString(t *datatypes.Time) *string {
	if t == nil {
		return nil
	}
	s := clockString(*t)
	return &s
}

// ── Бронирования ──

type PaymentResponse struct {
	ID                uuid.UUID           `json:"id"`
	Status            model.PaymentStatus `json:"status"`
	Amount            int64               `json:"amount"`
	Provider          *string             `json:"provider,omitempty"`
	ProviderPaymentID *string             `json:"providerPaymentId,omitempty"`
	PaidAt            *time.Time          `json:"paidAt,omitempty"`
	RefundedAmount    *int64              `json:"refundedAmount,omitempty"`
	RefundReason      *string             `json:"refundReason,omitempty"`
	RefundedAt        *time.Time          `json:"refundedAt,omitempty"`
}

type ReservationItemResponse struct {
	ID              uuid.UUID               `json:"id"`
	ResourceID      uuid.UUID               `json:"resourceId"`
	ResourceName    string                  `json:"resourceName,omitempty"`
	StartAt         time.Time               `json:"startAt"`
	EndAt           time.Time               `json:"endAt"`
	Quantity        int                     `json:"quantity"`
	UnitPrice       int64                   `json:"unitPrice"`
	Amount          int64                   `json:"amount"`
	PricingRuleID   *uuid.UUID              `json:"pricingRuleId,omitempty"`
	PricingRuleKind model.PricingRuleKind   `json:"pricingRuleType,omitempty"`
	Status          model.ReservationStatus `json:"status"`
}

type ReservationResponse struct {
	ID          uuid.UUID                 `json:"id"`
	UserID      uuid.UUID                 `json:"userId"`
	Status      model.ReservationStatus   `json:"status"`
	TotalAmount int64                     `json:"totalAmount"`
	DocumentURL *string                   `json:"documentUrl,omitempty"`
	CreatedAt   time.Time                 `json:"createdAt"`
	Items       []ReservationItemResponse `json:"items"`
	Payment     *PaymentResponse          `json:"payment,omitempty"`
}

func NewPaymentResponse(p *model.Payment) *PaymentResponse {
	if p == nil {
		return nil
	}
	return &PaymentResponse{
		ID:                p.ID,
		Status:            p.Status,
		Amount:            p.Amount,
		Provider:          p.Provider,
		ProviderPaymentID: p.ProviderPaymentID,
		PaidAt:            p.PaidAt,
		RefundedAmount:    p.RefundedAmount,
		RefundReason:      p.RefundReason,
		RefundedAt:        p.RefundedAt,
	}
}

func NewReservationResponse(r *model.Reservation) ReservationResponse {
	out := ReservationResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		Status:      r.Status,
		TotalAmount: r.TotalAmount,
		DocumentURL: r.DocumentURL,
		CreatedAt:   r.CreatedAt.UTC(),
		Items:       make([]ReservationItemResponse, 0, len(r.Items)),
		Payment:     NewPaymentResponse(r.Payment),
	}
	for _, it := range r.Items {
		item := ReservationItemResponse{
			ID:              it.ID,
			ResourceID:      it.ResourceID,
			StartAt:         it.StartAt.UTC(),
			EndAt:           it.EndAt.UTC(),
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			Amount:          it.Amount,
			PricingRuleID:   it.PricingRuleID,
			PricingRuleKind: it.PricingRuleKind,
			Status:          it.Status,
		}
		if it.Resource != nil {
			item.ResourceName = it.Resource.Name
		}
		out.Items = append(out.Items, item)
	}
	return out
}

func NewReservationList(list []model.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(list))
	for i := range list {
		out = append(out, NewReservationResponse(&list[i]))
	}
	return out
}

type CancelResponse struct {
	Reservation   ReservationResponse `json:"reservation"`
	RefundPercent int                 `json:"refundPercent"`
	RefundAmount  int64               `json:"refundAmount"`
}

func NewCancelResponse(r *service.CancelResult) CancelResponse {
	return CancelResponse{
		Reservation:   NewReservationResponse(r.Reservation),
		RefundPercent: int(r.RefundPercent),
		RefundAmount:  r.RefundAmount,
	}
}

// ── Доступность и расписание ──

type AvailabilityResponse struct {
	service.Availability
	OpenTime  *string `json:"openTime,omitempty"`
	CloseTime *string `json:"closeTime,omitempty"`
}

func NewAvailabilityResponse(a service.Availability) AvailabilityResponse {
	out := AvailabilityResponse{Availability: a}
	if a.Slots == nil {
		out.Slots = []calendar.TimeRange{}
	}
	if a.OpenTime != nil {
		s := a.OpenTime.String()
		out.OpenTime = &s
	}
	if a.CloseTime != nil {
		s := a.CloseTime.String()
		out.CloseTime = &s
	}
	return out
}

type ScheduleResponse struct {
	ResourceID uuid.UUID              `json:"resourceId"`
	Date       calendar.Date          `json:"date"`
	Status     service.ScheduleStatus `json:"status"`
	Source     service.ScheduleSource `json:"source,omitempty"`
	OpenTime   *string                `json:"openTime,omitempty"`
	CloseTime  *string                `json:"closeTime,omitempty"`
}

func NewScheduleResponse(resourceID uuid.UUID, date calendar.Date, s service.ResolvedSchedule) ScheduleResponse {
	out := ScheduleResponse{ResourceID: resourceID, Date: date, Status: s.Status, Source: s.Source}
	if s.Status == service.ScheduleOpen {
		open, closeAt := s.Open.String(), s.Close.String()
		out.OpenTime, out.CloseTime = &open, &closeAt
	}
	return out
}

type WeeklyScheduleResponse struct {
	ID         uuid.UUID `json:"id"`
	ResourceID uuid.UUID `json:"resourceId"`
	DayOfWeek  int       `json:"dayOfWeek"`
	OpenTime   string    `json:"openTime"`
	CloseTime  string    `json:"closeTime"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ScheduleExceptionResponse struct {
	ID         uuid.UUID `json:"id"`
	ResourceID uuid.UUID `json:"resourceId"`
	Date       string    `json:"date"`
	IsClosed   bool      `json:"isClosed"`
	OpenTime   *string   `json:"openTime,omitempty"`
	CloseTime  *string   `json:"closeTime,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Deduped    bool      `json:"deduped,omitempty"`
}

type ScheduleListResponse struct {
	Weekly     []WeeklyScheduleResponse    `json:"weekly"`
	Exceptions []ScheduleExceptionResponse `json:"exceptions"`
}

func NewWeeklyScheduleResponse(w *model.WeeklySchedule) WeeklyScheduleResponse {
	return WeeklyScheduleResponse{
		ID:         w.ID,
		ResourceID: w.ResourceID,
		DayOfWeek:  w.DayOfWeek,
		OpenTime:   clockString(w.OpenTime),
		CloseTime:  clockString(w.CloseTime),
		CreatedAt:  w.CreatedAt.UTC(),
	}
}

func NewScheduleExceptionResponse(e *model.ScheduleException) ScheduleExceptionResponse {
	return ScheduleExceptionResponse{
		ID:         e.ID,
		ResourceID: e.ResourceID,
		Date:       time.Time(e.Date).Format(dateLayout),
		IsClosed:   e.IsClosed,
		OpenTime:   clockPtrString(e.OpenTime),
		CloseTime:  clockPtrString(e.CloseTime),
		CreatedAt:  e.CreatedAt.UTC(),
	}
}

func NewScheduleListResponse(l service.ScheduleList) ScheduleListResponse {
	out := ScheduleListResponse{
		Weekly:     make([]WeeklyScheduleResponse, 0, len(l.Weekly)),
		Exceptions: make([]ScheduleExceptionResponse, 0, len(l.Exceptions)),
	}
	for i := range l.Weekly {
		out.Weekly = append(out.Weekly, NewWeeklyScheduleResponse(&l.Weekly[i]))
	}
	for i := range l.Exceptions {
		out.Exceptions = append(out.Exceptions, NewScheduleExceptionResponse(&l.Exceptions[i]))
	}
	return out
}

// ── Цены ──

type PricingRuleResponse struct {
	ID           uuid.UUID             `json:"id"`
	ResourceID   uuid.UUID             `json:"resourceId"`
	Type         model.PricingRuleKind `json:"type"`
	Price        int64                 `json:"price"`
	IsActive     bool                  `json:"isActive"`
	StartTime    *string               `json:"startTime,omitempty"`
	EndTime      *string               `json:"endTime,omitempty"`
	DayOfWeek    *int                  `json:"dayOfWeek,omitempty"`
	UserCategory *model.UserCategory   `json:"userType,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
}

func NewPricingRuleResponse(r *model.PricingRule) PricingRuleResponse {
	return PricingRuleResponse{
		ID:           r.ID,
		ResourceID:   r.ResourceID,
		Type:         r.Kind,
		Price:        r.Price,
		IsActive:     r.IsActive,
		StartTime:    clockPtrString(r.StartTime),
		EndTime:      clockPtrString(r.EndTime),
		DayOfWeek:    r.DayOfWeek,
		UserCategory: r.UserCategory,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func NewPricingRuleList(list []model.PricingRule) []PricingRuleResponse {
	out := make([]PricingRuleResponse, 0, len(list))
	for i := range list {
		out = append(out, NewPricingRuleResponse(&list[i]))
	}
	return out
}

// ── Блокировки ──

type BlackoutResponse struct {
	ID         uuid.UUID          `json:"id"`
	ResourceID uuid.UUID          `json:"resourceId"`
	StartAt    time.Time          `json:"startAt"`
	EndAt      time.Time          `json:"endAt"`
	Type       model.BlackoutKind `json:"type"`
	Reason     string             `json:"reason,omitempty"`
}

func NewBlackoutList(list []model.Blackout) []BlackoutResponse {
	out := make([]BlackoutResponse, 0, len(list))
	for _, b := range list {
		out = append(out, BlackoutResponse{
			ID:         b.ID,
			ResourceID: b.ResourceID,
			StartAt:    b.StartAt.UTC(),
			EndAt:      b.EndAt.UTC(),
			Type:       b.Kind,
			Reason:     b.Reason,
		})
	}
	return out
}

// ── Журнал ──

type NotificationLogResponse struct {
	ID            uuid.UUID                `json:"id"`
	Kind          model.NotificationKind   `json:"kind"`
	Status        model.NotificationStatus `json:"status"`
	UserID        *uuid.UUID               `json:"userId,omitempty"`
	ReservationID *uuid.UUID               `json:"reservationId,omitempty"`
	Title         string                   `json:"title"`
	Message       string                   `json:"message,omitempty"`
	Error         *string                  `json:"error,omitempty"`
	Details       datatypes.JSON           `json:"details,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
}

func NewNotificationLogList(list []model.NotificationLog) []NotificationLogResponse {
	out := make([]NotificationLogResponse, 0, len(list))
	for _, l := range list {
		out = append(out, NotificationLogResponse{
			ID:            l.ID,
			Kind:          l.Kind,
			Status:        l.Status,
			UserID:        l.UserID,
			ReservationID: l.ReservationID,
			Title:         l.Title,
			Message:       l.Message,
			Error:         l.Error,
			Details:       l.Details,
			CreatedAt:     l.CreatedAt.UTC(),
		})
	}
	return out
}
