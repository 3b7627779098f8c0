// Package dto описывает тела запросов и ответов HTTP API.
package dto

import "time"

// ── Доступность ──

type AvailabilityQuery struct {
	ResourceID  string `form:"resourceId"  binding:"required,uuid"`
	Date        string `form:"date"        binding:"required,datetime=2006-01-02"`
	SlotMinutes int    `form:"slotMinutes" binding:"omitempty,min=15,max=240"`
}

type MultiAvailabilityQuery struct {
	// id через запятую
	ResourceIDs        string `form:"resourceIds"        binding:"required"`
	Date               string `form:"date"               binding:"required,datetime=2006-01-02"`
	SlotMinutes        int    `form:"slotMinutes"        binding:"omitempty,min=15,max=240"`
	DurationMinutes    int    `form:"durationMinutes"    binding:"omitempty,min=15,max=480"`
	IncludePerResource bool   `form:"includePerResource"`
	OnlyBlockStartAt   bool   `form:"onlyBlockStartAt"`
	LimitBlocks        int    `form:"limitBlocks"        binding:"omitempty,min=1,max=200"`
}

// ── Бронирования ──

type ReservationLineRequest struct {
	ResourceID string    `json:"resourceId" binding:"required,uuid"`
	StartAt    time.Time `json:"startAt"    binding:"required"`
	EndAt      time.Time `json:"endAt"      binding:"required"`
	Quantity   int       `json:"quantity"   binding:"omitempty,min=1"`
}

type CreateReservationRequest struct {
	Items       []ReservationLineRequest `json:"items"       binding:"required,min=1,max=20,dive"`
	DocumentURL *string                  `json:"documentUrl" binding:"omitempty,url"`
}

type CreateMultiReservationRequest struct {
	ResourceIDs      []string       `json:"resourceIds"      binding:"required,min=2,max=10,dive,uuid"`
	Date             string         `json:"date"             binding:"required,datetime=2006-01-02"`
	SlotMinutes      int            `json:"slotMinutes"      binding:"omitempty,min=15,max=240"`
	DurationMinutes  int            `json:"durationMinutes"  binding:"required,min=15,max=480"`
	SlotIndex        int            `json:"slotIndex"        binding:"min=0"`
	PreferredStartAt *time.Time     `json:"preferredStartAt"`
	Quantities       map[string]int `json:"quantities"       binding:"omitempty,dive,keys,uuid,endkeys,min=1"`
	DocumentURL      *string        `json:"documentUrl"      binding:"omitempty,url"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type ReservationListQuery struct {
	Status        string `form:"status"        binding:"omitempty,oneof=PENDING CONFIRMED CANCELLED COMPLETED NOSHOW"`
	PaymentStatus string `form:"paymentStatus" binding:"omitempty,oneof=PENDING PAID CANCELLED FAILED REFUNDED PARTIALLY_REFUNDED"`
	ResourceID    string `form:"resourceId"    binding:"omitempty,uuid"`
	From          string `form:"from"          binding:"omitempty,datetime=2006-01-02"`
	To            string `form:"to"            binding:"omitempty,datetime=2006-01-02"`
	Query         string `form:"q"             binding:"max=100"`
	Limit         int    `form:"limit"         binding:"omitempty,min=1,max=200"`
	Offset        int    `form:"offset"        binding:"omitempty,min=0"`
}

type AdminActionRequest struct {
	Action string `json:"action" binding:"required,oneof=CONFIRM CANCEL MARK_PAID"`
	Reason string `json:"reason" binding:"max=500"`
}

type RefundRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ── Платежи ──

type CheckoutRequest struct {
	ReservationID string `json:"reservationId" binding:"required,uuid"`
}

type CompletePaymentRequest struct {
	PaymentID string `json:"paymentId" binding:"required,max=128"`
}

// ── Цены ──

type PricingRuleRequest struct {
	ResourceID   string  `json:"resourceId"   binding:"required,uuid"`
	Type         string  `json:"type"         binding:"required,oneof=DEFAULT TIME_RANGE DAY_OF_WEEK USER_TYPE"`
	Price        int64   `json:"price"        binding:"min=0"`
	StartTime    *string `json:"startTime"    binding:"omitempty,hhmm"`
	EndTime      *string `json:"endTime"      binding:"omitempty,hhmm"`
	DayOfWeek    *int    `json:"dayOfWeek"    binding:"omitempty,min=0,max=6"`
	UserCategory *string `json:"userType"     binding:"omitempty,oneof=PERSONAL BUSINESS"`
}

type PricingRuleActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

type PricingListQuery struct {
	IncludeInactive bool `form:"includeInactive"`
}

// ── Расписания ──

type ScheduleQuery struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

type WeeklyScheduleRequest struct {
	ResourceID string `json:"resourceId" binding:"required,uuid"`
	DayOfWeek  *int   `json:"dayOfWeek"  binding:"required,min=0,max=6"`
	OpenTime   string `json:"openTime"   binding:"required,hhmm"`
	CloseTime  string `json:"closeTime"  binding:"required,hhmm"`
}

type ScheduleExceptionRequest struct {
	ResourceID string  `json:"resourceId" binding:"required,uuid"`
	Date       string  `json:"date"       binding:"required,datetime=2006-01-02"`
	IsClosed   bool    `json:"isClosed"`
	OpenTime   *string `json:"openTime"   binding:"omitempty,hhmm"`
	CloseTime  *string `json:"closeTime"  binding:"omitempty,hhmm"`
}

type ScheduleListQuery struct {
	ResourceID string `form:"resourceId" binding:"omitempty,uuid"`
	Type       string `form:"type"       binding:"omitempty,oneof=weekly exception"`
	From       string `form:"from"       binding:"omitempty,datetime=2006-01-02"`
	To         string `form:"to"         binding:"omitempty,datetime=2006-01-02"`
}

type CleanupExceptionsRequest struct {
	ResourceID *string `json:"resourceId" binding:"omitempty,uuid"`
	From       *string `json:"from"       binding:"omitempty,datetime=2006-01-02"`
	To         *string `json:"to"         binding:"omitempty,datetime=2006-01-02"`
	Mode       string  `json:"mode"       binding:"omitempty,oneof=keepLatest deleteAll"`
}

// ── Блокировки ──

// BlackoutAllResources: значение resourceId для блокировки всех активных ресурсов.
const BlackoutAllResources = "all"

type BlackoutRequest struct {
	ResourceID string    `json:"resourceId" binding:"required"`
	StartAt    time.Time `json:"startAt"    binding:"required"`
	EndAt      time.Time `json:"endAt"      binding:"required"`
	Type       string    `json:"type"       binding:"omitempty,oneof=BLOCK ALLOW"`
	Reason     string    `json:"reason"     binding:"max=500"`
}

type BlackoutListQuery struct {
	ResourceID string `form:"resourceId" binding:"omitempty,uuid"`
	From       string `form:"from"       binding:"omitempty,datetime=2006-01-02"`
	To         string `form:"to"         binding:"omitempty,datetime=2006-01-02"`
}

// ── Календарь и обслуживание ──

type CalendarQuery struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to"   binding:"required,datetime=2006-01-02"`
}

type ExpirePendingRequest struct {
	TTLMinutes int `json:"ttlMinutes" binding:"omitempty,min=1,max=1440"`
}

type ExpiryLogQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}
