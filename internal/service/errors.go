package service

import "github.com/Leganyst/reservation-engine/internal/apperr"

// Коды ошибок, которые видит клиент.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	CodeNotTimeUnit         = "NOT_TIME_UNIT"
	CodeReservationNotFound = "RESERVATION_NOT_FOUND"
	CodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	CodeScheduleNotFound    = "SCHEDULE_NOT_FOUND"
	CodeBlackoutNotFound    = "BLACKOUT_NOT_FOUND"
	CodePricingRuleNotFound = "PRICING_RULE_NOT_FOUND"
	CodeNoPricingRule       = "NO_PRICING_RULE"
	CodeSlotConflict        = "SLOT_CONFLICT"
	CodeNoContinuousSlots   = "NO_CONTINUOUS_SLOTS"
	CodePreferredStartTaken = "PREFERRED_START_NOT_AVAILABLE"
	CodeSlotIndexOutOfRange = "SLOT_INDEX_OUT_OF_RANGE"
	CodePaymentNotPending   = "PAYMENT_NOT_PENDING"
	CodePaymentNotPaid      = "PAYMENT_NOT_PAID"
	CodeAlreadyCancelled    = "ALREADY_CANCELLED"
	CodeRefundNotAllowed    = "REFUND_NOT_ALLOWED"
	CodeRefundAmountZero    = "REFUND_AMOUNT_ZERO"
	CodeRefundFailed        = "REFUND_FAILED"
	CodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	CodeAmountMismatch      = "AMOUNT_MISMATCH"
	CodeForbidden           = "FORBIDDEN"
	CodeInvalidStateChange  = "INVALID_STATE_CHANGE"
	CodeNoProviderPaymentID = "NO_PROVIDER_PAYMENT_ID"
	CodeUserNotFound        = "USER_NOT_FOUND"
)

var (
	ErrReservationNotFound = apperr.NotFound(CodeReservationNotFound, "reservation not found")
	ErrResourceNotFound    = apperr.NotFound(CodeResourceNotFound, "resource not found")
	ErrNoPricingRule       = apperr.Conflict(CodeNoPricingRule, "no pricing rule matches")
	ErrForbidden           = apperr.Forbidden(CodeForbidden, "not allowed")
)

func invalid(message string) *apperr.Error {
	return apperr.Validation(CodeInvalidInput, message)
}
