package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Тип события аудита.
type NotificationKind string

const (
	NotificationKindPaymentConfirmed NotificationKind = "payment_confirmed"
	NotificationKindPaymentMismatch  NotificationKind = "payment_amount_mismatch"
	NotificationKindPaymentCancelled NotificationKind = "payment_cancelled"
	NotificationKindLatePayment      NotificationKind = "payment_late"
	NotificationKindRefund           NotificationKind = "refund"
	NotificationKindCancellation     NotificationKind = "cancellation"
	NotificationKindExpired          NotificationKind = "reservation_expired"
	NotificationKindAdminAction      NotificationKind = "admin_action"
)

type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "SENT"
	NotificationStatusFailed NotificationStatus = "FAILED"
)

// Заголовок записи об истечении TTL. По нему читается журнал чистки.
const ExpiredByTTLTitle = "Reservation expired (TTL)"

// notification_logs — журнал аудита, только на добавление.
type NotificationLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Kind   NotificationKind   `gorm:"type:varchar(64);not null;index"`
	Status NotificationStatus `gorm:"type:varchar(16);not null"`

	UserID        *uuid.UUID `gorm:"type:uuid;index"`
	ReservationID *uuid.UUID `gorm:"type:uuid;index"`

	Title   string  `gorm:"type:varchar(255);not null;index"`
	Message string  `gorm:"type:text"`
	Error   *string `gorm:"type:text"`

	Details datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
}
