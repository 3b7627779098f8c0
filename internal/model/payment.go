package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "PENDING"
	PaymentStatusPaid              PaymentStatus = "PAID"
	PaymentStatusCancelled         PaymentStatus = "CANCELLED"
	PaymentStatusFailed            PaymentStatus = "FAILED"
	PaymentStatusRefunded          PaymentStatus = "REFUNDED"
	PaymentStatusPartiallyRefunded PaymentStatus = "PARTIALLY_REFUNDED"
)

// Допустимые переходы статуса платежа. Всё, чего нет в таблице, запрещено.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending: {PaymentStatusPaid, PaymentStatusCancelled, PaymentStatusFailed},
	PaymentStatusPaid:    {PaymentStatusRefunded, PaymentStatusPartiallyRefunded},
}

// CanTransition сообщает, разрешён ли переход from -> to.
func CanTransition(from, to PaymentStatus) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// payments — 1:1 с reservations. Сумма фиксируется при создании и больше не меняется,
// возвраты пишутся только в refunded_* поля.
type Payment struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ReservationID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex"`
	Status        PaymentStatus `gorm:"type:varchar(32);not null;index"`
	Amount        int64         `gorm:"not null"`

	Provider          *string `gorm:"type:varchar(64)"`
	ProviderPaymentID *string `gorm:"type:varchar(128);uniqueIndex"`

	PaidAt         *time.Time `gorm:"type:timestamp with time zone"`
	RefundedAmount *int64
	RefundReason   *string    `gorm:"type:text"`
	RefundedAt     *time.Time `gorm:"type:timestamp with time zone"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Reservation *Reservation `gorm:"foreignKey:ReservationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
