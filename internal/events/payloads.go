package events

import (
	"time"

	"github.com/google/uuid"
)

// ReservationEvent — тело событий reservation.*.
type ReservationEvent struct {
	ReservationID uuid.UUID `json:"reservationId"`
	UserID        uuid.UUID `json:"userId"`
	Status        string    `json:"status"`
	TotalAmount   int64     `json:"totalAmount"`
	At            time.Time `json:"at"`
}

// PaymentEvent — тело событий payment.*.
type PaymentEvent struct {
	PaymentID         uuid.UUID `json:"paymentId"`
	ReservationID     uuid.UUID `json:"reservationId"`
	ProviderPaymentID string    `json:"providerPaymentId,omitempty"`
	Status            string    `json:"status"`
	Amount            int64     `json:"amount"`
	RefundedAmount    int64     `json:"refundedAmount,omitempty"`
	At                time.Time `json:"at"`
}
