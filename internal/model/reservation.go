package model

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusNoShow    ReservationStatus = "NOSHOW"
)

// reservations — заказ пользователя: 1..N позиций и ровно один платёж.
type Reservation struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	UserID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	Status      ReservationStatus `gorm:"type:varchar(16);not null;index"`
	TotalAmount int64             `gorm:"not null"`
	DocumentURL *string           `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	User    *User             `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Items   []ReservationItem `gorm:"foreignKey:ReservationID"`
	Payment *Payment          `gorm:"foreignKey:ReservationID"`
}

// StartAt — самое раннее начало среди позиций (по нему считается политика возврата).
func (r *Reservation) StartAt() time.Time {
	var min time.Time
	for i, it := range r.Items {
		if i == 0 || it.StartAt.Before(min) {
			min = it.StartAt
		}
	}
	return min
}

// reservation_items
type ReservationItem struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ReservationID uuid.UUID `gorm:"type:uuid;not null;index"`
	ResourceID    uuid.UUID `gorm:"type:uuid;not null;index:idx_items_resource_range"`

	StartAt time.Time `gorm:"type:timestamp with time zone;not null;index:idx_items_resource_range"`
	EndAt   time.Time `gorm:"type:timestamp with time zone;not null;index:idx_items_resource_range"`

	Quantity  int   `gorm:"not null"`
	UnitPrice int64 `gorm:"not null"`
	Amount    int64 `gorm:"not null"`

	PricingRuleID   *uuid.UUID      `gorm:"type:uuid"`
	PricingRuleKind PricingRuleKind `gorm:"type:varchar(16)"`

	Status ReservationStatus `gorm:"type:varchar(16);not null;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Reservation *Reservation `gorm:"foreignKey:ReservationID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Resource    *Resource    `gorm:"foreignKey:ResourceID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
