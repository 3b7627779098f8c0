package model

import (
	"time"

	"github.com/google/uuid"
)

type BlackoutKind string

const (
	BlackoutKindBlock BlackoutKind = "BLOCK"
	// ALLOW отображается в календаре, но время всё равно считается занятым.
	BlackoutKindAllow BlackoutKind = "ALLOW"
)

// blackouts
type Blackout struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ResourceID uuid.UUID    `gorm:"type:uuid;not null;index"`
	StartAt    time.Time    `gorm:"type:timestamp with time zone;not null;index"`
	EndAt      time.Time    `gorm:"type:timestamp with time zone;not null;index"`
	Kind       BlackoutKind `gorm:"type:varchar(16);not null"`
	Reason     string       `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`

	Resource *Resource `gorm:"foreignKey:ResourceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
