package model

import (
	"time"

	"github.com/google/uuid"
)

type ResourceCategory string

const (
	ResourceCategorySpace      ResourceCategory = "SPACE"
	ResourceCategoryEquipment  ResourceCategory = "EQUIPMENT"
	ResourceCategoryConsulting ResourceCategory = "CONSULTING"
)

// Единица бронирования. Слоты считаются только для TIME_SLOT.
type BookingUnit string

const (
	BookingUnitTimeSlot BookingUnit = "TIME_SLOT"
	BookingUnitDay      BookingUnit = "DAY"
	BookingUnitItem     BookingUnit = "ITEM"
)

type ResourceStatus string

const (
	ResourceStatusActive  ResourceStatus = "ACTIVE"
	ResourceStatusDeleted ResourceStatus = "DELETED"
)

// resources
type Resource struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Name        string           `gorm:"type:varchar(255);not null"`
	Category    ResourceCategory `gorm:"type:varchar(32);not null"`
	BookingUnit BookingUnit      `gorm:"type:varchar(32);not null"`
	Status      ResourceStatus   `gorm:"type:varchar(16);not null;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

func (r *Resource) IsBookable() bool {
	return r != nil && r.Status == ResourceStatusActive
}
