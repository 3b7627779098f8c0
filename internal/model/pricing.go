package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PricingRuleKind string

const (
	PricingRuleDefault   PricingRuleKind = "DEFAULT"
	PricingRuleTimeRange PricingRuleKind = "TIME_RANGE"
	PricingRuleDayOfWeek PricingRuleKind = "DAY_OF_WEEK"
	PricingRuleUserType  PricingRuleKind = "USER_TYPE"
)

// pricing_rules — цена за единицу (KRW) и предикат применимости по виду правила.
type PricingRule struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ResourceID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind       PricingRuleKind `gorm:"type:varchar(16);not null"`
	Price      int64           `gorm:"not null"`
	IsActive   bool            `gorm:"not null;index"`

	// TIME_RANGE
	StartTime *datatypes.Time `gorm:"type:time"`
	EndTime   *datatypes.Time `gorm:"type:time"`
	// DAY_OF_WEEK
	DayOfWeek *int
	// USER_TYPE
	UserCategory *UserCategory `gorm:"type:varchar(16)"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Resource *Resource `gorm:"foreignKey:ResourceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
