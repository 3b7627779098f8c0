package model

import (
	"time"

	"github.com/google/uuid"
)

type UserCategory string

const (
	UserCategoryPersonal UserCategory = "PERSONAL"
	UserCategoryBusiness UserCategory = "BUSINESS"
)

type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// users — учётки ведёт внешний сервис авторизации, ядро их только читает.
type User struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	Email    string       `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name     string       `gorm:"type:varchar(255)"`
	Phone    string       `gorm:"type:varchar(32)"`
	Category UserCategory `gorm:"type:varchar(16);not null"`
	Role     UserRole     `gorm:"type:varchar(16);not null"`
	Active   bool         `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}
