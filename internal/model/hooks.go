package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// В Postgres id проставляет gen_random_uuid(), но генерация на стороне
// приложения даёт id до коммита и работает на любом драйвере.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *User) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *Resource) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *WeeklySchedule) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *ScheduleException) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *Blackout) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *PricingRule) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *Reservation) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *ReservationItem) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *Payment) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *NotificationLog) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
