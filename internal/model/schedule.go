package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// weekly_schedules — шаблон рабочих часов по дню недели (0 = воскресенье).
// При дублях по (resource_id, day_of_week) действует последняя созданная запись.
type WeeklySchedule struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ResourceID uuid.UUID `gorm:"type:uuid;not null;index:idx_weekly_resource_dow"`
	DayOfWeek  int       `gorm:"not null;index:idx_weekly_resource_dow"`

	// Время суток без даты — datatypes.Time
	OpenTime  datatypes.Time `gorm:"type:time;not null"`
	CloseTime datatypes.Time `gorm:"type:time;not null"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`

	Resource *Resource `gorm:"foreignKey:ResourceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// schedule_exceptions — переопределение на конкретную дату: выходной или особые часы.
type ScheduleException struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ResourceID uuid.UUID `gorm:"type:uuid;not null;index:idx_exception_resource_date"`

	// Чистая дата без времени — datatypes.Date
	Date datatypes.Date `gorm:"type:date;not null;index:idx_exception_resource_date"`

	IsClosed  bool            `gorm:"not null"`
	OpenTime  *datatypes.Time `gorm:"type:time"`
	CloseTime *datatypes.Time `gorm:"type:time"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`

	Resource *Resource `gorm:"foreignKey:ResourceID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
