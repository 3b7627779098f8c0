package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// IsNotFound — удобная проверка для сервисов.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// Repository собирает репозитории всех сущностей поверх одного *gorm.DB.
// Внутри Transaction все они работают на одной транзакции.
type Repository struct {
	db *gorm.DB

	Users         UserRepository
	Resources     ResourceRepository
	Schedules     ScheduleRepository
	Blackouts     BlackoutRepository
	Pricing       PricingRepository
	Reservations  ReservationRepository
	Payments      PaymentRepository
	Notifications NotificationRepository
}

func New(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		Users:         NewGormUserRepository(db),
		Resources:     NewGormResourceRepository(db),
		Schedules:     NewGormScheduleRepository(db),
		Blackouts:     NewGormBlackoutRepository(db),
		Pricing:       NewGormPricingRepository(db),
		Reservations:  NewGormReservationRepository(db),
		Payments:      NewGormPaymentRepository(db),
		Notifications: NewGormNotificationRepository(db),
	}
}

// Transaction выполняет fn в одной транзакции БД. Ошибка из fn откатывает всё.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
