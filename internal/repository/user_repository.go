package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/model"
)

type UserRepository interface {
	// Создать пользователя (учётки заводит сервис авторизации, здесь — для сидов и тестов).
	Create(ctx context.Context, u *model.User) error
	// Получить пользователя по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// Источник данных для calendar.ValidateUser; nil без ошибки, если пользователя нет.
	FindUserByID(ctx context.Context, id uuid.UUID) (*calendar.User, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*calendar.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &calendar.User{
		ID:       u.ID,
		Role:     calendar.UserRole(u.Role),
		Category: calendar.UserCategory(u.Category),
		Active:   u.Active,
	}, nil
}
