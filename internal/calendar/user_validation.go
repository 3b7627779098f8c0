package calendar

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Ошибки валидации вызывающего пользователя.
var (
	ErrInvalidUserID = errors.New("invalid user id")
	ErrUserNotFound  = errors.New("user not found")
	ErrUserInactive  = errors.New("user is inactive")
)

// Роль пользователя в системе.
type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// Категория пользователя для ценообразования.
type UserCategory string

const (
	UserCategoryPersonal UserCategory = "PERSONAL"
	UserCategoryBusiness UserCategory = "BUSINESS"
)

// Доменная модель пользователя для проверки доступа.
type User struct {
	ID       uuid.UUID
	Role     UserRole
	Category UserCategory
	Active   bool
}

// Результат успешной валидации.
type ValidatedUser struct {
	ID       uuid.UUID
	Role     UserRole
	Category UserCategory
}

func (u *ValidatedUser) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// Источник данных о пользователях.
// В реале это обёртка над БД, в тестах — мок.
type UserStore interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// ValidateUser:
//   - проверяет корректность идентификатора;
//   - вытаскивает пользователя из хранилища;
//   - проверяет, что он активен;
//   - нормализует категорию (по умолчанию PERSONAL).
func ValidateUser(ctx context.Context, store UserStore, id uuid.UUID) (*ValidatedUser, error) {
	if id == uuid.Nil {
		return nil, ErrInvalidUserID
	}

	u, err := store.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if !u.Active {
		return nil, ErrUserInactive
	}

	category := u.Category
	if category == "" {
		category = UserCategoryPersonal
	}
	role := u.Role
	if role == "" {
		role = UserRoleUser
	}

	return &ValidatedUser{ID: u.ID, Role: role, Category: category}, nil
}
