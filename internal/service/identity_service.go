package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/apperr"
	"github.com/Leganyst/reservation-engine/internal/calendar"
)

// IdentityService превращает id из проверенного токена в пользователя с ролью и категорией.
type IdentityService struct {
	users calendar.UserStore
}

func NewIdentityService(users calendar.UserStore) *IdentityService {
	return &IdentityService{users: users}
}

func (s *IdentityService) Authenticate(ctx context.Context, userID uuid.UUID) (*calendar.ValidatedUser, error) {
	u, err := calendar.ValidateUser(ctx, s.users, userID)
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, calendar.ErrInvalidUserID), errors.Is(err, calendar.ErrUserNotFound):
		return nil, apperr.Forbidden(CodeUserNotFound, "unknown user")
	case errors.Is(err, calendar.ErrUserInactive):
		return nil, apperr.Forbidden(CodeForbidden, "user is inactive")
	default:
		return nil, fmt.Errorf("validate user: %w", err)
	}
}
