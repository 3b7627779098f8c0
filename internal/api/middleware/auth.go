package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/api/response"
	"github.com/Leganyst/reservation-engine/internal/apperr"
	"github.com/Leganyst/reservation-engine/internal/calendar"
)

const userKey = "user"

// Claims — поля токена, который выпускает внешний сервис авторизации.
type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator подтверждает, что пользователь из токена существует и активен.
type Authenticator interface {
	Authenticate(ctx context.Context, userID uuid.UUID) (*calendar.ValidatedUser, error)
}

var errInvalidToken = errors.New("invalid token")

// ParseToken проверяет подпись HS256 и срок действия.
func ParseToken(secret []byte, raw string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, errInvalidToken
	}
	return c, nil
}

// JWTAuth проверяет Bearer-токен. Роль и категория берутся из базы, а не из токена.
func JWTAuth(secret string, users Authenticator) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || raw == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}

		claims, err := ParseToken(key, raw)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		id, err := uuid.Parse(claims.Sub)
		if err != nil {
			response.Unauthorized(c, "invalid token subject")
			return
		}

		user, err := users.Authenticate(c.Request.Context(), id)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindForbidden {
				response.Unauthorized(c, "user is not allowed")
				return
			}
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, response.CodeInternal, "internal server error")
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAdmin пропускает только администраторов. Ставится после JWTAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Unauthorized(c, "unauthenticated")
			return
		}
		if !user.IsAdmin() {
			response.Forbidden(c, "admin role required")
			return
		}
		c.Next()
	}
}

// CurrentUser достаёт пользователя, положенного JWTAuth.
func CurrentUser(c *gin.Context) (*calendar.ValidatedUser, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*calendar.ValidatedUser)
	return u, ok && u != nil
}
