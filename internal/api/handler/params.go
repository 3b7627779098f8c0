package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/api/middleware"
	"github.com/Leganyst/reservation-engine/internal/api/response"
	"github.com/Leganyst/reservation-engine/internal/calendar"
)

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		response.BadRequest(c, "invalid query: "+err.Error())
		return false
	}
	return true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, name+" must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(c *gin.Context) (*calendar.ValidatedUser, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "unauthenticated")
	}
	return u, ok
}

// Значения ниже уже прошли проверку binding, поэтому ошибки разбора не ожидаются.

func mustDate(s string) calendar.Date {
	d, _ := calendar.ParseDate(s)
	return d
}

func optDate(s string) *calendar.Date {
	if s == "" {
		return nil
	}
	d := mustDate(s)
	return &d
}

func optUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func optClock(s *string) *calendar.Clock {
	if s == nil {
		return nil
	}
	c, err := calendar.ParseClock(*s)
	if err != nil {
		return nil
	}
	return &c
}

// splitUUIDs разбирает "id1,id2,...".
func splitUUIDs(s string) ([]uuid.UUID, bool) {
	parts := strings.Split(s, ",")
	out := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, false
		}
		out = append(out, id)
	}
	return out, true
}
