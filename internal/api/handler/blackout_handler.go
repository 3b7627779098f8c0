package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/api/response"
	"github.com/Leganyst/reservation-engine/internal/dto"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/service"
)

// CreateBlackout: resourceId = "all" ставит блокировку на все активные ресурсы.
// POST /api/admin/blackouts
func (h *Handler) CreateBlackout(c *gin.Context) {
	var req dto.BlackoutRequest
	if !bindJSON(c, &req) {
		return
	}
	in := service.BlackoutInput{
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
		Kind:    model.BlackoutKind(req.Type),
		Reason:  req.Reason,
	}
	if req.ResourceID != dto.BlackoutAllResources {
		id, err := uuid.Parse(req.ResourceID)
		if err != nil {
			response.BadRequest(c, `resourceId must be a uuid or "all"`)
			return
		}
		in.ResourceID = &id
	}

	list, err := h.svc.Blackouts.Create(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Created(c, gin.H{"list": dto.NewBlackoutList(list)})
}

// GET /api/admin/blackouts
func (h *Handler) ListBlackouts(c *gin.Context) {
	var q dto.BlackoutListQuery
	if !bindQuery(c, &q) {
		return
	}
	list, err := h.svc.Blackouts.List(c.Request.Context(), service.BlackoutListInput{
		ResourceID: optUUID(q.ResourceID),
		From:       optDate(q.From),
		To:         optDate(q.To),
	})
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, gin.H{"list": dto.NewBlackoutList(list)})
}

// DELETE /api/admin/blackouts/:id
func (h *Handler) DeleteBlackout(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Blackouts.Delete(c.Request.Context(), id); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, gin.H{"id": id})
}
