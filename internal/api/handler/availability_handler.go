package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/api/response"
	"github.com/Leganyst/reservation-engine/internal/dto"
	"github.com/Leganyst/reservation-engine/internal/service"
)

// Availability: свободные слоты ресурса на дату.
// GET /api/reservations/availability
func (h *Handler) Availability(c *gin.Context) {
	var q dto.AvailabilityQuery
	if !bindQuery(c, &q) {
		return
	}
	rid, _ := uuid.Parse(q.ResourceID)

	a, err := h.svc.Availability.Compute(c.Request.Context(), rid, mustDate(q.Date), q.SlotMinutes)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	// ресурс не найден или бронируется не по времени: это ошибка запроса
	if !a.OK {
		c.JSON(http.StatusBadRequest, response.Response{
			Code:    a.Reason,
			Message: "availability can not be computed",
			Data:    dto.NewAvailabilityResponse(a),
		})
		return
	}
	response.OK(c, dto.NewAvailabilityResponse(a))
}

// AvailabilityMulti: общие слоты и непрерывные блоки нескольких ресурсов.
// GET /api/reservations/availability-multi
func (h *Handler) AvailabilityMulti(c *gin.Context) {
	var q dto.MultiAvailabilityQuery
	if !bindQuery(c, &q) {
		return
	}
	ids, ok := splitUUIDs(q.ResourceIDs)
	if !ok {
		response.BadRequest(c, "resourceIds must be comma separated uuids")
		return
	}

	a, err := h.svc.Availability.ComputeMulti(c.Request.Context(), service.MultiQuery{
		ResourceIDs:        ids,
		Date:               mustDate(q.Date),
		SlotMinutes:        q.SlotMinutes,
		DurationMinutes:    q.DurationMinutes,
		IncludePerResource: q.IncludePerResource,
		OnlyBlockStartAt:   q.OnlyBlockStartAt,
		LimitBlocks:        q.LimitBlocks,
	})
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	if !a.OK {
		c.JSON(http.StatusBadRequest, response.Response{
			Code:    a.Reason,
			Message: "availability can not be computed",
			Data:    a,
		})
		return
	}
	response.OK(c, a)
}
