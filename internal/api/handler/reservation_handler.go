package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/api/response"
	"github.com/Leganyst/reservation-engine/internal/dto"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/service"
)

// CreateReservation
// POST /api/reservations
func (h *Handler) CreateReservation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateReservationRequest
	if !bindJSON(c, &req) {
		return
	}

	lines := make([]service.ReservationLine, 0, len(req.Items))
	for _, it := range req.Items {
		rid, _ := uuid.Parse(it.ResourceID)
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		lines = append(lines, service.ReservationLine{ResourceID: rid, StartAt: it.StartAt, EndAt: it.EndAt, Quantity: qty})
	}

	res, err := h.svc.Reservations.Create(c.Request.Context(), service.CreateInput{
		UserID:      user.ID,
		Category:    model.UserCategory(user.Category),
		Lines:       lines,
		DocumentURL: req.DocumentURL,
	})
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Created(c, dto.NewReservationResponse(res))
}

// CreateMultiReservation бронирует общий непрерывный блок сразу на несколько ресурсов.
// POST /api/reservations/multi
func (h *Handler) CreateMultiReservation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateMultiReservationRequest
	if !bindJSON(c, &req) {
		return
	}

	ids := make([]uuid.UUID, 0, len(req.ResourceIDs))
	for _, s := range req.ResourceIDs {
		id, _ := uuid.Parse(s)
		ids = append(ids, id)
	}
	qty := make(map[uuid.UUID]int, len(req.Quantities))
	for k, v := range req.Quantities {
		id, _ := uuid.Parse(k)
		qty[id] = v
	}

	res, err := h.svc.Reservations.CreateMulti(c.Request.Context(), service.MultiCreateInput{
		UserID:           user.ID,
		Category:         model.UserCategory(user.Category),
		ResourceIDs:      ids,
		Date:             mustDate(req.Date),
		SlotMinutes:      req.SlotMinutes,
		DurationMinutes:  req.DurationMinutes,
		SlotIndex:        req.SlotIndex,
		PreferredStartAt: req.PreferredStartAt,
		Quantities:       qty,
		DocumentURL:      req.DocumentURL,
	})
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Created(c, dto.NewReservationResponse(res))
}

// MyReservations
// GET /api/reservations/my
func (h *Handler) MyReservations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.svc.Reservations.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, gin.H{"list": dto.NewReservationList(list)})
}

// GetReservation: владельцу или админу.
// GET /api/reservations/:id
func (h *Handler) GetReservation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.Reservations.GetOwned(c.Request.Context(), user, id)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, dto.NewReservationResponse(res))
}

// CancelReservation: отмена владельцем; оплаченное возвращается по политике.
// POST /api/reservations/:id/cancel
func (h *Handler) CancelReservation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelReservationRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	out, err := h.svc.Cancellations.UserCancel(c.Request.Context(), user, id, req.Reason)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, dto.NewCancelResponse(out))
}
