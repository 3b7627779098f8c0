package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Leganyst/reservation-engine/internal/api/response"
	"github.com/Leganyst/reservation-engine/internal/dto"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/service"
)

// AdminListReservations
// GET /api/admin/reservations
func (h *Handler) AdminListReservations(c *gin.Context) {
	var q dto.ReservationListQuery
	if !bindQuery(c, &q) {
		return
	}
	in := service.ListQuery{
		ResourceID: optUUID(q.ResourceID),
		From:       optDate(q.From),
		To:         optDate(q.To),
		Query:      q.Query,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if q.Status != "" {
		st := model.ReservationStatus(q.Status)
		in.Status = &st
	}
	if q.PaymentStatus != "" {
		st := model.PaymentStatus(q.PaymentStatus)
		in.PaymentStatus = &st
	}

	list, total, err := h.svc.Reservations.List(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = service.DefaultListLimit
	}
	response.OKPage(c, dto.NewReservationList(list), total, limit, q.Offset)
}

// GET /api/admin/reservations/:id
func (h *Handler) AdminGetReservation(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.Reservations.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, dto.NewReservationResponse(res))
}

// AdminReservationAction: CONFIRM, CANCEL или MARK_PAID.
// POST /api/admin/reservations/:id/action
func (h *Handler) AdminReservationAction(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AdminActionRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Cancellations.Apply(c.Request.Context(), id, service.AdminAction(req.Action), req.Reason)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, dto.NewReservationResponse(res))
}

// AdminRefund: возврат по политике с отменой брони.
// POST /api/admin/reservations/:id/refund
func (h *Handler) AdminRefund(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.RefundRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	if req.Reason == "" {
		req.Reason = "refund by admin"
	}
	out, err := h.svc.Cancellations.CancelWithRefund(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, dto.NewCancelResponse(out))
}

// ExpirePending: ручной запуск чистки.
// POST /api/admin/maintenance/expire-pending
func (h *Handler) ExpirePending(c *gin.Context) {
	var req dto.ExpirePendingRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Expiry.ExpirePending(c.Request.Context(), time.Duration(req.TTLMinutes)*time.Minute)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, res)
}

// GET /api/admin/maintenance/expire-logs
func (h *Handler) ExpiryLogs(c *gin.Context) {
	var q dto.ExpiryLogQuery
	if !bindQuery(c, &q) {
		return
	}
	list, err := h.svc.Expiry.ListExpiryLogs(c.Request.Context(), q.Limit)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, gin.H{"list": dto.NewNotificationLogList(list)})
}

// GET /api/admin/calendar/:resourceId
func (h *Handler) ResourceCalendar(c *gin.Context) {
	rid, ok := pathUUID(c, "resourceId")
	if !ok {
		return
	}
	var q dto.CalendarQuery
	if !bindQuery(c, &q) {
		return
	}
	list, err := h.svc.Calendar.Events(c.Request.Context(), rid, mustDate(q.From), mustDate(q.To))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, gin.H{"list": list})
}

// GET /api/admin/calendar/:resourceId/ics
func (h *Handler) ResourceCalendarICS(c *gin.Context) {
	rid, ok := pathUUID(c, "resourceId")
	if !ok {
		return
	}
	var q dto.CalendarQuery
	if !bindQuery(c, &q) {
		return
	}
	feed, err := h.svc.Calendar.ICS(c.Request.Context(), rid, mustDate(q.From), mustDate(q.To))
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="resource-`+rid.String()+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}
