package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/api/response"
	"github.com/Leganyst/reservation-engine/internal/calendar"
	"github.com/Leganyst/reservation-engine/internal/dto"
	"github.com/Leganyst/reservation-engine/internal/service"
)

// ResolveSchedule: действующие часы работы ресурса на дату.
// GET /api/schedules/:resourceId?date=
func (h *Handler) ResolveSchedule(c *gin.Context) {
	rid, ok := pathUUID(c, "resourceId")
	if !ok {
		return
	}
	var q dto.ScheduleQuery
	if !bindQuery(c, &q) {
		return
	}
	date := mustDate(q.Date)

	s, err := h.svc.Schedules.Resolve(c.Request.Context(), rid, date)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, dto.NewScheduleResponse(rid, date, s))
}

// GET /api/admin/schedules
func (h *Handler) ListSchedules(c *gin.Context) {
	var q dto.ScheduleListQuery
	if !bindQuery(c, &q) {
		return
	}
	list, err := h.svc.Schedules.List(c.Request.Context(), service.ScheduleListInput{
		ResourceID: optUUID(q.ResourceID),
		Type:       q.Type,
		From:       optDate(q.From),
		To:         optDate(q.To),
	})
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, dto.NewScheduleListResponse(list))
}

// POST /api/admin/schedules/weekly
func (h *Handler) CreateWeeklySchedule(c *gin.Context) {
	var req dto.WeeklyScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	rid, _ := uuid.Parse(req.ResourceID)
	open, _ := calendar.ParseClock(req.OpenTime)
	closeAt, _ := calendar.ParseClock(req.CloseTime)

	w, err := h.svc.Schedules.CreateWeekly(c.Request.Context(), service.WeeklyInput{
		ResourceID: rid,
		DayOfWeek:  *req.DayOfWeek,
		Open:       open,
		Close:      closeAt,
	})
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Created(c, dto.NewWeeklyScheduleResponse(w))
}

// POST /api/admin/schedules/exceptions
func (h *Handler) CreateScheduleException(c *gin.Context) {
	var req dto.ScheduleExceptionRequest
	if !bindJSON(c, &req) {
		return
	}
	rid, _ := uuid.Parse(req.ResourceID)

	e, deduped, err := h.svc.Schedules.CreateException(c.Request.Context(), service.ExceptionInput{
		ResourceID: rid,
		Date:       mustDate(req.Date),
		IsClosed:   req.IsClosed,
		Open:       optClock(req.OpenTime),
		Close:      optClock(req.CloseTime),
	})
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	out := dto.NewScheduleExceptionResponse(e)
	out.Deduped = deduped
	response.Created(c, out)
}

// DELETE /api/admin/schedules/weekly/:id
func (h *Handler) DeleteWeeklySchedule(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Schedules.DeleteWeekly(c.Request.Context(), id); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, gin.H{"id": id})
}

// DELETE /api/admin/schedules/exceptions/:id
func (h *Handler) DeleteScheduleException(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Schedules.DeleteException(c.Request.Context(), id); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, gin.H{"id": id})
}

// CleanupExceptions убирает дубли исключений по (ресурс, дата).
// POST /api/admin/schedules/cleanup-exceptions
func (h *Handler) CleanupExceptions(c *gin.Context) {
	var req dto.CleanupExceptionsRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	in := service.CleanupInput{Mode: service.CleanupMode(req.Mode)}
	if req.ResourceID != nil {
		in.ResourceID = optUUID(*req.ResourceID)
	}
	if req.From != nil {
		in.From = optDate(*req.From)
	}
	if req.To != nil {
		in.To = optDate(*req.To)
	}

	res, err := h.svc.Schedules.CleanupExceptions(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, res)
}
