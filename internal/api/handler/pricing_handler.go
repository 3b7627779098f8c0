package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Leganyst/reservation-engine/internal/api/response"
	"github.com/Leganyst/reservation-engine/internal/dto"
	"github.com/Leganyst/reservation-engine/internal/model"
	"github.com/Leganyst/reservation-engine/internal/service"
)

// PricingRules: правила цены ресурса. Неактивные видны только с includeInactive.
// GET /api/admin/resources/:resourceId/pricing-rules
func (h *Handler) PricingRules(c *gin.Context) {
	rid, ok := pathUUID(c, "resourceId")
	if !ok {
		return
	}
	var q dto.PricingListQuery
	if !bindQuery(c, &q) {
		return
	}
	list, err := h.svc.Pricing.ListRules(c.Request.Context(), rid, q.IncludeInactive)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, gin.H{"list": dto.NewPricingRuleList(list)})
}

// PublicPricingRules: только активные правила.
// GET /api/pricing/:resourceId
func (h *Handler) PublicPricingRules(c *gin.Context) {
	rid, ok := pathUUID(c, "resourceId")
	if !ok {
		return
	}
	list, err := h.svc.Pricing.ListRules(c.Request.Context(), rid, false)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, gin.H{"list": dto.NewPricingRuleList(list)})
}

// POST /api/admin/pricing-rules
func (h *Handler) CreatePricingRule(c *gin.Context) {
	var req dto.PricingRuleRequest
	if !bindJSON(c, &req) {
		return
	}
	rid, _ := uuid.Parse(req.ResourceID)

	in := service.PricingRuleInput{
		ResourceID: rid,
		Kind:       model.PricingRuleKind(req.Type),
		Price:      req.Price,
		StartTime:  optClock(req.StartTime),
		EndTime:    optClock(req.EndTime),
		DayOfWeek:  req.DayOfWeek,
	}
	if req.UserCategory != nil {
		cat := model.UserCategory(*req.UserCategory)
		in.UserCategory = &cat
	}

	rule, err := h.svc.Pricing.CreateRule(c.Request.Context(), in)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.Created(c, dto.NewPricingRuleResponse(rule))
}

// PATCH /api/admin/pricing-rules/:id/active
func (h *Handler) SetPricingRuleActive(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.PricingRuleActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Pricing.SetActive(c.Request.Context(), id, *req.IsActive); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, gin.H{"id": id, "isActive": *req.IsActive})
}

// DELETE /api/admin/pricing-rules/:id
func (h *Handler) DeletePricingRule(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Pricing.DeleteRule(c.Request.Context(), id); err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, gin.H{"id": id})
}
