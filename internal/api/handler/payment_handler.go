package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/reservation-engine/internal/api/response"
	"github.com/Leganyst/reservation-engine/internal/dto"
)

// Ограничение на тело вебхука.
const maxWebhookBody = 1 << 20

// Checkout отдаёт параметры для платёжного окна.
// POST /api/payments/checkout
func (h *Handler) Checkout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	rid, _ := uuid.Parse(req.ReservationID)

	params, err := h.svc.Payments.Checkout(c.Request.Context(), user.ID, rid)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, params)
}

// CompletePayment: клиент вернулся из платёжного окна, сверяем платёж.
// POST /api/payments/complete
func (h *Handler) CompletePayment(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CompletePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.svc.Payments.Complete(c.Request.Context(), user, req.PaymentID)
	if err != nil {
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, res)
}

// PortOneWebhook отвечает 400 на неверную подпись и не 2xx на ошибку сверки, чтобы провайдер повторил доставку.
// POST /api/webhooks/portone
func (h *Handler) PortOneWebhook(c *gin.Context) {
	if h.verifier == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeInternal, "webhook secret is not configured")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "can not read body")
		return
	}
	ev, err := h.verifier.Verify(body, c.Request.Header)
	if err != nil {
		h.log.Warn("webhook rejected", zap.Error(err))
		response.BadRequest(c, "invalid webhook signature")
		return
	}

	res, err := h.svc.Payments.HandleWebhook(c.Request.Context(), ev)
	if err != nil {
		h.log.Error("webhook processing failed",
			zap.String("type", ev.Type),
			zap.String("payment_id", ev.Data.PaymentID),
			zap.Error(err),
		)
		response.Fail(c, h.log, err)
		return
	}
	response.OK(c, res)
}
