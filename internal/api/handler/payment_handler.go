package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/club-store/internal/api/middleware"
	"github.com/d60-Lab/club-store/internal/service"
	"github.com/d60-Lab/club-store/pkg/response"
)

const (
	webhookCaptured = "payment.captured"
	webhookFailed   = "payment.failed"
)

// webhookRequest 网关回调；签名已由网关侧适配层校验
type webhookRequest struct {
	Event     string    `json:"event" binding:"required,oneof=payment.captured payment.failed"`
	OrderID   string    `json:"order_id" binding:"required"`
	PaymentID string    `json:"payment_id"`
	Signature string    `json:"signature"`
	Method    string    `json:"method"`
	Amount    int64     `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
	Reason    string    `json:"reason"`
}

type refundRequest struct {
	Note string `json:"note"`
}

// InitiatePayment 为待支付订单创建网关订单
// @Summary 发起支付
// @Tags 支付
// @Produce json
// @Security BearerAuth
// @Param id path string true "订单ID"
// @Success 200 {object} response.Response{data=model.Order}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/orders/{id}/pay [post]
func (h *Handler) InitiatePayment(c *gin.Context) {
	order, err := h.payments.Initiate(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, order)
}

// PaymentWebhook 支付结果回调
// @Summary 支付回调
// @Tags 支付
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body webhookRequest true "回调内容"
// @Success 200 {object} response.Response{data=model.Order}
// @Failure 409 {object} response.Response
// @Router /api/v1/payments/webhook [post]
func (h *Handler) PaymentWebhook(c *gin.Context) {
	var req webhookRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	switch req.Event {
	case webhookCaptured:
		order, err := h.orders.ConfirmPayment(ctx, req.OrderID, service.PaymentCapture{
			PaymentID: req.PaymentID,
			Signature: req.Signature,
			Method:    req.Method,
			Amount:    req.Amount,
			PaidAt:    req.PaidAt,
		})
		if err != nil {
			renderError(c, err)
			return
		}
		response.Success(c, order)
	case webhookFailed:
		order, err := h.orders.FailPayment(ctx, req.OrderID, req.Reason)
		if err != nil {
			renderError(c, err)
			return
		}
		response.Success(c, order)
	}
}

// RefundOrder 管理员退款
// @Summary 退款
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "订单ID"
// @Param request body refundRequest false "备注"
// @Success 200 {object} response.Response{data=model.Order}
// @Failure 409 {object} response.Response
// @Router /api/v1/admin/orders/{id}/refund [post]
func (h *Handler) RefundOrder(c *gin.Context) {
	var req refundRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	order, err := h.payments.Refund(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Note)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, order)
}
