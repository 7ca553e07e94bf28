package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/club-store/internal/api/middleware"
	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/internal/service"
	"github.com/d60-Lab/club-store/pkg/response"
)

type placeOrderRequest struct {
	Items          []service.CartItem   `json:"items"`
	Delivery       service.DeliveryInfo `json:"delivery"`
	BuyerNote      string               `json:"buyer_note"`
	Buyer          model.BuyerSnapshot  `json:"buyer"`
	IdempotencyKey string               `json:"idempotency_key"`
}

type transitionRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
	Note   string            `json:"note"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// PlaceOrder 下单：预占库存并生成待支付订单
// @Summary 下单（全有或全无预占）
// @Tags 订单
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "幂等键，也可放在请求体"
// @Param request body placeOrderRequest true "购物车"
// @Success 201 {object} response.Response{data=model.Order}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/orders [post]
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	key := c.GetHeader("Idempotency-Key")
	if key == "" {
		key = req.IdempotencyKey
	}
	order, err := h.orders.PlaceOrder(c.Request.Context(), service.PlaceOrderCommand{
		BuyerID:        middleware.UserID(c),
		Items:          req.Items,
		Delivery:       req.Delivery,
		BuyerNote:      req.BuyerNote,
		Buyer:          req.Buyer,
		IdempotencyKey: key,
	})
	if err != nil {
		renderError(c, err)
		return
	}
	response.Created(c, order)
}

// GetOrder 查询订单；学生只能看自己的订单
// @Summary 查询订单
// @Tags 订单
// @Produce json
// @Security BearerAuth
// @Param id path string true "订单ID"
// @Success 200 {object} response.Response{data=model.Order}
// @Failure 404 {object} response.Response
// @Router /api/v1/orders/{id} [get]
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	if !middleware.IsAdmin(c) && order.BuyerID != middleware.UserID(c) {
		response.NotFound(c, "not found")
		return
	}
	response.Success(c, order)
}

// ListMyOrders 当前学生的订单
// @Summary 我的订单
// @Tags 订单
// @Produce json
// @Security BearerAuth
// @Param limit query int false "数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/orders/mine [get]
func (h *Handler) ListMyOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	list, err := h.orders.ListByBuyer(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"list": list})
}

// ListClubOrders 社团订单
// @Summary 社团订单列表
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param club_id path string true "社团ID"
// @Param status query string false "订单状态"
// @Param limit query int false "数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/admin/clubs/{club_id}/orders [get]
func (h *Handler) ListClubOrders(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	status := model.OrderStatus(c.Query("status"))
	list, err := h.orders.ListByClub(c.Request.Context(), c.Param("club_id"), status, limit)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"list": list})
}

// CancelOrder 学生取消自己的订单
// @Summary 取消订单
// @Tags 订单
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "订单ID"
// @Param request body cancelRequest false "取消原因"
// @Success 200 {object} response.Response{data=model.Order}
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/orders/{id}/cancel [post]
func (h *Handler) CancelOrder(c *gin.Context) {
	var req cancelRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	order, err := h.orders.Cancel(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Reason)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, order)
}

// TransitionOrder 管理员推进订单状态
// @Summary 订单状态流转
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "订单ID"
// @Param request body transitionRequest true "目标状态"
// @Success 200 {object} response.Response{data=model.Order}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /api/v1/orders/{id}/transition [post]
func (h *Handler) TransitionOrder(c *gin.Context) {
	var req transitionRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Transition(c.Request.Context(), c.Param("id"), req.Status, middleware.UserID(c), req.Note)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, order)
}
