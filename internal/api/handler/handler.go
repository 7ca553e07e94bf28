package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/club-store/internal/service"
	"github.com/d60-Lab/club-store/pkg/response"
)

type Handler struct {
	orders   service.OrderService
	catalog  service.CatalogService
	payments *service.PaymentService
	expiry   *service.ExpiryWorker
}

func NewHandler(orders service.OrderService, catalog service.CatalogService, payments *service.PaymentService, expiry *service.ExpiryWorker) *Handler {
	return &Handler{orders: orders, catalog: catalog, payments: payments, expiry: expiry}
}

// Health 健康检查
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} response.Response
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// renderError 领域错误到 HTTP 状态的映射
func renderError(c *gin.Context, err error) {
	var (
		verr  *service.ValidationError
		stock *service.StockUnavailableError
		limit *service.PurchaseLimitError
		trans *service.InvalidTransitionError
	)
	switch {
	case errors.As(err, &verr):
		response.Error(c, http.StatusBadRequest, verr.Error(), gin.H{"field": verr.Field})
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, "not found")
	case errors.As(err, &stock):
		response.Conflict(c, stock.Error(), gin.H{"product_id": stock.ProductID, "variant_option_id": stock.OptionID})
	case errors.Is(err, service.ErrStockUnavailable):
		response.Conflict(c, err.Error(), nil)
	case errors.As(err, &trans):
		response.Conflict(c, trans.Error(), gin.H{"from": trans.From, "to": trans.To})
	case errors.As(err, &limit):
		response.Error(c, http.StatusUnprocessableEntity, limit.Error(), gin.H{
			"product_id": limit.ProductID,
			"limit":      limit.Limit,
			"purchased":  limit.Purchased,
			"requested":  limit.Requested,
		})
	case errors.Is(err, service.ErrConcurrentUpdate):
		response.Conflict(c, "concurrent update, please retry", nil)
	default:
		response.InternalError(c, err)
	}
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, err.Error())
		return false
	}
	return true
}

// bindOptionalJSON 请求体可以为空，非空时必须是合法 JSON
func bindOptionalJSON(c *gin.Context, req interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, err.Error())
		return false
	}
	return true
}
