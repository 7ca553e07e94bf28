package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/club-store/internal/api/middleware"
	"github.com/d60-Lab/club-store/internal/model"
	"github.com/d60-Lab/club-store/internal/service"
	"github.com/d60-Lab/club-store/pkg/response"
)

type stockRequest struct {
	VariantOptionID string `json:"variant_option_id"`
	Stock           *int   `json:"stock" binding:"required"`
}

type productStatusRequest struct {
	Status model.ProductStatus `json:"status" binding:"required"`
}

// ListProducts 社团商品
// @Summary 商品列表
// @Tags 商品
// @Produce json
// @Param club_id query string true "社团ID"
// @Param status query string false "商品状态（active 或 soldout，默认两者）"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/products [get]
func (h *Handler) ListProducts(c *gin.Context) {
	clubID := c.Query("club_id")
	if clubID == "" {
		response.BadRequest(c, "club_id is required")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	statuses := model.ListedProductStatuses
	if status := model.ProductStatus(c.Query("status")); status != "" {
		if !status.Listed() {
			response.BadRequest(c, "status must be active or soldout")
			return
		}
		statuses = []model.ProductStatus{status}
	}
	list, err := h.catalog.ListProducts(c.Request.Context(), clubID, statuses, page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// GetProduct 商品详情
// @Summary 商品详情
// @Tags 商品
// @Produce json
// @Param id path string true "商品ID"
// @Success 200 {object} response.Response{data=model.Product}
// @Failure 404 {object} response.Response
// @Router /api/v1/products/{id} [get]
func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, p)
}

// CreateProduct 上架商品
// @Summary 创建商品
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateProductCommand true "商品信息"
// @Success 201 {object} response.Response{data=model.Product}
// @Failure 400 {object} response.Response
// @Router /api/v1/admin/products [post]
func (h *Handler) CreateProduct(c *gin.Context) {
	var cmd service.CreateProductCommand
	if !bindJSON(c, &cmd) {
		return
	}
	cmd.CreatedBy = middleware.UserID(c)
	p, err := h.catalog.CreateProduct(c.Request.Context(), cmd)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Created(c, p)
}

// SetStock 盘点修正库存
// @Summary 修改库存
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Param request body stockRequest true "库存"
// @Success 200 {object} response.Response{data=model.Product}
// @Router /api/v1/admin/products/{id}/stock [put]
func (h *Handler) SetStock(c *gin.Context) {
	var req stockRequest
	if !bindJSON(c, &req) {
		return
	}
	var (
		p   *model.Product
		err error
	)
	if req.VariantOptionID != "" {
		p, err = h.catalog.SetVariantStock(c.Request.Context(), c.Param("id"), req.VariantOptionID, *req.Stock)
	} else {
		p, err = h.catalog.SetStock(c.Request.Context(), c.Param("id"), *req.Stock)
	}
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, p)
}

// SetProductStatus 上下架
// @Summary 修改商品状态
// @Tags 管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Param request body productStatusRequest true "状态"
// @Success 200 {object} response.Response{data=model.Product}
// @Router /api/v1/admin/products/{id}/status [put]
func (h *Handler) SetProductStatus(c *gin.Context) {
	var req productStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.catalog.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, p)
}

// RecalculateStock 按选项库存重算总库存
// @Summary 重算总库存
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Param id path string true "商品ID"
// @Success 200 {object} response.Response{data=model.Product}
// @Router /api/v1/admin/products/{id}/recalculate [post]
func (h *Handler) RecalculateStock(c *gin.Context) {
	p, err := h.catalog.RepairTotal(c.Request.Context(), c.Param("id"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, p)
}
