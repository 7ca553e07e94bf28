package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/club-store/pkg/response"
)

// SweepExpired 手动触发一次预占过期清理
// @Summary 清理过期预占
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=service.SweepReport}
// @Router /api/v1/admin/expiry/sweep [post]
func (h *Handler) SweepExpired(c *gin.Context) {
	report, err := h.expiry.Sweep(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, report)
}

// AuditStock 列出已终止但库存未归还的订单
// @Summary 库存归还审计
// @Tags 管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]service.AuditFinding}
// @Router /api/v1/admin/expiry/audit [get]
func (h *Handler) AuditStock(c *gin.Context) {
	findings, err := h.expiry.Audit(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"count": len(findings), "list": findings})
}
