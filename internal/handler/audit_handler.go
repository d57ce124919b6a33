package handler

import (
	"net/http"

	"retailpos/internal/service"
	"retailpos/pkg/pagination"
	"retailpos/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditLog    *service.AuditLog
	managerOnly gin.HandlerFunc
}

func NewAuditHandler(auditLog *service.AuditLog, managerOnly gin.HandlerFunc) *AuditHandler {
	return &AuditHandler{auditLog: auditLog, managerOnly: managerOnly}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/audit-logs")
	if h.managerOnly != nil {
		group.Use(h.managerOnly) // history is not for till operators
	}
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns inventory log entries newest first
// @Summary      Get audit logs
// @Description  Lists item mutations (create, update, delete, sale, transfer) with their decoded details and acting user
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        item_id       query     string  false  "Only entries for this item"
// @Param        reference_id  query     string  false  "Only entries for this sale or transfer"
// @Param        action        query     string  false  "create, update, delete, sale or transfer"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 20)"
// @Success      200           {object}  response.Response{data=response.Page}
// @Failure      400           {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditLog.List(c.Request.Context(), service.AuditQuery{
		ItemID:      c.Query("item_id"),
		ReferenceID: c.Query("reference_id"),
		Action:      c.Query("action"),
		Page:        p.Page,
		Limit:       p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.List(http.StatusOK, logs, total, p.Page, p.Limit))
}
