package handlers

import (
	"net/http"
	"strconv"

	"studiobook/internal/common"
	"studiobook/internal/services"

	"github.com/labstack/echo/v4"
)

// AuditHandlers exposes the admin audit trail
type AuditHandlers struct {
	auditService services.AuditLogsService
}

func NewAuditHandlers(auditService services.AuditLogsService) *AuditHandlers {
	return &AuditHandlers{auditService: auditService}
}

// ListRecordAuditLogs handles GET /audit-logs/:entity/:id. Record ids are
// plain strings: coupon rows log their uuid, sweep batches log "sweep".
// @Summary List audit entries for a record
// @Tags audit
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /v1/audit-logs/{entity}/{id} [get]
func (h *AuditHandlers) ListRecordAuditLogs(c echo.Context) error {
	ctx := c.Request().Context()

	entity := c.Param("entity")
	recordID := c.Param("id")
	if entity == "" || recordID == "" {
		return common.SendClientError(c, "Entity and record id are required")
	}

	rawLimit, _ := strconv.Atoi(c.QueryParam("limit"))
	rawOffset, _ := strconv.Atoi(c.QueryParam("offset"))
	limit, offset, err := common.ValidatePaginationParams(rawLimit, rawOffset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	logs, err := h.auditService.ListByRecord(ctx, entity, recordID, limit, offset)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"audit_logs": logs,
		"limit":      limit,
		"offset":     offset,
	})
}
