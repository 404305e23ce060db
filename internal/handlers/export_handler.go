package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/qti-delivery-service/internal/services"
	"github.com/SAP-F-2025/qti-delivery-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	BaseHandler
	exportService services.ExportService
}

func NewExportHandler(exportService services.ExportService, logger utils.Logger) *ExportHandler {
	return &ExportHandler{
		BaseHandler:   NewBaseHandler(logger),
		exportService: exportService,
	}
}

// ExportSessionReport streams the session report workbook
// @Summary Export session report
// @Tags sessions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id}/report [get]
func (h *ExportHandler) ExportSessionReport(c *gin.Context) {
	id := h.sessionIDParam(c)
	if id == "" {
		return
	}
	h.LogRequest(c, "Exporting session report", "session_id", id)

	report, err := h.exportService.ExportSessionReport(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=session-%s.xlsx", id))
	c.Data(http.StatusOK, xlsxContentType, report)
}
