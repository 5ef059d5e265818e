package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/flexprice/invoicedesk/internal/api/dto"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/service"
	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	exportService service.ExportService
	logger        *logger.Logger
}

func NewExportHandler(exportService service.ExportService, logger *logger.Logger) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger,
	}
}

// RequestExport godoc
// @Summary Export invoices
// @Description Snapshots the matching invoices and hands them to the export service
// @Tags Exports
// @Accept json
// @Produce json
// @Param request body dto.ExportRequest false "Filter"
// @Success 202 {object} dto.ExportResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /exports [post]
func (h *ExportHandler) RequestExport(c *gin.Context) {
	var req dto.ExportRequest
	// an empty body exports everything
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.exportService.RequestExport(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// CancelExport godoc
// @Summary Cancel an export
// @Tags Exports
// @Produce json
// @Param id path string true "Export ID"
// @Success 202 {object} dto.SuccessResponse
// @Router /exports/{id} [delete]
func (h *ExportHandler) CancelExport(c *gin.Context) {
	if err := h.exportService.CancelExport(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusAccepted, dto.SuccessResponse{Message: "export cancellation requested"})
}
