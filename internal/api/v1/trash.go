package v1

import (
	"net/http"

	"github.com/flexprice/invoicedesk/internal/api/dto"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/service"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type TrashHandler struct {
	lifecycleService service.LifecycleService
	logger           *logger.Logger
}

func NewTrashHandler(lifecycleService service.LifecycleService, logger *logger.Logger) *TrashHandler {
	return &TrashHandler{
		lifecycleService: lifecycleService,
		logger:           logger,
	}
}

// ListTrash godoc
// @Summary List trashed invoices
// @Tags Trash
// @Produce json
// @Param filter query types.TrashFilter false "Filter"
// @Success 200 {object} dto.ListTrashResponse
// @Router /trash [get]
func (h *TrashHandler) ListTrash(c *gin.Context) {
	var filter types.TrashFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewTrashFilter().QueryFilter
	} else if filter.Limit == nil {
		filter.Limit = lo.ToPtr(types.FILTER_DEFAULT_LIMIT)
	}

	resp, err := h.lifecycleService.ListTrash(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetTrashedInvoice godoc
// @Summary Get a trashed invoice
// @Tags Trash
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.TrashedInvoiceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /trash/{id} [get]
func (h *TrashHandler) GetTrashedInvoice(c *gin.Context) {
	resp, err := h.lifecycleService.GetTrashedInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RestoreInvoice godoc
// @Summary Restore a trashed invoice
// @Description Moves the invoice back to the active set as a draft
// @Tags Trash
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Router /trash/{id}/restore [post]
func (h *TrashHandler) RestoreInvoice(c *gin.Context) {
	resp, err := h.lifecycleService.RestoreInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PurgeInvoice godoc
// @Summary Permanently delete a trashed invoice
// @Description Irreversible. The confirm parameter must repeat the invoice id.
// @Tags Trash
// @Produce json
// @Param id path string true "Invoice ID"
// @Param confirm query string true "The invoice id"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /trash/{id} [delete]
func (h *TrashHandler) PurgeInvoice(c *gin.Context) {
	id := c.Param("id")
	if c.Query("confirm") != id {
		c.Error(ierr.NewError("purge not confirmed").
			WithHint("Permanent deletion cannot be undone. Repeat the invoice id in the confirm parameter").
			WithReportableDetails(map[string]any{
				"invoice_id": id,
			}).
			Mark(ierr.ErrValidation))
		return
	}

	if err := h.lifecycleService.PurgeInvoice(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "invoice permanently deleted"})
}
