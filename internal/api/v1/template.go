package v1

import (
	"net/http"

	"github.com/flexprice/invoicedesk/internal/api/dto"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/service"
	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	templateGateService service.TemplateGateService
	logger              *logger.Logger
}

func NewTemplateHandler(templateGateService service.TemplateGateService, logger *logger.Logger) *TemplateHandler {
	return &TemplateHandler{
		templateGateService: templateGateService,
		logger:              logger,
	}
}

// ListTemplates godoc
// @Summary List document templates
// @Tags Templates
// @Produce json
// @Success 200 {object} dto.ListTemplatesResponse
// @Router /templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	resp, err := h.templateGateService.ListTemplates(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CanApply godoc
// @Summary Check whether a template may be applied
// @Description Evaluates the tenant's entitlement without recording a use. A refusal is a normal 200 response.
// @Tags Templates
// @Accept json
// @Produce json
// @Param request body dto.TemplateSelectionRequest true "Template"
// @Success 200 {object} dto.TemplateDecisionResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /templates/can-apply [post]
func (h *TemplateHandler) CanApply(c *gin.Context) {
	var req dto.TemplateSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.templateGateService.CanApply(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SelectTemplate godoc
// @Summary Select a template
// @Description Applies a template, recording the first use of a free template
// @Tags Templates
// @Accept json
// @Produce json
// @Param request body dto.TemplateSelectionRequest true "Template"
// @Success 200 {object} dto.TemplateDecisionResponse
// @Failure 403 {object} ierr.ErrorResponse
// @Router /templates/select [post]
func (h *TemplateHandler) SelectTemplate(c *gin.Context) {
	var req dto.TemplateSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.templateGateService.SelectTemplate(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetEntitlement godoc
// @Summary Get the tenant's template entitlement
// @Tags Templates
// @Produce json
// @Success 200 {object} dto.EntitlementResponse
// @Router /entitlement [get]
func (h *TemplateHandler) GetEntitlement(c *gin.Context) {
	resp, err := h.templateGateService.GetEntitlement(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdatePlanTier godoc
// @Summary Change the tenant's plan tier
// @Tags Templates
// @Accept json
// @Produce json
// @Param request body dto.UpdatePlanTierRequest true "Plan tier"
// @Success 200 {object} dto.EntitlementResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /entitlement [put]
func (h *TemplateHandler) UpdatePlanTier(c *gin.Context) {
	var req dto.UpdatePlanTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.templateGateService.SetPlanTier(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
