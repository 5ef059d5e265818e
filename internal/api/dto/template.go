package dto

import (
	"github.com/flexprice/invoicedesk/internal/domain/template"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/flexprice/invoicedesk/internal/validator"
)

type TemplateSelectionRequest struct {
	TemplateID string `json:"template_id" validate:"required,max=100"`
}

func (r *TemplateSelectionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// TemplateDecisionResponse tells the caller whether a template may be applied.
// A denied decision carries a reason the UI uses to render an upgrade prompt.
type TemplateDecisionResponse struct {
	TemplateID string                         `json:"template_id"`
	Tier       types.TemplateTier             `json:"tier"`
	Allowed    bool                           `json:"allowed"`
	Reason     *types.EntitlementDenialReason `json:"reason,omitempty"`
}

func NewTemplateDecisionResponse(d *template.Descriptor, decision template.Decision) *TemplateDecisionResponse {
	return &TemplateDecisionResponse{
		TemplateID: d.ID,
		Tier:       d.Tier,
		Allowed:    decision.Allowed,
		Reason:     decision.Reason,
	}
}

type EntitlementResponse struct {
	*template.Entitlement
	FreeTemplatesUsedCount int `json:"free_templates_used_count"`
	// remaining_free_templates is omitted for PRO tenants, who are not limited
	RemainingFreeTemplates *int `json:"remaining_free_templates,omitempty"`
}

func NewEntitlementResponse(e *template.Entitlement) *EntitlementResponse {
	resp := &EntitlementResponse{
		Entitlement:            e,
		FreeTemplatesUsedCount: e.FreeTemplatesUsedCount(),
	}
	if e.PlanTier == types.PlanTierFree {
		remaining := max(e.FreeTemplateQuota-e.FreeTemplatesUsedCount(), 0)
		resp.RemainingFreeTemplates = &remaining
	}
	return resp
}

type UpdatePlanTierRequest struct {
	PlanTier types.PlanTier `json:"plan_tier" validate:"required"`
}

func (r *UpdatePlanTierRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.PlanTier.Validate()
}

type ListTemplatesResponse struct {
	Items []*template.Descriptor `json:"items"`
}
