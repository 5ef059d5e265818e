package types

import (
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/samber/lo"
)

// TemplateTier is the subscription tier a document template belongs to
type TemplateTier string

const (
	TemplateTierFree TemplateTier = "FREE"
	TemplateTierPro  TemplateTier = "PRO"
)

func (t TemplateTier) String() string {
	return string(t)
}

func (t TemplateTier) Validate() error {
	allowed := []TemplateTier{TemplateTierFree, TemplateTierPro}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid template tier").
			WithHint("Please provide a valid template tier").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PlanTier is the subscription plan of a tenant
type PlanTier string

const (
	PlanTierFree PlanTier = "FREE"
	PlanTierPro  PlanTier = "PRO"
)

func (p PlanTier) String() string {
	return string(p)
}

func (p PlanTier) Validate() error {
	allowed := []PlanTier{PlanTierFree, PlanTierPro}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid plan tier").
			WithHint("Please provide a valid plan tier").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// EntitlementDenialReason is the machine readable reason returned when a
// template may not be applied. The presentation layer keys upgrade prompts off it.
type EntitlementDenialReason string

const (
	DenialReasonUpgradeRequired          EntitlementDenialReason = "upgrade_required"
	DenialReasonFreeTemplateLimitReached EntitlementDenialReason = "free_template_limit_reached"
)

// DefaultFreeTemplateQuota is the number of distinct free templates a free tenant may use
const DefaultFreeTemplateQuota = 2
