package template

import (
	"time"

	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/samber/lo"
)

// Descriptor identifies a document template and the tier it belongs to
type Descriptor struct {
	ID   string             `json:"id"`
	Name string             `json:"name,omitempty"`
	Tier types.TemplateTier `json:"tier"`
}

// Entitlement is a tenant's right to apply templates.
// UsedTemplateIDs holds the distinct free templates the tenant has selected so far.
type Entitlement struct {
	TenantID          string         `json:"tenant_id"`
	PlanTier          types.PlanTier `json:"plan_tier"`
	FreeTemplateQuota int            `json:"free_template_quota"`
	UsedTemplateIDs   []string       `json:"used_template_ids"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// NewDefaultEntitlement is the entitlement of a tenant that never selected a template
func NewDefaultEntitlement(tenantID string, quota int) *Entitlement {
	return &Entitlement{
		TenantID:          tenantID,
		PlanTier:          types.PlanTierFree,
		FreeTemplateQuota: quota,
		UsedTemplateIDs:   []string{},
	}
}

func (e *Entitlement) FreeTemplatesUsedCount() int {
	return len(e.UsedTemplateIDs)
}

func (e *Entitlement) HasUsed(templateID string) bool {
	return lo.Contains(e.UsedTemplateIDs, templateID)
}

// Decision is the outcome of evaluating a template against an entitlement
type Decision struct {
	Allowed bool                           `json:"allowed"`
	Reason  *types.EntitlementDenialReason `json:"reason,omitempty"`
	// Consumes is set when applying the template records a new distinct free template
	Consumes bool `json:"-"`
}

func allow(consumes bool) Decision {
	return Decision{Allowed: true, Consumes: consumes}
}

func deny(reason types.EntitlementDenialReason) Decision {
	return Decision{Allowed: false, Reason: lo.ToPtr(reason)}
}

// Evaluate decides whether d may be applied. It has no side effects.
func (e *Entitlement) Evaluate(d Descriptor) Decision {
	if e.PlanTier == types.PlanTierPro {
		return allow(false)
	}

	if d.Tier == types.TemplateTierPro {
		return deny(types.DenialReasonUpgradeRequired)
	}

	// reusing a recorded template never consumes quota
	if e.HasUsed(d.ID) {
		return allow(false)
	}

	if e.FreeTemplatesUsedCount() < e.FreeTemplateQuota {
		return allow(true)
	}

	return deny(types.DenialReasonFreeTemplateLimitReached)
}

// Record marks templateID as used, returning false if it already was
func (e *Entitlement) Record(templateID string) bool {
	if e.HasUsed(templateID) {
		return false
	}
	e.UsedTemplateIDs = append(e.UsedTemplateIDs, templateID)
	return true
}

func (e *Entitlement) Copy() *Entitlement {
	if e == nil {
		return nil
	}
	out := *e
	out.UsedTemplateIDs = append([]string{}, e.UsedTemplateIDs...)
	return &out
}
