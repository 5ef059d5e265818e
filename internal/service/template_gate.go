package service

import (
	"context"
	"time"

	"github.com/flexprice/invoicedesk/internal/api/dto"
	"github.com/flexprice/invoicedesk/internal/domain/template"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/types"
)

// TemplateGateService decides which document templates a tenant may apply
type TemplateGateService interface {
	// CanApply evaluates the template against the tenant's entitlement without recording anything
	CanApply(ctx context.Context, req dto.TemplateSelectionRequest) (*dto.TemplateDecisionResponse, error)

	// SelectTemplate applies the template, recording a first use of a free template.
	// A refusal is returned as an entitlement denied error carrying the reason.
	SelectTemplate(ctx context.Context, req dto.TemplateSelectionRequest) (*dto.TemplateDecisionResponse, error)

	GetEntitlement(ctx context.Context) (*dto.EntitlementResponse, error)
	SetPlanTier(ctx context.Context, req dto.UpdatePlanTierRequest) (*dto.EntitlementResponse, error)
	ListTemplates(ctx context.Context) (*dto.ListTemplatesResponse, error)
}

type templateGateService struct {
	ServiceParams
}

func NewTemplateGateService(params ServiceParams) TemplateGateService {
	return newTemplateGateService(params)
}

func newTemplateGateService(params ServiceParams) *templateGateService {
	return &templateGateService{ServiceParams: params}
}

func (s *templateGateService) CanApply(ctx context.Context, req dto.TemplateSelectionRequest) (*dto.TemplateDecisionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp *dto.TemplateDecisionResponse
	err := s.Guard.WithRLock(ctx, func(ctx context.Context) error {
		d, err := s.TemplateCatalog.Get(ctx, req.TemplateID)
		if err != nil {
			return err
		}
		e, err := s.loadEntitlement(ctx)
		if err != nil {
			return err
		}
		resp = dto.NewTemplateDecisionResponse(d, e.Evaluate(*d))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *templateGateService) SelectTemplate(ctx context.Context, req dto.TemplateSelectionRequest) (*dto.TemplateDecisionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp *dto.TemplateDecisionResponse
	ctx, err := s.Guard.WithLockSequenced(ctx, func(ctx context.Context) error {
		var err error
		resp, err = s.selectLocked(ctx, req.TemplateID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, types.WebhookEventTemplateSelected, resp)
	return resp, nil
}

// selectLocked expects the caller to hold the tenant lock
func (s *templateGateService) selectLocked(ctx context.Context, templateID string) (*dto.TemplateDecisionResponse, error) {
	d, err := s.TemplateCatalog.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}

	e, err := s.loadEntitlement(ctx)
	if err != nil {
		return nil, err
	}

	decision := e.Evaluate(*d)
	if !decision.Allowed {
		s.Logger.Infow("template selection denied",
			"tenant_id", e.TenantID,
			"template_id", d.ID,
			"reason", *decision.Reason,
		)
		return nil, ierr.NewError("template not available for tenant").
			WithHint(denialHint(*decision.Reason)).
			WithReportableDetails(map[string]any{
				"template_id": d.ID,
				"tier":        d.Tier,
				"reason":      *decision.Reason,
			}).
			Mark(ierr.ErrEntitlementDenied)
	}

	if decision.Consumes && e.Record(d.ID) {
		e.UpdatedAt = time.Now().UTC()
		if err := s.EntitlementRepo.Upsert(ctx, e); err != nil {
			return nil, err
		}
		s.Logger.Debugw("recorded free template use",
			"tenant_id", e.TenantID,
			"template_id", d.ID,
			"used", e.FreeTemplatesUsedCount(),
			"quota", e.FreeTemplateQuota,
		)
	}

	return dto.NewTemplateDecisionResponse(d, decision), nil
}

func (s *templateGateService) GetEntitlement(ctx context.Context) (*dto.EntitlementResponse, error) {
	var resp *dto.EntitlementResponse
	err := s.Guard.WithRLock(ctx, func(ctx context.Context) error {
		e, err := s.loadEntitlement(ctx)
		if err != nil {
			return err
		}
		resp = dto.NewEntitlementResponse(e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *templateGateService) SetPlanTier(ctx context.Context, req dto.UpdatePlanTierRequest) (*dto.EntitlementResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp *dto.EntitlementResponse
	err := s.Guard.WithLock(ctx, func(ctx context.Context) error {
		e, err := s.loadEntitlement(ctx)
		if err != nil {
			return err
		}
		e.PlanTier = req.PlanTier
		e.UpdatedAt = time.Now().UTC()
		if err := s.EntitlementRepo.Upsert(ctx, e); err != nil {
			return err
		}
		s.Logger.Infow("updated plan tier", "tenant_id", e.TenantID, "plan_tier", e.PlanTier)
		resp = dto.NewEntitlementResponse(e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *templateGateService) ListTemplates(ctx context.Context) (*dto.ListTemplatesResponse, error) {
	items, err := s.TemplateCatalog.List(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.ListTemplatesResponse{Items: items}, nil
}

// loadEntitlement returns the stored entitlement or the default one for a tenant without a record
func (s *templateGateService) loadEntitlement(ctx context.Context) (*template.Entitlement, error) {
	tenantID := types.GetTenantID(ctx)
	e, err := s.EntitlementRepo.Get(ctx, tenantID)
	if ierr.IsNotFound(err) {
		return template.NewDefaultEntitlement(tenantID, s.Config.Templates.FreeQuota), nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func denialHint(reason types.EntitlementDenialReason) string {
	switch reason {
	case types.DenialReasonUpgradeRequired:
		return "This template requires the PRO plan. Upgrade to use it."
	case types.DenialReasonFreeTemplateLimitReached:
		return "You have used all free templates included in your plan. Upgrade to use more."
	default:
		return "This template is not available for your plan"
	}
}
