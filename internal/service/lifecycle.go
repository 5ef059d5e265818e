package service

import (
	"context"
	"time"

	"github.com/flexprice/invoicedesk/internal/api/dto"
	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/samber/lo"
)

// maxIDAttempts bounds invoice id generation when generated ids collide
const maxIDAttempts = 5

// LifecycleService owns the active and trashed invoices of a tenant and every
// transition between them:
//
//	Active --SoftDeleteInvoice--> Trashed --RestoreInvoice--> Active (DRAFT)
//	Trashed --PurgeInvoice--> gone, id released
//
// Each operation runs under the tenant's lock and either fully applies or has no effect.
type LifecycleService interface {
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
	UpdateInvoice(ctx context.Context, id string, req dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error)
	SoftDeleteInvoice(ctx context.Context, id string) (*dto.TrashedInvoiceResponse, error)
	RestoreInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	PurgeInvoice(ctx context.Context, id string) error
	GetTrashedInvoice(ctx context.Context, id string) (*dto.TrashedInvoiceResponse, error)
	ListTrash(ctx context.Context, filter *types.TrashFilter) (*dto.ListTrashResponse, error)

	// Hydrate seeds a tenant from the ledger ahead of its first request
	Hydrate(ctx context.Context, tenantID string) error
}

type lifecycleService struct {
	ServiceParams
	gate *templateGateService
}

func NewLifecycleService(params ServiceParams) LifecycleService {
	return &lifecycleService{
		ServiceParams: params,
		gate:          newTemplateGateService(params),
	}
}

func (s *lifecycleService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv := req.ToInvoice(ctx)
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	ctx, err := s.Guard.WithLockSequenced(ctx, func(ctx context.Context) error {
		if inv.ID == "" {
			id, err := s.generateID(ctx)
			if err != nil {
				return err
			}
			inv.ID = id
		} else if s.Registry.IsInUse(ctx, inv.ID) {
			return invoice.NewIDInUseError(inv.ID)
		}

		if inv.TemplateID != nil {
			if _, err := s.gate.selectLocked(ctx, *inv.TemplateID); err != nil {
				return err
			}
		}

		if err := s.Registry.Reserve(ctx, inv.ID); err != nil {
			return err
		}
		if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
			s.Registry.Release(ctx, inv.ID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("created invoice",
		"invoice_id", inv.ID,
		"tenant_id", inv.TenantID,
		"amount", inv.Amount.String(),
		"currency", inv.Currency,
	)
	s.publish(ctx, types.WebhookEventInvoiceCreated, inv)
	return dto.NewInvoiceResponse(inv), nil
}

// generateID returns a fresh id not held by either store. The caller holds the tenant lock.
func (s *lifecycleService) generateID(ctx context.Context) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_INVOICE)
		if id != "" && !s.Registry.IsInUse(ctx, id) {
			return id, nil
		}
	}
	return "", ierr.NewError("failed to generate a unique invoice id").
		WithHint("Could not assign an invoice id, please retry").
		Mark(ierr.ErrSystem)
}

func (s *lifecycleService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	if id == "" {
		return nil, missingID()
	}

	var inv *invoice.Invoice
	err := s.Guard.WithRLock(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.InvoiceRepo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

// ListInvoices is read-only and serves the export collaborator as well as the UI
func (s *lifecycleService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var (
		items []*invoice.Invoice
		total int
	)
	err := s.Guard.WithRLock(ctx, func(ctx context.Context) error {
		var err error
		if items, err = s.InvoiceRepo.List(ctx, filter); err != nil {
			return err
		}
		total, err = s.InvoiceRepo.Count(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := types.NewListResponse(lo.Map(items, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
		return dto.NewInvoiceResponse(inv)
	}), total, filter)
	return &resp, nil
}

func (s *lifecycleService) UpdateInvoice(ctx context.Context, id string, req dto.UpdateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if id == "" {
		return nil, missingID()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var inv *invoice.Invoice
	ctx, err := s.Guard.WithLockSequenced(ctx, func(ctx context.Context) error {
		var err error
		// trashed invoices are immutable, they are only found in trash
		inv, err = s.InvoiceRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		previousTemplate := lo.FromPtr(inv.TemplateID)
		req.Apply(ctx, inv)
		if err := inv.Validate(); err != nil {
			return err
		}

		if inv.TemplateID != nil && *inv.TemplateID != previousTemplate {
			if _, err := s.gate.selectLocked(ctx, *inv.TemplateID); err != nil {
				return err
			}
		}

		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("updated invoice", "invoice_id", id, "tenant_id", inv.TenantID)
	s.publish(ctx, types.WebhookEventInvoiceUpdated, inv)
	return dto.NewInvoiceResponse(inv), nil
}

func (s *lifecycleService) SoftDeleteInvoice(ctx context.Context, id string) (*dto.TrashedInvoiceResponse, error) {
	if id == "" {
		return nil, missingID()
	}

	var trashed *invoice.TrashedInvoice
	ctx, err := s.Guard.WithLockSequenced(ctx, func(ctx context.Context) error {
		inv, err := s.InvoiceRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		trashed = inv.Trash(time.Now().UTC(), types.GetUserID(ctx))
		if err := s.TrashRepo.Create(ctx, trashed); err != nil {
			return err
		}
		if err := s.InvoiceRepo.Delete(ctx, id); err != nil {
			_ = s.TrashRepo.Delete(ctx, id)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("moved invoice to trash", "invoice_id", id, "tenant_id", trashed.TenantID)
	s.publish(ctx, types.WebhookEventInvoiceTrashed, trashed)
	return dto.NewTrashedInvoiceResponse(trashed), nil
}

func (s *lifecycleService) RestoreInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	if id == "" {
		return nil, missingID()
	}

	var restored *invoice.Invoice
	ctx, err := s.Guard.WithLockSequenced(ctx, func(ctx context.Context) error {
		trashed, err := s.TrashRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		// never overwrite an active invoice that took the id meanwhile
		if _, err := s.InvoiceRepo.Get(ctx, id); err == nil {
			return restoreConflict(id)
		} else if !ierr.IsNotFound(err) {
			return err
		}

		restored = trashed.Restore(time.Now().UTC(), types.GetUserID(ctx))
		if err := s.InvoiceRepo.Create(ctx, restored); err != nil {
			return err
		}
		if err := s.TrashRepo.Delete(ctx, id); err != nil {
			_ = s.InvoiceRepo.Delete(ctx, id)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("restored invoice from trash", "invoice_id", id, "tenant_id", restored.TenantID)
	s.publish(ctx, types.WebhookEventInvoiceRestored, restored)
	return dto.NewInvoiceResponse(restored), nil
}

func (s *lifecycleService) PurgeInvoice(ctx context.Context, id string) error {
	if id == "" {
		return missingID()
	}

	ctx, err := s.Guard.WithLockSequenced(ctx, func(ctx context.Context) error {
		// purge only ever applies to trash, an active id is not found here
		if err := s.TrashRepo.Delete(ctx, id); err != nil {
			return err
		}
		if _, err := s.InvoiceRepo.Get(ctx, id); ierr.IsNotFound(err) {
			s.Registry.Release(ctx, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Logger.Infow("purged invoice", "invoice_id", id, "tenant_id", types.GetTenantID(ctx))
	s.publish(ctx, types.WebhookEventInvoicePurged, map[string]string{"id": id})
	return nil
}

func (s *lifecycleService) GetTrashedInvoice(ctx context.Context, id string) (*dto.TrashedInvoiceResponse, error) {
	if id == "" {
		return nil, missingID()
	}

	var trashed *invoice.TrashedInvoice
	err := s.Guard.WithRLock(ctx, func(ctx context.Context) error {
		var err error
		trashed, err = s.TrashRepo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dto.NewTrashedInvoiceResponse(trashed), nil
}

func (s *lifecycleService) ListTrash(ctx context.Context, filter *types.TrashFilter) (*dto.ListTrashResponse, error) {
	if filter == nil {
		filter = types.NewTrashFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var (
		items []*invoice.TrashedInvoice
		total int
	)
	err := s.Guard.WithRLock(ctx, func(ctx context.Context) error {
		var err error
		if items, err = s.TrashRepo.List(ctx, filter); err != nil {
			return err
		}
		total, err = s.TrashRepo.Count(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := types.NewListResponse(lo.Map(items, func(t *invoice.TrashedInvoice, _ int) *dto.TrashedInvoiceResponse {
		return dto.NewTrashedInvoiceResponse(t)
	}), total, filter)
	return &resp, nil
}

func (s *lifecycleService) Hydrate(ctx context.Context, tenantID string) error {
	return s.Guard.Hydrate(ctx, tenantID)
}

func missingID() error {
	return ierr.NewError("invoice id is required").
		WithHint("Please provide an invoice id").
		Mark(ierr.ErrValidation)
}

func restoreConflict(id string) error {
	return ierr.NewError("an active invoice already uses this id").
		WithHintf("Invoice %s cannot be restored because an active invoice now uses the same id", id).
		WithReportableDetails(map[string]any{
			"invoice_id": id,
		}).
		Mark(ierr.ErrConflict)
}
