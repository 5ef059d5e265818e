package service

import (
	"context"
	"time"

	"github.com/flexprice/invoicedesk/internal/api/dto"
	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	"github.com/flexprice/invoicedesk/internal/types"
)

// RecurringService holds the recurring configuration of active invoices.
// Generating the series is left to an external scheduler listening for the events.
type RecurringService interface {
	Attach(ctx context.Context, invoiceID string, req dto.RecurringConfigRequest) (*dto.InvoiceResponse, error)
	Detach(ctx context.Context, invoiceID string) (*dto.InvoiceResponse, error)
}

type recurringService struct {
	ServiceParams
}

func NewRecurringService(params ServiceParams) RecurringService {
	return &recurringService{ServiceParams: params}
}

func (s *recurringService) Attach(ctx context.Context, invoiceID string, req dto.RecurringConfigRequest) (*dto.InvoiceResponse, error) {
	if invoiceID == "" {
		return nil, missingID()
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cfg := req.ToConfig()

	var inv *invoice.Invoice
	ctx, err := s.Guard.WithLockSequenced(ctx, func(ctx context.Context) error {
		var err error
		if inv, err = s.InvoiceRepo.Get(ctx, invoiceID); err != nil {
			return err
		}
		inv.Recurring = cfg
		inv.UpdatedAt = time.Now().UTC()
		inv.UpdatedBy = types.GetUserID(ctx)
		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("configured recurring invoice",
		"invoice_id", invoiceID,
		"tenant_id", inv.TenantID,
		"frequency", cfg.Frequency,
		"flags", cfg.Flags,
	)
	s.publish(ctx, types.WebhookEventInvoiceRecurringAttached, inv)
	return dto.NewInvoiceResponse(inv), nil
}

// Detach clears the recurring configuration. Detaching an invoice without one is a no-op.
func (s *recurringService) Detach(ctx context.Context, invoiceID string) (*dto.InvoiceResponse, error) {
	if invoiceID == "" {
		return nil, missingID()
	}

	var (
		inv     *invoice.Invoice
		changed bool
	)
	ctx, err := s.Guard.WithLockSequenced(ctx, func(ctx context.Context) error {
		var err error
		if inv, err = s.InvoiceRepo.Get(ctx, invoiceID); err != nil {
			return err
		}
		if inv.Recurring == nil {
			return nil
		}
		inv.Recurring = nil
		inv.UpdatedAt = time.Now().UTC()
		inv.UpdatedBy = types.GetUserID(ctx)
		changed = true
		return s.InvoiceRepo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.Logger.Infow("removed recurring configuration", "invoice_id", invoiceID, "tenant_id", inv.TenantID)
		s.publish(ctx, types.WebhookEventInvoiceRecurringDetached, inv)
	}
	return dto.NewInvoiceResponse(inv), nil
}
