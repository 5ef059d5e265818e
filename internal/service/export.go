package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flexprice/invoicedesk/internal/api/dto"
	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/publisher"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/samber/lo"
)

// ExportService hands invoice snapshots to the export collaborator over the export topic.
// The tenant is only read-locked while the snapshot is copied.
type ExportService interface {
	RequestExport(ctx context.Context, req dto.ExportRequest) (*dto.ExportResponse, error)
	CancelExport(ctx context.Context, exportID string) error
}

type exportService struct {
	ServiceParams
}

func NewExportService(params ServiceParams) ExportService {
	return &exportService{ServiceParams: params}
}

func (s *exportService) RequestExport(ctx context.Context, req dto.ExportRequest) (*dto.ExportResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	filter := types.NewNoLimitInvoiceFilter()
	if req.Filter != nil {
		filter.TimeRangeFilter = req.Filter.TimeRangeFilter
		filter.InvoiceIDs = req.Filter.InvoiceIDs
		filter.InvoiceStatus = req.Filter.InvoiceStatus
		filter.Search = req.Filter.Search
		filter.Currency = req.Filter.Currency
		if req.Filter.QueryFilter != nil {
			filter.Sort = req.Filter.Sort
			filter.Order = req.Filter.Order
		}
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var snapshot []*invoice.Invoice
	err := s.Guard.WithRLock(ctx, func(ctx context.Context) error {
		var err error
		snapshot, err = s.InvoiceRepo.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}

	msg := dto.ExportMessage{
		ExportID:    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_EXPORT),
		TenantID:    types.GetTenantID(ctx),
		RequestedBy: types.GetUserID(ctx),
		RequestedAt: time.Now().UTC(),
		Invoices:    snapshot,
	}
	if err := s.send(ctx, msg.ExportID, types.ExportActionRequest, msg); err != nil {
		return nil, err
	}

	s.Logger.Infow("requested invoice export",
		"export_id", msg.ExportID,
		"tenant_id", msg.TenantID,
		"invoice_count", len(snapshot),
	)
	s.Logger.Debugw("export snapshot", "export_id", msg.ExportID, "invoice_ids", exportedIDs(snapshot))
	return &dto.ExportResponse{
		ExportID:     msg.ExportID,
		InvoiceCount: len(snapshot),
		RequestedAt:  msg.RequestedAt,
	}, nil
}

// CancelExport only announces the cancellation, the collaborator decides what an in-flight export does with it
func (s *exportService) CancelExport(ctx context.Context, exportID string) error {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return err
	}
	if exportID == "" {
		return ierr.NewError("export id is required").
			WithHint("Please provide an export id").
			Mark(ierr.ErrValidation)
	}

	msg := dto.ExportMessage{
		ExportID:    exportID,
		TenantID:    types.GetTenantID(ctx),
		RequestedBy: types.GetUserID(ctx),
		RequestedAt: time.Now().UTC(),
	}
	if err := s.send(ctx, exportID, types.ExportActionCancel, msg); err != nil {
		return err
	}

	s.Logger.Infow("cancelled invoice export", "export_id", exportID, "tenant_id", msg.TenantID)
	return nil
}

func (s *exportService) send(ctx context.Context, exportID, action string, payload dto.ExportMessage) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode export request").
			Mark(ierr.ErrSystem)
	}

	msg := publisher.NewMessage(types.GenerateUUID(), body)
	msg.Metadata.Set(publisher.MetadataTenantID, payload.TenantID)
	msg.Metadata.Set(publisher.MetadataAction, action)
	msg.Metadata.Set(publisher.MetadataExportID, exportID)

	topic := s.Config.PubSub.ExportTopic
	span, ctx := s.Sentry.StartPublishSpan(ctx, topic)
	if span != nil {
		defer span.Finish()
	}

	if err := s.PubSub.Publish(ctx, topic, msg); err != nil {
		s.Logger.Errorw("failed to publish export message",
			"error", err,
			"export_id", exportID,
			"action", action,
		)
		s.Sentry.CaptureException(ctx, err)
		return ierr.WithError(err).
			WithHint("Failed to hand the export to the export service").
			WithReportableDetails(map[string]any{
				"export_id": exportID,
				"action":    action,
			}).
			Mark(ierr.ErrSystem)
	}
	return nil
}

func exportedIDs(invoices []*invoice.Invoice) []string {
	return lo.Map(invoices, func(inv *invoice.Invoice, _ int) string { return inv.ID })
}
