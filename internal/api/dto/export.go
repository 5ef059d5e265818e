package dto

import (
	"time"

	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	"github.com/flexprice/invoicedesk/internal/types"
)

// ExportRequest asks the export collaborator to render the invoices matching filter.
// Pagination fields of the filter are ignored, every match is exported.
type ExportRequest struct {
	Filter *types.InvoiceFilter `json:"filter,omitempty"`
}

func (r *ExportRequest) Validate() error {
	if r.Filter == nil {
		return nil
	}
	return r.Filter.Validate()
}

type ExportResponse struct {
	ExportID     string    `json:"export_id"`
	InvoiceCount int       `json:"invoice_count"`
	RequestedAt  time.Time `json:"requested_at"`
}

// ExportMessage is the payload published to the export topic
type ExportMessage struct {
	ExportID    string             `json:"export_id"`
	TenantID    string             `json:"tenant_id"`
	RequestedBy string             `json:"requested_by,omitempty"`
	RequestedAt time.Time          `json:"requested_at"`
	Invoices    []*invoice.Invoice `json:"invoices,omitempty"`
}
