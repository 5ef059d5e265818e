package invoice

import (
	"strings"
	"time"

	"github.com/flexprice/invoicedesk/internal/domain/recurring"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Invoice is an active billing document of a tenant.
// ID is unique across the tenant's active and trashed invoices and never changes.
type Invoice struct {
	ID             string              `json:"id"`
	ClientRef      string              `json:"client_ref"`
	Amount         decimal.Decimal     `json:"amount"`
	Currency       string              `json:"currency"`
	IssueDate      time.Time           `json:"issue_date"`
	DueDate        *time.Time          `json:"due_date,omitempty"`
	InvoiceStatus  types.InvoiceStatus `json:"invoice_status"`
	TemplateID     *string             `json:"template_id,omitempty"`
	Recurring      *recurring.Config   `json:"recurring,omitempty"`
	PaymentDetails *PaymentDetails     `json:"payment_details,omitempty"`
	Metadata       types.Metadata      `json:"metadata,omitempty"`
	types.BaseModel
}

// Normalize trims and upper-cases fields before validation
func (i *Invoice) Normalize() {
	i.ClientRef = strings.TrimSpace(i.ClientRef)
	i.Currency = strings.ToUpper(strings.TrimSpace(i.Currency))
	if i.InvoiceStatus == "" {
		i.InvoiceStatus = types.InvoiceStatusDraft
	}
	if i.TemplateID != nil && strings.TrimSpace(*i.TemplateID) == "" {
		i.TemplateID = nil
	}
	i.PaymentDetails.Normalize()
}

func (i *Invoice) Validate() error {
	if i.ClientRef == "" {
		return ierr.NewError("client_ref is required").
			WithHint("Please provide a client reference").
			Mark(ierr.ErrValidation)
	}

	if i.Amount.IsNegative() {
		return ierr.NewError("amount must be non-negative").
			WithHint("Invoice amount cannot be negative").
			WithReportableDetails(map[string]any{
				"amount": i.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if len(i.Currency) != 3 {
		return ierr.NewError("invalid currency").
			WithHint("Please provide a 3 letter ISO currency code").
			WithReportableDetails(map[string]any{
				"currency": i.Currency,
			}).
			Mark(ierr.ErrValidation)
	}

	if err := i.InvoiceStatus.Validate(); err != nil {
		return err
	}

	if i.DueDate != nil && !i.IssueDate.IsZero() && i.DueDate.Before(i.IssueDate) {
		return ierr.NewError("due_date must not be before issue_date").
			WithHint("Due date must be on or after the issue date").
			Mark(ierr.ErrValidation)
	}

	if i.Recurring != nil {
		if err := i.Recurring.Validate(); err != nil {
			return err
		}
	}

	if err := i.PaymentDetails.Validate(); err != nil {
		return err
	}

	return i.Metadata.Validate()
}

// Copy returns a deep copy so callers never share state with a store
func (i *Invoice) Copy() *Invoice {
	if i == nil {
		return nil
	}
	out := *i
	if i.DueDate != nil {
		out.DueDate = lo.ToPtr(*i.DueDate)
	}
	if i.TemplateID != nil {
		out.TemplateID = lo.ToPtr(*i.TemplateID)
	}
	out.Recurring = i.Recurring.Copy()
	out.PaymentDetails = i.PaymentDetails.Copy()
	out.Metadata = i.Metadata.Clone()
	return &out
}

// TrashedInvoice is a soft-deleted invoice. It can be restored or purged.
type TrashedInvoice struct {
	Invoice
	DeletedAt time.Time `json:"deleted_at"`
	DeletedBy string    `json:"deleted_by,omitempty"`
}

func (t *TrashedInvoice) Copy() *TrashedInvoice {
	if t == nil {
		return nil
	}
	return &TrashedInvoice{
		Invoice:   *t.Invoice.Copy(),
		DeletedAt: t.DeletedAt,
		DeletedBy: t.DeletedBy,
	}
}

// Trash wraps a copy of the invoice with deletion metadata
func (i *Invoice) Trash(deletedAt time.Time, deletedBy string) *TrashedInvoice {
	return &TrashedInvoice{
		Invoice:   *i.Copy(),
		DeletedAt: deletedAt,
		DeletedBy: deletedBy,
	}
}

// Restore returns the invoice held in trash with its status reset to DRAFT
func (t *TrashedInvoice) Restore(restoredAt time.Time, restoredBy string) *Invoice {
	inv := t.Invoice.Copy()
	inv.InvoiceStatus = types.InvoiceStatusDraft
	inv.UpdatedAt = restoredAt
	inv.UpdatedBy = restoredBy
	return inv
}
