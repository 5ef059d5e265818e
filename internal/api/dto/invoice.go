package dto

import (
	"context"
	"strings"
	"time"

	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/flexprice/invoicedesk/internal/validator"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest represents the request payload for creating an invoice
type CreateInvoiceRequest struct {
	// id is an optional caller supplied identifier, generated when absent
	ID *string `json:"id,omitempty" validate:"omitempty,min=1,max=50"`

	// client_ref identifies the billed client
	ClientRef string `json:"client_ref" validate:"required,max=255"`

	// amount is the invoice total, it must not be negative
	Amount *decimal.Decimal `json:"amount" validate:"required"`

	// currency is the three-letter ISO currency code (e.g., USD, EUR) for the invoice
	Currency string `json:"currency" validate:"required,currency_code"`

	// issue_date defaults to the time of creation
	IssueDate *time.Time `json:"issue_date,omitempty"`

	// due_date is the date by which payment is expected
	DueDate *time.Time `json:"due_date,omitempty"`

	// invoice_status defaults to DRAFT
	InvoiceStatus *types.InvoiceStatus `json:"invoice_status,omitempty"`

	// template_id selects a document template, subject to the tenant's entitlement
	TemplateID *string `json:"template_id,omitempty" validate:"omitempty,max=100"`

	// recurring optionally configures the invoice as a recurring series
	Recurring *RecurringConfigRequest `json:"recurring,omitempty"`

	// payment_details tells the payer where to send money
	PaymentDetails *invoice.PaymentDetails `json:"payment_details,omitempty"`

	// metadata contains additional custom key-value pairs for storing extra information
	Metadata types.Metadata `json:"metadata,omitempty"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.ID != nil {
		id := strings.TrimSpace(*r.ID)
		if id == "" || strings.Contains(id, "/") {
			return ierr.NewError("invalid invoice id").
				WithHint("Invoice id must not be blank or contain '/'").
				WithReportableDetails(map[string]any{
					"id": *r.ID,
				}).
				Mark(ierr.ErrValidation)
		}
	}

	if r.Amount.IsNegative() {
		return ierr.NewError("amount must be non-negative").
			WithHint("Invoice amount cannot be negative").
			WithReportableDetails(map[string]any{
				"amount": r.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if r.InvoiceStatus != nil {
		if err := r.InvoiceStatus.Validate(); err != nil {
			return err
		}
	}

	if r.Recurring != nil {
		if err := r.Recurring.Validate(); err != nil {
			return err
		}
	}

	r.PaymentDetails.Normalize()
	return r.PaymentDetails.Validate()
}

// ToInvoice converts a create invoice request to an invoice without an id
func (r *CreateInvoiceRequest) ToInvoice(ctx context.Context) *invoice.Invoice {
	inv := &invoice.Invoice{
		ClientRef:      r.ClientRef,
		Amount:         *r.Amount,
		Currency:       r.Currency,
		DueDate:        r.DueDate,
		InvoiceStatus:  types.InvoiceStatusDraft,
		TemplateID:     r.TemplateID,
		PaymentDetails: r.PaymentDetails.Copy(),
		Metadata:       r.Metadata.Clone(),
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}
	if r.ID != nil {
		inv.ID = strings.TrimSpace(*r.ID)
	}
	if r.IssueDate != nil {
		inv.IssueDate = r.IssueDate.UTC()
	} else {
		inv.IssueDate = inv.CreatedAt
	}
	if r.InvoiceStatus != nil {
		inv.InvoiceStatus = *r.InvoiceStatus
	}
	if r.Recurring != nil {
		inv.Recurring = r.Recurring.ToConfig()
	}
	inv.Normalize()
	return inv
}

// UpdateInvoiceRequest patches an active invoice. Absent fields are left unchanged.
type UpdateInvoiceRequest struct {
	ClientRef      *string                 `json:"client_ref,omitempty" validate:"omitempty,max=255"`
	Amount         *decimal.Decimal        `json:"amount,omitempty"`
	Currency       *string                 `json:"currency,omitempty" validate:"omitempty,currency_code"`
	IssueDate      *time.Time              `json:"issue_date,omitempty"`
	DueDate        *time.Time              `json:"due_date,omitempty"`
	InvoiceStatus  *types.InvoiceStatus    `json:"invoice_status,omitempty"`
	TemplateID     *string                 `json:"template_id,omitempty" validate:"omitempty,max=100"`
	PaymentDetails *invoice.PaymentDetails `json:"payment_details,omitempty"`
	Metadata       types.Metadata          `json:"metadata,omitempty"`
}

func (r *UpdateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.Amount != nil && r.Amount.IsNegative() {
		return ierr.NewError("amount must be non-negative").
			WithHint("Invoice amount cannot be negative").
			WithReportableDetails(map[string]any{
				"amount": r.Amount.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	if r.InvoiceStatus != nil {
		if err := r.InvoiceStatus.Validate(); err != nil {
			return err
		}
	}

	r.PaymentDetails.Normalize()
	return r.PaymentDetails.Validate()
}

// Apply merges the patch into inv. The id is never changed.
func (r *UpdateInvoiceRequest) Apply(ctx context.Context, inv *invoice.Invoice) {
	if r.ClientRef != nil {
		inv.ClientRef = *r.ClientRef
	}
	if r.Amount != nil {
		inv.Amount = *r.Amount
	}
	if r.Currency != nil {
		inv.Currency = *r.Currency
	}
	if r.IssueDate != nil {
		inv.IssueDate = r.IssueDate.UTC()
	}
	if r.DueDate != nil {
		due := r.DueDate.UTC()
		inv.DueDate = &due
	}
	if r.InvoiceStatus != nil {
		inv.InvoiceStatus = *r.InvoiceStatus
	}
	if r.TemplateID != nil {
		id := *r.TemplateID
		inv.TemplateID = &id
	}
	if r.PaymentDetails != nil {
		inv.PaymentDetails = r.PaymentDetails.Copy()
	}
	if r.Metadata != nil {
		inv.Metadata = r.Metadata.Clone()
	}
	inv.UpdatedAt = time.Now().UTC()
	inv.UpdatedBy = types.GetUserID(ctx)
	inv.Normalize()
}

// InvoiceResponse represents an active invoice
type InvoiceResponse struct {
	*invoice.Invoice
}

func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	if inv == nil {
		return nil
	}
	return &InvoiceResponse{Invoice: inv}
}

// TrashedInvoiceResponse represents a soft-deleted invoice
type TrashedInvoiceResponse struct {
	*invoice.TrashedInvoice
}

func NewTrashedInvoiceResponse(t *invoice.TrashedInvoice) *TrashedInvoiceResponse {
	if t == nil {
		return nil
	}
	return &TrashedInvoiceResponse{TrashedInvoice: t}
}

// ListInvoicesResponse represents the response for listing active invoices
type ListInvoicesResponse = types.ListResponse[*InvoiceResponse]

// ListTrashResponse represents the response for listing trashed invoices
type ListTrashResponse = types.ListResponse[*TrashedInvoiceResponse]
