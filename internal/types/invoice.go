package types

import (
	"strings"

	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/samber/lo"
)

// InvoiceStatus represents the billing state of an active invoice
type InvoiceStatus string

const (
	// InvoiceStatusDraft indicates the invoice has not been sent yet. Restored invoices always land here
	InvoiceStatusDraft InvoiceStatus = "DRAFT"
	// InvoiceStatusPending indicates the invoice was issued and awaits payment
	InvoiceStatusPending InvoiceStatus = "PENDING"
	// InvoiceStatusPaid indicates the invoice was settled in full
	InvoiceStatusPaid InvoiceStatus = "PAID"
	// InvoiceStatusOverdue indicates the due date passed without payment
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

var InvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusPending,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
}

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	if !lo.Contains(InvoiceStatuses, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": InvoiceStatuses,
				"status":  s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Sort fields accepted by invoice and trash listings
const (
	InvoiceSortCreatedAt = "created_at"
	InvoiceSortIssueDate = "issue_date"
	InvoiceSortDueDate   = "due_date"
	InvoiceSortAmount    = "amount"
	InvoiceSortDeletedAt = "deleted_at"
)

// InvoiceFilter represents the filter options for listing active invoices.
// The time range applies to the issue date.
type InvoiceFilter struct {
	*QueryFilter
	*TimeRangeFilter

	// invoice_ids restricts results to invoices with the specified IDs
	InvoiceIDs []string `json:"invoice_ids,omitempty" form:"invoice_ids"`

	// invoice_status filters by status, multiple values are OR-ed
	InvoiceStatus []InvoiceStatus `json:"invoice_status,omitempty" form:"invoice_status"`

	// search matches client references case-insensitively
	Search string `json:"search,omitempty" form:"search"`

	// currency filters by the invoice currency code
	Currency string `json:"currency,omitempty" form:"currency"`
}

// NewInvoiceFilter creates a new invoice filter with default options
func NewInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewDefaultQueryFilter(),
	}
}

// NewNoLimitInvoiceFilter creates a new invoice filter without pagination
func NewNoLimitInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{
		QueryFilter: NewNoLimitQueryFilter(),
	}
}

func (f *InvoiceFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
		if err := validateSort(f.GetSort(), InvoiceSortCreatedAt, InvoiceSortIssueDate, InvoiceSortDueDate, InvoiceSortAmount); err != nil {
			return err
		}
	}
	if f.TimeRangeFilter != nil {
		if err := f.TimeRangeFilter.Validate(); err != nil {
			return err
		}
	}
	for _, status := range f.InvoiceStatus {
		if err := status.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MatchesSearch reports whether clientRef matches the free-text search
func (f *InvoiceFilter) MatchesSearch(clientRef string) bool {
	return matchesSearch(f.Search, clientRef)
}

// GetLimit implements BaseFilter interface
func (f *InvoiceFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

// GetOffset implements BaseFilter interface
func (f *InvoiceFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOffset()
	}
	return f.QueryFilter.GetOffset()
}

// GetSort implements BaseFilter interface
func (f *InvoiceFilter) GetSort() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetSort()
	}
	return f.QueryFilter.GetSort()
}

// GetOrder implements BaseFilter interface
func (f *InvoiceFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetOrder()
	}
	return f.QueryFilter.GetOrder()
}

func (f *InvoiceFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().IsUnlimited()
	}
	return f.QueryFilter.IsUnlimited()
}

// TrashFilter represents the filter options for listing trashed invoices.
// The time range applies to the deletion time.
type TrashFilter struct {
	*QueryFilter
	*TimeRangeFilter

	Search string `json:"search,omitempty" form:"search"`
}

// NewTrashFilter creates a trash filter sorted by most recent deletion
func NewTrashFilter() *TrashFilter {
	qf := NewDefaultQueryFilter()
	qf.Sort = lo.ToPtr(InvoiceSortDeletedAt)
	return &TrashFilter{QueryFilter: qf}
}

func (f *TrashFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
		if err := validateSort(f.GetSort(), InvoiceSortCreatedAt, InvoiceSortDeletedAt, InvoiceSortIssueDate, InvoiceSortAmount); err != nil {
			return err
		}
	}
	if f.TimeRangeFilter != nil {
		if err := f.TimeRangeFilter.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MatchesSearch reports whether clientRef matches the free-text search
func (f *TrashFilter) MatchesSearch(clientRef string) bool {
	return matchesSearch(f.Search, clientRef)
}

func (f *TrashFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

func (f *TrashFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return 0
	}
	return f.QueryFilter.GetOffset()
}

func (f *TrashFilter) GetSort() string {
	if f.QueryFilter == nil || f.QueryFilter.Sort == nil {
		return InvoiceSortDeletedAt
	}
	return f.QueryFilter.GetSort()
}

func (f *TrashFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return FILTER_DEFAULT_ORDER
	}
	return f.QueryFilter.GetOrder()
}

func (f *TrashFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return false
	}
	return f.QueryFilter.IsUnlimited()
}

func matchesSearch(search, clientRef string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(clientRef), strings.ToLower(search))
}

func validateSort(sort string, allowed ...string) error {
	if !lo.Contains(allowed, sort) {
		return ierr.NewError("invalid sort field").
			WithHint("Please provide a valid sort field").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"sort":    sort,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
