package memory

import (
	"context"
	"strings"
	"time"

	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/samber/lo"
)

// InvoiceStore implements invoice.Repository for the active set
type InvoiceStore struct {
	store *tenantStore[*invoice.Invoice]
}

func NewInvoiceStore() *InvoiceStore {
	return &InvoiceStore{store: newTenantStore[*invoice.Invoice]()}
}

func (s *InvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if err := s.store.create(ctx, inv.ID, inv.Copy()); err != nil {
		return invoice.NewIDInUseError(inv.ID)
	}
	return nil
}

func (s *InvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, ok := s.store.get(ctx, id)
	if !ok {
		return nil, invoice.NewActiveNotFoundError(id)
	}
	return inv.Copy(), nil
}

func (s *InvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if !s.store.update(ctx, inv.ID, inv.Copy()) {
		return invoice.NewActiveNotFoundError(inv.ID)
	}
	return nil
}

func (s *InvoiceStore) Delete(ctx context.Context, id string) error {
	if !s.store.delete(ctx, id) {
		return invoice.NewActiveNotFoundError(id)
	}
	return nil
}

func (s *InvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	if filter == nil {
		filter = types.NewNoLimitInvoiceFilter()
	}
	items := s.store.list(ctx, filter, invoiceFilterFn, invoiceSortFn(filter.GetSort(), filter.GetOrder()))
	return lo.Map(items, func(inv *invoice.Invoice, _ int) *invoice.Invoice {
		return inv.Copy()
	}), nil
}

func (s *InvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	if filter == nil {
		filter = types.NewNoLimitInvoiceFilter()
	}
	return s.store.count(ctx, filter, invoiceFilterFn), nil
}

func invoiceFilterFn(ctx context.Context, inv *invoice.Invoice, filter interface{}) bool {
	f, ok := filter.(*types.InvoiceFilter)
	if !ok {
		return true
	}

	if len(f.InvoiceIDs) > 0 && !lo.Contains(f.InvoiceIDs, inv.ID) {
		return false
	}

	if len(f.InvoiceStatus) > 0 && !lo.Contains(f.InvoiceStatus, inv.InvoiceStatus) {
		return false
	}

	if f.Currency != "" && !strings.EqualFold(f.Currency, inv.Currency) {
		return false
	}

	if f.TimeRangeFilter != nil && !f.TimeRangeFilter.Contains(inv.IssueDate) {
		return false
	}

	return f.MatchesSearch(inv.ClientRef)
}

func invoiceSortFn(field, order string) SortFunc[*invoice.Invoice] {
	return func(a, b *invoice.Invoice) bool {
		return less(compareInvoices(a, b, field), a.ID, b.ID, order)
	}
}

func compareInvoices(a, b *invoice.Invoice, field string) int {
	switch field {
	case types.InvoiceSortIssueDate:
		return compareTime(a.IssueDate, b.IssueDate)
	case types.InvoiceSortDueDate:
		return compareTime(lo.FromPtr(a.DueDate), lo.FromPtr(b.DueDate))
	case types.InvoiceSortAmount:
		return a.Amount.Cmp(b.Amount)
	default:
		return compareTime(a.CreatedAt, b.CreatedAt)
	}
}

func compareTime(a, b time.Time) int {
	return a.Compare(b)
}

// less orders by cmp, breaking ties on id so pages are stable
func less(cmp int, idA, idB, order string) bool {
	if cmp == 0 {
		cmp = strings.Compare(idA, idB)
	}
	if order == types.OrderAsc {
		return cmp < 0
	}
	return cmp > 0
}
