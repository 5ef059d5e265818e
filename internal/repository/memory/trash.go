package memory

import (
	"context"

	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/samber/lo"
)

// TrashStore implements invoice.TrashRepository
type TrashStore struct {
	store *tenantStore[*invoice.TrashedInvoice]
}

func NewTrashStore() *TrashStore {
	return &TrashStore{store: newTenantStore[*invoice.TrashedInvoice]()}
}

func (s *TrashStore) Create(ctx context.Context, trashed *invoice.TrashedInvoice) error {
	if err := s.store.create(ctx, trashed.ID, trashed.Copy()); err != nil {
		return invoice.NewIDInUseError(trashed.ID)
	}
	return nil
}

func (s *TrashStore) Get(ctx context.Context, id string) (*invoice.TrashedInvoice, error) {
	trashed, ok := s.store.get(ctx, id)
	if !ok {
		return nil, invoice.NewTrashNotFoundError(id)
	}
	return trashed.Copy(), nil
}

func (s *TrashStore) Delete(ctx context.Context, id string) error {
	if !s.store.delete(ctx, id) {
		return invoice.NewTrashNotFoundError(id)
	}
	return nil
}

func (s *TrashStore) List(ctx context.Context, filter *types.TrashFilter) ([]*invoice.TrashedInvoice, error) {
	if filter == nil {
		filter = types.NewTrashFilter()
	}
	items := s.store.list(ctx, filter, trashFilterFn, trashSortFn(filter.GetSort(), filter.GetOrder()))
	return lo.Map(items, func(t *invoice.TrashedInvoice, _ int) *invoice.TrashedInvoice {
		return t.Copy()
	}), nil
}

func (s *TrashStore) Count(ctx context.Context, filter *types.TrashFilter) (int, error) {
	if filter == nil {
		filter = types.NewTrashFilter()
	}
	return s.store.count(ctx, filter, trashFilterFn), nil
}

func trashFilterFn(ctx context.Context, t *invoice.TrashedInvoice, filter interface{}) bool {
	f, ok := filter.(*types.TrashFilter)
	if !ok {
		return true
	}
	if f.TimeRangeFilter != nil && !f.TimeRangeFilter.Contains(t.DeletedAt) {
		return false
	}
	return f.MatchesSearch(t.ClientRef)
}

func trashSortFn(field, order string) SortFunc[*invoice.TrashedInvoice] {
	return func(a, b *invoice.TrashedInvoice) bool {
		if field == types.InvoiceSortDeletedAt {
			return less(compareTime(a.DeletedAt, b.DeletedAt), a.ID, b.ID, order)
		}
		return less(compareInvoices(&a.Invoice, &b.Invoice, field), a.ID, b.ID, order)
	}
}
