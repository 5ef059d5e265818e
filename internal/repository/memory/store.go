package memory

import (
	"context"
	"sort"
	"sync"

	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/types"
)

// FilterFunc is a generic filter function type
type FilterFunc[T any] func(ctx context.Context, item T, filter interface{}) bool

// SortFunc is a generic sort function type
type SortFunc[T any] func(i, j T) bool

// tenantStore is a generic in-memory store partitioned by the tenant in ctx.
// Items are stored and returned as given, callers copy on the way in and out.
type tenantStore[T any] struct {
	mu      sync.RWMutex
	tenants map[string]map[string]T
}

func newTenantStore[T any]() *tenantStore[T] {
	return &tenantStore[T]{
		tenants: make(map[string]map[string]T),
	}
}

func (s *tenantStore[T]) create(ctx context.Context, id string, item T) error {
	tenantID := types.GetTenantID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := s.tenants[tenantID]
	if !ok {
		items = make(map[string]T)
		s.tenants[tenantID] = items
	}
	if _, exists := items[id]; exists {
		return ierr.NewError("item already exists").
			WithHintf("An item with id %s already exists", id).
			Mark(ierr.ErrConflict)
	}

	items[id] = item
	return nil
}

func (s *tenantStore[T]) get(ctx context.Context, id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.tenants[types.GetTenantID(ctx)][id]
	return item, ok
}

func (s *tenantStore[T]) update(ctx context.Context, id string, item T) bool {
	tenantID := types.GetTenantID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[tenantID][id]; !exists {
		return false
	}
	s.tenants[tenantID][id] = item
	return true
}

func (s *tenantStore[T]) delete(ctx context.Context, id string) bool {
	tenantID := types.GetTenantID(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[tenantID][id]; !exists {
		return false
	}
	delete(s.tenants[tenantID], id)
	return true
}

func (s *tenantStore[T]) list(ctx context.Context, filter interface{}, filterFn FilterFunc[T], sortFn SortFunc[T]) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]T, 0)
	for _, item := range s.tenants[types.GetTenantID(ctx)] {
		if filterFn == nil || filterFn(ctx, item, filter) {
			result = append(result, item)
		}
	}

	if sortFn != nil {
		sort.SliceStable(result, func(i, j int) bool {
			return sortFn(result[i], result[j])
		})
	}

	// Apply pagination if filter implements BaseFilter
	if f, ok := filter.(types.BaseFilter); ok && !f.IsUnlimited() {
		start := f.GetOffset()
		if start >= len(result) {
			return []T{}
		}

		end := start + f.GetLimit()
		if end > len(result) {
			end = len(result)
		}
		return result[start:end]
	}

	return result
}

func (s *tenantStore[T]) count(ctx context.Context, filter interface{}, filterFn FilterFunc[T]) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.tenants[types.GetTenantID(ctx)] {
		if filterFn == nil || filterFn(ctx, item, filter) {
			count++
		}
	}
	return count
}

// Clear removes all items of every tenant
func (s *tenantStore[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants = make(map[string]map[string]T)
}
