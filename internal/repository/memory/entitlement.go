package memory

import (
	"context"
	"sync"

	"github.com/flexprice/invoicedesk/internal/domain/template"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
)

// EntitlementStore implements template.EntitlementRepository in memory
type EntitlementStore struct {
	mu    sync.RWMutex
	items map[string]*template.Entitlement
}

func NewEntitlementStore() *EntitlementStore {
	return &EntitlementStore{items: make(map[string]*template.Entitlement)}
}

func (s *EntitlementStore) Get(ctx context.Context, tenantID string) (*template.Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[tenantID]
	if !ok {
		return nil, ierr.NewError("entitlement not found").
			WithHintf("No entitlement recorded for tenant %s", tenantID).
			Mark(ierr.ErrNotFound)
	}
	return e.Copy(), nil
}

func (s *EntitlementStore) Upsert(ctx context.Context, e *template.Entitlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[e.TenantID] = e.Copy()
	return nil
}
