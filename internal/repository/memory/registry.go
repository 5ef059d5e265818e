package memory

import (
	"context"
	"sync"

	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	"github.com/flexprice/invoicedesk/internal/types"
)

// IdentifierRegistry implements invoice.IdentifierRegistry with a set of ids per tenant
type IdentifierRegistry struct {
	mu  sync.RWMutex
	ids map[string]map[string]struct{}
}

func NewIdentifierRegistry() *IdentifierRegistry {
	return &IdentifierRegistry{ids: make(map[string]map[string]struct{})}
}

func (r *IdentifierRegistry) IsInUse(ctx context.Context, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.ids[types.GetTenantID(ctx)][id]
	return ok
}

func (r *IdentifierRegistry) Reserve(ctx context.Context, id string) error {
	tenantID := types.GetTenantID(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.ids[tenantID]
	if !ok {
		set = make(map[string]struct{})
		r.ids[tenantID] = set
	}
	if _, taken := set[id]; taken {
		return invoice.NewIDInUseError(id)
	}
	set[id] = struct{}{}
	return nil
}

func (r *IdentifierRegistry) Release(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.ids[types.GetTenantID(ctx)], id)
}
