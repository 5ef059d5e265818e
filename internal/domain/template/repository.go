package template

import "context"

// EntitlementRepository persists tenant entitlements
type EntitlementRepository interface {
	// Get returns the tenant's entitlement, or a not found error if none was stored
	Get(ctx context.Context, tenantID string) (*Entitlement, error)

	// Upsert creates or replaces the tenant's entitlement
	Upsert(ctx context.Context, e *Entitlement) error
}

// Catalog resolves template ids to descriptors
type Catalog interface {
	Get(ctx context.Context, id string) (*Descriptor, error)
	List(ctx context.Context) ([]*Descriptor, error)
}
