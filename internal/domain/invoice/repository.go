package invoice

import (
	"context"

	"github.com/flexprice/invoicedesk/internal/types"
)

// Repository holds the active invoices of a tenant. The tenant is read from ctx.
type Repository interface {
	// Create inserts an invoice whose id was reserved beforehand
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves an active invoice by ID
	Get(ctx context.Context, id string) (*Invoice, error)

	// Update replaces an existing active invoice
	Update(ctx context.Context, invoice *Invoice) error

	// Delete removes an active invoice without touching the registry
	Delete(ctx context.Context, id string) error

	// List retrieves invoices based on filter criteria
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Count returns the total count of invoices based on filter criteria
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)
}

// TrashRepository holds the soft-deleted invoices of a tenant
type TrashRepository interface {
	Create(ctx context.Context, trashed *TrashedInvoice) error
	Get(ctx context.Context, id string) (*TrashedInvoice, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter *types.TrashFilter) ([]*TrashedInvoice, error)
	Count(ctx context.Context, filter *types.TrashFilter) (int, error)
}

// IdentifierRegistry tracks every id held by either store of a tenant.
// Every insert into a store must be preceded by a successful Reserve.
type IdentifierRegistry interface {
	IsInUse(ctx context.Context, id string) bool

	// Reserve fails with a conflict error if id is already reserved
	Reserve(ctx context.Context, id string) error

	// Release frees id for reuse. Only purge releases ids.
	Release(ctx context.Context, id string)
}

// Ledger is the persistence collaborator the stores are seeded from
type Ledger interface {
	LoadInvoices(ctx context.Context, tenantID string) ([]*Invoice, error)
	LoadTrash(ctx context.Context, tenantID string) ([]*TrashedInvoice, error)
}
