package service

import (
	"context"
	"sync"

	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/sourcegraph/conc/pool"
)

type tenantLock struct {
	sync.RWMutex
	hydrated bool
	// sequence counts successful exclusive sections of the tenant
	sequence uint64
}

// TenantGuard is the mutual exclusion boundary of a tenant. It spans the
// identifier registry and both invoice stores, so every operation holding it
// observes and leaves them consistent. Tenants never contend with each other.
type TenantGuard struct {
	mu    sync.Mutex
	locks map[string]*tenantLock

	ledger      invoice.Ledger
	invoiceRepo invoice.Repository
	trashRepo   invoice.TrashRepository
	registry    invoice.IdentifierRegistry
	logger      *logger.Logger
}

func NewTenantGuard(
	ledger invoice.Ledger,
	invoiceRepo invoice.Repository,
	trashRepo invoice.TrashRepository,
	registry invoice.IdentifierRegistry,
	logger *logger.Logger,
) *TenantGuard {
	return &TenantGuard{
		locks:       make(map[string]*tenantLock),
		ledger:      ledger,
		invoiceRepo: invoiceRepo,
		trashRepo:   trashRepo,
		registry:    registry,
		logger:      logger,
	}
}

func (g *TenantGuard) lockFor(tenantID string) *tenantLock {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.locks[tenantID]
	if !ok {
		l = &tenantLock{}
		g.locks[tenantID] = l
	}
	return l
}

// WithLock runs fn holding the exclusive lock of the tenant in ctx
func (g *TenantGuard) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := g.withLock(ctx, fn)
	return err
}

// WithLockSequenced runs fn like WithLock. On success the returned ctx carries
// the tenant's event sequence, taken before the lock is released. Events are
// published after the lock, so consumers order them by this sequence rather
// than by arrival. Sequences increase per tenant and may have gaps.
func (g *TenantGuard) WithLockSequenced(ctx context.Context, fn func(ctx context.Context) error) (context.Context, error) {
	seq, err := g.withLock(ctx, fn)
	if err != nil {
		return ctx, err
	}
	return types.SetEventSequence(ctx, seq), nil
}

func (g *TenantGuard) withLock(ctx context.Context, fn func(ctx context.Context) error) (uint64, error) {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return 0, err
	}
	l := g.lockFor(types.GetTenantID(ctx))

	l.Lock()
	defer l.Unlock()

	if err := g.hydrateLocked(ctx, l); err != nil {
		return 0, err
	}
	if err := fn(ctx); err != nil {
		return 0, err
	}
	l.sequence++
	return l.sequence, nil
}

// WithRLock runs fn holding the shared lock of the tenant in ctx. fn must not mutate.
func (g *TenantGuard) WithRLock(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := types.ValidateTenantContext(ctx); err != nil {
		return err
	}
	l := g.lockFor(types.GetTenantID(ctx))

	if err := g.ensureHydrated(ctx, l); err != nil {
		return err
	}

	l.RLock()
	defer l.RUnlock()
	return fn(ctx)
}

// Hydrate seeds the tenant's stores from the ledger. It is a no-op once the tenant is seeded.
func (g *TenantGuard) Hydrate(ctx context.Context, tenantID string) error {
	ctx = types.SetTenantID(ctx, tenantID)
	if err := types.ValidateTenantContext(ctx); err != nil {
		return err
	}
	l := g.lockFor(tenantID)

	l.Lock()
	defer l.Unlock()
	return g.hydrateLocked(ctx, l)
}

func (g *TenantGuard) ensureHydrated(ctx context.Context, l *tenantLock) error {
	l.RLock()
	hydrated := l.hydrated
	l.RUnlock()
	if hydrated {
		return nil
	}

	l.Lock()
	defer l.Unlock()
	return g.hydrateLocked(ctx, l)
}

func (g *TenantGuard) hydrateLocked(ctx context.Context, l *tenantLock) error {
	if l.hydrated {
		return nil
	}
	if g.ledger == nil {
		l.hydrated = true
		return nil
	}

	tenantID := types.GetTenantID(ctx)

	var (
		invoices []*invoice.Invoice
		trashed  []*invoice.TrashedInvoice
	)
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		var err error
		invoices, err = g.ledger.LoadInvoices(ctx, tenantID)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		trashed, err = g.ledger.LoadTrash(ctx, tenantID)
		return err
	})
	if err := p.Wait(); err != nil {
		g.logger.Errorw("failed to load tenant from ledger", "tenant_id", tenantID, "error", err)
		return err
	}

	if err := g.checkSeed(ctx, invoices, trashed); err != nil {
		g.logger.Errorw("refusing to seed tenant", "tenant_id", tenantID, "error", err)
		return err
	}

	for _, inv := range invoices {
		if err := g.seedInvoice(ctx, inv); err != nil {
			return err
		}
	}
	for _, t := range trashed {
		if err := g.seedTrashed(ctx, t); err != nil {
			return err
		}
	}

	l.hydrated = true
	g.logger.Infow("seeded tenant from ledger",
		"tenant_id", tenantID,
		"invoices", len(invoices),
		"trashed", len(trashed),
	)
	return nil
}

// checkSeed rejects a seed where an id appears twice, in either load or across both,
// or is already reserved. Nothing is seeded when it fails.
func (g *TenantGuard) checkSeed(ctx context.Context, invoices []*invoice.Invoice, trashed []*invoice.TrashedInvoice) error {
	seen := make(map[string]string, len(invoices)+len(trashed))
	check := func(id, source string) error {
		if prev, dup := seen[id]; dup || g.registry.IsInUse(ctx, id) {
			return ierr.NewError("ledger holds a duplicate invoice id").
				WithHintf("Invoice id %s appears more than once in the ledger", id).
				WithReportableDetails(map[string]any{
					"invoice_id": id,
					"first_seen": prev,
					"source":     source,
				}).
				Mark(ierr.ErrConflict)
		}
		seen[id] = source
		return nil
	}

	for _, inv := range invoices {
		if err := check(inv.ID, "invoices"); err != nil {
			return err
		}
	}
	for _, t := range trashed {
		if err := check(t.ID, "trash"); err != nil {
			return err
		}
	}
	return nil
}

func (g *TenantGuard) seedInvoice(ctx context.Context, inv *invoice.Invoice) error {
	if err := g.registry.Reserve(ctx, inv.ID); err != nil {
		return err
	}
	return g.invoiceRepo.Create(ctx, inv)
}

func (g *TenantGuard) seedTrashed(ctx context.Context, t *invoice.TrashedInvoice) error {
	if err := g.registry.Reserve(ctx, t.ID); err != nil {
		return err
	}
	return g.trashRepo.Create(ctx, t)
}
