package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	"github.com/samber/lo"
)

var _ invoice.Ledger = (*InMemoryLedger)(nil)

// InMemoryLedger serves seeded invoices per tenant and counts how often each tenant is loaded
type InMemoryLedger struct {
	mu       sync.Mutex
	invoices map[string][]*invoice.Invoice
	trash    map[string][]*invoice.TrashedInvoice
	loads    map[string]int
	err      error
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		invoices: make(map[string][]*invoice.Invoice),
		trash:    make(map[string][]*invoice.TrashedInvoice),
		loads:    make(map[string]int),
	}
}

// Seed replaces the records the ledger holds for tenantID
func (l *InMemoryLedger) Seed(tenantID string, invoices []*invoice.Invoice, trashed []*invoice.TrashedInvoice) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.invoices[tenantID] = invoices
	l.trash[tenantID] = trashed
}

// FailWith makes every load return err
func (l *InMemoryLedger) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

// Loads returns the number of LoadInvoices calls for tenantID
func (l *InMemoryLedger) Loads(tenantID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads[tenantID]
}

func (l *InMemoryLedger) LoadInvoices(ctx context.Context, tenantID string) ([]*invoice.Invoice, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loads[tenantID]++
	if l.err != nil {
		return nil, l.err
	}
	return lo.Map(l.invoices[tenantID], func(inv *invoice.Invoice, _ int) *invoice.Invoice {
		return inv.Copy()
	}), nil
}

func (l *InMemoryLedger) LoadTrash(ctx context.Context, tenantID string) ([]*invoice.TrashedInvoice, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.err != nil {
		return nil, l.err
	}
	return lo.Map(l.trash[tenantID], func(t *invoice.TrashedInvoice, _ int) *invoice.TrashedInvoice {
		return t.Copy()
	}), nil
}

func (l *InMemoryLedger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.invoices = make(map[string][]*invoice.Invoice)
	l.trash = make(map[string][]*invoice.TrashedInvoice)
	l.loads = make(map[string]int)
	l.err = nil
}
