package service

import (
	"context"

	"github.com/flexprice/invoicedesk/internal/config"
	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	"github.com/flexprice/invoicedesk/internal/domain/template"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/publisher"
	"github.com/flexprice/invoicedesk/internal/pubsub"
	"github.com/flexprice/invoicedesk/internal/sentry"
	"github.com/flexprice/invoicedesk/internal/types"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Sentry *sentry.Service

	// Repositories
	InvoiceRepo     invoice.Repository
	TrashRepo       invoice.TrashRepository
	Registry        invoice.IdentifierRegistry
	EntitlementRepo template.EntitlementRepository
	TemplateCatalog template.Catalog

	// Ledger seeds the stores of a tenant on first access, nil when persistence is disabled
	Ledger invoice.Ledger

	// Guard serializes all operations of a tenant
	Guard *TenantGuard

	// Publishers
	EventPublisher publisher.EventPublisher
	PubSub         pubsub.PubSub
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	sentry *sentry.Service,
	invoiceRepo invoice.Repository,
	trashRepo invoice.TrashRepository,
	registry invoice.IdentifierRegistry,
	entitlementRepo template.EntitlementRepository,
	templateCatalog template.Catalog,
	ledger invoice.Ledger,
	guard *TenantGuard,
	eventPublisher publisher.EventPublisher,
	pubSub pubsub.PubSub,
) ServiceParams {
	return ServiceParams{
		Logger:          logger,
		Config:          config,
		Sentry:          sentry,
		InvoiceRepo:     invoiceRepo,
		TrashRepo:       trashRepo,
		Registry:        registry,
		EntitlementRepo: entitlementRepo,
		TemplateCatalog: templateCatalog,
		Ledger:          ledger,
		Guard:           guard,
		EventPublisher:  eventPublisher,
		PubSub:          pubSub,
	}
}

// publish emits a lifecycle event. The operation already happened, so a
// failure is only logged here and never returned to the caller. The event
// publisher reports transport failures to sentry.
func (p ServiceParams) publish(ctx context.Context, eventName string, payload interface{}) {
	p.Sentry.AddBreadcrumb(ctx, "invoice", eventName, map[string]interface{}{
		"tenant_id": types.GetTenantID(ctx),
	})
	if err := p.EventPublisher.Publish(ctx, eventName, payload); err != nil {
		p.Logger.Warnw("failed to publish event", "event_name", eventName, "error", err)
	}
}
