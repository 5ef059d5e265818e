package repository

import (
	"github.com/flexprice/invoicedesk/internal/cache"
	"github.com/flexprice/invoicedesk/internal/config"
	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	"github.com/flexprice/invoicedesk/internal/domain/template"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/postgres"
	memoryRepo "github.com/flexprice/invoicedesk/internal/repository/memory"
	postgresRepo "github.com/flexprice/invoicedesk/internal/repository/postgres"
	"github.com/flexprice/invoicedesk/internal/sentry"
)

func NewInvoiceRepository() invoice.Repository {
	return memoryRepo.NewInvoiceStore()
}

func NewTrashRepository() invoice.TrashRepository {
	return memoryRepo.NewTrashStore()
}

func NewIdentifierRegistry() invoice.IdentifierRegistry {
	return memoryRepo.NewIdentifierRegistry()
}

func NewTemplateCatalog(cfg *config.Configuration) template.Catalog {
	return memoryRepo.NewTemplateCatalog(cfg)
}

// NewLedger returns nil when postgres is disabled, stores then start empty
func NewLedger(db *postgres.DB, logger *logger.Logger, sentry *sentry.Service) invoice.Ledger {
	if db == nil {
		return nil
	}
	return postgresRepo.NewLedgerRepository(db, logger, sentry)
}

func NewEntitlementRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) template.EntitlementRepository {
	if db == nil {
		return memoryRepo.NewEntitlementStore()
	}
	return postgresRepo.NewEntitlementRepository(db, logger, cache)
}
