package testutil

import (
	"context"
	"time"

	"github.com/flexprice/invoicedesk/internal/config"
	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	"github.com/flexprice/invoicedesk/internal/domain/template"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/publisher"
	memoryRepo "github.com/flexprice/invoicedesk/internal/repository/memory"
	"github.com/flexprice/invoicedesk/internal/sentry"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/flexprice/invoicedesk/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Template ids of the test catalog
const (
	TemplateFreeClassic = "tpl_free_classic"
	TemplateFreeModern  = "tpl_free_modern"
	TemplateFreeMinimal = "tpl_free_minimal"
	TemplatePro         = "tpl_pro_corporate"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	InvoiceRepo     invoice.Repository
	TrashRepo       invoice.TrashRepository
	Registry        invoice.IdentifierRegistry
	EntitlementRepo template.EntitlementRepository
	TemplateCatalog template.Catalog
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	pubSub    *InMemoryPubSub
	publisher publisher.EventPublisher
	ledger    *InMemoryLedger
	sentry    *sentry.Service
	logger    *logger.Logger
	config    *config.Configuration
	now       time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = types.LogLevelInfo
	cfg.Templates = config.TemplatesConfig{
		FreeQuota: types.DefaultFreeTemplateQuota,
		Catalog: []config.TemplateConfig{
			{ID: TemplateFreeClassic, Name: "Classic", Tier: types.TemplateTierFree},
			{ID: TemplateFreeModern, Name: "Modern", Tier: types.TemplateTierFree},
			{ID: TemplateFreeMinimal, Name: "Minimal", Tier: types.TemplateTierFree},
			{ID: TemplatePro, Name: "Corporate", Tier: types.TemplateTierPro},
		},
	}
	s.config = cfg
	s.logger = logger.NewNoopLogger()
	s.sentry = sentry.NewSentryService(cfg, s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.pubSub.ClearMessages()
	s.ledger.Clear()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		InvoiceRepo:     memoryRepo.NewInvoiceStore(),
		TrashRepo:       memoryRepo.NewTrashStore(),
		Registry:        memoryRepo.NewIdentifierRegistry(),
		EntitlementRepo: memoryRepo.NewEntitlementStore(),
		TemplateCatalog: memoryRepo.NewTemplateCatalog(s.config),
	}
	s.pubSub = NewInMemoryPubSub()
	s.publisher = publisher.NewEventPublisher(s.pubSub, s.config, s.logger, s.sentry)
	s.ledger = NewInMemoryLedger()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetPubSub returns the pubsub both publishers write to
func (s *BaseServiceTestSuite) GetPubSub() *InMemoryPubSub {
	return s.pubSub
}

// GetPublisher returns the test event publisher
func (s *BaseServiceTestSuite) GetPublisher() publisher.EventPublisher {
	return s.publisher
}

func (s *BaseServiceTestSuite) GetLedger() *InMemoryLedger {
	return s.ledger
}

func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// EventNames returns the names of the lifecycle events published so far, in order
func (s *BaseServiceTestSuite) EventNames() []string {
	var names []string
	for _, msg := range s.pubSub.GetMessages(s.config.PubSub.EventsTopic) {
		names = append(names, msg.Metadata.Get(publisher.MetadataEventName))
	}
	return names
}
