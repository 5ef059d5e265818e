package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flexprice/invoicedesk/internal/api"
	v1 "github.com/flexprice/invoicedesk/internal/api/v1"
	"github.com/flexprice/invoicedesk/internal/cache"
	"github.com/flexprice/invoicedesk/internal/config"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/postgres"
	"github.com/flexprice/invoicedesk/internal/publisher"
	"github.com/flexprice/invoicedesk/internal/pubsub"
	"github.com/flexprice/invoicedesk/internal/repository"
	"github.com/flexprice/invoicedesk/internal/sentry"
	"github.com/flexprice/invoicedesk/internal/service"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/flexprice/invoicedesk/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/fx"
)

const shutdownTimeout = 15 * time.Second

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			cache.NewInMemoryCache,

			// Postgres, nil when persistence is disabled
			provideDB,

			// Transport and event publisher
			publisher.NewPubSub,
			publisher.NewEventPublisher,

			// Repositories
			repository.NewInvoiceRepository,
			repository.NewTrashRepository,
			repository.NewIdentifierRegistry,
			repository.NewTemplateCatalog,
			repository.NewEntitlementRepository,
			repository.NewLedger,
		),
	)

	// Monitoring
	opts = append(opts, sentry.Module())

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewTenantGuard,
			service.NewServiceParams,

			service.NewLifecycleService,
			service.NewRecurringService,
			service.NewTemplateGateService,
			service.NewExportService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			preloadTenants,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideDB(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (*postgres.DB, error) {
	if !cfg.Postgres.Enabled {
		log.Info("postgres disabled, invoice stores start empty")
		return nil, nil
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			db.Close()
			return nil
		},
	})
	return db, nil
}

func provideHandlers(
	logger *logger.Logger,
	lifecycleService service.LifecycleService,
	recurringService service.RecurringService,
	templateGateService service.TemplateGateService,
	exportService service.ExportService,
) api.Handlers {
	return api.Handlers{
		Health:   v1.NewHealthHandler(logger),
		Invoice:  v1.NewInvoiceHandler(lifecycleService, recurringService, logger),
		Trash:    v1.NewTrashHandler(lifecycleService, logger),
		Template: v1.NewTemplateHandler(templateGateService, logger),
		Export:   v1.NewExportHandler(exportService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

// preloadTenants seeds the configured tenants before the server accepts traffic
func preloadTenants(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	lifecycleService service.LifecycleService,
	log *logger.Logger,
) {
	if len(cfg.Ledger.PreloadTenants) == 0 {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(4)
			for _, tenantID := range cfg.Ledger.PreloadTenants {
				p.Go(func(ctx context.Context) error {
					ctx = types.SetTenantID(ctx, tenantID)
					if err := lifecycleService.Hydrate(ctx, tenantID); err != nil {
						log.Errorw("failed to preload tenant", "tenant_id", tenantID, "error", err)
						return err
					}
					return nil
				})
			}
			if err := p.Wait(); err != nil {
				return err
			}
			log.Infow("preloaded tenants", "count", len(cfg.Ledger.PreloadTenants))
			return nil
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	ps pubsub.PubSub,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, ps, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	ps pubsub.PubSub,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Errorw("server shutdown failed", "error", err)
			}
			return ps.Close()
		},
	})
}
