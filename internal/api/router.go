package api

import (
	v1 "github.com/flexprice/invoicedesk/internal/api/v1"
	"github.com/flexprice/invoicedesk/internal/config"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/rest/middleware"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health   *v1.HealthHandler
	Invoice  *v1.InvoiceHandler
	Trash    *v1.TrashHandler
	Template *v1.TemplateHandler
	Export   *v1.ExportHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.SentryMiddleware(cfg),
		middleware.CORSMiddleware,
		middleware.RequestIDMiddleware,
		middleware.ErrorHandler(cfg.Deployment.Mode, logger),
	)

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	v1Group.GET("/health", handlers.Health.Health)

	registerV1Routes(v1Group.Group("", middleware.TenantMiddleware), handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.PUT("/:id", handlers.Invoice.UpdateInvoice)
		invoices.DELETE("/:id", handlers.Invoice.DeleteInvoice)
		invoices.PUT("/:id/recurring", handlers.Invoice.AttachRecurring)
		invoices.DELETE("/:id/recurring", handlers.Invoice.DetachRecurring)
	}

	trash := router.Group("/trash")
	{
		trash.GET("", handlers.Trash.ListTrash)
		trash.GET("/:id", handlers.Trash.GetTrashedInvoice)
		trash.POST("/:id/restore", handlers.Trash.RestoreInvoice)
		trash.DELETE("/:id", handlers.Trash.PurgeInvoice)
	}

	templates := router.Group("/templates")
	{
		templates.GET("", handlers.Template.ListTemplates)
		templates.POST("/can-apply", handlers.Template.CanApply)
		templates.POST("/select", handlers.Template.SelectTemplate)
	}

	entitlement := router.Group("/entitlement")
	{
		entitlement.GET("", handlers.Template.GetEntitlement)
		entitlement.PUT("", handlers.Template.UpdatePlanTier)
	}

	exports := router.Group("/exports")
	{
		exports.POST("", handlers.Export.RequestExport)
		exports.DELETE("/:id", handlers.Export.CancelExport)
	}
}
