package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	v1 "github.com/flexprice/invoicedesk/internal/api/v1"
	"github.com/flexprice/invoicedesk/internal/config"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/publisher"
	memoryRepo "github.com/flexprice/invoicedesk/internal/repository/memory"
	"github.com/flexprice/invoicedesk/internal/sentry"
	"github.com/flexprice/invoicedesk/internal/service"
	"github.com/flexprice/invoicedesk/internal/testutil"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

type RouterSuite struct {
	suite.Suite
	router *gin.Engine
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	cfg := config.GetDefaultConfig()
	cfg.Templates.Catalog = []config.TemplateConfig{
		{ID: testutil.TemplateFreeClassic, Name: "Classic", Tier: types.TemplateTierFree},
		{ID: testutil.TemplatePro, Name: "Corporate", Tier: types.TemplateTierPro},
	}
	log := logger.NewNoopLogger()
	sentrySvc := sentry.NewSentryService(cfg, log)
	pubSub := testutil.NewInMemoryPubSub()

	invoiceRepo := memoryRepo.NewInvoiceStore()
	trashRepo := memoryRepo.NewTrashStore()
	registry := memoryRepo.NewIdentifierRegistry()
	params := service.NewServiceParams(
		log,
		cfg,
		sentrySvc,
		invoiceRepo,
		trashRepo,
		registry,
		memoryRepo.NewEntitlementStore(),
		memoryRepo.NewTemplateCatalog(cfg),
		nil,
		service.NewTenantGuard(nil, invoiceRepo, trashRepo, registry, log),
		publisher.NewEventPublisher(pubSub, cfg, log, sentrySvc),
		pubSub,
	)

	lifecycle := service.NewLifecycleService(params)
	s.router = NewRouter(Handlers{
		Health:   v1.NewHealthHandler(log),
		Invoice:  v1.NewInvoiceHandler(lifecycle, service.NewRecurringService(params), log),
		Trash:    v1.NewTrashHandler(lifecycle, log),
		Template: v1.NewTemplateHandler(service.NewTemplateGateService(params), log),
		Export:   v1.NewExportHandler(service.NewExportService(params), log),
	}, cfg, log)
}

func (s *RouterSuite) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(types.HeaderTenantID, "tenant_http")
	req.Header.Set(types.HeaderUserID, "user_http")

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func errorDetails(body map[string]any) map[string]any {
	errBody, _ := body["error"].(map[string]any)
	details, _ := errBody["details"].(map[string]any)
	return details
}

func (s *RouterSuite) TestHealth() {
	for _, path := range []string{"/health", "/v1/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusOK, w.Code)
		s.NotEmpty(w.Header().Get(types.HeaderRequestID))
	}
}

func (s *RouterSuite) TestTenantHeaderRequired() {
	req := httptest.NewRequest(http.MethodGet, "/v1/invoices", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
	var body map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal(false, body["success"])
}

func (s *RouterSuite) TestInvoiceLifecycle() {
	w, body := s.do(http.MethodPost, "/v1/invoices", map[string]any{
		"id":         "INV-1001",
		"client_ref": "Acme",
		"amount":     "12450.00",
		"currency":   "USD",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal("INV-1001", body["id"])
	s.Equal("DRAFT", body["invoice_status"])
	s.Equal("tenant_http", body["tenant_id"])

	w, _ = s.do(http.MethodPost, "/v1/invoices", map[string]any{
		"id":         "INV-1001",
		"client_ref": "Again",
		"amount":     "1",
		"currency":   "USD",
	})
	s.Equal(http.StatusConflict, w.Code)

	w, _ = s.do(http.MethodPut, "/v1/invoices/INV-1001", map[string]any{"invoice_status": "PENDING"})
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodDelete, "/v1/invoices/INV-1001", nil)
	s.Equal(http.StatusBadRequest, w.Code, "soft delete needs confirmation")

	w, body = s.do(http.MethodDelete, "/v1/invoices/INV-1001?confirm=true", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotEmpty(body["deleted_at"])

	w, _ = s.do(http.MethodGet, "/v1/invoices/INV-1001", nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, body = s.do(http.MethodGet, "/v1/trash", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(body["items"], 1)

	w, body = s.do(http.MethodPost, "/v1/trash/INV-1001/restore", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("DRAFT", body["invoice_status"])

	w, _ = s.do(http.MethodDelete, "/v1/invoices/INV-1001?confirm=true", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodDelete, "/v1/trash/INV-1001?confirm=true", nil)
	s.Equal(http.StatusBadRequest, w.Code, "purge needs the id as confirmation")

	w, _ = s.do(http.MethodDelete, "/v1/trash/INV-1001?confirm=INV-1001", nil)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodDelete, "/v1/trash/INV-1001?confirm=INV-1001", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestValidationError() {
	w, body := s.do(http.MethodPost, "/v1/invoices", map[string]any{
		"client_ref": "Acme",
		"amount":     "-1",
		"currency":   "USD",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal(false, body["success"])

	w, _ = s.do(http.MethodPost, "/v1/invoices", map[string]any{
		"client_ref": "Acme",
		"currency":   "USD",
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestRecurring() {
	w, _ := s.do(http.MethodPost, "/v1/invoices", map[string]any{
		"id":         "INV-2001",
		"client_ref": "Acme",
		"amount":     "10",
		"currency":   "USD",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	w, _ = s.do(http.MethodPut, "/v1/invoices/INV-2001/recurring", map[string]any{
		"frequency": "MONTHLY",
		"flags":     []string{"AUTO_CHARGE", "PAUSE"},
	})
	s.Equal(http.StatusBadRequest, w.Code)

	w, body := s.do(http.MethodPut, "/v1/invoices/INV-2001/recurring", map[string]any{
		"frequency": "MONTHLY",
		"flags":     []string{"AUTO_SEND"},
	})
	s.Require().Equal(http.StatusOK, w.Code)
	s.NotNil(body["recurring"])

	w, body = s.do(http.MethodDelete, "/v1/invoices/INV-2001/recurring", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Nil(body["recurring"])
}

func (s *RouterSuite) TestTemplates() {
	w, body := s.do(http.MethodPost, "/v1/templates/can-apply", map[string]any{"template_id": testutil.TemplatePro})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(false, body["allowed"])
	s.Equal("upgrade_required", body["reason"])

	w, body = s.do(http.MethodPost, "/v1/templates/select", map[string]any{"template_id": testutil.TemplatePro})
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("upgrade_required", errorDetails(body)["reason"])

	w, _ = s.do(http.MethodPut, "/v1/entitlement", map[string]any{"plan_tier": "PRO"})
	s.Require().Equal(http.StatusOK, w.Code)

	w, body = s.do(http.MethodPost, "/v1/templates/select", map[string]any{"template_id": testutil.TemplatePro})
	s.Equal(http.StatusOK, w.Code)
	s.Equal(true, body["allowed"])

	w, body = s.do(http.MethodGet, "/v1/entitlement", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("PRO", body["plan_tier"])

	w, body = s.do(http.MethodGet, "/v1/templates", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(body["items"], 2)
}

func (s *RouterSuite) TestExports() {
	w, body := s.do(http.MethodPost, "/v1/exports", nil)
	s.Require().Equal(http.StatusAccepted, w.Code, w.Body.String())
	s.NotEmpty(body["export_id"])

	w, _ = s.do(http.MethodDelete, "/v1/exports/exp_1", nil)
	s.Equal(http.StatusAccepted, w.Code)
}
