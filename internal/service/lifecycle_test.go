package service

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/flexprice/invoicedesk/internal/api/dto"
	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/publisher"
	"github.com/flexprice/invoicedesk/internal/sentry"
	"github.com/flexprice/invoicedesk/internal/testutil"
	"github.com/flexprice/invoicedesk/internal/types"
	sentrygo "github.com/getsentry/sentry-go"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/suite"
)

// newTestServiceParams wires services against the suite's in-memory stores
func newTestServiceParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	guard := NewTenantGuard(s.GetLedger(), stores.InvoiceRepo, stores.TrashRepo, stores.Registry, s.GetLogger())
	return NewServiceParams(
		s.GetLogger(),
		s.GetConfig(),
		s.GetSentry(),
		stores.InvoiceRepo,
		stores.TrashRepo,
		stores.Registry,
		stores.EntitlementRepo,
		stores.TemplateCatalog,
		s.GetLedger(),
		guard,
		s.GetPublisher(),
		s.GetPubSub(),
	)
}

type LifecycleServiceSuite struct {
	testutil.BaseServiceTestSuite
	service LifecycleService
}

func TestLifecycleService(t *testing.T) {
	suite.Run(t, new(LifecycleServiceSuite))
}

func (s *LifecycleServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewLifecycleService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *LifecycleServiceSuite) createInvoice(id string, status types.InvoiceStatus) *dto.InvoiceResponse {
	req := dto.CreateInvoiceRequest{
		ClientRef:     "Acme",
		Amount:        lo.ToPtr(decimal.RequireFromString("100.00")),
		Currency:      "usd",
		InvoiceStatus: lo.ToPtr(status),
	}
	if id != "" {
		req.ID = lo.ToPtr(id)
	}
	resp, err := s.service.CreateInvoice(s.GetContext(), req)
	s.Require().NoError(err)
	return resp
}

// assertHeldOnce checks that id lives in exactly one store and stays reserved
func (s *LifecycleServiceSuite) assertHeldOnce(id string) {
	ctx := s.GetContext()
	_, activeErr := s.GetStores().InvoiceRepo.Get(ctx, id)
	_, trashErr := s.GetStores().TrashRepo.Get(ctx, id)
	s.True((activeErr == nil) != (trashErr == nil), "invoice %s must be in exactly one store", id)
	s.True(s.GetStores().Registry.IsInUse(ctx, id))
}

func (s *LifecycleServiceSuite) assertGone(id string) {
	ctx := s.GetContext()
	_, activeErr := s.GetStores().InvoiceRepo.Get(ctx, id)
	_, trashErr := s.GetStores().TrashRepo.Get(ctx, id)
	s.True(ierr.IsNotFound(activeErr))
	s.True(ierr.IsNotFound(trashErr))
	s.False(s.GetStores().Registry.IsInUse(ctx, id))
}

func (s *LifecycleServiceSuite) TestCreateInvoice() {
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientRef: "Acme",
		Amount:    lo.ToPtr(decimal.RequireFromString("12450.00")),
		Currency:  "USD",
	})
	s.Require().NoError(err)

	s.True(strings.HasPrefix(resp.ID, types.SHORT_ID_PREFIX_INVOICE))
	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.True(decimal.RequireFromString("12450").Equal(resp.Amount))
	s.Equal(types.DefaultTenantID, resp.TenantID)
	s.Equal(resp.CreatedAt, resp.IssueDate)
	s.assertHeldOnce(resp.ID)

	other, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientRef:     "Globex",
		Amount:        lo.ToPtr(decimal.Zero),
		Currency:      "eur",
		InvoiceStatus: lo.ToPtr(types.InvoiceStatusPending),
	})
	s.Require().NoError(err)
	s.NotEqual(resp.ID, other.ID)
	s.Equal(types.InvoiceStatusPending, other.InvoiceStatus)
	s.Equal("EUR", other.Currency)

	s.Equal([]string{types.WebhookEventInvoiceCreated, types.WebhookEventInvoiceCreated}, s.EventNames())
}

func (s *LifecycleServiceSuite) TestCreateInvoiceValidation() {
	issue := s.GetNow()
	tests := []struct {
		name string
		req  dto.CreateInvoiceRequest
	}{
		{
			name: "missing client ref",
			req:  dto.CreateInvoiceRequest{Amount: lo.ToPtr(decimal.NewFromInt(1)), Currency: "USD"},
		},
		{
			name: "missing amount",
			req:  dto.CreateInvoiceRequest{ClientRef: "Acme", Currency: "USD"},
		},
		{
			name: "blank id",
			req:  dto.CreateInvoiceRequest{ID: lo.ToPtr("   "), ClientRef: "Acme", Amount: lo.ToPtr(decimal.NewFromInt(1)), Currency: "USD"},
		},
		{
			name: "id with slash",
			req:  dto.CreateInvoiceRequest{ID: lo.ToPtr("INV/1"), ClientRef: "Acme", Amount: lo.ToPtr(decimal.NewFromInt(1)), Currency: "USD"},
		},
		{
			name: "negative amount",
			req:  dto.CreateInvoiceRequest{ClientRef: "Acme", Amount: lo.ToPtr(decimal.NewFromInt(-1)), Currency: "USD"},
		},
		{
			name: "missing currency",
			req:  dto.CreateInvoiceRequest{ClientRef: "Acme", Amount: lo.ToPtr(decimal.NewFromInt(1))},
		},
		{
			name: "malformed currency",
			req:  dto.CreateInvoiceRequest{ClientRef: "Acme", Amount: lo.ToPtr(decimal.NewFromInt(1)), Currency: "US"},
		},
		{
			name: "due before issue",
			req: dto.CreateInvoiceRequest{
				ClientRef: "Acme",
				Amount:    lo.ToPtr(decimal.NewFromInt(1)),
				Currency:  "USD",
				IssueDate: lo.ToPtr(issue),
				DueDate:   lo.ToPtr(issue.Add(-24 * time.Hour)),
			},
		},
		{
			name: "unknown status",
			req: dto.CreateInvoiceRequest{
				ClientRef:     "Acme",
				Amount:        lo.ToPtr(decimal.NewFromInt(1)),
				Currency:      "USD",
				InvoiceStatus: lo.ToPtr(types.InvoiceStatus("VOID")),
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.CreateInvoice(s.GetContext(), tt.req)
			s.Require().Error(err)
			s.True(ierr.IsValidation(err), "got %v", err)
		})
	}

	count, err := s.GetStores().InvoiceRepo.Count(s.GetContext(), nil)
	s.NoError(err)
	s.Zero(count)
	s.Empty(s.EventNames())
}

func (s *LifecycleServiceSuite) TestCreateInvoiceRequiresTenant() {
	_, err := s.service.CreateInvoice(testutil.SetupTenantContext(""), dto.CreateInvoiceRequest{
		ClientRef: "Acme",
		Amount:    lo.ToPtr(decimal.NewFromInt(1)),
		Currency:  "USD",
	})
	s.True(ierr.IsValidation(err))
}

func (s *LifecycleServiceSuite) TestCreateInvoiceIDInUse() {
	s.createInvoice("INV-1001", types.InvoiceStatusDraft)

	_, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ID:        lo.ToPtr("INV-1001"),
		ClientRef: "Other",
		Amount:    lo.ToPtr(decimal.NewFromInt(5)),
		Currency:  "USD",
	})
	s.True(ierr.IsConflict(err))

	// a trashed invoice keeps its id reserved
	_, err = s.service.SoftDeleteInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)
	_, err = s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ID:        lo.ToPtr("INV-1001"),
		ClientRef: "Other",
		Amount:    lo.ToPtr(decimal.NewFromInt(5)),
		Currency:  "USD",
	})
	s.True(ierr.IsConflict(err))

	trashed, err := s.service.GetTrashedInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)
	s.Equal("Acme", trashed.ClientRef)
}

func (s *LifecycleServiceSuite) TestCreateInvoiceWithTemplate() {
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ClientRef:  "Acme",
		Amount:     lo.ToPtr(decimal.NewFromInt(10)),
		Currency:   "USD",
		TemplateID: lo.ToPtr(testutil.TemplateFreeClassic),
	})
	s.Require().NoError(err)
	s.Equal(testutil.TemplateFreeClassic, lo.FromPtr(resp.TemplateID))

	e, err := s.GetStores().EntitlementRepo.Get(s.GetContext(), types.DefaultTenantID)
	s.Require().NoError(err)
	s.Equal([]string{testutil.TemplateFreeClassic}, e.UsedTemplateIDs)

	_, err = s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ID:         lo.ToPtr("INV-PRO"),
		ClientRef:  "Acme",
		Amount:     lo.ToPtr(decimal.NewFromInt(10)),
		Currency:   "USD",
		TemplateID: lo.ToPtr(testutil.TemplatePro),
	})
	s.Require().Error(err)
	s.True(ierr.IsEntitlementDenied(err))
	s.Equal(string(types.DenialReasonUpgradeRequired), ierr.ReportableDetails(err)["reason"])

	// a denied create leaves nothing behind
	s.False(s.GetStores().Registry.IsInUse(s.GetContext(), "INV-PRO"))
	_, err = s.service.GetInvoice(s.GetContext(), "INV-PRO")
	s.True(ierr.IsNotFound(err))
}

func (s *LifecycleServiceSuite) TestUpdateInvoice() {
	created := s.createInvoice("INV-1001", types.InvoiceStatusDraft)

	updated, err := s.service.UpdateInvoice(s.GetContext(), created.ID, dto.UpdateInvoiceRequest{
		Amount:        lo.ToPtr(decimal.RequireFromString("250.50")),
		InvoiceStatus: lo.ToPtr(types.InvoiceStatusPending),
		Metadata:      types.Metadata{"po": "4411"},
	})
	s.Require().NoError(err)
	s.Equal("INV-1001", updated.ID)
	s.Equal("Acme", updated.ClientRef)
	s.True(decimal.RequireFromString("250.5").Equal(updated.Amount))
	s.Equal(types.InvoiceStatusPending, updated.InvoiceStatus)
	s.Equal("4411", updated.Metadata["po"])

	got, err := s.service.GetInvoice(s.GetContext(), created.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPending, got.InvoiceStatus)

	// the merged result is validated and a failure changes nothing
	_, err = s.service.UpdateInvoice(s.GetContext(), created.ID, dto.UpdateInvoiceRequest{
		DueDate: lo.ToPtr(got.IssueDate.Add(-time.Hour)),
	})
	s.True(ierr.IsValidation(err))
	got, err = s.service.GetInvoice(s.GetContext(), created.ID)
	s.Require().NoError(err)
	s.Nil(got.DueDate)

	_, err = s.service.UpdateInvoice(s.GetContext(), "INV-MISSING", dto.UpdateInvoiceRequest{
		ClientRef: lo.ToPtr("Nobody"),
	})
	s.True(ierr.IsNotFound(err))
}

func (s *LifecycleServiceSuite) TestUpdateTrashedInvoiceIsNotFound() {
	s.createInvoice("INV-1001", types.InvoiceStatusDraft)
	_, err := s.service.SoftDeleteInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)

	_, err = s.service.UpdateInvoice(s.GetContext(), "INV-1001", dto.UpdateInvoiceRequest{
		ClientRef: lo.ToPtr("Changed"),
	})
	s.True(ierr.IsNotFound(err))

	trashed, err := s.service.GetTrashedInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)
	s.Equal("Acme", trashed.ClientRef)
}

func (s *LifecycleServiceSuite) TestSoftDeleteInvoice() {
	s.createInvoice("INV-1001", types.InvoiceStatusPending)

	before := time.Now().UTC()
	trashed, err := s.service.SoftDeleteInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)
	after := time.Now().UTC()

	s.Equal("INV-1001", trashed.ID)
	s.Equal(types.InvoiceStatusPending, trashed.InvoiceStatus)
	s.False(trashed.DeletedAt.Before(before))
	s.False(trashed.DeletedAt.After(after))
	s.Equal(types.DefaultUserID, trashed.DeletedBy)

	_, err = s.service.GetInvoice(s.GetContext(), "INV-1001")
	s.True(ierr.IsNotFound(err))
	s.assertHeldOnce("INV-1001")

	_, err = s.service.SoftDeleteInvoice(s.GetContext(), "INV-1001")
	s.True(ierr.IsNotFound(err))
}

func (s *LifecycleServiceSuite) TestRestoreInvoice() {
	s.createInvoice("INV-1001", types.InvoiceStatusPaid)
	_, err := s.service.SoftDeleteInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)

	restored, err := s.service.RestoreInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusDraft, restored.InvoiceStatus)
	s.Equal("Acme", restored.ClientRef)

	_, err = s.service.GetTrashedInvoice(s.GetContext(), "INV-1001")
	s.True(ierr.IsNotFound(err))
	s.assertHeldOnce("INV-1001")

	_, err = s.service.RestoreInvoice(s.GetContext(), "INV-1001")
	s.True(ierr.IsNotFound(err))

	s.Equal([]string{
		types.WebhookEventInvoiceCreated,
		types.WebhookEventInvoiceTrashed,
		types.WebhookEventInvoiceRestored,
	}, s.EventNames())
}

func (s *LifecycleServiceSuite) TestRestoreConflictLeavesTrashUntouched() {
	s.createInvoice("INV-1001", types.InvoiceStatusPending)
	original, err := s.service.SoftDeleteInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)

	// an active record with the same id, as left behind by an inconsistent ledger
	intruder := &invoice.Invoice{
		ID:            "INV-1001",
		ClientRef:     "Intruder",
		Amount:        decimal.NewFromInt(1),
		Currency:      "USD",
		InvoiceStatus: types.InvoiceStatusPaid,
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().InvoiceRepo.Create(s.GetContext(), intruder))

	_, err = s.service.RestoreInvoice(s.GetContext(), "INV-1001")
	s.Require().Error(err)
	s.True(ierr.IsConflict(err))

	trashed, err := s.service.GetTrashedInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)
	s.Equal(original.TrashedInvoice, trashed.TrashedInvoice)

	active, err := s.service.GetInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)
	s.Equal("Intruder", active.ClientRef)
}

func (s *LifecycleServiceSuite) TestPurgeInvoice() {
	s.createInvoice("INV-1001", types.InvoiceStatusDraft)
	_, err := s.service.SoftDeleteInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)

	s.Require().NoError(s.service.PurgeInvoice(s.GetContext(), "INV-1001"))
	s.assertGone("INV-1001")

	err = s.service.PurgeInvoice(s.GetContext(), "INV-1001")
	s.True(ierr.IsNotFound(err), "purge is not idempotent")

	_, err = s.service.RestoreInvoice(s.GetContext(), "INV-1001")
	s.True(ierr.IsNotFound(err))

	// the id is free again
	again := s.createInvoice("INV-1001", types.InvoiceStatusDraft)
	s.Equal("INV-1001", again.ID)
}

func (s *LifecycleServiceSuite) TestPurgeActiveInvoiceIsNotFound() {
	s.createInvoice("INV-1001", types.InvoiceStatusDraft)

	err := s.service.PurgeInvoice(s.GetContext(), "INV-1001")
	s.True(ierr.IsNotFound(err))

	_, err = s.service.GetInvoice(s.GetContext(), "INV-1001")
	s.NoError(err)
	s.assertHeldOnce("INV-1001")
}

func (s *LifecycleServiceSuite) TestRoundTripPreservesInvoice() {
	created, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		ID:        lo.ToPtr("INV-2001"),
		ClientRef: "Initech",
		Amount:    lo.ToPtr(decimal.RequireFromString("99.95")),
		Currency:  "GBP",
		DueDate:   lo.ToPtr(s.GetNow().Add(30 * 24 * time.Hour)),
		PaymentDetails: &invoice.PaymentDetails{
			Country:       types.PaymentCountryGB,
			AccountHolder: "Initech Ltd",
			GB:            &invoice.GBBankDetails{SortCode: "12-34-56", AccountNumber: "12345678"},
		},
		Metadata: types.Metadata{"project": "tps"},
	})
	s.Require().NoError(err)

	_, err = s.service.SoftDeleteInvoice(s.GetContext(), created.ID)
	s.Require().NoError(err)
	restored, err := s.service.RestoreInvoice(s.GetContext(), created.ID)
	s.Require().NoError(err)

	s.Equal(created.ID, restored.ID)
	s.Equal(created.ClientRef, restored.ClientRef)
	s.True(created.Amount.Equal(restored.Amount))
	s.Equal(created.Currency, restored.Currency)
	s.Equal(created.IssueDate, restored.IssueDate)
	s.Equal(created.DueDate, restored.DueDate)
	s.Equal(created.PaymentDetails, restored.PaymentDetails)
	s.Equal(created.Metadata, restored.Metadata)
	s.Equal(created.CreatedAt, restored.CreatedAt)
	s.Equal(types.InvoiceStatusDraft, restored.InvoiceStatus)
}

func (s *LifecycleServiceSuite) TestEveryIDHeldByExactlyOneStore() {
	ids := []string{"INV-1", "INV-2", "INV-3"}
	for _, id := range ids {
		s.createInvoice(id, types.InvoiceStatusDraft)
		s.assertHeldOnce(id)
	}

	_, err := s.service.SoftDeleteInvoice(s.GetContext(), "INV-1")
	s.Require().NoError(err)
	_, err = s.service.SoftDeleteInvoice(s.GetContext(), "INV-2")
	s.Require().NoError(err)
	_, err = s.service.RestoreInvoice(s.GetContext(), "INV-2")
	s.Require().NoError(err)
	for _, id := range ids {
		s.assertHeldOnce(id)
	}

	s.Require().NoError(s.service.PurgeInvoice(s.GetContext(), "INV-1"))
	s.assertGone("INV-1")
	s.assertHeldOnce("INV-2")
	s.assertHeldOnce("INV-3")
}

func (s *LifecycleServiceSuite) TestConcurrentOperationsOnOneID() {
	s.createInvoice("INV-1001", types.InvoiceStatusDraft)

	var wg conc.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Go(func() {
			if i%2 == 0 {
				_, _ = s.service.SoftDeleteInvoice(s.GetContext(), "INV-1001")
			} else {
				_, _ = s.service.RestoreInvoice(s.GetContext(), "INV-1001")
			}
		})
	}
	wg.Wait()

	s.assertHeldOnce("INV-1001")
}

func (s *LifecycleServiceSuite) TestConcurrentCreatesWithSameID() {
	var (
		wg        conc.WaitGroup
		results   = make([]error, 20)
		succeeded int
	)
	for i := range results {
		wg.Go(func() {
			_, results[i] = s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
				ID:        lo.ToPtr("INV-RACE"),
				ClientRef: "Acme",
				Amount:    lo.ToPtr(decimal.NewFromInt(1)),
				Currency:  "USD",
			})
		})
	}
	wg.Wait()

	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		s.True(ierr.IsConflict(err))
	}
	s.Equal(1, succeeded)
}

func (s *LifecycleServiceSuite) TestTenantIsolation() {
	s.createInvoice("INV-1001", types.InvoiceStatusDraft)

	otherCtx := testutil.SetupTenantContext("tenant_other")
	_, err := s.service.GetInvoice(otherCtx, "INV-1001")
	s.True(ierr.IsNotFound(err))

	// the same id is free in another tenant
	resp, err := s.service.CreateInvoice(otherCtx, dto.CreateInvoiceRequest{
		ID:        lo.ToPtr("INV-1001"),
		ClientRef: "Other Co",
		Amount:    lo.ToPtr(decimal.NewFromInt(3)),
		Currency:  "USD",
	})
	s.Require().NoError(err)
	s.Equal("tenant_other", resp.TenantID)

	_, err = s.service.SoftDeleteInvoice(otherCtx, "INV-1001")
	s.Require().NoError(err)

	mine, err := s.service.GetInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)
	s.Equal("Acme", mine.ClientRef)
}

func (s *LifecycleServiceSuite) TestListInvoices() {
	for i, ref := range []string{"Acme Corp", "Globex", "acme labs", "Initech"} {
		_, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
			ClientRef:     ref,
			Amount:        lo.ToPtr(decimal.NewFromInt(int64(i + 1))),
			Currency:      "USD",
			IssueDate:     lo.ToPtr(s.GetNow().Add(time.Duration(i) * 24 * time.Hour)),
			InvoiceStatus: lo.ToPtr(lo.Ternary(i%2 == 0, types.InvoiceStatusPaid, types.InvoiceStatusPending)),
		})
		s.Require().NoError(err)
	}

	all, err := s.service.ListInvoices(s.GetContext(), nil)
	s.Require().NoError(err)
	s.Len(all.Items, 4)
	s.Equal(4, all.Pagination.Total)

	filter := types.NewInvoiceFilter()
	filter.Search = "ACME"
	filter.Sort = lo.ToPtr(types.InvoiceSortIssueDate)
	filter.Order = lo.ToPtr(types.OrderAsc)
	found, err := s.service.ListInvoices(s.GetContext(), filter)
	s.Require().NoError(err)
	s.Require().Len(found.Items, 2)
	s.Equal("Acme Corp", found.Items[0].ClientRef)
	s.Equal("acme labs", found.Items[1].ClientRef)

	filter = types.NewInvoiceFilter()
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusPending}
	filter.Limit = lo.ToPtr(1)
	page, err := s.service.ListInvoices(s.GetContext(), filter)
	s.Require().NoError(err)
	s.Len(page.Items, 1)
	s.Equal(2, page.Pagination.Total)
	s.Equal(1, page.Pagination.Limit)

	filter = types.NewInvoiceFilter()
	filter.Sort = lo.ToPtr("client_ref")
	_, err = s.service.ListInvoices(s.GetContext(), filter)
	s.True(ierr.IsValidation(err))
}

func (s *LifecycleServiceSuite) TestListTrash() {
	for _, id := range []string{"INV-1", "INV-2", "INV-3"} {
		s.createInvoice(id, types.InvoiceStatusDraft)
	}
	for _, id := range []string{"INV-1", "INV-3"} {
		_, err := s.service.SoftDeleteInvoice(s.GetContext(), id)
		s.Require().NoError(err)
	}

	resp, err := s.service.ListTrash(s.GetContext(), nil)
	s.Require().NoError(err)
	s.Equal(2, resp.Pagination.Total)
	s.ElementsMatch([]string{"INV-1", "INV-3"}, lo.Map(resp.Items, func(t *dto.TrashedInvoiceResponse, _ int) string {
		return t.ID
	}))
}

func (s *LifecycleServiceSuite) TestPublishFailureDoesNotFailOperation() {
	s.GetPubSub().FailTopic(s.GetConfig().PubSub.EventsTopic, errors.New("broker unavailable"))

	created := s.createInvoice("INV-1001", types.InvoiceStatusDraft)
	s.Equal("INV-1001", created.ID)

	_, err := s.service.SoftDeleteInvoice(s.GetContext(), "INV-1001")
	s.NoError(err)
	s.Empty(s.EventNames())
}

func (s *LifecycleServiceSuite) TestPublishFailureIsReportedToSentry() {
	cfg := *s.GetConfig()
	cfg.Sentry.Enabled = true
	reporter := sentry.NewSentryService(&cfg, s.GetLogger())

	params := newTestServiceParams(&s.BaseServiceTestSuite)
	params.Sentry = reporter
	params.EventPublisher = publisher.NewEventPublisher(s.GetPubSub(), &cfg, s.GetLogger(), reporter)
	svc := NewLifecycleService(params)

	var captured []*sentrygo.Event
	client, err := sentrygo.NewClient(sentrygo.ClientOptions{
		BeforeSend: func(event *sentrygo.Event, _ *sentrygo.EventHint) *sentrygo.Event {
			captured = append(captured, event)
			return nil
		},
	})
	s.Require().NoError(err)
	ctx := sentrygo.SetHubOnContext(s.GetContext(), sentrygo.NewHub(client, sentrygo.NewScope()))

	s.GetPubSub().FailTopic(cfg.PubSub.EventsTopic, errors.New("broker unavailable"))
	created, err := svc.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		ID:        lo.ToPtr("INV-1001"),
		ClientRef: "Acme",
		Amount:    lo.ToPtr(decimal.NewFromInt(10)),
		Currency:  "USD",
	})
	s.Require().NoError(err)
	s.Equal("INV-1001", created.ID)

	// one report per failed publish, the service itself only logs
	s.Require().Len(captured, 1)
	s.Equal(types.GetTenantID(ctx), captured[0].Tags["tenant_id"])
	s.Require().NotEmpty(captured[0].Breadcrumbs)
	crumb := captured[0].Breadcrumbs[len(captured[0].Breadcrumbs)-1]
	s.Equal("invoice", crumb.Category)
	s.Equal(types.WebhookEventInvoiceCreated, crumb.Message)
}

func (s *LifecycleServiceSuite) eventSequences() []uint64 {
	var seqs []uint64
	for _, msg := range s.GetPubSub().GetMessages(s.GetConfig().PubSub.EventsTopic) {
		var event types.WebhookEvent
		s.Require().NoError(json.Unmarshal(msg.Payload, &event))
		s.Equal(strconv.FormatUint(event.Sequence, 10), msg.Metadata.Get(publisher.MetadataSequence))
		seqs = append(seqs, event.Sequence)
	}
	return seqs
}

func (s *LifecycleServiceSuite) TestEventsCarryTenantSequence() {
	s.createInvoice("INV-1001", types.InvoiceStatusDraft)
	_, err := s.service.GetInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)
	_, err = s.service.UpdateInvoice(s.GetContext(), "INV-1001", dto.UpdateInvoiceRequest{
		InvoiceStatus: lo.ToPtr(types.InvoiceStatusPending),
	})
	s.Require().NoError(err)
	_, err = s.service.SoftDeleteInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)
	_, err = s.service.SoftDeleteInvoice(s.GetContext(), "INV-1001")
	s.Require().Error(err)
	_, err = s.service.RestoreInvoice(s.GetContext(), "INV-1001")
	s.Require().NoError(err)

	s.Equal([]uint64{1, 2, 3, 4}, s.eventSequences())

	other := testutil.SetupTenantContext("tenant_other")
	_, err = s.service.CreateInvoice(other, dto.CreateInvoiceRequest{
		ClientRef: "Acme",
		Amount:    lo.ToPtr(decimal.NewFromInt(1)),
		Currency:  "USD",
	})
	s.Require().NoError(err)
	s.Equal(uint64(1), s.eventSequences()[4])
}

func (s *LifecycleServiceSuite) TestSequenceRestoresOrderOfConcurrentEvents() {
	s.createInvoice("INV-1001", types.InvoiceStatusDraft)

	var wg conc.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Go(func() {
			if i%2 == 0 {
				_, _ = s.service.SoftDeleteInvoice(s.GetContext(), "INV-1001")
			} else {
				_, _ = s.service.RestoreInvoice(s.GetContext(), "INV-1001")
			}
		})
	}
	wg.Wait()

	type published struct {
		name string
		seq  uint64
	}
	var events []published
	for _, msg := range s.GetPubSub().GetMessages(s.GetConfig().PubSub.EventsTopic) {
		var event types.WebhookEvent
		s.Require().NoError(json.Unmarshal(msg.Payload, &event))
		events = append(events, published{name: event.EventName, seq: event.Sequence})
	}
	sort.Slice(events, func(i, j int) bool { return events[i].seq < events[j].seq })

	// successful moves alternate under the lock, so ordered events must too
	s.Require().NotEmpty(events)
	s.Equal(types.WebhookEventInvoiceCreated, events[0].name)
	for i := 1; i < len(events); i++ {
		s.Less(events[i-1].seq, events[i].seq)
		want := types.WebhookEventInvoiceTrashed
		if i%2 == 0 {
			want = types.WebhookEventInvoiceRestored
		}
		s.Equal(want, events[i].name, "event %d", i)
	}
}

func (s *LifecycleServiceSuite) TestHydrateFromLedger() {
	const tenantID = "tenant_ledger"
	ctx := testutil.SetupTenantContext(tenantID)
	base := types.GetDefaultBaseModel(ctx)

	active := &invoice.Invoice{
		ID:            "INV-L1",
		ClientRef:     "Ledger Co",
		Amount:        decimal.NewFromInt(40),
		Currency:      "USD",
		InvoiceStatus: types.InvoiceStatusPending,
		BaseModel:     base,
	}
	trashed := (&invoice.Invoice{
		ID:            "INV-L2",
		ClientRef:     "Ledger Co",
		Amount:        decimal.NewFromInt(60),
		Currency:      "USD",
		InvoiceStatus: types.InvoiceStatusDraft,
		BaseModel:     base,
	}).Trash(s.GetNow(), types.DefaultUserID)
	s.GetLedger().Seed(tenantID, []*invoice.Invoice{active}, []*invoice.TrashedInvoice{trashed})

	got, err := s.service.GetInvoice(ctx, "INV-L1")
	s.Require().NoError(err)
	s.Equal("Ledger Co", got.ClientRef)

	_, err = s.service.GetTrashedInvoice(ctx, "INV-L2")
	s.Require().NoError(err)

	_, err = s.service.CreateInvoice(ctx, dto.CreateInvoiceRequest{
		ID:        lo.ToPtr("INV-L2"),
		ClientRef: "Dup",
		Amount:    lo.ToPtr(decimal.NewFromInt(1)),
		Currency:  "USD",
	})
	s.True(ierr.IsConflict(err))

	s.Require().NoError(s.service.Hydrate(s.GetContext(), tenantID))
	s.Equal(1, s.GetLedger().Loads(tenantID))
}

func (s *LifecycleServiceSuite) TestHydrateRejectsDuplicateIDs() {
	const tenantID = "tenant_broken"
	ctx := testutil.SetupTenantContext(tenantID)
	dup := &invoice.Invoice{
		ID:            "INV-DUP",
		ClientRef:     "Twice",
		Amount:        decimal.NewFromInt(1),
		Currency:      "USD",
		InvoiceStatus: types.InvoiceStatusDraft,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	s.GetLedger().Seed(tenantID,
		[]*invoice.Invoice{dup, {ID: "INV-OK", ClientRef: "Once", Currency: "USD", BaseModel: dup.BaseModel}},
		[]*invoice.TrashedInvoice{dup.Trash(s.GetNow(), "")},
	)

	err := s.service.Hydrate(s.GetContext(), tenantID)
	s.Require().Error(err)
	s.True(ierr.IsConflict(err))

	// nothing was seeded
	s.False(s.GetStores().Registry.IsInUse(ctx, "INV-DUP"))
	s.False(s.GetStores().Registry.IsInUse(ctx, "INV-OK"))
	count, err := s.GetStores().InvoiceRepo.Count(ctx, nil)
	s.NoError(err)
	s.Zero(count)

	_, err = s.service.GetInvoice(ctx, "INV-OK")
	s.True(ierr.IsConflict(err))
}

func (s *LifecycleServiceSuite) TestHydrateLedgerFailure() {
	s.GetLedger().FailWith(errors.New("connection refused"))

	_, err := s.service.GetInvoice(testutil.SetupTenantContext("tenant_down"), "INV-1")
	s.Require().Error(err)
	s.False(ierr.IsNotFound(err))
}
