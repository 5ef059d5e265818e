package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/flexprice/invoicedesk/internal/domain/invoice"
	"github.com/flexprice/invoicedesk/internal/domain/recurring"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/postgres"
	"github.com/flexprice/invoicedesk/internal/sentry"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/shopspring/decimal"
)

const invoiceColumns = `id, tenant_id, client_ref, amount, currency, issue_date, due_date,
	invoice_status, template_id, recurring, payment_details, metadata,
	status, created_at, updated_at, created_by, updated_by`

type invoiceRow struct {
	ID             string          `db:"id"`
	TenantID       string          `db:"tenant_id"`
	ClientRef      string          `db:"client_ref"`
	Amount         decimal.Decimal `db:"amount"`
	Currency       string          `db:"currency"`
	IssueDate      time.Time       `db:"issue_date"`
	DueDate        sql.NullTime    `db:"due_date"`
	InvoiceStatus  string          `db:"invoice_status"`
	TemplateID     sql.NullString  `db:"template_id"`
	Recurring      []byte          `db:"recurring"`
	PaymentDetails []byte          `db:"payment_details"`
	Metadata       types.Metadata  `db:"metadata"`
	Status         string          `db:"status"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
	CreatedBy      sql.NullString  `db:"created_by"`
	UpdatedBy      sql.NullString  `db:"updated_by"`
}

type trashedInvoiceRow struct {
	invoiceRow
	DeletedAt time.Time      `db:"deleted_at"`
	DeletedBy sql.NullString `db:"deleted_by"`
}

func (r *invoiceRow) toDomain() (*invoice.Invoice, error) {
	inv := &invoice.Invoice{
		ID:            r.ID,
		ClientRef:     r.ClientRef,
		Amount:        r.Amount,
		Currency:      r.Currency,
		IssueDate:     r.IssueDate,
		InvoiceStatus: types.InvoiceStatus(r.InvoiceStatus),
		Metadata:      r.Metadata,
		BaseModel: types.BaseModel{
			TenantID:  r.TenantID,
			Status:    types.Status(r.Status),
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
			CreatedBy: r.CreatedBy.String,
			UpdatedBy: r.UpdatedBy.String,
		},
	}
	if r.DueDate.Valid {
		due := r.DueDate.Time
		inv.DueDate = &due
	}
	if r.TemplateID.Valid {
		id := r.TemplateID.String
		inv.TemplateID = &id
	}
	if len(r.Recurring) > 0 {
		var cfg recurring.Config
		if err := json.Unmarshal(r.Recurring, &cfg); err != nil {
			return nil, corruptColumn(err, r.ID, "recurring")
		}
		inv.Recurring = &cfg
	}
	if len(r.PaymentDetails) > 0 {
		var pd invoice.PaymentDetails
		if err := json.Unmarshal(r.PaymentDetails, &pd); err != nil {
			return nil, corruptColumn(err, r.ID, "payment_details")
		}
		inv.PaymentDetails = &pd
	}
	return inv, nil
}

func corruptColumn(err error, id, column string) error {
	return ierr.WithError(err).
		WithHintf("Stored invoice %s has an unreadable %s column", id, column).
		WithReportableDetails(map[string]any{
			"invoice_id": id,
			"column":     column,
		}).
		Mark(ierr.ErrDatabase)
}

// LedgerRepository reads the persisted invoices the in-memory stores are seeded from
type LedgerRepository struct {
	db     *postgres.DB
	logger *logger.Logger
	sentry *sentry.Service
}

func NewLedgerRepository(db *postgres.DB, logger *logger.Logger, sentry *sentry.Service) *LedgerRepository {
	return &LedgerRepository{db: db, logger: logger, sentry: sentry}
}

func (r *LedgerRepository) LoadInvoices(ctx context.Context, tenantID string) ([]*invoice.Invoice, error) {
	span, ctx := r.sentry.StartDBSpan(ctx, "ledger.load_invoices", map[string]interface{}{
		"tenant_id": tenantID,
	})
	if span != nil {
		defer span.Finish()
	}

	var rows []*invoiceRow
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE tenant_id = $1 ORDER BY created_at`
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, query, tenantID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load invoices").
			Mark(ierr.ErrDatabase)
	}

	invoices := make([]*invoice.Invoice, 0, len(rows))
	for _, row := range rows {
		inv, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}

	r.logger.Debugw("loaded invoices from ledger", "tenant_id", tenantID, "count", len(invoices))
	return invoices, nil
}

func (r *LedgerRepository) LoadTrash(ctx context.Context, tenantID string) ([]*invoice.TrashedInvoice, error) {
	span, ctx := r.sentry.StartDBSpan(ctx, "ledger.load_trash", map[string]interface{}{
		"tenant_id": tenantID,
	})
	if span != nil {
		defer span.Finish()
	}

	var rows []*trashedInvoiceRow
	query := `SELECT ` + invoiceColumns + `, deleted_at, deleted_by FROM trashed_invoices WHERE tenant_id = $1 ORDER BY deleted_at`
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &rows, query, tenantID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load trashed invoices").
			Mark(ierr.ErrDatabase)
	}

	trashed := make([]*invoice.TrashedInvoice, 0, len(rows))
	for _, row := range rows {
		inv, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		trashed = append(trashed, &invoice.TrashedInvoice{
			Invoice:   *inv,
			DeletedAt: row.DeletedAt,
			DeletedBy: row.DeletedBy.String,
		})
	}

	r.logger.Debugw("loaded trash from ledger", "tenant_id", tenantID, "count", len(trashed))
	return trashed, nil
}
