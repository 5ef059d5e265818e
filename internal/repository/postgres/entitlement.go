package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/flexprice/invoicedesk/internal/cache"
	"github.com/flexprice/invoicedesk/internal/domain/template"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/postgres"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/lib/pq"
)

type entitlementRow struct {
	TenantID          string         `db:"tenant_id"`
	PlanTier          string         `db:"plan_tier"`
	FreeTemplateQuota int            `db:"free_template_quota"`
	UsedTemplateIDs   pq.StringArray `db:"used_template_ids"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

type entitlementRepository struct {
	db     *postgres.DB
	logger *logger.Logger
	cache  cache.Cache
}

// NewEntitlementRepository stores entitlements in postgres and caches reads
func NewEntitlementRepository(db *postgres.DB, logger *logger.Logger, cache cache.Cache) template.EntitlementRepository {
	return &entitlementRepository{db: db, logger: logger, cache: cache}
}

func (r *entitlementRepository) Get(ctx context.Context, tenantID string) (*template.Entitlement, error) {
	span := cache.StartCacheSpan(ctx, "entitlement", "get", map[string]interface{}{
		"tenant_id": tenantID,
	})
	defer cache.FinishSpan(span)

	key := cache.GenerateKey(cache.PrefixEntitlement, tenantID)
	if cached, ok := r.cache.Get(ctx, key); ok {
		if e, ok := cached.(*template.Entitlement); ok {
			cache.SetSpanHit(span, true)
			return e.Copy(), nil
		}
	}
	cache.SetSpanHit(span, false)

	var row entitlementRow
	query := `SELECT tenant_id, plan_tier, free_template_quota, used_template_ids, updated_at
		FROM template_entitlements WHERE tenant_id = $1`
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ierr.NewError("entitlement not found").
			WithHintf("No entitlement recorded for tenant %s", tenantID).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load template entitlement").
			Mark(ierr.ErrDatabase)
	}

	e := &template.Entitlement{
		TenantID:          row.TenantID,
		PlanTier:          types.PlanTier(row.PlanTier),
		FreeTemplateQuota: row.FreeTemplateQuota,
		UsedTemplateIDs:   []string(row.UsedTemplateIDs),
		UpdatedAt:         row.UpdatedAt,
	}
	r.cache.Set(ctx, key, e.Copy(), 0)
	return e, nil
}

func (r *entitlementRepository) Upsert(ctx context.Context, e *template.Entitlement) error {
	query := `INSERT INTO template_entitlements (tenant_id, plan_tier, free_template_quota, used_template_ids, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id) DO UPDATE SET
			plan_tier = EXCLUDED.plan_tier,
			free_template_quota = EXCLUDED.free_template_quota,
			used_template_ids = EXCLUDED.used_template_ids,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		e.TenantID,
		string(e.PlanTier),
		e.FreeTemplateQuota,
		pq.StringArray(e.UsedTemplateIDs),
		e.UpdatedAt,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to save template entitlement").
			Mark(ierr.ErrDatabase)
	}

	r.cache.Delete(ctx, cache.GenerateKey(cache.PrefixEntitlement, e.TenantID))
	r.logger.Debugw("saved template entitlement",
		"tenant_id", e.TenantID,
		"plan_tier", e.PlanTier,
		"used", len(e.UsedTemplateIDs),
	)
	return nil
}
