package testutil

import (
	"context"

	"github.com/flexprice/invoicedesk/internal/types"
)

func SetupContext() context.Context {
	return SetupTenantContext(types.DefaultTenantID)
}

// SetupTenantContext returns a request context scoped to tenantID
func SetupTenantContext(tenantID string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, types.CtxTenantID, tenantID)
	ctx = context.WithValue(ctx, types.CtxUserID, types.DefaultUserID)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}
