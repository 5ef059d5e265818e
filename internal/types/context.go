package types

import (
	"context"

	ierr "github.com/flexprice/invoicedesk/internal/errors"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxTenantID  ContextKey = "ctx_tenant_id"
	CtxUserID    ContextKey = "ctx_user_id"

	CtxEventSequence ContextKey = "ctx_event_sequence"

	// Default values
	DefaultTenantID = "00000000-0000-0000-0000-000000000000"
	DefaultUserID   = "00000000-0000-0000-0000-000000000000"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderTenantID  = "X-Tenant-ID"
	HeaderUserID    = "X-User-ID"
)

func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(CtxUserID).(string); ok {
		return userID
	}
	return ""
}

func GetTenantID(ctx context.Context) string {
	if tenantID, ok := ctx.Value(CtxTenantID).(string); ok {
		return tenantID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

// SetTenantID sets the tenant ID in the context
func SetTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, CtxTenantID, tenantID)
}

// SetUserID sets the user ID in the context
func SetUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxUserID, userID)
}

// SetEventSequence records the tenant sequence of the mutation an event describes
func SetEventSequence(ctx context.Context, seq uint64) context.Context {
	return context.WithValue(ctx, CtxEventSequence, seq)
}

// GetEventSequence returns 0 when ctx carries no sequence
func GetEventSequence(ctx context.Context) uint64 {
	if seq, ok := ctx.Value(CtxEventSequence).(uint64); ok {
		return seq
	}
	return 0
}

// ValidateTenantContext validates that the required tenant context fields are present
func ValidateTenantContext(ctx context.Context) error {
	if ctx == nil {
		return ierr.NewError("context is nil").
			Mark(ierr.ErrSystem)
	}

	if GetTenantID(ctx) == "" {
		return ierr.NewError("no tenant context found in context").
			WithHint("Tenant is required").
			Mark(ierr.ErrValidation)
	}

	return nil
}
