package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		check      func(error) bool
		wantStatus int
	}{
		{
			name:       "not_found",
			err:        NewError("invoice not found").WithHint("Invoice not found").Mark(ErrNotFound),
			check:      IsNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "conflict",
			err:        NewError("id in use").Mark(ErrConflict),
			check:      IsConflict,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "validation",
			err:        NewError("client_ref is required").Mark(ErrValidation),
			check:      IsValidation,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "entitlement_denied",
			err:        NewError("upgrade required").Mark(ErrEntitlementDenied),
			check:      IsEntitlementDenied,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "wrapped_with_fmt",
			err:        fmt.Errorf("restore: %w", NewError("id in use").Mark(ErrConflict)),
			check:      IsConflict,
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.wantStatus, HTTPStatusFromErr(tt.err))
		})
	}
}

func TestUnmarkedErrorIsInternal(t *testing.T) {
	err := fmt.Errorf("boom")
	assert.False(t, IsNotFound(err))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromErr(err))
}

func TestNewErrorResponse(t *testing.T) {
	err := NewError("free template quota exhausted").
		WithHint("Upgrade to use more templates").
		WithReportableDetails(map[string]any{
			"reason": "free_template_limit_reached",
		}).
		Mark(ErrEntitlementDenied)

	resp := NewErrorResponse(err, false)
	assert.False(t, resp.Success)
	assert.Equal(t, "Upgrade to use more templates", resp.Error.Display)
	assert.Equal(t, "free_template_limit_reached", resp.Error.Details["reason"])
	assert.Empty(t, resp.Error.InternalError)

	resp = NewErrorResponse(err, true)
	assert.NotEmpty(t, resp.Error.InternalError)
}

func TestDisplayMessageFallback(t *testing.T) {
	err := NewError("no hint").Mark(ErrSystem)
	assert.Equal(t, "An unexpected error occurred", DisplayMessage(err))
}
