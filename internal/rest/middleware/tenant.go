package middleware

import (
	"context"
	"strings"

	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/gin-gonic/gin"
)

// TenantMiddleware scopes the request to the tenant named in the X-Tenant-ID header.
// Authentication happens upstream, the header is trusted as is.
func TenantMiddleware(c *gin.Context) {
	tenantID := strings.TrimSpace(c.GetHeader(types.HeaderTenantID))
	if tenantID == "" {
		_ = c.Error(ierr.NewError("missing tenant header").
			WithHintf("The %s header is required", types.HeaderTenantID).
			Mark(ierr.ErrValidation))
		c.Abort()
		return
	}

	ctx := c.Request.Context()
	ctx = context.WithValue(ctx, types.CtxTenantID, tenantID)
	if userID := strings.TrimSpace(c.GetHeader(types.HeaderUserID)); userID != "" {
		ctx = context.WithValue(ctx, types.CtxUserID, userID)
	}
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
