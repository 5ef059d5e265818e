package middleware

import (
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/flexprice/invoicedesk/internal/logger"
	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error attached by a handler with the status of its kind
func ErrorHandler(mode types.RunMode, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)
		if status >= 500 {
			log.Errorw("request failed",
				"error", err,
				"path", c.FullPath(),
				"request_id", types.GetRequestID(c.Request.Context()),
			)
		}

		c.JSON(status, ierr.NewErrorResponse(err, mode == types.ModeLocal))
	}
}
