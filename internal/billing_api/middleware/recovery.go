package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery plugs into gin's recovery so broken client connections keep gin's handling, and
// any other panic is logged through slog and answered with a 500 error envelope.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		correlationID := GetCorrelationID(c)
		logger.Error("Panic recovered",
			"error", fmt.Sprint(recovered),
			"route", c.FullPath(),
			"method", c.Request.Method,
			"correlation_id", correlationID,
			"stack", string(debug.Stack()),
		)

		envelope := gin.H{"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "An internal server error occurred",
		}}
		if correlationID != "" {
			envelope["correlation_id"] = correlationID
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, envelope)
	})
}
