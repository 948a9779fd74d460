package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CorrelationIDHeader = "X-Correlation-ID"

	// CorrelationIDKey stores the id on the gin context
	CorrelationIDKey = "correlation_id"
)

type correlationCtxKey struct{}

// CorrelationID reuses the caller's X-Correlation-ID or generates one, echoes it in the
// response and makes it available to gin handlers and to the request context.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		c.Header(CorrelationIDHeader, correlationID)
		c.Set(CorrelationIDKey, correlationID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), correlationCtxKey{}, correlationID))

		c.Next()
	}
}

// GetCorrelationID returns the id set by CorrelationID, or "" outside of it
func GetCorrelationID(c *gin.Context) string {
	if id, ok := c.Get(CorrelationIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// CorrelationIDFromContext reads the id from a request context.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationCtxKey{}).(string)
	return id
}
