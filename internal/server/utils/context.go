package utils

import (
	"context"

	"github.com/gin-gonic/gin"
)

const (
	SpanContextKey = "span_context"
	RequestIDKey   = "request_id"
)

// GetContextFromGinContext returns the traced request context set by the
// telemetry middleware, falling back to the plain request context.
func GetContextFromGinContext(c *gin.Context) context.Context {
	if spanCtx, exists := c.Get(SpanContextKey); exists {
		if ctx, ok := spanCtx.(context.Context); ok {
			return ctx
		}
	}
	return c.Request.Context()
}

func GetRequestIDFromGinContext(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}
