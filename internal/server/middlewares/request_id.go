package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vzahanych/weather-brief/internal/server/utils"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = utils.RequestIDKey

	maxRequestIDLength = 128
)

// RequestIDMiddleware propagates a caller supplied X-Request-ID or generates
// a new one. Oversized or non-printable ids are replaced.
func RequestIDMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if !validRequestID(requestID) {
			if requestID != "" {
				logger.Debug("Replacing invalid request id", zap.Int("length", len(requestID)))
			}
			requestID = uuid.New().String()
		}

		c.Header(RequestIDHeader, requestID)

		c.Set(RequestIDKey, requestID)

		c.Next()
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
