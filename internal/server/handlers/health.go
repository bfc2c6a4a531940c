package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReadinessChecker reports whether upstream lookups can be served.
type ReadinessChecker interface {
	Configured() bool
}

type HealthHandler struct {
	logger    *zap.Logger
	checker   ReadinessChecker
	startTime time.Time
}

func NewHealthHandler(logger *zap.Logger, checker ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		logger:    logger,
		checker:   checker,
		startTime: time.Now(),
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).String(),
	})
}

// Readiness fails while no API key is configured, since every lookup would.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if !h.checker.Configured() {
		h.logger.Warn("Readiness check failed: weather API key not configured")
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:   "unavailable",
			Uptime:   time.Since(h.startTime).String(),
			Upstream: "not configured",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:   "ready",
		Uptime:   time.Since(h.startTime).String(),
		Upstream: "configured",
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	status := "ok"
	if !h.checker.Configured() {
		status = "degraded"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    status,
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
