package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-brief/internal/server/middlewares"
	"go.uber.org/zap"
)

// HTTPMetricsSource provides request metrics collected by the middleware.
type HTTPMetricsSource interface {
	Snapshot() middlewares.HTTPSnapshot
}

// AppMetrics holds upstream call counters keyed by endpoint.
type AppMetrics struct {
	mutex          sync.RWMutex
	upstreamCalls  map[string]int64
	upstreamErrors map[string]int64
}

type MetricsHandler struct {
	logger     *zap.Logger
	http       HTTPMetricsSource
	appMetrics *AppMetrics
}

func NewMetricsHandler(logger *zap.Logger, source HTTPMetricsSource) *MetricsHandler {
	return &MetricsHandler{
		logger: logger,
		http:   source,
		appMetrics: &AppMetrics{
			upstreamCalls:  make(map[string]int64),
			upstreamErrors: make(map[string]int64),
		},
	}
}

// RecordUpstreamCall records a weather API call
func (h *MetricsHandler) RecordUpstreamCall(ctx context.Context, endpoint string, success bool) {
	h.appMetrics.mutex.Lock()
	h.appMetrics.upstreamCalls[endpoint]++
	if !success {
		h.appMetrics.upstreamErrors[endpoint]++
	}
	h.appMetrics.mutex.Unlock()
}

// ServeMetrics exposes metrics in the Prometheus text format.
func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	var b strings.Builder

	if h.http != nil {
		snap := h.http.Snapshot()

		b.WriteString("# HELP http_requests_total Total number of HTTP requests\n")
		b.WriteString("# TYPE http_requests_total counter\n")
		for _, key := range sortedKeys(snap.RequestsTotal) {
			fmt.Fprintf(&b, "http_requests_total{route_status=%q} %d\n", key, snap.RequestsTotal[key])
		}

		b.WriteString("\n# HELP http_request_duration_seconds_avg Average duration of HTTP requests\n")
		b.WriteString("# TYPE http_request_duration_seconds_avg gauge\n")
		fmt.Fprintf(&b, "http_request_duration_seconds_avg %.6f\n", snap.AverageDurationSec)

		b.WriteString("\n# HELP http_active_requests Number of active HTTP requests\n")
		b.WriteString("# TYPE http_active_requests gauge\n")
		fmt.Fprintf(&b, "http_active_requests %d\n", snap.ActiveRequests)
		b.WriteString("\n")
	}

	h.appMetrics.mutex.RLock()
	b.WriteString("# HELP weather_upstream_calls_total Total weather API calls\n")
	b.WriteString("# TYPE weather_upstream_calls_total counter\n")
	for _, endpoint := range sortedKeys(h.appMetrics.upstreamCalls) {
		fmt.Fprintf(&b, "weather_upstream_calls_total{endpoint=%q} %d\n", endpoint, h.appMetrics.upstreamCalls[endpoint])
	}

	b.WriteString("\n# HELP weather_upstream_errors_total Total weather API errors\n")
	b.WriteString("# TYPE weather_upstream_errors_total counter\n")
	for _, endpoint := range sortedKeys(h.appMetrics.upstreamErrors) {
		fmt.Fprintf(&b, "weather_upstream_errors_total{endpoint=%q} %d\n", endpoint, h.appMetrics.upstreamErrors[endpoint])
	}
	h.appMetrics.mutex.RUnlock()

	c.Header("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
