package middlewares

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-brief/pkg/telemetry"
	"go.uber.org/zap"
)

const maxRecordedDurations = 1000

// HTTPMetrics holds only HTTP request metrics
type HTTPMetrics struct {
	mutex            sync.RWMutex
	requestsTotal    map[string]int64
	requestDurations []float64
	activeRequests   int64
}

// HTTPSnapshot is a point-in-time copy of HTTPMetrics.
type HTTPSnapshot struct {
	RequestsTotal      map[string]int64
	AverageDurationSec float64
	ActiveRequests     int64
}

type MetricsMiddleware struct {
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	metrics *HTTPMetrics
}

func NewMetricsMiddleware(logger *zap.Logger, tele *telemetry.Telemetry) *MetricsMiddleware {
	return &MetricsMiddleware{
		logger: logger,
		tele:   tele,
		metrics: &HTTPMetrics{
			requestsTotal:    make(map[string]int64),
			requestDurations: make([]float64, 0),
		},
	}
}

func (m *MetricsMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		m.metrics.mutex.Lock()
		m.metrics.activeRequests++
		m.metrics.mutex.Unlock()

		c.Next()

		duration := time.Since(start).Seconds()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		key := method + " " + route + "_" + strconv.Itoa(c.Writer.Status())

		m.metrics.mutex.Lock()
		m.metrics.requestsTotal[key]++
		m.metrics.requestDurations = append(m.metrics.requestDurations, duration)
		m.metrics.activeRequests--

		if len(m.metrics.requestDurations) > maxRecordedDurations {
			m.metrics.requestDurations = m.metrics.requestDurations[len(m.metrics.requestDurations)-maxRecordedDurations:]
		}
		m.metrics.mutex.Unlock()

		if m.tele.IsEnabled() {
			m.logger.Debug("HTTP metrics recorded",
				zap.String("method", method),
				zap.String("route", route),
				zap.Int("status", c.Writer.Status()),
				zap.Float64("duration", duration))
		}
	}
}

// Snapshot returns a copy of the HTTP metrics for the metrics handler to expose.
func (m *MetricsMiddleware) Snapshot() HTTPSnapshot {
	m.metrics.mutex.RLock()
	defer m.metrics.mutex.RUnlock()

	totals := make(map[string]int64, len(m.metrics.requestsTotal))
	for k, v := range m.metrics.requestsTotal {
		totals[k] = v
	}

	var avg float64
	if n := len(m.metrics.requestDurations); n > 0 {
		sum := 0.0
		for _, d := range m.metrics.requestDurations {
			sum += d
		}
		avg = sum / float64(n)
	}

	return HTTPSnapshot{
		RequestsTotal:      totals,
		AverageDurationSec: avg,
		ActiveRequests:     m.metrics.activeRequests,
	}
}
