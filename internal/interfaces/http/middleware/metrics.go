package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rentledger/backend/internal/infrastructure/metrics"
)

// HTTPMetrics returns a Gin middleware that records request duration and
// counts into the Prometheus registry. Passing nil yields a no-op
// middleware so callers can wire it unconditionally.
func HTTPMetrics(m *metrics.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		method := c.Request.Method
		route := routePattern(c)
		status := strconv.Itoa(c.Writer.Status())

		m.ObserveHTTPRequest(method, route, status, duration)
	}
}

// routePattern returns the matched route pattern (e.g. "/api/v1/bills/:id")
// instead of the raw path to keep label cardinality bounded.
func routePattern(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		return "unknown"
	}
	return route
}
