package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ToxInsight/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts, latency and sizes per route template.
// Unmatched routes are grouped under "unmatched" to bound label cardinality.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		active := m.HTTPActiveRequests.WithLabelValues(method, path)
		active.Inc()
		start := time.Now()

		c.Next()

		active.Dec()
		reqSize := c.Request.ContentLength
		if reqSize < 0 {
			reqSize = 0
		}
		prometheus.RecordHTTPRequest(m, method, path, c.Writer.Status(), time.Since(start), reqSize, int64(c.Writer.Size()))
		if status := c.Writer.Status(); status >= 500 {
			prometheus.RecordError(m, "http", strconv.Itoa(status))
		}
	}
}

// BodyLimit caps the request body size.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

//Personal.AI order the ending
