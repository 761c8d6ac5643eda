package middleware

import (
	"strconv"
	"time"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records request latency per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
