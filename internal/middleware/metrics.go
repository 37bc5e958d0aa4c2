package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/palanikathirvel/realestatefinal-sub000/pkg/metrics"
)

// Metrics records request latencies per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.APILatency.
			WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
