package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aquago/aquago-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records latency and status per route template. Routes listed in
// skip, typically probes and the scrape endpoint, are not recorded.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	ignored := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		ignored[route] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := ignored[route]; ok {
			return
		}
		// unknown paths share one label to keep series bounded
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
