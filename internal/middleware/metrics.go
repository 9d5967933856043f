package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/run-directory-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request duration and status per route template. Paths in
// skip (probe and scrape endpoints) are not observed.
func Metrics(metricsSvc *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		if _, ok := skipped[c.FullPath()]; ok {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			// raw paths of 404s would explode label cardinality
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
