package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/run-directory-api/internal/service"
	"github.com/noah-isme/run-directory-api/pkg/response"
)

// DependencyCheck reports whether one backing service answers.
type DependencyCheck func(ctx context.Context) error

// MetricsHandler exposes liveness, readiness and metrics endpoints.
type MetricsHandler struct {
	metrics      *service.MetricsService
	checks       map[string]DependencyCheck
	checkTimeout time.Duration
}

// NewMetricsHandler constructs a metrics handler. checks maps a dependency
// name such as "database" to its probe.
func NewMetricsHandler(metrics *service.MetricsService, checks map[string]DependencyCheck) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, checks: checks, checkTimeout: 2 * time.Second}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Summary returns cache, request and database averages as JSON.
func (h *MetricsHandler) Summary(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}

// Health reports that the process is serving.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready probes every dependency and answers 503 naming the ones that failed.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := gin.H{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "dependencies": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
