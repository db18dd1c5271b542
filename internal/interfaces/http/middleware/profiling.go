// Package middleware provides the HTTP middleware chain for the registration
// backend: request identity, security headers, CORS, auth, rate limiting and
// the observability layers.
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/roads-authority/backend/internal/infrastructure/telemetry"
)

// ProfilingConfig configures the Pyroscope label middleware.
type ProfilingConfig struct {
	Enabled bool
	// SkipPaths lists endpoints whose samples would only be probe noise.
	SkipPaths []string
}

// DefaultProfilingConfig skips the health and metrics probes.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled: true,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
		},
	}
}

// Profiling returns the label middleware with default configuration.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig tags each request's CPU samples with method, route
// pattern, controller and clerk identity so profiles can be sliced per
// endpoint in Pyroscope.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}

		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// profilingLabels collects the low-cardinality request dimensions. The route
// label uses the matched pattern, never the raw path, so reference codes and
// application ids stay out of the label set.
func profilingLabels(c *gin.Context) map[string]string {
	labels := make(map[string]string, 4)

	if method := c.Request.Method; method != "" {
		labels[telemetry.ProfilingLabelMethod] = method
	}

	route := c.FullPath()
	if route != "" {
		labels[telemetry.ProfilingLabelRoute] = route
	}
	if controller := controllerFromRoute(route); controller != "" {
		labels[telemetry.ProfilingLabelController] = controller
	}

	// The authority has a small fixed set of clerk accounts, so admin_id is
	// safe as a label dimension.
	if adminID := getAdminIDFromContext(c); adminID != "" {
		labels[telemetry.ProfilingLabelAdminID] = adminID
	}

	return labels
}

// controllerFromRoute derives a controller name from the route pattern, e.g.
// "/api/v1/vehicle-reg/applications/:id" becomes "vehicle-reg".
func controllerFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) {
			continue
		}
		if strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
