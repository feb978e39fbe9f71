package middleware

import (
	"context"
	"strings"

	"github.com/dealerhub/inventory/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingConfig configures the continuous-profiling label middleware.
type ProfilingConfig struct {
	// Enabled turns label attachment on.
	Enabled bool
	// SkipPaths are exact paths left unlabeled.
	SkipPaths []string
	// SkipPathPrefixes are path prefixes left unlabeled.
	SkipPathPrefixes []string
}

// DefaultProfilingConfig labels everything except the operational
// endpoints and API docs.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled: true,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
		},
		SkipPathPrefixes: []string{
			"/swagger",
			"/api-docs",
		},
	}
}

// Profiling attaches profiling labels with the default configuration.
func Profiling() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// ProfilingWithConfig tags each request's profile samples with method,
// route pattern, resource and tenant so flame graphs in the Pyroscope UI
// can be sliced per dimension. Labels use the route pattern rather than
// the raw path to keep cardinality bounded.
func ProfilingWithConfig(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		if pathSkipped(c.Request.URL.Path, cfg.SkipPaths, cfg.SkipPathPrefixes) {
			c.Next()
			return
		}

		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// ProfilingAttributeInjector is the profiling middleware for use after
// JWT and tenant resolution, once the tenant label is available.
func ProfilingAttributeInjector() gin.HandlerFunc {
	return ProfilingWithConfig(DefaultProfilingConfig())
}

// profilingLabels builds the label set for one request. Labels with no
// value are omitted.
func profilingLabels(c *gin.Context) map[string]string {
	labels := make(map[string]string, 4)

	if method := c.Request.Method; method != "" {
		labels[telemetry.ProfilingLabelMethod] = method
	}

	route := c.FullPath()
	if route != "" {
		labels[telemetry.ProfilingLabelRoute] = route
	}

	if resource := routeResource(route); resource != "" {
		labels[telemetry.ProfilingLabelController] = resource
	}

	if tenantID := profilingTenantID(c); tenantID != "" {
		labels[telemetry.ProfilingLabelTenantID] = tenantID
	}

	return labels
}

// routeResource names the resource a route pattern serves, e.g.
// "/api/v1/allocations/:id" labels as "allocations". The api prefix,
// version segments and path parameters are skipped.
func routeResource(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) {
			continue
		}
		if strings.HasPrefix(part, ":") || strings.HasPrefix(part, "{") {
			continue
		}
		return part
	}
	return ""
}

// isVersionSegment matches segments like v1, v2, v10.
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

// profilingTenantID prefers the JWT claim and falls back to the tenant
// middleware's resolved value.
func profilingTenantID(c *gin.Context) string {
	if id := jwtStringValue(c, JWTTenantIDKey); id != "" {
		return id
	}
	return jwtStringValue(c, TenantIDKey)
}

// pathSkipped reports whether path matches an exact skip entry or one of
// the prefixes.
func pathSkipped(path string, exact, prefixes []string) bool {
	for _, skip := range exact {
		if path == skip {
			return true
		}
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
