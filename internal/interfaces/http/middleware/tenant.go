package middleware

import (
	"net/http"
	"strings"

	"github.com/dealerhub/inventory/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context and header keys for the resolved tenant.
const (
	TenantIDKey     = "tenant_id"
	TenantCodeKey   = "tenant_code"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantInfo is what a validator returns for a known tenant.
type TenantInfo struct {
	ID   uuid.UUID `json:"id"`
	Code string    `json:"code"`
}

// TenantValidator checks that a tenant exists and is active. Wire one in
// when tenant IDs must be verified against the tenant registry rather
// than only parsed.
type TenantValidator interface {
	ValidateTenant(tenantID string) (*TenantInfo, error)
}

// TenantMiddlewareConfig controls where tenant identity may come from and
// whether a request without one is allowed through.
type TenantMiddlewareConfig struct {
	// HeaderEnabled allows the X-Tenant-ID header as a source.
	HeaderEnabled bool
	// JWTEnabled reads the claim set by the JWT middleware, which must
	// run earlier in the chain.
	JWTEnabled bool
	// SubdomainEnabled derives the tenant from the request host, for
	// per-dealer portals like acme.dealerhub.io.
	SubdomainEnabled bool
	// BaseDomain is the suffix stripped during subdomain resolution.
	BaseDomain string
	// SkipPaths bypass tenant resolution entirely (health, metrics).
	SkipPaths []string
	// Required rejects requests that resolve no tenant.
	Required bool
	// Validator, when set, vets every resolved tenant ID.
	Validator TenantValidator
	// Logger records resolution outcomes.
	Logger *zap.Logger
}

// DefaultTenantConfig requires a tenant on every route except the
// operational endpoints, accepting JWT claims and the header.
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		HeaderEnabled: true,
		JWTEnabled:    true,
		SkipPaths:     []string{"/health", "/healthz", "/ready", "/metrics", "/api/v1/health"},
		Required:      true,
	}
}

// TenantMiddleware resolves the tenant with the default configuration.
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// OptionalTenantMiddleware resolves the tenant when present but lets
// anonymous requests through.
func OptionalTenantMiddleware() gin.HandlerFunc {
	cfg := DefaultTenantConfig()
	cfg.Required = false
	return TenantMiddlewareWithConfig(cfg)
}

// TenantMiddlewareWithConfig resolves the tenant for each request, in
// order of trust: JWT claim, then X-Tenant-ID header, then subdomain.
// The resolved ID is stored in the gin context and, for the service
// layer, in the request context.
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tenantPathSkipped(c.Request.URL.Path, cfg.SkipPaths) {
			c.Next()
			return
		}

		tenantID, source := resolveTenant(c, cfg)

		if tenantID != "" {
			if _, err := uuid.Parse(tenantID); err != nil {
				abortTenantUnauthorized(c, "Invalid tenant ID format")
				return
			}
		}

		if tenantID == "" && cfg.Required {
			abortTenantUnauthorized(c, "Tenant identification required")
			return
		}

		var info *TenantInfo
		if tenantID != "" && cfg.Validator != nil {
			var err error
			info, err = cfg.Validator.ValidateTenant(tenantID)
			if err != nil {
				log := cfg.Logger
				if log == nil {
					log = logger.FromContext(c.Request.Context())
				}
				log.Warn("Tenant validation failed",
					zap.String("tenant_id", tenantID),
					zap.Error(err),
				)
				abortTenantUnauthorized(c, "Invalid or inactive tenant")
				return
			}
		}

		if tenantID != "" {
			c.Set(TenantIDKey, tenantID)
			if info != nil {
				c.Set(TenantCodeKey, info.Code)
			}

			// Propagate into the request context so repositories and
			// log lines downstream carry the tenant.
			ctx := c.Request.Context()
			ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), tenantID)
			c.Request = c.Request.WithContext(ctx)

			if cfg.Logger != nil {
				cfg.Logger.Debug("Tenant identified",
					zap.String("tenant_id", tenantID),
					zap.String("method", source),
				)
			}
		}

		c.Next()
	}
}

// resolveTenant walks the enabled sources and returns the first hit along
// with the source name used for logging.
func resolveTenant(c *gin.Context, cfg TenantMiddlewareConfig) (string, string) {
	if cfg.JWTEnabled {
		if claim, exists := c.Get(JWTTenantIDKey); exists {
			if id, ok := claim.(string); ok && id != "" {
				return id, "jwt"
			}
		}
	}

	if cfg.HeaderEnabled {
		if id := c.GetHeader(TenantHeaderKey); id != "" {
			return id, "header"
		}
	}

	if cfg.SubdomainEnabled && cfg.BaseDomain != "" {
		if id := extractTenantFromSubdomain(c.Request.Host, cfg.BaseDomain); id != "" {
			return id, "subdomain"
		}
	}

	return "", ""
}

func tenantPathSkipped(path string, skipPaths []string) bool {
	for _, skip := range skipPaths {
		if path == skip || strings.HasPrefix(path, skip+"/") {
			return true
		}
	}
	return false
}

// extractTenantFromSubdomain maps a host like "acme.dealerhub.io" with
// base domain "dealerhub.io" to "acme". The bare domain and the www alias
// resolve to nothing; for multi-level subdomains only the leftmost label
// counts.
func extractTenantFromSubdomain(host, baseDomain string) string {
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	if !strings.HasSuffix(host, baseDomain) {
		return ""
	}

	subdomain := strings.TrimSuffix(host, "."+baseDomain)
	if subdomain == host || subdomain == "" || subdomain == "www" {
		return ""
	}

	return strings.Split(subdomain, ".")[0]
}

// validateTenantIDFormat reports whether the tenant ID parses as a UUID.
func validateTenantIDFormat(tenantID string) error {
	_, err := uuid.Parse(tenantID)
	return err
}

func abortTenantUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetTenantID returns the resolved tenant ID, empty when none was set.
func GetTenantID(c *gin.Context) string {
	if v, exists := c.Get(TenantIDKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// GetTenantUUID returns the resolved tenant ID parsed as a UUID, or
// uuid.Nil when none was set.
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	id := GetTenantID(c)
	if id == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(id)
}

// GetTenantCode returns the tenant code a validator attached, if any.
func GetTenantCode(c *gin.Context) string {
	if v, exists := c.Get(TenantCodeKey); exists {
		if code, ok := v.(string); ok {
			return code
		}
	}
	return ""
}

// MustGetTenantID is for handlers behind a Required tenant middleware,
// where a missing tenant is a programming error.
func MustGetTenantID(c *gin.Context) string {
	id := GetTenantID(c)
	if id == "" {
		panic("tenant_id not found in context")
	}
	return id
}

// MustGetTenantUUID is the UUID form of MustGetTenantID.
func MustGetTenantUUID(c *gin.Context) uuid.UUID {
	id, err := GetTenantUUID(c)
	if err != nil || id == uuid.Nil {
		panic("valid tenant_id not found in context")
	}
	return id
}
