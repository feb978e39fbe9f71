package middleware

import (
	"net/http"
	"strings"

	"github.com/dealerhub/inventory/internal/infrastructure/auth"
	"github.com/dealerhub/inventory/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys the JWT middleware populates from validated claims.
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTTenantIDKey = "jwt_tenant_id"
	JWTUsernameKey = "jwt_username"
	JWTPermissions = "jwt_permissions"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// JWTMiddlewareConfig configures token authentication.
type JWTMiddlewareConfig struct {
	// JWTService validates tokens. Required.
	JWTService *auth.JWTService
	// SkipPaths are exact paths served without authentication.
	SkipPaths []string
	// SkipPathPrefixes are path prefixes served without authentication,
	// used for the swagger UI.
	SkipPathPrefixes []string
	// OnError replaces the default 401 response when set.
	OnError func(c *gin.Context, err error)
	// Logger records authentication outcomes.
	Logger *zap.Logger
}

// DefaultJWTConfig protects everything except the operational endpoints
// and API docs.
func DefaultJWTConfig(jwtService *auth.JWTService) JWTMiddlewareConfig {
	return JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/metrics",
			"/api/v1/health",
			"/api/v1/system/ping",
		},
		SkipPathPrefixes: []string{
			"/swagger",
			"/api-docs",
		},
	}
}

// JWTAuthMiddleware authenticates requests with the default configuration.
func JWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(DefaultJWTConfig(jwtService))
}

// JWTAuthMiddlewareWithConfig authenticates each request by validating
// the bearer token and exposing its claims through the gin context and
// the request context.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if pathSkipped(c.Request.URL.Path, cfg.SkipPaths, cfg.SkipPathPrefixes) {
			c.Next()
			return
		}

		tokenString, err := bearerToken(c)
		if err != nil {
			abortAuthError(c, cfg, auth.ErrInvalidToken, err.Error())
			return
		}

		claims, err := cfg.JWTService.ValidateToken(tokenString)
		if err != nil {
			abortAuthError(c, cfg, err, "Token validation failed")
			return
		}

		applyClaims(c, claims)

		// Repeat into the request context so service-layer log lines
		// carry the caller's identity.
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, _ = logger.WithUserID(ctx, log, claims.UserID)
		ctx, _ = logger.WithTenantID(ctx, log, claims.TenantID)
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful",
				zap.String("user_id", claims.UserID),
				zap.String("tenant_id", claims.TenantID),
				zap.String("username", claims.Username),
			)
		}

		c.Next()
	}
}

// OptionalJWTAuthMiddleware extracts claims when a valid token is present
// but never rejects the request.
func OptionalJWTAuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			c.Next()
			return
		}

		if claims, err := jwtService.ValidateToken(tokenString); err == nil {
			applyClaims(c, claims)
		}

		c.Next()
	}
}

// bearerToken pulls the token out of the Authorization header.
func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader(AuthHeaderKey)
	switch {
	case header == "":
		return "", errMissingAuthHeader
	case !strings.HasPrefix(header, BearerPrefix):
		return "", errMalformedAuthHeader
	}

	token := strings.TrimPrefix(header, BearerPrefix)
	if token == "" {
		return "", errMissingToken
	}
	return token, nil
}

var (
	errMissingAuthHeader   = authHeaderError("Missing authorization header")
	errMalformedAuthHeader = authHeaderError("Invalid authorization header format")
	errMissingToken        = authHeaderError("Missing token")
)

type authHeaderError string

func (e authHeaderError) Error() string { return string(e) }

func applyClaims(c *gin.Context, claims *auth.Claims) {
	c.Set(JWTClaimsKey, claims)
	c.Set(JWTUserIDKey, claims.UserID)
	c.Set(JWTTenantIDKey, claims.TenantID)
	c.Set(JWTUsernameKey, claims.Username)
	c.Set(JWTPermissions, claims.Permissions)
}

func abortAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	code, detail := authErrorResponse(err)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": detail,
		},
	})
}

// authErrorResponse maps validation errors to stable client-facing codes.
func authErrorResponse(err error) (string, string) {
	switch err {
	case auth.ErrExpiredToken:
		return "TOKEN_EXPIRED", "Token has expired"
	case auth.ErrInvalidToken:
		return "INVALID_TOKEN", "Invalid token"
	case auth.ErrTokenNotYetValid:
		return "TOKEN_NOT_VALID", "Token is not yet valid"
	case auth.ErrMissingTenantID, auth.ErrMissingUserID:
		return "INVALID_CLAIMS", "Token is missing required claims"
	}
	return "UNAUTHORIZED", "Authentication required"
}

// GetJWTClaims returns the validated claims, nil when unauthenticated.
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, exists := c.Get(JWTClaimsKey); exists {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTUserID returns the authenticated user ID, empty when absent.
func GetJWTUserID(c *gin.Context) string {
	return jwtStringValue(c, JWTUserIDKey)
}

// GetJWTTenantID returns the tenant ID claim, empty when absent.
func GetJWTTenantID(c *gin.Context) string {
	return jwtStringValue(c, JWTTenantIDKey)
}

// GetJWTUsername returns the username claim, empty when absent.
func GetJWTUsername(c *gin.Context) string {
	return jwtStringValue(c, JWTUsernameKey)
}

// GetJWTPermissions returns the permission claims, nil when absent.
func GetJWTPermissions(c *gin.Context) []string {
	if v, exists := c.Get(JWTPermissions); exists {
		if perms, ok := v.([]string); ok {
			return perms
		}
	}
	return nil
}

func jwtStringValue(c *gin.Context, key string) string {
	if v, exists := c.Get(key); exists {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
