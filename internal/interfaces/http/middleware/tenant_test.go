package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealerhub/inventory/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubTenantValidator struct {
	known map[string]*TenantInfo
	err   error
}

func (v *stubTenantValidator) ValidateTenant(tenantID string) (*TenantInfo, error) {
	if v.err != nil {
		return nil, v.err
	}
	if info, ok := v.known[tenantID]; ok {
		return info, nil
	}
	return nil, errors.New("tenant not found")
}

// tenantRouter builds a router running the given tenant middleware and a
// GET /allocations route that captures what the handler sees.
func tenantRouter(mw gin.HandlerFunc, captured *string, pre ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(pre...)
	router.Use(mw)
	router.GET("/allocations", func(c *gin.Context) {
		if captured != nil {
			*captured = GetTenantID(c)
		}
		c.Status(http.StatusOK)
	})
	return router
}

func getTenant(router *gin.Engine, path, tenantHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tenantHeader != "" {
		req.Header.Set(TenantHeaderKey, tenantHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTenantMiddlewareHeaderResolution(t *testing.T) {
	t.Run("UUID header resolves the tenant", func(t *testing.T) {
		tenantID := uuid.New().String()
		var captured string
		router := tenantRouter(TenantMiddleware(), &captured)

		w := getTenant(router, "/allocations", tenantID)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tenantID, captured)
	})

	t.Run("missing tenant is rejected", func(t *testing.T) {
		router := tenantRouter(TenantMiddleware(), nil)

		w := getTenant(router, "/allocations", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})

	t.Run("malformed tenant ID is rejected", func(t *testing.T) {
		router := tenantRouter(TenantMiddleware(), nil)

		w := getTenant(router, "/allocations", "dealer-42")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("header source can be disabled", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.HeaderEnabled = false
		cfg.Required = false
		var captured string
		router := tenantRouter(TenantMiddlewareWithConfig(cfg), &captured)

		w := getTenant(router, "/allocations", uuid.New().String())

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, captured)
	})
}

func TestTenantMiddlewareJWTResolution(t *testing.T) {
	setClaim := func(tenantID string) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set(JWTTenantIDKey, tenantID)
			c.Next()
		}
	}

	t.Run("claim resolves the tenant", func(t *testing.T) {
		tenantID := uuid.New().String()
		var captured string
		router := tenantRouter(TenantMiddleware(), &captured, setClaim(tenantID))

		w := getTenant(router, "/allocations", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tenantID, captured)
	})

	t.Run("claim outranks the header", func(t *testing.T) {
		claimTenant := uuid.New().String()
		headerTenant := uuid.New().String()
		var captured string
		router := tenantRouter(TenantMiddleware(), &captured, setClaim(claimTenant))

		w := getTenant(router, "/allocations", headerTenant)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, claimTenant, captured)
	})

	t.Run("claim source can be disabled", func(t *testing.T) {
		cfg := DefaultTenantConfig()
		cfg.JWTEnabled = false
		cfg.Required = false
		var captured string
		router := tenantRouter(TenantMiddlewareWithConfig(cfg), &captured, setClaim(uuid.New().String()))

		w := getTenant(router, "/allocations", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, captured)
	})
}

func TestTenantMiddlewareSkipPaths(t *testing.T) {
	cases := []struct {
		name      string
		path      string
		skipPaths []string
		want      int
	}{
		{"exact match skipped", "/health", []string{"/health"}, http.StatusOK},
		{"versioned health skipped", "/api/v1/health", []string{"/api/v1/health"}, http.StatusOK},
		{"metrics skipped", "/metrics", []string{"/metrics"}, http.StatusOK},
		{"nested path under skip prefix", "/health/ready", []string{"/health"}, http.StatusOK},
		{"other paths still require a tenant", "/api/allocations", []string{"/health"}, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultTenantConfig()
			cfg.SkipPaths = tc.skipPaths

			router := gin.New()
			router.Use(TenantMiddlewareWithConfig(cfg))
			router.GET(tc.path, func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := getTenant(router, tc.path, "")
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestOptionalTenantMiddleware(t *testing.T) {
	var captured string
	router := tenantRouter(OptionalTenantMiddleware(), &captured)

	w := getTenant(router, "/allocations", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, captured)
}

func TestTenantMiddlewareValidator(t *testing.T) {
	knownTenant := uuid.New().String()
	validator := &stubTenantValidator{
		known: map[string]*TenantInfo{
			knownTenant: {ID: uuid.MustParse(knownTenant), Code: "MIDWEST-DEALERS"},
		},
	}

	withValidator := func(v TenantValidator) gin.HandlerFunc {
		cfg := DefaultTenantConfig()
		cfg.Validator = v
		return TenantMiddlewareWithConfig(cfg)
	}

	t.Run("known tenant passes and carries its code", func(t *testing.T) {
		var code string
		router := gin.New()
		router.Use(withValidator(validator))
		router.GET("/allocations", func(c *gin.Context) {
			code = GetTenantCode(c)
			c.Status(http.StatusOK)
		})

		w := getTenant(router, "/allocations", knownTenant)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "MIDWEST-DEALERS", code)
	})

	t.Run("unknown tenant is rejected", func(t *testing.T) {
		router := tenantRouter(withValidator(validator), nil)

		w := getTenant(router, "/allocations", uuid.New().String())

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("validator failure is rejected", func(t *testing.T) {
		failing := &stubTenantValidator{err: errors.New("tenant registry unavailable")}
		router := tenantRouter(withValidator(failing), nil)

		w := getTenant(router, "/allocations", uuid.New().String())

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestExtractTenantFromSubdomain(t *testing.T) {
	cases := []struct {
		name       string
		host       string
		baseDomain string
		want       string
	}{
		{"dealer subdomain", "acme.dealerhub.io", "dealerhub.io", "acme"},
		{"port is stripped", "acme.dealerhub.io:8080", "dealerhub.io", "acme"},
		{"bare base domain", "dealerhub.io", "dealerhub.io", ""},
		{"www is not a tenant", "www.dealerhub.io", "dealerhub.io", ""},
		{"foreign domain", "acme.other.com", "dealerhub.io", ""},
		{"multi-level keeps the leftmost label", "app.acme.dealerhub.io", "dealerhub.io", "app"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractTenantFromSubdomain(tc.host, tc.baseDomain))
		})
	}
}

func TestValidateTenantIDFormat(t *testing.T) {
	assert.NoError(t, validateTenantIDFormat(uuid.New().String()))
	assert.Error(t, validateTenantIDFormat("dealer-42"))
	assert.Error(t, validateTenantIDFormat(""))
}

func TestTenantContextAccessors(t *testing.T) {
	t.Run("GetTenantID and GetTenantUUID agree", func(t *testing.T) {
		tenantID := uuid.New().String()
		router := gin.New()
		router.Use(TenantMiddleware())
		router.GET("/allocations", func(c *gin.Context) {
			assert.Equal(t, tenantID, GetTenantID(c))
			parsed, err := GetTenantUUID(c)
			require.NoError(t, err)
			assert.Equal(t, uuid.MustParse(tenantID), parsed)
			c.Status(http.StatusOK)
		})

		w := getTenant(router, "/allocations", tenantID)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Must accessors panic without a tenant", func(t *testing.T) {
		router := gin.New()
		router.GET("/allocations", func(c *gin.Context) {
			assert.Panics(t, func() { MustGetTenantID(c) })
			assert.Panics(t, func() { MustGetTenantUUID(c) })
			c.Status(http.StatusOK)
		})

		w := getTenant(router, "/allocations", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestTenantMiddlewareRequestContextPropagation(t *testing.T) {
	tenantID := uuid.New().String()
	router := gin.New()
	router.Use(TenantMiddleware())
	router.GET("/allocations", func(c *gin.Context) {
		assert.Equal(t, tenantID, logger.GetTenantID(c.Request.Context()))
		c.Status(http.StatusOK)
	})

	w := getTenant(router, "/allocations", tenantID)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDefaultTenantConfig(t *testing.T) {
	cfg := DefaultTenantConfig()

	assert.True(t, cfg.HeaderEnabled)
	assert.True(t, cfg.JWTEnabled)
	assert.False(t, cfg.SubdomainEnabled)
	assert.Empty(t, cfg.BaseDomain)
	assert.True(t, cfg.Required)
	assert.Nil(t, cfg.Validator)
	assert.Nil(t, cfg.Logger)
	assert.Contains(t, cfg.SkipPaths, "/health")
	assert.Contains(t, cfg.SkipPaths, "/metrics")
}
