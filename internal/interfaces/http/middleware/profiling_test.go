package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roads-authority/backend/internal/infrastructure/telemetry"
)

// labelCapturingRouter records the pprof labels visible inside the handler.
func labelCapturingRouter(mw gin.HandlerFunc, route string, captured map[string]string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.GET(route, func(c *gin.Context) {
		for _, key := range []string{
			telemetry.ProfilingLabelMethod,
			telemetry.ProfilingLabelRoute,
			telemetry.ProfilingLabelController,
			telemetry.ProfilingLabelAdminID,
		} {
			if value, ok := pprof.Label(c.Request.Context(), key); ok {
				captured[key] = value
			}
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestProfilingAddsRequestLabels(t *testing.T) {
	captured := map[string]string{}
	router := labelCapturingRouter(Profiling(), "/api/v1/vehicle-reg/applications/:id", captured)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/vehicle-reg/applications/2b9f", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "GET", captured[telemetry.ProfilingLabelMethod])
	assert.Equal(t, "/api/v1/vehicle-reg/applications/:id", captured[telemetry.ProfilingLabelRoute])
	assert.Equal(t, "vehicle-reg", captured[telemetry.ProfilingLabelController])
}

func TestProfilingAdminLabel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	// clerk identity lands in the gin context before the profiling wrapper runs
	router.Use(func(c *gin.Context) {
		c.Set(JWTAdminIDKey, "clerk@roads.gov.na")
		c.Next()
	})

	var adminLabel string
	router.Use(Profiling())
	router.GET("/api/v1/vehicle-reg/applications", func(c *gin.Context) {
		adminLabel, _ = pprof.Label(c.Request.Context(), telemetry.ProfilingLabelAdminID)
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/vehicle-reg/applications", nil))
	assert.Equal(t, "clerk@roads.gov.na", adminLabel)
}

func TestProfilingSkipsProbePaths(t *testing.T) {
	captured := map[string]string{}
	router := labelCapturingRouter(Profiling(), "/health", captured)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, captured)
}

func TestProfilingDisabled(t *testing.T) {
	captured := map[string]string{}
	router := labelCapturingRouter(
		ProfilingWithConfig(ProfilingConfig{Enabled: false}), "/track", captured)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/track", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, captured)
}

func TestControllerFromRoute(t *testing.T) {
	cases := map[string]string{
		"/api/v1/vehicle-reg/applications/:id": "vehicle-reg",
		"/api/v1/auth/login":                   "auth",
		"/api/v2/documents":                    "documents",
		"/health":                              "health",
		"/:wildcard/only":                      "only",
		"":                                     "",
	}
	for route, want := range cases {
		assert.Equal(t, want, controllerFromRoute(route), route)
	}
}
