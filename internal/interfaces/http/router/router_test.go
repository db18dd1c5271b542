package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRouterMountsUnderVersionedPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	r := NewRouter(engine)
	r.Register(RegistrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/vehicle-reg/applications", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})
	}))
	r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/vehicle-reg/applications", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// unversioned path is not mounted
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vehicle-reg/applications", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouterCustomVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	NewRouter(engine, WithAPIVersion("v2")).
		Register(RegistrarFunc(func(rg *gin.RouterGroup) {
			rg.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
		})).
		Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterMultipleRegistrars(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()

	r := NewRouter(engine)
	for _, path := range []string{"/auth/login", "/vehicle-reg/track"} {
		p := path
		r.Register(RegistrarFunc(func(rg *gin.RouterGroup) {
			rg.POST(p, func(c *gin.Context) { c.Status(http.StatusOK) })
		}))
	}
	r.Setup()

	for _, path := range []string{"/api/v1/auth/login", "/api/v1/vehicle-reg/track"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
