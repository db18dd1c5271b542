package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roads-authority/backend/internal/interfaces/http/dto"
)

// readinessTimeout bounds each dependency probe so a hung backend cannot
// stall the readiness endpoint
const readinessTimeout = 2 * time.Second

// ReadinessCheck probes one backing dependency
type ReadinessCheck func(ctx context.Context) error

// SystemHandler serves the liveness and readiness endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	version   string
	checks    map[string]ReadinessCheck
}

// NewSystemHandler creates a new SystemHandler. Checks are probed by the
// readiness endpoint, keyed by dependency name.
func NewSystemHandler(version string, checks map[string]ReadinessCheck) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		version:   version,
		checks:    checks,
	}
}

// HealthResponse is the liveness report
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Uptime    string `json:"uptime"`
}

// ReadyResponse is the readiness report; Checks carries the per-dependency
// outcome
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health reports process liveness. It always succeeds while the process is
// serving requests.
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, HealthResponse{
		Status:    "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready probes every registered dependency. Any failure degrades the
// response to 503 so load balancers stop routing traffic here.
func (h *SystemHandler) Ready(c *gin.Context) {
	resp := ReadyResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}

	for name, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		err := check(ctx)
		cancel()
		if err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	if resp.Status != "ok" {
		out := dto.NewErrorResponse("SERVICE_UNAVAILABLE", "One or more dependencies are unavailable")
		out.Data = resp
		c.JSON(http.StatusServiceUnavailable, out)
		return
	}
	h.Success(c, resp)
}

// RegisterRoutes registers the system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/ready", h.Ready)
}
