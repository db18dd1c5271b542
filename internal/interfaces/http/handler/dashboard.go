package handler

import (
	"github.com/gin-gonic/gin"
	vehicleregapp "github.com/roads-authority/backend/internal/application/vehiclereg"
)

// DashboardHandler serves the admin dashboard aggregates
type DashboardHandler struct {
	BaseHandler
	stats *vehicleregapp.StatsService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(stats *vehicleregapp.StatsService) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

// Stats returns the dashboard aggregate: total count, per-status counts,
// recent applications, overdue payments and the trailing monthly series
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// RegisterRoutes registers the dashboard routes
func (h *DashboardHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard/stats", h.Stats)
}
