package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	vehicleregapp "github.com/roads-authority/backend/internal/application/vehiclereg"
	"github.com/roads-authority/backend/internal/domain/vehiclereg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupDashboardTestRouter() (*gin.Engine, *MockVehicleRegRepository) {
	gin.SetMode(gin.TestMode)

	repo := new(MockVehicleRegRepository)
	h := NewDashboardHandler(vehicleregapp.NewStatsService(repo))

	router := gin.New()
	h.RegisterRoutes(router.Group("/api/v1/vehicle-reg"))
	return router, repo
}

func TestDashboardHandlerStats(t *testing.T) {
	t.Run("returns the zero-filled aggregate", func(t *testing.T) {
		router, repo := setupDashboardTestRouter()
		app := newStoredApplication(t)

		repo.On("CountAll", mock.Anything).Return(int64(42), nil)
		repo.On("CountByStatus", mock.Anything).Return(map[vehiclereg.Status]int64{
			vehiclereg.StatusSubmitted: 30,
			vehiclereg.StatusPaid:      12,
		}, nil)
		repo.On("FindRecent", mock.Anything, 5).Return([]*vehiclereg.Application{app}, nil)
		repo.On("CountPaymentOverdue", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(3), nil)
		repo.On("MonthlyCounts", mock.Anything, mock.AnythingOfType("time.Time"), 12).Return([]vehiclereg.MonthlyCount{
			{Month: "2026-08", Count: 17},
		}, nil)

		req := httptest.NewRequest("GET", "/api/v1/vehicle-reg/dashboard/stats", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool                         `json:"success"`
			Data    vehicleregapp.DashboardStats `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, int64(42), resp.Data.Total)
		assert.Equal(t, int64(3), resp.Data.PaymentOverdue)
		// every lifecycle status is present, counted or not
		assert.Len(t, resp.Data.ByStatus, len(vehiclereg.AllStatuses()))
		assert.Equal(t, int64(30), resp.Data.ByStatus["SUBMITTED"])
		assert.Equal(t, int64(0), resp.Data.ByStatus["DECLINED"])
		require.Len(t, resp.Data.RecentApplications, 1)
		assert.Equal(t, "VREG-2026-ABCDEFGHJKLM", resp.Data.RecentApplications[0].ReferenceCode)
		require.Len(t, resp.Data.MonthlyStats, 1)
		assert.Equal(t, int64(17), resp.Data.MonthlyStats[0].Count)
	})

	t.Run("propagates repository failures", func(t *testing.T) {
		router, repo := setupDashboardTestRouter()
		repo.On("CountAll", mock.Anything).Return(int64(0), assert.AnError)

		req := httptest.NewRequest("GET", "/api/v1/vehicle-reg/dashboard/stats", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
