package vehiclereg

import (
	"context"
	"testing"
	"time"

	"github.com/roads-authority/backend/internal/domain/vehiclereg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStatsService_Dashboard(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)

	repo := new(MockRepository)
	svc := NewStatsService(repo)
	svc.now = func() time.Time { return now }

	app := storedApplication(t)

	repo.On("CountAll", ctx).Return(int64(42), nil)
	repo.On("CountByStatus", ctx).Return(map[vehiclereg.Status]int64{
		vehiclereg.StatusSubmitted:  30,
		vehiclereg.StatusRegistered: 12,
	}, nil)
	repo.On("FindRecent", ctx, 5).Return([]*vehiclereg.Application{app}, nil)
	repo.On("CountPaymentOverdue", ctx, now).Return(int64(3), nil)
	repo.On("MonthlyCounts", ctx, now, MonthlyStatsWindow).Return([]vehiclereg.MonthlyCount{
		{Month: "2026-06", Count: 7},
		{Month: "2026-07", Count: 2},
	}, nil)

	stats, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(42), stats.Total)
	assert.Equal(t, int64(3), stats.PaymentOverdue)
	require.Len(t, stats.RecentApplications, 1)
	require.Len(t, stats.MonthlyStats, 2)

	// every status key is present, zero-filled where the store had no rows
	require.Len(t, stats.ByStatus, len(vehiclereg.AllStatuses()))
	assert.Equal(t, int64(30), stats.ByStatus["SUBMITTED"])
	assert.Equal(t, int64(12), stats.ByStatus["REGISTERED"])
	assert.Equal(t, int64(0), stats.ByStatus["PAYMENT_PENDING"])
	assert.Equal(t, int64(0), stats.ByStatus["EXPIRED"])

	repo.AssertExpectations(t)
}

func TestStatsService_Dashboard_RepoFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewStatsService(repo)

	repo.On("CountAll", ctx).Return(int64(0), assert.AnError)

	_, err := svc.Dashboard(ctx)
	assert.Error(t, err)
	repo.AssertNotCalled(t, "CountByStatus", mock.Anything)
}
