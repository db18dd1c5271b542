package vehiclereg

import (
	"context"
	"time"

	"github.com/roads-authority/backend/internal/domain/vehiclereg"
)

// MonthlyStatsWindow is the trailing window reported by the dashboard
const MonthlyStatsWindow = 12

// DashboardStats is the admin dashboard aggregate
type DashboardStats struct {
	Total              int64                     `json:"total"`
	ByStatus           map[string]int64          `json:"byStatus"`
	RecentApplications []ApplicationListItem     `json:"recentApplications"`
	PaymentOverdue     int64                     `json:"paymentOverdue"`
	MonthlyStats       []vehiclereg.MonthlyCount `json:"monthlyStats"`
}

// StatsService aggregates dashboard statistics
type StatsService struct {
	repo vehiclereg.Repository
	now  func() time.Time
}

// NewStatsService creates a new StatsService
func NewStatsService(repo vehiclereg.Repository) *StatsService {
	return &StatsService{repo: repo, now: time.Now}
}

// Dashboard computes the admin dashboard aggregate. The by-status map is
// zero-filled over every lifecycle status so dashboard widgets never have
// to special-case missing keys; the monthly series only carries months
// that saw submissions.
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := s.now()

	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int64, len(vehiclereg.AllStatuses()))
	for _, status := range vehiclereg.AllStatuses() {
		byStatus[status.String()] = 0
	}
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	for status, count := range counts {
		byStatus[status.String()] = count
	}

	recent, err := s.repo.FindRecent(ctx, 5)
	if err != nil {
		return nil, err
	}
	recentItems := make([]ApplicationListItem, 0, len(recent))
	for _, app := range recent {
		recentItems = append(recentItems, ToApplicationListItem(app))
	}

	overdue, err := s.repo.CountPaymentOverdue(ctx, now)
	if err != nil {
		return nil, err
	}

	monthly, err := s.repo.MonthlyCounts(ctx, now, MonthlyStatsWindow)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		Total:              total,
		ByStatus:           byStatus,
		RecentApplications: recentItems,
		PaymentOverdue:     overdue,
		MonthlyStats:       monthly,
	}, nil
}
