package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roads-authority/backend/internal/domain/shared"
	"github.com/roads-authority/backend/internal/domain/vehiclereg"
	"github.com/roads-authority/backend/internal/infrastructure/persistence"
)

// newTestApplication builds a personal application with a unique reference
// code. Mutators adjust individual fields before construction.
func newTestApplication(t *testing.T, mutate ...func(*vehiclereg.NewApplicationParams)) *vehiclereg.Application {
	t.Helper()

	code, err := vehiclereg.GenerateReferenceCode(time.Now())
	require.NoError(t, err)

	params := vehiclereg.NewApplicationParams{
		ReferenceCode:        code,
		TrackingPin:          vehiclereg.TrackingPIN,
		IDType:               vehiclereg.IDTypeNamibiaID,
		IdentificationNumber: "85010100123",
		PersonType:           vehiclereg.PersonTypeMale,
		Surname:              "Shikongo",
		Initials:             "T N",
		PostalAddress:        vehiclereg.Address{Line1: "P.O. Box 1234", Line2: "Windhoek"},
		StreetAddress:        vehiclereg.Address{Line1: "12 Independence Ave", Line2: "Windhoek"},
		DeclarationPlace:     "Windhoek",
		Make:                 "Toyota",
		SeriesName:           "Hilux",
		ChassisNumber:        "AHTFR22G506001234",
		DrivenType:           vehiclereg.DrivenTypeSelfPropelled,
		FuelType:             vehiclereg.FuelTypeDiesel,
		Transmission:         vehiclereg.TransmissionManual,
		MainColour:           vehiclereg.MainColourWhite,
		OwnershipType:        vehiclereg.OwnershipPrivate,
		UsedOnPublicRoad:     true,
		PaymentAmount:        decimal.NewFromInt(150),
		PaymentMethod:        "bank transfer",
		PaymentReference:     "FNB-778812",
		DocumentURL:          "applications/2026/doc-1.pdf",
	}
	for _, m := range mutate {
		m(&params)
	}

	app, err := vehiclereg.NewApplication(params)
	require.NoError(t, err)
	return app
}

// backdate rewrites created_at directly; GORM stamps it on insert so tests
// that depend on submission times have to adjust the row afterwards.
func backdate(t *testing.T, testDB *TestDB, id uuid.UUID, createdAt time.Time) {
	t.Helper()
	err := testDB.DB.Exec(
		"UPDATE vehicle_reg_applications SET created_at = ? WHERE id = ?",
		createdAt, id).Error
	require.NoError(t, err)
}

// TestApplicationRepository_Integration tests the GormApplicationRepository
// against a real PostgreSQL database
func TestApplicationRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormApplicationRepository(testDB.DB)
	ctx := context.Background()

	t.Run("Create and FindByID", func(t *testing.T) {
		app := newTestApplication(t)

		err := repo.Create(ctx, app)
		require.NoError(t, err)

		found, err := repo.FindByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, app.ID, found.ID)
		assert.Equal(t, app.ReferenceCode, found.ReferenceCode)
		assert.Equal(t, vehiclereg.StatusSubmitted, found.Status)
		assert.Equal(t, "Shikongo", found.Surname)
		assert.Equal(t, "AHTFR22G506001234", found.ChassisNumber)
		assert.True(t, app.PaymentAmount.Equal(found.PaymentAmount))

		require.Len(t, found.StatusHistory, 1)
		assert.Equal(t, vehiclereg.StatusSubmitted, found.StatusHistory[0].Status)
		assert.Equal(t, vehiclereg.SystemActor, found.StatusHistory[0].ChangedBy)
	})

	t.Run("Create with duplicate reference code", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, repo.Create(ctx, app))

		dup := newTestApplication(t, func(p *vehiclereg.NewApplicationParams) {
			p.ReferenceCode = app.ReferenceCode
		})
		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("FindByID not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("FindByReferenceCode is case-insensitive", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, repo.Create(ctx, app))

		found, err := repo.FindByReferenceCode(ctx, app.ReferenceCode)
		require.NoError(t, err)
		assert.Equal(t, app.ID, found.ID)

		// codes copied from paper come back in any casing
		lower, err := repo.FindByReferenceCode(ctx, "vreg-"+app.ReferenceCode[5:])
		require.NoError(t, err)
		assert.Equal(t, app.ID, lower.ID)

		_, err = repo.FindByReferenceCode(ctx, "VREG-2026-ZZZZZZZZZZZZ")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("ExistsByReferenceCode", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, repo.Create(ctx, app))

		exists, err := repo.ExistsByReferenceCode(ctx, app.ReferenceCode)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByReferenceCode(ctx, "VREG-2026-YYYYYYYYYYYY")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("UpdateWithVersion persists status and history", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, repo.Create(ctx, app))
		require.Equal(t, 1, app.Version)

		err := app.ApplyStatusChange(vehiclereg.StatusUnderReview, "admin@ra.test", "Checking documents", time.Now())
		require.NoError(t, err)

		err = repo.UpdateWithVersion(ctx, app)
		require.NoError(t, err)
		assert.Equal(t, 2, app.Version)

		found, err := repo.FindByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, vehiclereg.StatusUnderReview, found.Status)
		assert.Equal(t, 2, found.Version)
		require.Len(t, found.StatusHistory, 2)
		assert.Equal(t, vehiclereg.StatusUnderReview, found.StatusHistory[1].Status)
		assert.Equal(t, "admin@ra.test", found.StatusHistory[1].ChangedBy)
		assert.Equal(t, "Checking documents", found.StatusHistory[1].Comment)
	})

	t.Run("UpdateWithVersion approval starts payment window", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, repo.Create(ctx, app))

		now := time.Now()
		err := app.ApplyStatusChange(vehiclereg.StatusApproved, "admin@ra.test", "", now)
		require.NoError(t, err)
		require.NoError(t, repo.UpdateWithVersion(ctx, app))

		found, err := repo.FindByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, vehiclereg.StatusPaymentPending, found.Status)
		require.NotNil(t, found.PaymentDeadline)
		assert.WithinDuration(t, vehiclereg.PaymentDeadlineFrom(now), *found.PaymentDeadline, time.Second)
	})

	t.Run("UpdateWithVersion with stale version", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, repo.Create(ctx, app))

		// two admins load the same row
		first, err := repo.FindByID(ctx, app.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, app.ID)
		require.NoError(t, err)

		require.NoError(t, first.ApplyStatusChange(vehiclereg.StatusUnderReview, "admin-a", "", time.Now()))
		require.NoError(t, repo.UpdateWithVersion(ctx, first))

		require.NoError(t, second.ApplyStatusChange(vehiclereg.StatusDeclined, "admin-b", "", time.Now()))
		err = repo.UpdateWithVersion(ctx, second)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		found, err := repo.FindByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, vehiclereg.StatusUnderReview, found.Status)
	})

	t.Run("UpdateWithVersion with missing row", func(t *testing.T) {
		app := newTestApplication(t)
		// never persisted
		err := repo.UpdateWithVersion(ctx, app)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("MarkPaymentReceived and MarkRegistered round trip", func(t *testing.T) {
		app := newTestApplication(t)
		require.NoError(t, repo.Create(ctx, app))

		app.MarkPaymentReceived("cashier", time.Now())
		require.NoError(t, repo.UpdateWithVersion(ctx, app))

		app.MarkRegistered("registrar", "N 12345 W", time.Now())
		require.NoError(t, repo.UpdateWithVersion(ctx, app))

		found, err := repo.FindByID(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, vehiclereg.StatusRegistered, found.Status)
		assert.Equal(t, "N 12345 W", found.RegistrationNumberAssigned)
		assert.NotNil(t, found.PaymentReceivedAt)
		assert.NotNil(t, found.RegistrationDate)
		assert.Equal(t, 3, found.Version)
		assert.Len(t, found.StatusHistory, 3)
	})
}

// TestApplicationRepository_Listing_Integration exercises the filtered,
// paginated admin listing and the public recent feed
func TestApplicationRepository_Listing_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormApplicationRepository(testDB.DB)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	// five personal applications spaced a day apart, one of them declined
	var apps []*vehiclereg.Application
	for i := 0; i < 5; i++ {
		app := newTestApplication(t, func(p *vehiclereg.NewApplicationParams) {
			p.Surname = fmt.Sprintf("Applicant%d", i)
			p.ChassisNumber = fmt.Sprintf("CHS%05d", i)
		})
		require.NoError(t, repo.Create(ctx, app))
		backdate(t, testDB, app.ID, base.AddDate(0, 0, i))
		apps = append(apps, app)
	}
	require.NoError(t, apps[2].ApplyStatusChange(vehiclereg.StatusDeclined, "admin", "incomplete", time.Now()))
	require.NoError(t, repo.UpdateWithVersion(ctx, apps[2]))

	// one business application for the search cases
	business := newTestApplication(t, func(p *vehiclereg.NewApplicationParams) {
		p.IDType = vehiclereg.IDTypeBusinessRegNo
		p.Surname = ""
		p.Initials = ""
		p.BusinessName = "Kalahari Logistics CC"
		p.Make = "Scania"
		p.SeriesName = "R450"
		p.ChassisNumber = "SCN44500987"
	})
	require.NoError(t, repo.Create(ctx, business))
	backdate(t, testDB, business.ID, base.AddDate(0, 0, 10))

	t.Run("List without filters pages newest first", func(t *testing.T) {
		page, err := repo.List(ctx, vehiclereg.ListFilter{
			Filter: shared.Filter{Page: 1, PageSize: 4},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(6), page.Total)
		require.Len(t, page.Items, 4)
		assert.Equal(t, business.ID, page.Items[0].ID)
		assert.Equal(t, 2, page.TotalPages)

		second, err := repo.List(ctx, vehiclereg.ListFilter{
			Filter: shared.Filter{Page: 2, PageSize: 4},
		})
		require.NoError(t, err)
		require.Len(t, second.Items, 2)
	})

	t.Run("List filters by status", func(t *testing.T) {
		status := vehiclereg.StatusDeclined
		page, err := repo.List(ctx, vehiclereg.ListFilter{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, apps[2].ID, page.Items[0].ID)
	})

	t.Run("List searches across applicant and vehicle fields", func(t *testing.T) {
		bySurname, err := repo.List(ctx, vehiclereg.ListFilter{
			Filter: shared.Filter{Search: "applicant3"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), bySurname.Total)

		byBusiness, err := repo.List(ctx, vehiclereg.ListFilter{
			Filter: shared.Filter{Search: "kalahari"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), byBusiness.Total)
		assert.Equal(t, business.ID, byBusiness.Items[0].ID)

		byChassis, err := repo.List(ctx, vehiclereg.ListFilter{
			Filter: shared.Filter{Search: "chs0000"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(5), byChassis.Total)

		byMake, err := repo.List(ctx, vehiclereg.ListFilter{
			Filter: shared.Filter{Search: "scania"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), byMake.Total)

		none, err := repo.List(ctx, vehiclereg.ListFilter{
			Filter: shared.Filter{Search: "nonexistent"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), none.Total)
		assert.Empty(t, none.Items)
	})

	t.Run("List filters by submission window", func(t *testing.T) {
		from := base.AddDate(0, 0, 1)
		to := base.AddDate(0, 0, 3)
		page, err := repo.List(ctx, vehiclereg.ListFilter{
			SubmittedFrom: &from,
			SubmittedTo:   &to,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
	})

	t.Run("List rejects unknown sort fields", func(t *testing.T) {
		// an unknown order_by must fall back instead of reaching SQL
		page, err := repo.List(ctx, vehiclereg.ListFilter{
			Filter: shared.Filter{OrderBy: "surname; DROP TABLE vehicle_reg_applications"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(6), page.Total)
	})

	t.Run("FindRecent returns newest submissions first", func(t *testing.T) {
		recent, err := repo.FindRecent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, recent, 3)
		assert.Equal(t, business.ID, recent[0].ID)
		assert.Equal(t, apps[4].ID, recent[1].ID)
		assert.Equal(t, apps[3].ID, recent[2].ID)
	})
}

// TestApplicationRepository_Stats_Integration exercises the dashboard
// aggregation queries
func TestApplicationRepository_Stats_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := NewTestDB(t)
	repo := persistence.NewGormApplicationRepository(testDB.DB)
	ctx := context.Background()

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	seed := func(mutate func(*vehiclereg.Application), createdAt time.Time) *vehiclereg.Application {
		app := newTestApplication(t)
		if mutate != nil {
			mutate(app)
		}
		require.NoError(t, repo.Create(ctx, app))
		backdate(t, testDB, app.ID, createdAt)
		return app
	}

	overdue := now.AddDate(0, 0, -30)
	withinWindow := now.AddDate(0, 0, 10)

	seed(nil, now.AddDate(0, -2, 0))
	seed(nil, now.AddDate(0, -1, 0))
	seed(func(a *vehiclereg.Application) {
		a.Status = vehiclereg.StatusPaymentPending
		a.PaymentDeadline = &overdue
	}, now.AddDate(0, -1, 0))
	seed(func(a *vehiclereg.Application) {
		a.Status = vehiclereg.StatusPaymentPending
		a.PaymentDeadline = &withinWindow
	}, now)
	seed(func(a *vehiclereg.Application) {
		a.Status = vehiclereg.StatusRegistered
	}, now)

	t.Run("CountAll", func(t *testing.T) {
		count, err := repo.CountAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), count)
	})

	t.Run("CountByStatus", func(t *testing.T) {
		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[vehiclereg.StatusSubmitted])
		assert.Equal(t, int64(2), counts[vehiclereg.StatusPaymentPending])
		assert.Equal(t, int64(1), counts[vehiclereg.StatusRegistered])
		assert.NotContains(t, counts, vehiclereg.StatusDeclined)
	})

	t.Run("CountPaymentOverdue", func(t *testing.T) {
		count, err := repo.CountPaymentOverdue(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("MonthlyCounts", func(t *testing.T) {
		series, err := repo.MonthlyCounts(ctx, now, 6)
		require.NoError(t, err)
		require.Len(t, series, 3)
		assert.Equal(t, vehiclereg.MonthlyCount{Month: "2026-07", Count: 1}, series[0])
		assert.Equal(t, vehiclereg.MonthlyCount{Month: "2026-08", Count: 2}, series[1])
		assert.Equal(t, vehiclereg.MonthlyCount{Month: "2026-09", Count: 2}, series[2])
	})

	t.Run("MonthlyCounts respects the cutoff", func(t *testing.T) {
		series, err := repo.MonthlyCounts(ctx, now, 2)
		require.NoError(t, err)
		require.Len(t, series, 2)
		assert.Equal(t, "2026-08", series[0].Month)
		assert.Equal(t, "2026-09", series[1].Month)
	})
}
