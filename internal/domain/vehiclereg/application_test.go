package vehiclereg

import (
	"testing"
	"time"

	"github.com/roads-authority/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helpers
func personalParams() NewApplicationParams {
	return NewApplicationParams{
		ReferenceCode:        "VREG-2026-ABCDEFGHJKLM",
		TrackingPin:          TrackingPIN,
		IDType:               IDTypeNamibiaID,
		IdentificationNumber: "85010100123",
		PersonType:           PersonTypeMale,
		Surname:              "Shikongo",
		Initials:             "T N",
		PostalAddress:        Address{Line1: "P.O. Box 1234", Line2: "Windhoek"},
		StreetAddress:        Address{Line1: "12 Independence Ave", Line2: "Windhoek"},
		DeclarationPlace:     "Windhoek",
		Make:                 "Toyota",
		SeriesName:           "Hilux",
		DrivenType:           DrivenTypeSelfPropelled,
		FuelType:             FuelTypeDiesel,
		Transmission:         TransmissionManual,
		MainColour:           MainColourWhite,
		OwnershipType:        OwnershipPrivate,
		UsedOnPublicRoad:     true,
		PaymentAmount:        decimal.NewFromInt(150),
		PaymentMethod:        "bank transfer",
		PaymentReference:     "FNB-778812",
		DocumentURL:          "applications/2026/doc-1.pdf",
	}
}

func createTestApplication(t *testing.T) *Application {
	app, err := NewApplication(personalParams())
	require.NoError(t, err)
	return app
}

// ============================================
// Status Tests
// ============================================

func TestStatus_IsValid(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.True(t, s.IsValid(), s.String())
	}
	assert.False(t, Status("SHIPPED").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusSubmitted, false},
		{StatusUnderReview, false},
		{StatusApproved, false},
		{StatusPaymentPending, false},
		{StatusPaid, false},
		{StatusDeclined, true},
		{StatusRegistered, true},
		{StatusExpired, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestStatus_IsAdminTransitionTarget(t *testing.T) {
	tests := []struct {
		status  Status
		allowed bool
	}{
		{StatusSubmitted, true},
		{StatusUnderReview, true},
		{StatusApproved, true},
		{StatusDeclined, true},
		{StatusPaymentPending, false},
		{StatusPaid, false},
		{StatusRegistered, false},
		{StatusExpired, false},
		{Status("INVALID"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.status.IsAdminTransitionTarget())
		})
	}
}

// ============================================
// NewApplication Tests
// ============================================

func TestNewApplication(t *testing.T) {
	t.Run("creates application in SUBMITTED with initial history", func(t *testing.T) {
		app := createTestApplication(t)

		assert.Equal(t, StatusSubmitted, app.Status)
		assert.Equal(t, PriorityNormal, app.Priority)
		assert.Equal(t, 1, app.GetVersion())
		assert.True(t, app.DeclarationAccepted)
		assert.Equal(t, DeclarationRoleOwner, app.DeclarationRole)
		assert.Nil(t, app.PaymentDeadline)

		require.Len(t, app.StatusHistory, 1)
		entry := app.StatusHistory[0]
		assert.Equal(t, StatusSubmitted, entry.Status)
		assert.Equal(t, SystemActor, entry.ChangedBy)
		assert.Equal(t, "Application submitted", entry.Comment)
		assert.False(t, entry.Timestamp.IsZero())
	})

	t.Run("accepts business applicant", func(t *testing.T) {
		p := personalParams()
		p.IDType = IDTypeBusinessRegNo
		p.Surname = ""
		p.Initials = ""
		p.BusinessName = "Kalahari Logistics CC"
		p.PersonType = PersonTypeClosedCorporation

		app, err := NewApplication(p)
		require.NoError(t, err)
		assert.Equal(t, "Kalahari Logistics CC", app.FullName())
	})

	t.Run("rejects empty reference code", func(t *testing.T) {
		p := personalParams()
		p.ReferenceCode = ""
		_, err := NewApplication(p)
		assert.Error(t, err)
	})

	t.Run("rejects business applicant without business name", func(t *testing.T) {
		p := personalParams()
		p.IDType = IDTypeBusinessRegNo
		p.Surname = ""
		p.Initials = ""
		_, err := NewApplication(p)
		assert.Error(t, err)
	})

	t.Run("rejects personal applicant without surname", func(t *testing.T) {
		p := personalParams()
		p.Surname = ""
		_, err := NewApplication(p)
		assert.Error(t, err)
	})

	t.Run("rejects mixed identity groups", func(t *testing.T) {
		p := personalParams()
		p.BusinessName = "Kalahari Logistics CC"
		_, err := NewApplication(p)
		assert.Error(t, err)
	})

	t.Run("rejects missing document", func(t *testing.T) {
		p := personalParams()
		p.DocumentURL = ""
		_, err := NewApplication(p)
		assert.Error(t, err)
	})
}

// ============================================
// ApplyStatusChange Tests
// ============================================

func TestApplication_ApplyStatusChange(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("moves to UNDER_REVIEW and appends history", func(t *testing.T) {
		app := createTestApplication(t)

		err := app.ApplyStatusChange(StatusUnderReview, "admin@ra.na", "Docs look complete", now)
		require.NoError(t, err)

		assert.Equal(t, StatusUnderReview, app.Status)
		require.Len(t, app.StatusHistory, 2)
		entry := app.StatusHistory[1]
		assert.Equal(t, StatusUnderReview, entry.Status)
		assert.Equal(t, "admin@ra.na", entry.ChangedBy)
		assert.Equal(t, "Docs look complete", entry.Comment)
		assert.Equal(t, now, entry.Timestamp)
	})

	t.Run("APPROVED is overridden to PAYMENT_PENDING with deadline", func(t *testing.T) {
		app := createTestApplication(t)

		err := app.ApplyStatusChange(StatusApproved, "admin@ra.na", "", now)
		require.NoError(t, err)

		assert.Equal(t, StatusPaymentPending, app.Status)
		require.NotNil(t, app.PaymentDeadline)
		assert.Equal(t, now.AddDate(0, 0, 21), *app.PaymentDeadline)

		// history records the effective status, not the requested one
		require.Len(t, app.StatusHistory, 2)
		assert.Equal(t, StatusPaymentPending, app.StatusHistory[1].Status)
	})

	t.Run("rejects targets outside the admin set", func(t *testing.T) {
		for _, target := range []Status{StatusPaymentPending, StatusPaid, StatusRegistered, StatusExpired, Status("BOGUS")} {
			app := createTestApplication(t)
			err := app.ApplyStatusChange(target, "admin@ra.na", "", now)
			require.Error(t, err, target.String())

			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "VALIDATION_ERROR", domainErr.Code)
			assert.Len(t, app.StatusHistory, 1)
		}
	})

	t.Run("rejects transitions out of terminal statuses", func(t *testing.T) {
		app := createTestApplication(t)
		require.NoError(t, app.ApplyStatusChange(StatusDeclined, "admin@ra.na", "Incomplete form", now))

		err := app.ApplyStatusChange(StatusUnderReview, "admin@ra.na", "", now)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, StatusDeclined, app.Status)
		assert.Len(t, app.StatusHistory, 2)
	})
}

// ============================================
// Payment and Registration Tests
// ============================================

func TestApplication_MarkPaymentReceived(t *testing.T) {
	now := time.Date(2026, 3, 20, 14, 0, 0, 0, time.UTC)
	app := createTestApplication(t)

	app.MarkPaymentReceived("cashier@ra.na", now)

	assert.Equal(t, StatusPaid, app.Status)
	require.NotNil(t, app.PaymentReceivedAt)
	assert.Equal(t, now, *app.PaymentReceivedAt)

	entry := app.StatusHistory[len(app.StatusHistory)-1]
	assert.Equal(t, StatusPaid, entry.Status)
	assert.Equal(t, "Payment received", entry.Comment)
}

func TestApplication_MarkRegistered(t *testing.T) {
	now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	t.Run("records registration date and number", func(t *testing.T) {
		app := createTestApplication(t)

		app.MarkRegistered("registrar@ra.na", "N 12345 W", now)

		assert.Equal(t, StatusRegistered, app.Status)
		require.NotNil(t, app.RegistrationDate)
		assert.Equal(t, now, *app.RegistrationDate)
		assert.Equal(t, "N 12345 W", app.RegistrationNumberAssigned)

		entry := app.StatusHistory[len(app.StatusHistory)-1]
		assert.Equal(t, StatusRegistered, entry.Status)
		assert.Equal(t, "Vehicle registered", entry.Comment)
	})

	t.Run("keeps existing number when none supplied", func(t *testing.T) {
		app := createTestApplication(t)
		app.MarkRegistered("registrar@ra.na", "N 12345 W", now)
		app.RegistrationNumberAssigned = "N 12345 W"

		app.MarkRegistered("registrar@ra.na", "", now)
		assert.Equal(t, "N 12345 W", app.RegistrationNumberAssigned)
	})
}

// ============================================
// Admin Workspace Tests
// ============================================

func TestApplication_SetAdminComments(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)
	app := createTestApplication(t)

	app.SetAdminComments("Awaiting proof of payment", "admin@ra.na", now)

	assert.Equal(t, "Awaiting proof of payment", app.AdminComments)
	entry := app.StatusHistory[len(app.StatusHistory)-1]
	assert.Equal(t, StatusUnderReview, entry.Status)
	assert.Equal(t, "Admin comments updated", entry.Comment)
	assert.Equal(t, "admin@ra.na", entry.ChangedBy)
}

func TestApplication_AssignTo(t *testing.T) {
	app := createTestApplication(t)
	app.AssignTo("j.amukoto")
	assert.Equal(t, "j.amukoto", app.AssignedTo)
}

func TestApplication_SetPriority(t *testing.T) {
	app := createTestApplication(t)

	require.NoError(t, app.SetPriority(PriorityUrgent))
	assert.Equal(t, PriorityUrgent, app.Priority)

	err := app.SetPriority(Priority("CRITICAL"))
	assert.Error(t, err)
	assert.Equal(t, PriorityUrgent, app.Priority)
}

// ============================================
// Deadline Tests
// ============================================

func TestApplication_IsPaymentOverdue(t *testing.T) {
	approvedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("overdue past the deadline in PAYMENT_PENDING", func(t *testing.T) {
		app := createTestApplication(t)
		require.NoError(t, app.ApplyStatusChange(StatusApproved, "admin@ra.na", "", approvedAt))

		assert.False(t, app.IsPaymentOverdue(approvedAt.AddDate(0, 0, 21)))
		assert.True(t, app.IsPaymentOverdue(approvedAt.AddDate(0, 0, 21).Add(time.Second)))
	})

	t.Run("never overdue outside PAYMENT_PENDING", func(t *testing.T) {
		app := createTestApplication(t)
		require.NoError(t, app.ApplyStatusChange(StatusApproved, "admin@ra.na", "", approvedAt))
		app.MarkPaymentReceived("cashier@ra.na", approvedAt.AddDate(0, 0, 30))

		assert.False(t, app.IsPaymentOverdue(approvedAt.AddDate(0, 0, 60)))
	})

	t.Run("never overdue without a deadline", func(t *testing.T) {
		app := createTestApplication(t)
		assert.False(t, app.IsPaymentOverdue(time.Now().AddDate(1, 0, 0)))
	})
}
