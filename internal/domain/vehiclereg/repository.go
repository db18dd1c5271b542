package vehiclereg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/roads-authority/backend/internal/domain/shared"
)

// ListFilter narrows admin listing queries. The embedded filter carries
// pagination and the free-text search term; Search matches the reference
// code, applicant names, identification number and vehicle identifiers.
type ListFilter struct {
	shared.Filter
	Status        *Status
	Priority      *Priority
	AssignedTo    string
	SubmittedFrom *time.Time
	SubmittedTo   *time.Time
}

// MonthlyCount is one point in the trailing submission-volume series
type MonthlyCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int64  `json:"count"`
}

// Repository defines the persistence operations for applications
type Repository interface {
	// Create persists a new application
	Create(ctx context.Context, app *Application) error

	// FindByID retrieves an application by its internal ID
	FindByID(ctx context.Context, id uuid.UUID) (*Application, error)

	// FindByReferenceCode retrieves an application by its public reference
	// code, matched case-insensitively
	FindByReferenceCode(ctx context.Context, code string) (*Application, error)

	// ExistsByReferenceCode reports whether a reference code is taken
	ExistsByReferenceCode(ctx context.Context, code string) (bool, error)

	// List retrieves a filtered, paginated page of applications
	List(ctx context.Context, filter ListFilter) (shared.Paginated[*Application], error)

	// FindRecent retrieves the most recently submitted applications
	FindRecent(ctx context.Context, limit int) ([]*Application, error)

	// UpdateWithVersion persists the aggregate guarded by its version:
	// the row is written only if the stored version still matches the
	// version the aggregate was loaded with. On success the version is
	// incremented; on a stale version shared.ErrConcurrencyConflict is
	// returned.
	UpdateWithVersion(ctx context.Context, app *Application) error

	// CountAll returns the total number of applications
	CountAll(ctx context.Context) (int64, error)

	// CountByStatus returns application counts grouped by status. Statuses
	// with no applications are absent from the map.
	CountByStatus(ctx context.Context) (map[Status]int64, error)

	// CountPaymentOverdue counts PAYMENT_PENDING applications whose
	// deadline lies before now
	CountPaymentOverdue(ctx context.Context, now time.Time) (int64, error)

	// MonthlyCounts returns submission counts per calendar month for the
	// trailing months window ending at now
	MonthlyCounts(ctx context.Context, now time.Time, months int) ([]MonthlyCount, error)
}
