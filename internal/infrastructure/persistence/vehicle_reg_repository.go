package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/roads-authority/backend/internal/domain/shared"
	"github.com/roads-authority/backend/internal/domain/vehiclereg"
	"gorm.io/gorm"
)

// GormApplicationRepository implements vehiclereg.Repository using GORM
type GormApplicationRepository struct {
	db *gorm.DB
}

// NewGormApplicationRepository creates a new GormApplicationRepository
func NewGormApplicationRepository(db *gorm.DB) *GormApplicationRepository {
	return &GormApplicationRepository{db: db}
}

// Create persists a new application
func (r *GormApplicationRepository) Create(ctx context.Context, app *vehiclereg.Application) error {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds an application by its internal ID
func (r *GormApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehiclereg.Application, error) {
	var app vehiclereg.Application
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}

// FindByReferenceCode finds an application by its public reference code.
// ILIKE without wildcards gives case-insensitive equality, so codes copied
// from paper forms in any casing resolve.
func (r *GormApplicationRepository) FindByReferenceCode(ctx context.Context, code string) (*vehiclereg.Application, error) {
	var app vehiclereg.Application
	if err := r.db.WithContext(ctx).
		Where("reference_code ILIKE ?", code).
		First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &app, nil
}

// ExistsByReferenceCode reports whether a reference code is taken
func (r *GormApplicationRepository) ExistsByReferenceCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&vehiclereg.Application{}).
		Where("reference_code ILIKE ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List finds a filtered, paginated page of applications
func (r *GormApplicationRepository) List(ctx context.Context, filter vehiclereg.ListFilter) (shared.Paginated[*vehiclereg.Application], error) {
	filter.Normalize()

	var total int64
	countQuery := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&vehiclereg.Application{}), filter)
	if err := countQuery.Count(&total).Error; err != nil {
		return shared.Paginated[*vehiclereg.Application]{}, err
	}

	var apps []*vehiclereg.Application
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&vehiclereg.Application{}), filter)

	orderBy := ValidateSortField(filter.OrderBy, ApplicationSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.PageSize)

	if err := query.Find(&apps).Error; err != nil {
		return shared.Paginated[*vehiclereg.Application]{}, err
	}

	return shared.NewPaginated(apps, total, filter.Page, filter.PageSize), nil
}

// FindRecent finds the most recently submitted applications
func (r *GormApplicationRepository) FindRecent(ctx context.Context, limit int) ([]*vehiclereg.Application, error) {
	var apps []*vehiclereg.Application
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdateWithVersion persists the mutable fields of the aggregate guarded by
// its version. Status and history travel in the same statement so the audit
// trail can never drift from the status column.
func (r *GormApplicationRepository) UpdateWithVersion(ctx context.Context, app *vehiclereg.Application) error {
	currentVersion := app.Version
	result := r.db.WithContext(ctx).
		Model(&vehiclereg.Application{}).
		Where("id = ? AND version = ?", app.ID, currentVersion).
		Updates(map[string]interface{}{
			"status":                       app.Status,
			"status_history":               app.StatusHistory,
			"payment_deadline":             app.PaymentDeadline,
			"payment_received_at":          app.PaymentReceivedAt,
			"registration_date":            app.RegistrationDate,
			"registration_number_assigned": app.RegistrationNumberAssigned,
			"admin_comments":               app.AdminComments,
			"assigned_to":                  app.AssignedTo,
			"priority":                     app.Priority,
			"version":                      currentVersion + 1,
			"updated_at":                   app.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// either the row is gone or someone got there first
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&vehiclereg.Application{}).
			Where("id = ?", app.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	app.Version = currentVersion + 1
	return nil
}

// CountAll counts all applications
func (r *GormApplicationRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&vehiclereg.Application{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts applications grouped by status
func (r *GormApplicationRepository) CountByStatus(ctx context.Context) (map[vehiclereg.Status]int64, error) {
	var rows []struct {
		Status vehiclereg.Status
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&vehiclereg.Application{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[vehiclereg.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountPaymentOverdue counts PAYMENT_PENDING applications past their deadline
func (r *GormApplicationRepository) CountPaymentOverdue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&vehiclereg.Application{}).
		Where("status = ? AND payment_deadline < ?", vehiclereg.StatusPaymentPending, now).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MonthlyCounts returns submission counts per calendar month for the
// trailing window ending at now. Months without submissions are absent.
func (r *GormApplicationRepository) MonthlyCounts(ctx context.Context, now time.Time, months int) ([]vehiclereg.MonthlyCount, error) {
	cutoff := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).
		AddDate(0, -(months - 1), 0)

	var rows []vehiclereg.MonthlyCount
	if err := r.db.WithContext(ctx).
		Model(&vehiclereg.Application{}).
		Select("to_char(date_trunc('month', created_at), 'YYYY-MM') AS month, COUNT(*) AS count").
		Where("created_at >= ?", cutoff).
		Group("1").
		Order("1 ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// applyFilterWithoutPagination applies search and field filters
func (r *GormApplicationRepository) applyFilterWithoutPagination(query *gorm.DB, filter vehiclereg.ListFilter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"reference_code ILIKE ? OR surname ILIKE ? OR business_name ILIKE ? OR identification_number ILIKE ? OR make ILIKE ? OR series_name ILIKE ? OR chassis_number ILIKE ?",
			pattern, pattern, pattern, pattern, pattern, pattern, pattern)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.AssignedTo != "" {
		query = query.Where("assigned_to = ?", filter.AssignedTo)
	}
	if filter.SubmittedFrom != nil {
		query = query.Where("created_at >= ?", *filter.SubmittedFrom)
	}
	if filter.SubmittedTo != nil {
		query = query.Where("created_at <= ?", *filter.SubmittedTo)
	}
	return query
}

// Ensure GormApplicationRepository implements vehiclereg.Repository
var _ vehiclereg.Repository = (*GormApplicationRepository)(nil)
