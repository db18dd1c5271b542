package vehiclereg

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/roads-authority/backend/internal/domain/shared"
	"github.com/roads-authority/backend/internal/domain/vehiclereg"
	"github.com/roads-authority/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SubmissionMetrics records application activity for telemetry.
// Implementations must be safe for concurrent use.
type SubmissionMetrics interface {
	RecordSubmission(ctx context.Context, documentContentType string, documentSize int64)
	RecordStatusTransition(ctx context.Context, fromStatus, toStatus string)
	RecordReferenceRetry(ctx context.Context)
}

// ApplicationService handles the registration application lifecycle
type ApplicationService struct {
	repo    vehiclereg.Repository
	storage DocumentStorage
	logger  *zap.Logger
	metrics SubmissionMetrics
	now     func() time.Time
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(repo vehiclereg.Repository, storage DocumentStorage, logger *zap.Logger) *ApplicationService {
	return &ApplicationService{
		repo:    repo,
		storage: storage,
		logger:  logger,
		now:     time.Now,
	}
}

// SetMetrics attaches a metrics recorder. Must be called before the service
// starts handling requests.
func (s *ApplicationService) SetMetrics(m SubmissionMetrics) {
	s.metrics = m
}

// Submit validates a public submission, stores its document, allocates a
// unique reference code and persists the application
func (s *ApplicationService) Submit(ctx context.Context, cmd *SubmitApplicationCommand) (*SubmitReceipt, error) {
	ctx, span := telemetry.StartSpan(ctx, "application.submit")
	defer span.End()

	if err := ValidateSubmission(cmd); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	documentURL, err := s.storage.Store(ctx, cmd.Document)
	if err != nil {
		s.logger.Error("document upload failed", zap.Error(err))
		telemetry.RecordError(span, err)
		return nil, shared.ErrStorage
	}

	referenceCode, err := s.allocateReferenceCode(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		// the document is already stored; remove it so nothing orphaned
		// points at a submission that never existed
		if delErr := s.storage.Delete(ctx, documentURL); delErr != nil {
			s.logger.Warn("orphaned document cleanup failed",
				zap.String("url", documentURL), zap.Error(delErr))
		}
		return nil, err
	}

	app, err := vehiclereg.NewApplication(toNewApplicationParams(cmd, referenceCode, documentURL))
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrApplicationID, app.ID.String())
	telemetry.SetAttribute(span, telemetry.SpanAttrReferenceCode, app.ReferenceCode)

	s.logger.Info("application submitted",
		zap.String("id", app.ID.String()),
		zap.String("reference", app.ReferenceCode))

	if s.metrics != nil {
		s.metrics.RecordSubmission(ctx, cmd.Document.ContentType, cmd.Document.Size)
	}

	receipt := ToSubmitReceipt(app)
	return &receipt, nil
}

// allocateReferenceCode draws candidate codes until one is unused. The
// retry budget failing means either a broken random source or a saturated
// code space; both warrant a hard error rather than a constraint violation
// at insert time.
func (s *ApplicationService) allocateReferenceCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < vehiclereg.MaxReferenceAttempts; attempt++ {
		code, err := vehiclereg.GenerateReferenceCode(s.now())
		if err != nil {
			return "", err
		}
		taken, err := s.repo.ExistsByReferenceCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
		if s.metrics != nil {
			s.metrics.RecordReferenceRetry(ctx)
		}
	}
	s.logger.Error("reference code allocation exhausted retries")
	return "", shared.ErrResourceExhausted
}

// Track returns the public projection for a reference code and PIN. The PIN
// is checked before the lookup so a wrong PIN reveals nothing about whether
// the reference exists.
func (s *ApplicationService) Track(ctx context.Context, referenceCode, pin string) (*TrackingResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "application.track")
	defer span.End()

	if !vehiclereg.VerifyTrackingPIN(strings.TrimSpace(pin)) {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Invalid PIN. Please check your PIN and try again.")
	}

	app, err := s.repo.FindByReferenceCode(ctx, strings.TrimSpace(referenceCode))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Application not found. Please check your reference ID.")
		}
		return nil, err
	}

	resp := ToTrackingResponse(app)
	return &resp, nil
}

// GetByID retrieves the full admin projection of an application
func (s *ApplicationService) GetByID(ctx context.Context, id uuid.UUID) (*ApplicationResponse, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToApplicationResponse(app)
	return &resp, nil
}

// List retrieves a filtered, paginated admin listing
func (s *ApplicationService) List(ctx context.Context, req ListFilterRequest) (*shared.Paginated[ApplicationListItem], error) {
	filter := vehiclereg.ListFilter{Filter: shared.DefaultFilter()}
	filter.Search = strings.TrimSpace(req.Search)
	filter.AssignedTo = req.AssignedTo
	if req.Page > 0 {
		filter.Page = req.Page
	}
	if req.PageSize > 0 {
		filter.PageSize = req.PageSize
	}
	if req.OrderBy != "" {
		filter.OrderBy = req.OrderBy
	}
	if req.OrderDir != "" {
		filter.OrderDir = req.OrderDir
	}
	if req.Status != nil {
		status := vehiclereg.Status(*req.Status)
		if !status.IsValid() {
			return nil, shared.NewValidationError("Unknown status filter")
		}
		filter.Status = &status
	}
	if req.Priority != nil {
		priority := vehiclereg.Priority(*req.Priority)
		if !priority.IsValid() {
			return nil, shared.NewValidationError("Unknown priority filter")
		}
		filter.Priority = &priority
	}
	if req.StartDate != "" {
		from, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, shared.NewValidationError("Start date must be formatted as YYYY-MM-DD")
		}
		filter.SubmittedFrom = &from
	}
	if req.EndDate != "" {
		to, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			return nil, shared.NewValidationError("End date must be formatted as YYYY-MM-DD")
		}
		// inclusive through the end of the named day
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.SubmittedTo = &to
	}
	filter.Normalize()

	page, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]ApplicationListItem, 0, len(page.Items))
	for _, app := range page.Items {
		items = append(items, ToApplicationListItem(app))
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// ListRecent retrieves the most recently submitted applications
func (s *ApplicationService) ListRecent(ctx context.Context, limit int) ([]TrackingResponse, error) {
	if limit <= 0 {
		limit = 100
	}
	apps, err := s.repo.FindRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]TrackingResponse, 0, len(apps))
	for _, app := range apps {
		out = append(out, ToTrackingResponse(app))
	}
	return out, nil
}

// UpdateStatus applies the generic admin status transition
func (s *ApplicationService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*ApplicationResponse, error) {
	return s.mutate(ctx, id, func(app *vehiclereg.Application) error {
		return app.ApplyStatusChange(req.Status, req.ChangedBy, req.Comment, s.now())
	})
}

// MarkPaymentReceived records receipt of the application fee
func (s *ApplicationService) MarkPaymentReceived(ctx context.Context, id uuid.UUID, req MarkPaymentReceivedRequest) (*ApplicationResponse, error) {
	return s.mutate(ctx, id, func(app *vehiclereg.Application) error {
		app.MarkPaymentReceived(req.ChangedBy, s.now())
		return nil
	})
}

// MarkRegistered completes registration of the vehicle
func (s *ApplicationService) MarkRegistered(ctx context.Context, id uuid.UUID, req MarkRegisteredRequest) (*ApplicationResponse, error) {
	return s.mutate(ctx, id, func(app *vehiclereg.Application) error {
		app.MarkRegistered(req.ChangedBy, req.RegistrationNumber, s.now())
		return nil
	})
}

// UpdateAdminComments replaces the admin comments on an application
func (s *ApplicationService) UpdateAdminComments(ctx context.Context, id uuid.UUID, req UpdateAdminCommentsRequest) (*ApplicationResponse, error) {
	return s.mutate(ctx, id, func(app *vehiclereg.Application) error {
		app.SetAdminComments(req.AdminComments, req.ChangedBy, s.now())
		return nil
	})
}

// AssignToAdmin hands an application to a named admin
func (s *ApplicationService) AssignToAdmin(ctx context.Context, id uuid.UUID, req AssignRequest) (*ApplicationResponse, error) {
	return s.mutate(ctx, id, func(app *vehiclereg.Application) error {
		app.AssignTo(req.AssignedTo)
		return nil
	})
}

// SetPriority sets the processing priority of an application
func (s *ApplicationService) SetPriority(ctx context.Context, id uuid.UUID, req SetPriorityRequest) (*ApplicationResponse, error) {
	return s.mutate(ctx, id, func(app *vehiclereg.Application) error {
		return app.SetPriority(req.Priority)
	})
}

// mutate loads an application, applies a domain mutation and persists it
// guarded by the loaded version
func (s *ApplicationService) mutate(ctx context.Context, id uuid.UUID, fn func(*vehiclereg.Application) error) (*ApplicationResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "application.update",
		telemetry.WithAttribute(telemetry.SpanAttrApplicationID, id.String()))
	defer span.End()

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	before := app.Status
	if err := fn(app); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.repo.UpdateWithVersion(ctx, app); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrStatus, string(app.Status))
	if s.metrics != nil && app.Status != before {
		s.metrics.RecordStatusTransition(ctx, string(before), string(app.Status))
	}
	resp := ToApplicationResponse(app)
	return &resp, nil
}
