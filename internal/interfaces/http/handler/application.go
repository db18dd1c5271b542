package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	vehicleregapp "github.com/roads-authority/backend/internal/application/vehiclereg"
	"github.com/roads-authority/backend/internal/interfaces/http/dto"
	"github.com/roads-authority/backend/internal/interfaces/http/middleware"
)

// ApplicationHandler handles registration application API endpoints, both
// the public applicant surface and the back-office admin surface
type ApplicationHandler struct {
	BaseHandler
	applications    *vehicleregapp.ApplicationService
	maxDocumentSize int64
	recentLimit     int
}

// NewApplicationHandler creates a new ApplicationHandler
func NewApplicationHandler(applications *vehicleregapp.ApplicationService, maxDocumentSize int64, recentLimit int) *ApplicationHandler {
	return &ApplicationHandler{
		applications:    applications,
		maxDocumentSize: maxDocumentSize,
		recentLimit:     recentLimit,
	}
}

// Submit accepts a public submission as multipart form data: an
// `application` part carrying the form JSON and a `document` part carrying
// the certified ID document. Field validation happens in the application
// layer so the first failing form field wins; the handler only decodes.
func (h *ApplicationHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	payload := c.Request.FormValue("application")
	if payload == "" {
		h.BadRequest(c, "application form data is required")
		return
	}

	var req SubmitApplicationRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		h.BadRequest(c, "Invalid application form data: "+err.Error())
		return
	}
	cmd := req.toCommand()

	// A missing document falls through to the application layer so it is
	// reported in form order, after the payment fields.
	file, header, err := c.Request.FormFile("document")
	if err == nil {
		defer file.Close()
		if header.Size > h.maxDocumentSize {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeValidation, "document exceeds the maximum upload size")
			return
		}
		cmd.Document = &vehicleregapp.DocumentUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Content:     file,
		}
	}

	receipt, err := h.applications.Submit(ctx, cmd)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, receipt)
}

// Track returns the public projection for a reference code and PIN
func (h *ApplicationHandler) Track(c *gin.Context) {
	referenceCode := c.Param("referenceCode")
	pin := c.Param("pin")

	resp, err := h.applications.Track(c.Request.Context(), referenceCode, pin)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListRecent returns the most recently submitted applications as tracking
// projections
func (h *ApplicationHandler) ListRecent(c *gin.Context) {
	items, err := h.applications.ListRecent(c.Request.Context(), h.recentLimit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, items)
}

// List returns a filtered, paginated admin listing
func (h *ApplicationHandler) List(c *gin.Context) {
	var req vehicleregapp.ListFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	// the public dashboard client sends `limit` for the page size
	if req.PageSize == 0 {
		var legacy struct {
			Limit int `form:"limit"`
		}
		if err := c.ShouldBindQuery(&legacy); err == nil {
			req.PageSize = legacy.Limit
		}
	}

	page, err := h.applications.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID returns the full admin projection of an application
func (h *ApplicationHandler) GetByID(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	resp, err := h.applications.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpdateStatus applies a generic admin status transition
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req vehicleregapp.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.ChangedBy = middleware.GetJWTActor(c)

	resp, err := h.applications.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// MarkPaymentReceived records receipt of the application fee
func (h *ApplicationHandler) MarkPaymentReceived(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	req := vehicleregapp.MarkPaymentReceivedRequest{ChangedBy: middleware.GetJWTActor(c)}

	resp, err := h.applications.MarkPaymentReceived(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// MarkRegistered completes registration, optionally recording the assigned
// registration number
func (h *ApplicationHandler) MarkRegistered(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req vehicleregapp.MarkRegisteredRequest
	// the body is optional; an empty body means no registration number
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.HandleValidationError(c, err)
			return
		}
	}
	req.ChangedBy = middleware.GetJWTActor(c)

	resp, err := h.applications.MarkRegistered(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpdateComments replaces the admin comments on an application
func (h *ApplicationHandler) UpdateComments(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req vehicleregapp.UpdateAdminCommentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	req.ChangedBy = middleware.GetJWTActor(c)

	resp, err := h.applications.UpdateAdminComments(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Assign hands an application to a named admin
func (h *ApplicationHandler) Assign(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req vehicleregapp.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.applications.AssignToAdmin(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// SetPriority sets the processing priority of an application
func (h *ApplicationHandler) SetPriority(c *gin.Context) {
	id, ok := h.bindID(c)
	if !ok {
		return
	}

	var req vehicleregapp.SetPriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	resp, err := h.applications.SetPriority(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// bindID extracts and parses the application ID path parameter. It writes
// the error response itself; callers return immediately on !ok.
func (h *ApplicationHandler) bindID(c *gin.Context) (uuid.UUID, bool) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, "Invalid application ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(uri.ID)
	if err != nil {
		h.BadRequest(c, "Invalid application ID")
		return uuid.Nil, false
	}
	return id, true
}

// RegisterPublicRoutes registers the applicant-facing routes. Middleware
// passed in runs on the submission route only.
func (h *ApplicationHandler) RegisterPublicRoutes(rg *gin.RouterGroup, submitMiddleware ...gin.HandlerFunc) {
	rg.POST("/applications", append(submitMiddleware, h.Submit)...)
	rg.GET("/track/:referenceCode/:pin", h.Track)
}

// RegisterAdminRoutes registers the back-office routes. The recent feed
// exposes applicant and vehicle details, so it sits behind the same guard
// as the listing.
func (h *ApplicationHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	apps := rg.Group("/applications")
	{
		apps.GET("", h.List)
		apps.GET("/recent", h.ListRecent)
		apps.GET("/:id", h.GetByID)
		apps.PUT("/:id/status", h.UpdateStatus)
		apps.PUT("/:id/payment", h.MarkPaymentReceived)
		apps.PUT("/:id/register", h.MarkRegistered)
		apps.PUT("/:id/comments", h.UpdateComments)
		apps.PUT("/:id/assign", h.Assign)
		apps.PUT("/:id/priority", h.SetPriority)
	}
}
