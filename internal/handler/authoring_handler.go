package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/models"
	"github.com/noah-isme/run-directory-api/internal/service"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
	"github.com/noah-isme/run-directory-api/pkg/response"
)

const routeImageField = "file"

type authoringService interface {
	Open(ctx context.Context, req dto.OpenAuthoringRequest) (*dto.AuthoringSessionView, error)
	Get(ctx context.Context, sessionID string) (*dto.AuthoringSessionView, error)
	Apply(ctx context.Context, sessionID string, op dto.AuthoringOperation) (*dto.AuthoringSessionView, error)
	Validate(ctx context.Context, sessionID string) (*dto.ValidationResult, error)
	Submit(ctx context.Context, sessionID string) (*models.EventAggregate, error)
	Cancel(ctx context.Context, sessionID string) error
}

type routeImageUploader interface {
	Upload(ctx context.Context, sessionID, slotID string, upload service.RouteImageUpload) (*dto.RouteImageUploadAccepted, error)
}

// AuthoringHandler drives event authoring sessions.
type AuthoringHandler struct {
	service  authoringService
	uploads  routeImageUploader
	maxBytes int64
}

// NewAuthoringHandler constructs the handler. maxBytes caps multipart bodies.
func NewAuthoringHandler(svc authoringService, uploads routeImageUploader, maxBytes int64) *AuthoringHandler {
	return &AuthoringHandler{service: svc, uploads: uploads, maxBytes: maxBytes}
}

// Open godoc
// @Summary Open an authoring session
// @Tags Authoring
// @Accept json
// @Produce json
// @Param payload body dto.OpenAuthoringRequest true "Mode and event"
// @Success 201 {object} response.Envelope
// @Router /admin/authoring [post]
func (h *AuthoringHandler) Open(c *gin.Context) {
	var req dto.OpenAuthoringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	view, err := h.service.Open(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Get godoc
// @Summary Get an authoring session
// @Tags Authoring
// @Produce json
// @Param session path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /admin/authoring/{session} [get]
func (h *AuthoringHandler) Get(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("session"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Apply godoc
// @Summary Apply one edit to the session form
// @Tags Authoring
// @Accept json
// @Produce json
// @Param session path string true "Session ID"
// @Param payload body dto.AuthoringOperation true "Edit operation"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/authoring/{session} [patch]
func (h *AuthoringHandler) Apply(c *gin.Context) {
	var op dto.AuthoringOperation
	if err := c.ShouldBindJSON(&op); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	view, err := h.service.Apply(c.Request.Context(), c.Param("session"), op)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Validate godoc
// @Summary Validate the session form without saving
// @Tags Authoring
// @Produce json
// @Param session path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /admin/authoring/{session}/validate [post]
func (h *AuthoringHandler) Validate(c *gin.Context) {
	result, err := h.service.Validate(c.Request.Context(), c.Param("session"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Submit godoc
// @Summary Persist the session form
// @Tags Authoring
// @Produce json
// @Param session path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /admin/authoring/{session}/submit [post]
func (h *AuthoringHandler) Submit(c *gin.Context) {
	agg, err := h.service.Submit(c.Request.Context(), c.Param("session"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, agg, nil)
}

// Cancel godoc
// @Summary Discard an authoring session
// @Tags Authoring
// @Param session path string true "Session ID"
// @Success 204
// @Router /admin/authoring/{session} [delete]
func (h *AuthoringHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("session")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UploadRouteImage godoc
// @Summary Upload the route image of a distance slot
// @Tags Authoring
// @Accept multipart/form-data
// @Produce json
// @Param session path string true "Session ID"
// @Param slot path string true "Distance slot ID"
// @Param file formData file true "Route image"
// @Success 202 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /admin/authoring/{session}/distances/{slot}/route-image [post]
func (h *AuthoringHandler) UploadRouteImage(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	}
	header, err := c.FormFile(routeImageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.Clone(appErrors.ErrPayloadTooLarge, "upload body too large"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	accepted, err := h.uploads.Upload(c.Request.Context(), c.Param("session"), c.Param("slot"), service.RouteImageUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, accepted, nil)
}
