package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/pkg/response"
)

type eventAdminService interface {
	ListAdmin(ctx context.Context, seriesID string) ([]dto.AdminEventItem, error)
	RequestDelete(ctx context.Context, id string) (*dto.DeleteIntent, error)
	Delete(ctx context.Context, id, token string) error
}

// EventAdminHandler exposes the back-office event list and deletion.
type EventAdminHandler struct {
	service eventAdminService
}

// NewEventAdminHandler constructs the handler.
func NewEventAdminHandler(svc eventAdminService) *EventAdminHandler {
	return &EventAdminHandler{service: svc}
}

// List godoc
// @Summary List all events including drafts
// @Tags AdminEvents
// @Produce json
// @Param seriesId query string false "Only events of this series"
// @Success 200 {object} response.Envelope
// @Router /admin/events [get]
func (h *EventAdminHandler) List(c *gin.Context) {
	items, err := h.service.ListAdmin(c.Request.Context(), c.Query("seriesId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// RequestDelete godoc
// @Summary Request a confirmation token for deleting an event
// @Tags AdminEvents
// @Produce json
// @Param id path string true "Event ID"
// @Success 201 {object} response.Envelope
// @Router /admin/events/{id}/delete-intent [post]
func (h *EventAdminHandler) RequestDelete(c *gin.Context) {
	intent, err := h.service.RequestDelete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, intent)
}

// Delete godoc
// @Summary Delete an event with its distances and race types
// @Tags AdminEvents
// @Param id path string true "Event ID"
// @Param confirm query string true "Token from the delete intent"
// @Success 204
// @Failure 412 {object} response.Envelope
// @Router /admin/events/{id} [delete]
func (h *EventAdminHandler) Delete(c *gin.Context) {
	token := strings.TrimSpace(c.Query("confirm"))
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), token); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
