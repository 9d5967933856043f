package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/models"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
	"github.com/noah-isme/run-directory-api/pkg/response"
)

type seriesService interface {
	List(ctx context.Context) ([]models.Series, error)
	Get(ctx context.Context, id string) (*models.Series, error)
	Create(ctx context.Context, req dto.SeriesRequest) (*models.Series, error)
	Update(ctx context.Context, id string, req dto.SeriesRequest) (*models.Series, error)
	Delete(ctx context.Context, id string) error
}

type distanceService interface {
	List(ctx context.Context) ([]models.Distance, error)
	Create(ctx context.Context, req dto.DistanceRequest) (*models.Distance, error)
	Update(ctx context.Context, id string, req dto.DistanceRequest) (*models.Distance, error)
	Delete(ctx context.Context, id string) error
	Move(ctx context.Context, id string, req dto.MoveRequest) ([]models.Distance, error)
}

type raceTypeService interface {
	List(ctx context.Context) ([]models.RaceType, error)
	Create(ctx context.Context, req dto.RaceTypeRequest) (*models.RaceType, error)
	Update(ctx context.Context, id string, req dto.RaceTypeRequest) (*models.RaceType, error)
	Delete(ctx context.Context, id string) error
	Move(ctx context.Context, id string, req dto.MoveRequest) ([]models.RaceType, error)
}

// SeriesHandler manages race series.
type SeriesHandler struct {
	service seriesService
}

// NewSeriesHandler constructs a series handler.
func NewSeriesHandler(svc seriesService) *SeriesHandler {
	return &SeriesHandler{service: svc}
}

// List godoc
// @Summary List series
// @Tags Series
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/series [get]
func (h *SeriesHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get series by id
// @Tags Series
// @Produce json
// @Param id path string true "Series ID"
// @Success 200 {object} response.Envelope
// @Router /admin/series/{id} [get]
func (h *SeriesHandler) Get(c *gin.Context) {
	series, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, series, nil)
}

// Create godoc
// @Summary Create series
// @Tags Series
// @Accept json
// @Produce json
// @Param payload body dto.SeriesRequest true "Series payload"
// @Success 201 {object} response.Envelope
// @Router /admin/series [post]
func (h *SeriesHandler) Create(c *gin.Context) {
	var req dto.SeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	series, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, series)
}

// Update godoc
// @Summary Update series
// @Tags Series
// @Accept json
// @Produce json
// @Param id path string true "Series ID"
// @Param payload body dto.SeriesRequest true "Series payload"
// @Success 200 {object} response.Envelope
// @Router /admin/series/{id} [put]
func (h *SeriesHandler) Update(c *gin.Context) {
	var req dto.SeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	series, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, series, nil)
}

// Delete godoc
// @Summary Delete series
// @Tags Series
// @Param id path string true "Series ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /admin/series/{id} [delete]
func (h *SeriesHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DistanceHandler manages master distances.
type DistanceHandler struct {
	service distanceService
}

// NewDistanceHandler constructs a distance handler.
func NewDistanceHandler(svc distanceService) *DistanceHandler {
	return &DistanceHandler{service: svc}
}

// List godoc
// @Summary List distances in display order
// @Tags Distances
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/distances [get]
func (h *DistanceHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Create distance
// @Tags Distances
// @Accept json
// @Produce json
// @Param payload body dto.DistanceRequest true "Distance payload"
// @Success 201 {object} response.Envelope
// @Router /admin/distances [post]
func (h *DistanceHandler) Create(c *gin.Context) {
	var req dto.DistanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update distance
// @Tags Distances
// @Accept json
// @Produce json
// @Param id path string true "Distance ID"
// @Param payload body dto.DistanceRequest true "Distance payload"
// @Success 200 {object} response.Envelope
// @Router /admin/distances/{id} [put]
func (h *DistanceHandler) Update(c *gin.Context) {
	var req dto.DistanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete distance
// @Tags Distances
// @Param id path string true "Distance ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /admin/distances/{id} [delete]
func (h *DistanceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Move godoc
// @Summary Swap a distance with its neighbour
// @Tags Distances
// @Accept json
// @Produce json
// @Param id path string true "Distance ID"
// @Param payload body dto.MoveRequest true "Direction"
// @Success 200 {object} response.Envelope
// @Router /admin/distances/{id}/move [post]
func (h *DistanceHandler) Move(c *gin.Context) {
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	items, err := h.service.Move(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// RaceTypeHandler manages master race types.
type RaceTypeHandler struct {
	service raceTypeService
}

// NewRaceTypeHandler constructs a race type handler.
func NewRaceTypeHandler(svc raceTypeService) *RaceTypeHandler {
	return &RaceTypeHandler{service: svc}
}

// List godoc
// @Summary List race types in display order
// @Tags RaceTypes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/race-types [get]
func (h *RaceTypeHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Create race type
// @Tags RaceTypes
// @Accept json
// @Produce json
// @Param payload body dto.RaceTypeRequest true "Race type payload"
// @Success 201 {object} response.Envelope
// @Router /admin/race-types [post]
func (h *RaceTypeHandler) Create(c *gin.Context) {
	var req dto.RaceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update race type
// @Tags RaceTypes
// @Accept json
// @Produce json
// @Param id path string true "Race type ID"
// @Param payload body dto.RaceTypeRequest true "Race type payload"
// @Success 200 {object} response.Envelope
// @Router /admin/race-types/{id} [put]
func (h *RaceTypeHandler) Update(c *gin.Context) {
	var req dto.RaceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete race type
// @Tags RaceTypes
// @Param id path string true "Race type ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /admin/race-types/{id} [delete]
func (h *RaceTypeHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Move godoc
// @Summary Swap a race type with its neighbour
// @Tags RaceTypes
// @Accept json
// @Produce json
// @Param id path string true "Race type ID"
// @Param payload body dto.MoveRequest true "Direction"
// @Success 200 {object} response.Envelope
// @Router /admin/race-types/{id}/move [post]
func (h *RaceTypeHandler) Move(c *gin.Context) {
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	items, err := h.service.Move(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

func invalidPayload(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}
