package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/run-directory-api/internal/directory"
	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/middleware"
	"github.com/noah-isme/run-directory-api/internal/service"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
	"github.com/noah-isme/run-directory-api/pkg/response"
)

type directoryService interface {
	List(ctx context.Context, query dto.DirectoryQuery) (*service.DirectoryPage, bool, error)
	Detail(ctx context.Context, id string) (*dto.EventDetail, bool, error)
	Neighbors(ctx context.Context, id string) (directory.Neighbors, error)
}

type exportService interface {
	Calendar(ctx context.Context, id string) (*service.ExportFile, error)
	DirectoryCSV(ctx context.Context, query dto.DirectoryQuery) (*service.ExportFile, error)
	Sheet(ctx context.Context, id string) (*service.ExportFile, error)
}

// EventHandler serves the public event directory.
type EventHandler struct {
	directory directoryService
	exports   exportService
}

// NewEventHandler constructs the handler.
func NewEventHandler(directory directoryService, exports exportService) *EventHandler {
	return &EventHandler{directory: directory, exports: exports}
}

// List godoc
// @Summary List published events
// @Tags Events
// @Produce json
// @Param filter query string false "upcoming, this_year, finished or all"
// @Param search query string false "Series name or location"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	query, err := bindDirectoryQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	page, cacheHit, err := h.directory.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	if query.Search != "" {
		middleware.SetMeta(c, "search", query.Search)
	}
	middleware.SetMeta(c, "processing_time_ms", time.Since(start).Milliseconds())
	meta := middleware.ExtractMeta(c)
	response.JSON(c, http.StatusOK, page.Items, &page.Pagination, meta)
}

// Detail godoc
// @Summary Get a published event
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id} [get]
func (h *EventHandler) Detail(c *gin.Context) {
	detail, cacheHit, err := h.directory.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, detail, nil, middleware.ExtractMeta(c))
}

// Neighbors godoc
// @Summary Previous and next events of the same series
// @Tags Events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{id}/neighbors [get]
func (h *EventHandler) Neighbors(c *gin.Context) {
	neighbors, err := h.directory.Neighbors(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, neighbors, nil)
}

// Calendar godoc
// @Summary Download an event as iCalendar
// @Tags Events
// @Produce text/calendar
// @Param id path string true "Event ID"
// @Success 200 {file} file
// @Router /events/{id}/calendar.ics [get]
func (h *EventHandler) Calendar(c *gin.Context) {
	file, err := h.exports.Calendar(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}

// ExportCSV godoc
// @Summary Download the filtered directory as CSV
// @Tags Events
// @Produce text/csv
// @Param filter query string false "upcoming, this_year, finished or all"
// @Param search query string false "Series name or location"
// @Success 200 {file} file
// @Router /events/export.csv [get]
func (h *EventHandler) ExportCSV(c *gin.Context) {
	query, err := bindDirectoryQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.DirectoryCSV(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}

// Sheet godoc
// @Summary Download a printable event sheet
// @Tags Events
// @Produce application/pdf
// @Param id path string true "Event ID"
// @Success 200 {file} file
// @Router /events/{id}/sheet.pdf [get]
func (h *EventHandler) Sheet(c *gin.Context) {
	file, err := h.exports.Sheet(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}

func bindDirectoryQuery(c *gin.Context) (dto.DirectoryQuery, error) {
	query := dto.DirectoryQuery{
		Filter: c.Query("filter"),
		Search: c.Query("search"),
	}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "page must be a number")
		}
		query.Page = page
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return query, appErrors.Clone(appErrors.ErrValidation, "limit must be a number")
		}
		query.Limit = limit
	}
	return query, nil
}
