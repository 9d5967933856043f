package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/models"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
)

type fakeEventAdminSrv struct {
	seriesID string
	token    string
}

func (f *fakeEventAdminSrv) ListAdmin(_ context.Context, seriesID string) ([]dto.AdminEventItem, error) {
	f.seriesID = seriesID
	return []dto.AdminEventItem{{ID: "ev-1"}}, nil
}

func (f *fakeEventAdminSrv) RequestDelete(_ context.Context, id string) (*dto.DeleteIntent, error) {
	return &dto.DeleteIntent{EventID: id, Token: "token-1"}, nil
}

func (f *fakeEventAdminSrv) Delete(_ context.Context, id, token string) error {
	f.token = token
	if token != "token-1" {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "delete confirmation is missing or expired")
	}
	return nil
}

func TestEventAdminHandlerList(t *testing.T) {
	srv := &fakeEventAdminSrv{}
	h := NewEventAdminHandler(srv)
	c, rec := newJSONContext(http.MethodGet, "/admin/events?seriesId=series-1", "", nil)

	h.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "series-1", srv.seriesID)
}

func TestEventAdminHandlerDeleteFlow(t *testing.T) {
	srv := &fakeEventAdminSrv{}
	h := NewEventAdminHandler(srv)
	params := gin.Params{{Key: "id", Value: "ev-1"}}

	c, rec := newJSONContext(http.MethodDelete, "/admin/events/ev-1", "", params)
	h.Delete(c)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)

	c, rec = newJSONContext(http.MethodPost, "/admin/events/ev-1/delete-intent", "", params)
	h.RequestDelete(c)
	assert.Equal(t, http.StatusCreated, rec.Code)

	c, _ = newJSONContext(http.MethodDelete, "/admin/events/ev-1?confirm=token-1", "", params)
	h.Delete(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "token-1", srv.token)
}

type fakeDistanceSrv struct {
	moved dto.MoveRequest
}

func (f *fakeDistanceSrv) List(context.Context) ([]models.Distance, error) {
	return []models.Distance{{ID: "10k"}}, nil
}

func (f *fakeDistanceSrv) Create(_ context.Context, req dto.DistanceRequest) (*models.Distance, error) {
	return &models.Distance{ID: "new", Name: req.Name, Km: req.Km}, nil
}

func (f *fakeDistanceSrv) Update(_ context.Context, id string, req dto.DistanceRequest) (*models.Distance, error) {
	return &models.Distance{ID: id, Name: req.Name, Km: req.Km}, nil
}

func (f *fakeDistanceSrv) Delete(_ context.Context, id string) error {
	return appErrors.Clone(appErrors.ErrConstraint, "distance is used by events")
}

func (f *fakeDistanceSrv) Move(_ context.Context, id string, req dto.MoveRequest) ([]models.Distance, error) {
	f.moved = req
	return []models.Distance{{ID: id, SortOrder: 1}}, nil
}

func TestDistanceHandlerMove(t *testing.T) {
	srv := &fakeDistanceSrv{}
	h := NewDistanceHandler(srv)
	c, rec := newJSONContext(http.MethodPost, "/admin/distances/10k/move", `{"direction":"up"}`, gin.Params{{Key: "id", Value: "10k"}})

	h.Move(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "up", srv.moved.Direction)
}

func TestDistanceHandlerDeleteInUse(t *testing.T) {
	h := NewDistanceHandler(&fakeDistanceSrv{})
	c, rec := newJSONContext(http.MethodDelete, "/admin/distances/10k", "", gin.Params{{Key: "id", Value: "10k"}})

	h.Delete(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "distance is used by events", env.Error.Message)
}

func TestDistanceHandlerCreate(t *testing.T) {
	h := NewDistanceHandler(&fakeDistanceSrv{})
	c, rec := newJSONContext(http.MethodPost, "/admin/distances", `{"distance_name":"Half Marathon","distance_km":21.1}`, nil)

	h.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
}
