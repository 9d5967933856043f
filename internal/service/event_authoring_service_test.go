package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/run-directory-api/internal/authoring"
	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/models"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
)

type aggregateLoaderStub struct {
	mu    sync.Mutex
	agg   *models.EventAggregate
	err   error
	calls []string
}

func (s *aggregateLoaderStub) LoadAggregate(ctx context.Context, id string, publishedOnly bool) (*models.EventAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, id)
	if s.err != nil {
		return nil, s.err
	}
	agg := *s.agg
	agg.Event.ID = id
	return &agg, nil
}

type aggregateWriterStub struct {
	mu      sync.Mutex
	keys    []string
	forms   []authoring.Snapshot
	result  WriteResult
	err     error
	release chan struct{}
	entered chan struct{}
}

func (s *aggregateWriterStub) Write(ctx context.Context, key string, form *authoring.Form) (WriteResult, error) {
	s.mu.Lock()
	s.keys = append(s.keys, key)
	s.forms = append(s.forms, form.Snapshot())
	s.mu.Unlock()
	if s.entered != nil {
		close(s.entered)
	}
	if s.release != nil {
		<-s.release
	}
	return s.result, s.err
}

type invalidatorStub struct {
	mu    sync.Mutex
	calls int
}

func (s *invalidatorStub) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

type authoringFixture struct {
	svc         *EventAuthoringService
	loader      *aggregateLoaderStub
	writer      *aggregateWriterStub
	invalidator *invalidatorStub
	now         time.Time
}

func newAuthoringFixture(t *testing.T) *authoringFixture {
	t.Helper()
	fx := &authoringFixture{
		loader:      &aggregateLoaderStub{agg: storedAggregate()},
		writer:      &aggregateWriterStub{result: WriteResult{EventID: "ev-new", Created: true}},
		invalidator: &invalidatorStub{},
		now:         time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC),
	}
	fx.svc = NewEventAuthoringService(fx.loader, fx.writer, fx.invalidator, nil, nil, EventAuthoringConfig{
		SessionTTL: time.Hour,
		Location:   wib,
		Now:        func() time.Time { return fx.now },
	})
	return fx
}

const (
	authoringSeriesID = "7d3c9a10-52e4-4b8f-a6d1-0c9e8b7a6f54"
	halfMarathonID    = "e1f2a3b4-c5d6-4e7f-8a9b-0c1d2e3f4a5b"
	storedEventID     = "3f6e2b1a-9c8d-4e7f-b6a5-d4c3b2a1f0e9"
)

func storedAggregate() *models.EventAggregate {
	url := "https://cdn.example.com/route.png"
	return &models.EventAggregate{
		Event: models.Event{
			SeriesID:  authoringSeriesID,
			Year:      2025,
			DateStart: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			Location:  "Gelora Bung Karno",
			RPCInfo: models.RPCSchedule{{
				LocationName: "Mall Senayan",
				Dates:        []models.RPCDateWindow{{Date: "2025-06-13", TimeStart: "10:00", TimeEnd: "20:00"}},
			}},
		},
		Distances: []models.EventDistanceDetail{{
			EventDistance: models.EventDistance{
				DistanceID:    halfMarathonID,
				FlagOffTime:   time.Date(2025, 6, 15, 5, 0, 0, 0, wib),
				CutOffTimeHrs: 3.5,
				RouteImageURL: &url,
			},
			DistanceName: "Half Marathon",
			DistanceKm:   21.1,
		}},
	}
}

func apply(t *testing.T, svc *EventAuthoringService, sessionID string, op dto.AuthoringOperation) *dto.AuthoringSessionView {
	t.Helper()
	view, err := svc.Apply(context.Background(), sessionID, op)
	require.NoError(t, err)
	return view
}

// openValidSession opens an add session and fills every required field.
func openValidSession(t *testing.T, svc *EventAuthoringService) (string, string) {
	t.Helper()
	view, err := svc.Open(context.Background(), dto.OpenAuthoringRequest{Mode: "add", SeriesID: authoringSeriesID})
	require.NoError(t, err)
	id := view.SessionID

	apply(t, svc, id, dto.AuthoringOperation{Op: dto.OpSetField, Field: authoring.FieldDateStart, Value: "2025-06-15"})
	apply(t, svc, id, dto.AuthoringOperation{Op: dto.OpSetField, Field: authoring.FieldLocation, Value: "Gelora Bung Karno"})
	apply(t, svc, id, dto.AuthoringOperation{Op: dto.OpSetRPCLocationName, LocationID: view.Form.RPCInfo[0].ID, Value: "Mall Senayan"})
	added := apply(t, svc, id, dto.AuthoringOperation{Op: dto.OpAddDistance})
	require.NotEmpty(t, added.CreatedID)
	apply(t, svc, id, dto.AuthoringOperation{Op: dto.OpSetDistanceField, SlotID: added.CreatedID, Field: authoring.FieldDistanceID, Value: halfMarathonID})
	return id, added.CreatedID
}

func TestEventAuthoringOpenAddSeedsDefaults(t *testing.T) {
	fx := newAuthoringFixture(t)

	view, err := fx.svc.Open(context.Background(), dto.OpenAuthoringRequest{Mode: "add", SeriesID: authoringSeriesID})
	require.NoError(t, err)
	assert.Equal(t, string(authoring.StateEditing), view.State)
	assert.Equal(t, authoring.ModeAdd, view.Form.Mode)
	assert.Equal(t, 2025, view.Form.EventYear)
	require.Len(t, view.Form.RPCInfo, 1)
	require.Len(t, view.Form.RPCInfo[0].Dates, 1)
	assert.Equal(t, "2025-03-02", view.Form.RPCInfo[0].Dates[0].Date)
	assert.Equal(t, fx.now.Add(time.Hour), view.ExpiresAt)
}

func TestEventAuthoringOpenEditHydrates(t *testing.T) {
	fx := newAuthoringFixture(t)

	view, err := fx.svc.Open(context.Background(), dto.OpenAuthoringRequest{Mode: "edit", EventID: storedEventID})
	require.NoError(t, err)
	assert.Equal(t, []string{storedEventID}, fx.loader.calls)
	assert.Equal(t, authoring.ModeEdit, view.Form.Mode)
	assert.Equal(t, storedEventID, view.Form.EventID)
	require.Len(t, view.Form.Distances, 1)
	assert.Equal(t, "03:30", view.Form.Distances[0].CutOffDisplay)
	assert.Equal(t, "2025-06-15", view.Form.Distances[0].FlagOffDate)
	assert.Equal(t, "05:00", view.Form.Distances[0].FlagOffTime)
}

func TestEventAuthoringOpenEditRequiresEventID(t *testing.T) {
	fx := newAuthoringFixture(t)

	_, err := fx.svc.Open(context.Background(), dto.OpenAuthoringRequest{Mode: "edit"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestEventAuthoringOpenEditRejectsMalformedEventID(t *testing.T) {
	fx := newAuthoringFixture(t)

	_, err := fx.svc.Open(context.Background(), dto.OpenAuthoringRequest{Mode: "edit", EventID: "ev-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, fx.loader.calls)
}

func TestEventAuthoringSubmitRejectsMalformedReferences(t *testing.T) {
	fx := newAuthoringFixture(t)
	sessionID, slotID := openValidSession(t, fx.svc)
	apply(t, fx.svc, sessionID, dto.AuthoringOperation{Op: dto.OpSetDistanceField, SlotID: slotID, Field: authoring.FieldDistanceID, Value: "hm"})

	_, err := fx.svc.Submit(context.Background(), sessionID)
	require.Error(t, err)
	violations, ok := appErrors.FromError(err).Details.(authoring.Violations)
	require.True(t, ok)
	assert.Equal(t, authoring.CodeInvalidReference, violations.First().Code)
	assert.Empty(t, fx.writer.keys)
}

func TestEventAuthoringApplyUnknownElement(t *testing.T) {
	fx := newAuthoringFixture(t)
	view, err := fx.svc.Open(context.Background(), dto.OpenAuthoringRequest{Mode: "add"})
	require.NoError(t, err)

	_, err = fx.svc.Apply(context.Background(), view.SessionID, dto.AuthoringOperation{Op: dto.OpRemoveDistance, SlotID: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = fx.svc.Apply(context.Background(), view.SessionID, dto.AuthoringOperation{Op: dto.OpSetField, Field: "colour", Value: "red"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestEventAuthoringSubmitRejectsInvalidForm(t *testing.T) {
	fx := newAuthoringFixture(t)
	view, err := fx.svc.Open(context.Background(), dto.OpenAuthoringRequest{Mode: "add", SeriesID: authoringSeriesID})
	require.NoError(t, err)

	_, err = fx.svc.Submit(context.Background(), view.SessionID)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	violations, ok := appErr.Details.(authoring.Violations)
	require.True(t, ok)
	assert.True(t, violations.Has(authoring.CodeNoDistances))
	assert.Empty(t, fx.writer.keys)

	current, err := fx.svc.Get(context.Background(), view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, string(authoring.StateEditing), current.State)
	assert.Equal(t, appErr.Message, current.LastError)
}

func TestEventAuthoringSubmitClosesSessionAndReloads(t *testing.T) {
	fx := newAuthoringFixture(t)
	sessionID, _ := openValidSession(t, fx.svc)

	agg, err := fx.svc.Submit(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, "ev-new", agg.Event.ID)
	assert.Equal(t, []string{sessionID}, fx.writer.keys)
	assert.Equal(t, []string{"ev-new"}, fx.loader.calls)
	assert.Equal(t, 1, fx.invalidator.calls)

	_, err = fx.svc.Get(context.Background(), sessionID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEventAuthoringPartialCreateSwitchesToEdit(t *testing.T) {
	fx := newAuthoringFixture(t)
	fx.writer.result = WriteResult{EventID: "ev-9", Created: true}
	fx.writer.err = appErrors.WithDetails(appErrors.ErrPartialWrite, "", PartialWriteDetails{EventID: "ev-9", Failed: []string{CollectionDistances}})
	sessionID, _ := openValidSession(t, fx.svc)

	_, err := fx.svc.Submit(context.Background(), sessionID)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrPartialWrite)

	view, err := fx.svc.Get(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, string(authoring.StateEditing), view.State)
	assert.Equal(t, "ev-9", view.Form.EventID)
	assert.Equal(t, authoring.ModeEdit, view.Form.Mode)
	assert.NotEmpty(t, view.LastError)

	fx.writer.err = nil
	_, err = fx.svc.Submit(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{sessionID, "ev-9"}, fx.writer.keys)
}

func TestEventAuthoringRejectsEditsWhileWriting(t *testing.T) {
	fx := newAuthoringFixture(t)
	fx.writer.entered = make(chan struct{})
	fx.writer.release = make(chan struct{})
	sessionID, _ := openValidSession(t, fx.svc)

	done := make(chan error, 1)
	go func() {
		_, err := fx.svc.Submit(context.Background(), sessionID)
		done <- err
	}()
	<-fx.writer.entered

	_, err := fx.svc.Apply(context.Background(), sessionID, dto.AuthoringOperation{Op: dto.OpAddDistance})
	assert.ErrorIs(t, err, appErrors.ErrWriteInFlight)
	assert.ErrorIs(t, fx.svc.Cancel(context.Background(), sessionID), appErrors.ErrWriteInFlight)

	close(fx.writer.release)
	require.NoError(t, <-done)
}

func TestEventAuthoringPendingUploadBlocksSubmit(t *testing.T) {
	fx := newAuthoringFixture(t)
	sessionID, slotID := openValidSession(t, fx.svc)

	target, err := fx.svc.BeginRouteImageUpload(context.Background(), sessionID, slotID)
	require.NoError(t, err)
	assert.Equal(t, RouteImageTarget{SeriesID: authoringSeriesID, Year: 2025, DistanceID: halfMarathonID}, target)

	_, err = fx.svc.BeginRouteImageUpload(context.Background(), sessionID, slotID)
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = fx.svc.Submit(context.Background(), sessionID)
	require.Error(t, err)
	violations := appErrors.FromError(err).Details.(authoring.Violations)
	assert.Equal(t, authoring.CodeUploadPending, violations.First().Code)

	require.NoError(t, fx.svc.CompleteRouteImageUpload(sessionID, slotID, "http://localhost/assets/event-routes/x.png"))
	view, err := fx.svc.Get(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, authoring.UploadIdle, view.Form.Distances[0].Upload)
	assert.Equal(t, "http://localhost/assets/event-routes/x.png", view.Form.Distances[0].RouteImageURL)
}

func TestEventAuthoringUploadRequiresDistance(t *testing.T) {
	fx := newAuthoringFixture(t)
	view, err := fx.svc.Open(context.Background(), dto.OpenAuthoringRequest{Mode: "add", SeriesID: authoringSeriesID})
	require.NoError(t, err)
	slot := apply(t, fx.svc, view.SessionID, dto.AuthoringOperation{Op: dto.OpAddDistance}).CreatedID

	_, err = fx.svc.BeginRouteImageUpload(context.Background(), view.SessionID, slot)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestEventAuthoringValidateReportsAllViolations(t *testing.T) {
	fx := newAuthoringFixture(t)
	view, err := fx.svc.Open(context.Background(), dto.OpenAuthoringRequest{Mode: "add"})
	require.NoError(t, err)

	result, err := fx.svc.Validate(context.Background(), view.SessionID)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.True(t, result.Violations.Has(authoring.CodeRequired))
	assert.True(t, result.Violations.Has(authoring.CodeNoDistances))

	current, err := fx.svc.Get(context.Background(), view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, string(authoring.StateEditing), current.State)
}

func TestEventAuthoringCancelAndSweep(t *testing.T) {
	fx := newAuthoringFixture(t)
	first, err := fx.svc.Open(context.Background(), dto.OpenAuthoringRequest{Mode: "add"})
	require.NoError(t, err)
	second, err := fx.svc.Open(context.Background(), dto.OpenAuthoringRequest{Mode: "add"})
	require.NoError(t, err)

	require.NoError(t, fx.svc.Cancel(context.Background(), first.SessionID))
	_, err = fx.svc.Get(context.Background(), first.SessionID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	fx.now = fx.now.Add(2 * time.Hour)
	assert.Equal(t, 1, fx.svc.SweepExpired())
	_, err = fx.svc.Get(context.Background(), second.SessionID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
