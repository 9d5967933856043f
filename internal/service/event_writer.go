package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/run-directory-api/internal/authoring"
	"github.com/noah-isme/run-directory-api/internal/models"
	"github.com/noah-isme/run-directory-api/pkg/config"
	"github.com/noah-isme/run-directory-api/pkg/database"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
)

// Child collection names reported by partial write failures.
const (
	CollectionDistances = "distances"
	CollectionRaceTypes = "race_types"
)

type eventRowStore interface {
	Insert(ctx context.Context, exec sqlx.ExtContext, event *models.Event) error
	Update(ctx context.Context, exec sqlx.ExtContext, event *models.Event) error
	Delete(ctx context.Context, exec sqlx.ExtContext, id string) error
}

type eventDistanceStore interface {
	DeleteByEvent(ctx context.Context, exec sqlx.ExtContext, eventID string) error
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, rows []models.EventDistance) error
}

type eventRaceTypeStore interface {
	DeleteByEvent(ctx context.Context, exec sqlx.ExtContext, eventID string) error
	InsertBatch(ctx context.Context, exec sqlx.ExtContext, rows []models.EventRaceType) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// WriteResult describes a persisted aggregate.
type WriteResult struct {
	EventID string `json:"event_id"`
	Created bool   `json:"created"`
}

// PartialWriteDetails is attached to PARTIAL_WRITE errors.
type PartialWriteDetails struct {
	EventID string   `json:"event_id"`
	Failed  []string `json:"failed"`
}

// EventWriter persists an authored aggregate: the parent event row first, then
// a delete-and-reinsert of each child collection.
type EventWriter struct {
	events    eventRowStore
	distances eventDistanceStore
	raceTypes eventRaceTypeStore
	tx        txProvider
	mode      string
	metrics   *MetricsService
	logger    *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewEventWriter wires writer dependencies. Unknown modes fall back to transactional.
func NewEventWriter(events eventRowStore, distances eventDistanceStore, raceTypes eventRaceTypeStore, tx txProvider, mode string, metrics *MetricsService, logger *zap.Logger) *EventWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mode != config.WriteModeSequential {
		mode = config.WriteModeTransactional
	}
	return &EventWriter{
		events:    events,
		distances: distances,
		raceTypes: raceTypes,
		tx:        tx,
		mode:      mode,
		metrics:   metrics,
		logger:    logger,
		inFlight:  make(map[string]struct{}),
	}
}

// Mode reports the configured write strategy.
func (w *EventWriter) Mode() string {
	return w.mode
}

// Write persists form. key identifies the aggregate for the in-flight guard:
// the event id when editing, the session id when creating.
func (w *EventWriter) Write(ctx context.Context, key string, form *authoring.Form) (WriteResult, error) {
	if !w.acquire(key) {
		return WriteResult{}, appErrors.Clone(appErrors.ErrWriteInFlight, "")
	}
	defer w.release(key)

	payload, err := authoring.BuildPayload(form)
	if err != nil {
		return WriteResult{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "event form cannot be converted")
	}

	var result WriteResult
	if w.mode == config.WriteModeSequential {
		result, err = w.writeSequential(ctx, payload)
	} else {
		result, err = w.writeTransactional(ctx, payload)
	}
	w.metrics.RecordAuthoringWrite(w.mode, outcomeLabel(err))
	if err != nil {
		w.logger.Warn("event write failed",
			zap.String("mode", w.mode),
			zap.String("event_id", result.EventID),
			zap.Error(err))
	}
	return result, err
}

func (w *EventWriter) writeTransactional(ctx context.Context, payload *authoring.Payload) (WriteResult, error) {
	if w.tx == nil {
		return WriteResult{}, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := w.tx.BeginTxx(ctx, nil)
	if err != nil {
		return WriteResult{}, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var result WriteResult
	result, err = w.writeParent(ctx, tx, payload)
	if err != nil {
		return WriteResult{}, err
	}

	if err = w.distances.DeleteByEvent(ctx, tx, result.EventID); err == nil {
		err = w.distances.InsertBatch(ctx, tx, payload.Distances)
	}
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "failed to replace event distances")
		return WriteResult{}, err
	}
	if err = w.raceTypes.DeleteByEvent(ctx, tx, result.EventID); err == nil {
		err = w.raceTypes.InsertBatch(ctx, tx, payload.RaceTypes)
	}
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "failed to replace event race types")
		return WriteResult{}, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "failed to commit event write")
		return WriteResult{}, err
	}
	return result, nil
}

// writeSequential mirrors the non-transactional behaviour: once the parent row
// is written each child collection is replaced on its own, and failures are
// reported together as a partial write.
func (w *EventWriter) writeSequential(ctx context.Context, payload *authoring.Payload) (WriteResult, error) {
	result, err := w.writeParent(ctx, nil, payload)
	if err != nil {
		return WriteResult{}, err
	}

	var failed []string
	if err := w.distances.DeleteByEvent(ctx, nil, result.EventID); err != nil {
		w.logger.Error("delete event distances", zap.String("event_id", result.EventID), zap.Error(err))
		failed = append(failed, CollectionDistances)
	} else if err := w.distances.InsertBatch(ctx, nil, payload.Distances); err != nil {
		w.logger.Error("insert event distances", zap.String("event_id", result.EventID), zap.Error(err))
		failed = append(failed, CollectionDistances)
	}
	if err := w.raceTypes.DeleteByEvent(ctx, nil, result.EventID); err != nil {
		w.logger.Error("delete event race types", zap.String("event_id", result.EventID), zap.Error(err))
		failed = append(failed, CollectionRaceTypes)
	} else if err := w.raceTypes.InsertBatch(ctx, nil, payload.RaceTypes); err != nil {
		w.logger.Error("insert event race types", zap.String("event_id", result.EventID), zap.Error(err))
		failed = append(failed, CollectionRaceTypes)
	}

	if len(failed) > 0 {
		return result, appErrors.WithDetails(appErrors.ErrPartialWrite, "", PartialWriteDetails{EventID: result.EventID, Failed: failed})
	}
	return result, nil
}

func (w *EventWriter) writeParent(ctx context.Context, exec sqlx.ExtContext, payload *authoring.Payload) (WriteResult, error) {
	event := payload.Event
	created := event.ID == ""

	var err error
	if created {
		err = w.events.Insert(ctx, exec, &event)
	} else {
		err = w.events.Update(ctx, exec, &event)
	}
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return WriteResult{}, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		case database.IsForeignKeyViolation(err):
			return WriteResult{}, appErrors.Wrap(err, appErrors.ErrConstraint.Code, appErrors.ErrConstraint.Status, "the selected series no longer exists")
		default:
			return WriteResult{}, appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "failed to save event")
		}
	}
	payload.Bind(event.ID)
	return WriteResult{EventID: event.ID, Created: created}, nil
}

// Delete removes an event and its children in one transaction.
func (w *EventWriter) Delete(ctx context.Context, eventID string) error {
	if !w.acquire(eventID) {
		return appErrors.Clone(appErrors.ErrWriteInFlight, "")
	}
	defer w.release(eventID)

	if w.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := w.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = w.distances.DeleteByEvent(ctx, tx, eventID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "failed to delete event distances")
	}
	if err = w.raceTypes.DeleteByEvent(ctx, tx, eventID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "failed to delete event race types")
	}
	if err = w.events.Delete(ctx, tx, eventID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "failed to delete event")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "failed to commit event delete")
	}
	return nil
}

func (w *EventWriter) acquire(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.inFlight[key]; busy {
		return false
	}
	w.inFlight[key] = struct{}{}
	return true
}

func (w *EventWriter) release(key string) {
	w.mu.Lock()
	delete(w.inFlight, key)
	w.mu.Unlock()
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	switch appErrors.FromError(err).Code {
	case appErrors.ErrPartialWrite.Code:
		return "partial"
	case appErrors.ErrValidation.Code:
		return "invalid"
	default:
		return "failure"
	}
}
