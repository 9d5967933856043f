package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/run-directory-api/internal/directory"
	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/models"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
)

// MissingSeriesLabel replaces the series name of events whose series is gone.
const MissingSeriesLabel = "Series Tidak Ditemukan"

type eventReader interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	FindPublishedByID(ctx context.Context, id string) (*models.Event, error)
	ListAdmin(ctx context.Context, seriesID string) ([]models.AdminEventRow, error)
}

type seriesFinder interface {
	FindByID(ctx context.Context, id string) (*models.Series, error)
}

type eventDistanceReader interface {
	ListDetailed(ctx context.Context, eventID string) ([]models.EventDistanceDetail, error)
}

type eventRaceTypeReader interface {
	ListDetailed(ctx context.Context, eventID string) ([]models.EventRaceTypeDetail, error)
}

type eventDeleter interface {
	Delete(ctx context.Context, eventID string) error
}

// EventAdminConfig tunes back-office event operations.
type EventAdminConfig struct {
	DeleteIntentTTL time.Duration
	Now             func() time.Time
}

// EventAdminService loads event aggregates and runs the back-office list and
// the two-step delete.
type EventAdminService struct {
	events      eventReader
	series      seriesFinder
	distances   eventDistanceReader
	raceTypes   eventRaceTypeReader
	deleter     eventDeleter
	invalidator directoryInvalidator
	intents     *deleteIntentStore
	logger      *zap.Logger
}

// NewEventAdminService wires dependencies.
func NewEventAdminService(events eventReader, series seriesFinder, distances eventDistanceReader, raceTypes eventRaceTypeReader, deleter eventDeleter, invalidator directoryInvalidator, logger *zap.Logger, cfg EventAdminConfig) *EventAdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DeleteIntentTTL <= 0 {
		cfg.DeleteIntentTTL = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &EventAdminService{
		events:      events,
		series:      series,
		distances:   distances,
		raceTypes:   raceTypes,
		deleter:     deleter,
		invalidator: invalidator,
		intents:     newDeleteIntentStore(cfg.DeleteIntentTTL, cfg.Now),
		logger:      logger,
	}
}

// LoadAggregate reads an event with its series and child rows. With
// publishedOnly set, drafts are reported as not found.
func (s *EventAdminService) LoadAggregate(ctx context.Context, id string, publishedOnly bool) (*models.EventAggregate, error) {
	var (
		event *models.Event
		err   error
	)
	if publishedOnly {
		event, err = s.events.FindPublishedByID(ctx, id)
	} else {
		event, err = s.events.FindByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}

	agg := &models.EventAggregate{Event: *event}
	if series, err := s.series.FindByID(ctx, event.SeriesID); err == nil {
		agg.Series = series
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}

	distances, err := s.distances.ListDetailed(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event distances")
	}
	raceTypes, err := s.raceTypes.ListDetailed(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event race types")
	}
	if distances == nil {
		distances = []models.EventDistanceDetail{}
	}
	if raceTypes == nil {
		raceTypes = []models.EventRaceTypeDetail{}
	}
	agg.Distances = distances
	agg.RaceTypes = raceTypes
	return agg, nil
}

// ListAdmin returns every event, newest first, optionally for one series.
func (s *EventAdminService) ListAdmin(ctx context.Context, seriesID string) ([]dto.AdminEventItem, error) {
	rows, err := s.events.ListAdmin(ctx, strings.TrimSpace(seriesID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	items := make([]dto.AdminEventItem, 0, len(rows))
	for _, row := range rows {
		name := row.SeriesName
		if name == "" {
			name = MissingSeriesLabel
		}
		items = append(items, dto.AdminEventItem{
			ID:            row.ID,
			SeriesID:      row.SeriesID,
			SeriesName:    name,
			EventYear:     row.Year,
			DateStart:     row.DateStart,
			DateEnd:       row.DateEnd,
			Location:      row.Location,
			IsPublished:   row.IsPublished,
			DistanceNames: directory.JoinDistanceNames(row.DistanceNames),
		})
	}
	return items, nil
}

// RequestDelete issues a confirmation token for deleting an event.
func (s *EventAdminService) RequestDelete(ctx context.Context, id string) (*dto.DeleteIntent, error) {
	if _, err := s.events.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	intent := s.intents.Issue(id)
	return &dto.DeleteIntent{EventID: id, Token: intent.token, ExpiresAt: intent.expiresAt}, nil
}

// Delete removes an event with its children once token confirms the intent.
// A failed delete keeps the intent so the caller may retry.
func (s *EventAdminService) Delete(ctx context.Context, id, token string) error {
	if !s.intents.Confirm(id, token) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "delete confirmation is missing or expired")
	}
	if err := s.deleter.Delete(ctx, id); err != nil {
		return err
	}
	s.intents.Delete(id)
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	s.logger.Info("event deleted", zap.String("event_id", id))
	return nil
}

// SweepExpired discards delete intents that were never confirmed.
func (s *EventAdminService) SweepExpired() int {
	removed := s.intents.Sweep()
	if removed > 0 {
		s.logger.Info("expired delete intents removed", zap.Int("count", removed))
	}
	return removed
}

type deleteIntent struct {
	token     string
	expiresAt time.Time
}

type deleteIntentStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]deleteIntent
}

func newDeleteIntentStore(ttl time.Duration, now func() time.Time) *deleteIntentStore {
	return &deleteIntentStore{
		ttl:   ttl,
		now:   now,
		items: make(map[string]deleteIntent),
	}
}

func (s *deleteIntentStore) Issue(eventID string) deleteIntent {
	intent := deleteIntent{token: uuid.NewString(), expiresAt: s.now().Add(s.ttl)}
	s.mu.Lock()
	s.items[eventID] = intent
	s.mu.Unlock()
	return intent
}

func (s *deleteIntentStore) Confirm(eventID, token string) bool {
	s.mu.RLock()
	intent, ok := s.items[eventID]
	s.mu.RUnlock()
	if !ok || token == "" {
		return false
	}
	if s.now().After(intent.expiresAt) {
		s.Delete(eventID)
		return false
	}
	return subtle.ConstantTimeCompare([]byte(intent.token), []byte(token)) == 1
}

func (s *deleteIntentStore) Delete(eventID string) {
	s.mu.Lock()
	delete(s.items, eventID)
	s.mu.Unlock()
}

// Sweep drops intents past their expiry and reports how many were removed.
func (s *deleteIntentStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, intent := range s.items {
		if now.After(intent.expiresAt) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}
