package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/models"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
	"github.com/noah-isme/run-directory-api/pkg/jobs"
	"github.com/noah-isme/run-directory-api/pkg/storage"
)

const (
	routeImageQueueName = "route-images"
	routeImagePrefix    = "event-routes"
)

type routeImageSessions interface {
	BeginRouteImageUpload(ctx context.Context, sessionID, slotID string) (RouteImageTarget, error)
	CompleteRouteImageUpload(sessionID, slotID, url string) error
	FailRouteImageUpload(sessionID, slotID, reason string) error
}

type routeImageStorage interface {
	Save(key string, data []byte) (string, error)
	Delete(key string) error
}

type distanceFinder interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Distance, error)
}

// RouteImageUpload is a received file awaiting validation.
type RouteImageUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// RouteImageConfig tunes route image handling.
type RouteImageConfig struct {
	MaxFileSize   int64
	AllowedMIMEs  []string
	PublicBaseURL string
	Workers       int
	Retries       int
	RetryDelay    time.Duration
	Now           func() time.Time
}

type routeImageJob struct {
	SessionID string
	SlotID    string
	Key       string
	Data      []byte
}

// RouteImageService validates route images and stores them on the
// route-images queue. Results are written back into the authoring session.
type RouteImageService struct {
	sessions  routeImageSessions
	series    seriesFinder
	distances distanceFinder
	storage   routeImageStorage
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       RouteImageConfig
	mimeSet   map[string]struct{}
	queue     *jobs.Queue[routeImageJob]
}

// NewRouteImageService constructs the service and its worker queue.
func NewRouteImageService(sessions routeImageSessions, series seriesFinder, distances distanceFinder, storage routeImageStorage, metrics *MetricsService, logger *zap.Logger, cfg RouteImageConfig) *RouteImageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(mt)] = struct{}{}
	}
	svc := &RouteImageService{
		sessions:  sessions,
		series:    series,
		distances: distances,
		storage:   storage,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		mimeSet:   mimeSet,
	}
	svc.queue = jobs.NewQueue(routeImageQueueName, svc.process, jobs.QueueConfig[routeImageJob]{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnGiveUp:   svc.giveUp,
	})
	return svc
}

// Start launches the storage workers.
func (s *RouteImageService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the storage workers.
func (s *RouteImageService) Stop() {
	s.queue.Stop()
}

// Upload checks the file, marks the slot pending and queues the file for storage.
func (s *RouteImageService) Upload(ctx context.Context, sessionID, slotID string, upload RouteImageUpload) (*dto.RouteImageUploadAccepted, error) {
	if upload.Content == nil || upload.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	data, err := io.ReadAll(io.LimitReader(upload.Content, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty file")
	}
	if _, allowed := s.mimeSet[detectMime(data)]; !allowed {
		s.metrics.RecordRouteImageUpload("rejected")
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "route image must be a jpeg, png, webp or gif image")
	}

	target, err := s.sessions.BeginRouteImageUpload(ctx, sessionID, slotID)
	if err != nil {
		return nil, err
	}
	key, err := s.objectKey(ctx, target, upload.Filename)
	if err != nil {
		_ = s.sessions.FailRouteImageUpload(sessionID, slotID, appErrors.FromError(err).Message)
		return nil, err
	}

	job := jobs.Job[routeImageJob]{
		ID:      sessionID + ":" + slotID,
		Payload: routeImageJob{SessionID: sessionID, SlotID: slotID, Key: key, Data: data},
	}
	if err := s.queue.Enqueue(job); err != nil {
		_ = s.sessions.FailRouteImageUpload(sessionID, slotID, "upload queue unavailable")
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue route image")
	}
	return &dto.RouteImageUploadAccepted{SessionID: sessionID, SlotID: slotID, Status: "pending", Key: key}, nil
}

// objectKey builds event-routes/<series>/<year>/<distance>-<unix ms>-<file>.
func (s *RouteImageService) objectKey(ctx context.Context, target RouteImageTarget, filename string) (string, error) {
	series, err := s.series.FindByID(ctx, target.SeriesID)
	if err != nil {
		return "", lookupError(err, "series")
	}
	distance, err := s.distances.FindByID(ctx, nil, target.DistanceID)
	if err != nil {
		return "", lookupError(err, "distance")
	}
	name := slugify(filename)
	if name == "" {
		name = "route"
	}
	return fmt.Sprintf("%s/%s/%d/%s-%d-%s",
		routeImagePrefix,
		slugify(series.Name),
		target.Year,
		slugify(distance.Name),
		s.cfg.Now().UnixMilli(),
		name,
	), nil
}

// PublicURL maps a stored key to the URL visitors load it from.
func (s *RouteImageService) PublicURL(key string) string {
	return s.cfg.PublicBaseURL + "/" + key
}

func (s *RouteImageService) process(ctx context.Context, job jobs.Job[routeImageJob]) error {
	payload := job.Payload
	key, err := s.storage.Save(payload.Key, payload.Data)
	if errors.Is(err, storage.ErrInvalidPath) {
		return jobs.Permanent(err)
	}
	if err != nil {
		return fmt.Errorf("store route image: %w", err)
	}
	if err := s.sessions.CompleteRouteImageUpload(payload.SessionID, payload.SlotID, s.PublicURL(key)); err != nil {
		// the session closed while the file was being stored
		s.logger.Warn("route image stored for a closed session",
			zap.String("session_id", payload.SessionID),
			zap.String("key", key),
			zap.Error(err))
		if delErr := s.storage.Delete(key); delErr != nil {
			s.logger.Warn("route image not removed, left for the orphan sweep", zap.String("key", key), zap.Error(delErr))
		}
		return nil
	}
	s.metrics.RecordRouteImageUpload("stored")
	s.logger.Info("route image stored", zap.String("session_id", payload.SessionID), zap.String("key", key))
	return nil
}

func (s *RouteImageService) giveUp(job jobs.Job[routeImageJob], err error) {
	s.metrics.RecordRouteImageUpload("failed")
	payload := job.Payload
	if failErr := s.sessions.FailRouteImageUpload(payload.SessionID, payload.SlotID, "failed to store route image"); failErr != nil {
		s.logger.Warn("route image failure not recorded", zap.String("session_id", payload.SessionID), zap.Error(failErr))
	}
	s.logger.Error("route image upload failed", zap.String("key", payload.Key), zap.Error(err))
}

func detectMime(data []byte) string {
	header := data
	if len(header) > 512 {
		header = header[:512]
	}
	mt := http.DetectContentType(header)
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}

func lookupError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s not found, choose it again before uploading", entity))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve upload path")
}

// slugify lowercases raw and replaces whitespace and path separators with dashes.
func slugify(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case unicode.IsSpace(r), r == '/', r == '\\':
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".")
}
