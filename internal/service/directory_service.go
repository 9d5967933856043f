package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/run-directory-api/internal/directory"
	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/models"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
	"github.com/noah-isme/run-directory-api/pkg/response"
)

const (
	directoryCachePrefix = "directory:"
	defaultDirectoryPage = 20
	maxDirectoryPage     = 100
)

type directoryRepository interface {
	ListPublished(ctx context.Context, filter directory.Filter, page, size int) ([]models.EventListing, int, error)
	ListSeriesTimeline(ctx context.Context, seriesID string) ([]models.SeriesEventRef, error)
}

type directoryCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string) error
}

// InvalidatorFunc adapts a function to the cache invalidation hook used by
// write services.
type InvalidatorFunc func(ctx context.Context)

// Invalidate calls f.
func (f InvalidatorFunc) Invalidate(ctx context.Context) {
	f(ctx)
}

// DirectoryConfig tunes the public read path.
type DirectoryConfig struct {
	CacheTTL time.Duration
	Location *time.Location
	Now      func() time.Time
	Metrics  *MetricsService
}

// DirectoryPage is one page of the public listing.
type DirectoryPage struct {
	Items      []dto.DirectoryItem `json:"items"`
	Pagination response.Pagination `json:"pagination"`
}

// DirectoryService serves published events to visitors.
type DirectoryService struct {
	repo   directoryRepository
	loader aggregateLoader
	cache  directoryCache
	logger *zap.Logger
	cfg    DirectoryConfig
}

// NewDirectoryService wires dependencies. cache may be nil.
func NewDirectoryService(repo directoryRepository, loader aggregateLoader, cache directoryCache, logger *zap.Logger, cfg DirectoryConfig) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &DirectoryService{repo: repo, loader: loader, cache: cache, logger: logger, cfg: cfg}
}

// Filter normalises a listing query against today's date in the directory timezone.
func (s *DirectoryService) Filter(query dto.DirectoryQuery) (directory.Filter, error) {
	today := s.cfg.Now().In(s.cfg.Location)
	filter, err := directory.BuildFilter(query.Filter, query.Search, today, today.Year())
	if err != nil {
		return directory.Filter{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "filter must be one of upcoming, this_year, finished, all")
	}
	return filter, nil
}

// List returns one page of published events. The boolean reports a cache hit.
func (s *DirectoryService) List(ctx context.Context, query dto.DirectoryQuery) (*DirectoryPage, bool, error) {
	filter, err := s.Filter(query)
	if err != nil {
		return nil, false, err
	}
	page, size := normalizePage(query.Page, query.Limit)

	key := fmt.Sprintf("%slist:%s:%s:%s:%d:%d", directoryCachePrefix, filter.Mode, strings.ToLower(filter.Search), filter.TodayString(), page, size)
	var cached DirectoryPage
	if s.readCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	start := time.Now()
	listings, total, err := s.repo.ListPublished(ctx, filter, page, size)
	s.cfg.Metrics.ObserveDBQuery("directory_list", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	result := &DirectoryPage{
		Items:      toDirectoryItems(listings),
		Pagination: response.Pagination{Page: page, PageSize: size, TotalCount: total},
	}
	s.writeCache(ctx, key, result)
	return result, false, nil
}

// All returns every published event matching query, unpaged.
func (s *DirectoryService) All(ctx context.Context, query dto.DirectoryQuery) ([]dto.DirectoryItem, error) {
	filter, err := s.Filter(query)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	listings, _, err := s.repo.ListPublished(ctx, filter, 0, 0)
	s.cfg.Metrics.ObserveDBQuery("directory_export", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return toDirectoryItems(listings), nil
}

// Detail returns a published event with its series and children.
func (s *DirectoryService) Detail(ctx context.Context, id string) (*dto.EventDetail, bool, error) {
	key := directoryCachePrefix + "event:" + id
	var cached dto.EventDetail
	if s.readCache(ctx, key, &cached) {
		return &cached, true, nil
	}
	agg, err := s.loader.LoadAggregate(ctx, id, true)
	if err != nil {
		return nil, false, err
	}
	detail := &dto.EventDetail{
		EventAggregate: *agg,
		DateRange:      directory.FormatDateRange(agg.Event.DateStart, agg.Event.DateEnd),
	}
	s.writeCache(ctx, key, detail)
	return detail, false, nil
}

// Neighbors returns the previous and next published events of the same series.
func (s *DirectoryService) Neighbors(ctx context.Context, id string) (directory.Neighbors, error) {
	agg, err := s.loader.LoadAggregate(ctx, id, true)
	if err != nil {
		return directory.Neighbors{}, err
	}
	start := time.Now()
	refs, err := s.repo.ListSeriesTimeline(ctx, agg.Event.SeriesID)
	s.cfg.Metrics.ObserveDBQuery("series_timeline", time.Since(start))
	if err != nil {
		return directory.Neighbors{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series timeline")
	}
	return directory.ComputeNeighbors(refs, id), nil
}

// Invalidate drops every cached directory response.
func (s *DirectoryService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, directoryCachePrefix+"*"); err != nil {
		s.logger.Warn("directory cache invalidation failed", zap.Error(err))
	}
}

func (s *DirectoryService) readCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("directory cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *DirectoryService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("directory cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultDirectoryPage
	}
	if size > maxDirectoryPage {
		size = maxDirectoryPage
	}
	return page, size
}

func toDirectoryItems(listings []models.EventListing) []dto.DirectoryItem {
	items := make([]dto.DirectoryItem, 0, len(listings))
	for _, l := range listings {
		items = append(items, dto.DirectoryItem{
			ID:            l.ID,
			SeriesID:      l.SeriesID,
			SeriesName:    l.SeriesName,
			EventYear:     l.Year,
			DateStart:     l.DateStart,
			DateEnd:       l.DateEnd,
			DateRange:     directory.FormatDateRange(l.DateStart, l.DateEnd),
			Location:      l.Location,
			DistanceNames: directory.JoinDistanceNames(l.DistanceNames),
			DistanceRange: directory.SummarizeDistances(l.DistanceKms),
		})
	}
	return items
}
