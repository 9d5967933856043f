package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/run-directory-api/internal/directory"
	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/models"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
)

type directoryRepoStub struct {
	listings []models.EventListing
	timeline []models.SeriesEventRef
	filters  []directory.Filter
	pages    [][2]int
}

func (s *directoryRepoStub) ListPublished(ctx context.Context, filter directory.Filter, page, size int) ([]models.EventListing, int, error) {
	s.filters = append(s.filters, filter)
	s.pages = append(s.pages, [2]int{page, size})
	return s.listings, len(s.listings), nil
}

func (s *directoryRepoStub) ListSeriesTimeline(ctx context.Context, seriesID string) ([]models.SeriesEventRef, error) {
	return s.timeline, nil
}

// memoryCache stores JSON encoded values the way the redis repository does.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items[key] = raw
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

func newDirectoryFixture() (*DirectoryService, *directoryRepoStub, *aggregateLoaderStub, *memoryCache) {
	repo := &directoryRepoStub{
		listings: []models.EventListing{{
			ID:            "ev-1",
			SeriesID:      "series-1",
			SeriesName:    "Jakarta Marathon",
			Year:          2025,
			DateStart:     time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
			DateEnd:       timePtr(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)),
			Location:      "Gelora Bung Karno",
			IsPublished:   true,
			DistanceNames: []string{"10K", "Half Marathon"},
			DistanceKms:   []float64{10, 21.1},
		}},
		timeline: []models.SeriesEventRef{
			{ID: "ev-0", Year: 2024, DateStart: time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)},
			{ID: "ev-1", Year: 2025, DateStart: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)},
		},
	}
	loader := &aggregateLoaderStub{agg: storedAggregate()}
	cache := newMemoryCache()
	svc := NewDirectoryService(repo, loader, cache, nil, DirectoryConfig{
		Location: wib,
		Now:      func() time.Time { return time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC) },
	})
	return svc, repo, loader, cache
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestDirectoryServiceListBuildsItems(t *testing.T) {
	svc, repo, _, _ := newDirectoryFixture()

	page, hit, err := svc.List(context.Background(), dto.DirectoryQuery{Search: " jakarta "})
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, page.Items, 1)
	item := page.Items[0]
	assert.Equal(t, "14 - 15 Juni 2025", item.DateRange)
	assert.Equal(t, "10K, Half Marathon", item.DistanceNames)
	assert.Equal(t, "10 - 21.1 km", item.DistanceRange)
	assert.Equal(t, 1, page.Pagination.TotalCount)

	require.Len(t, repo.filters, 1)
	assert.Equal(t, directory.ModeUpcoming, repo.filters[0].Mode)
	assert.Equal(t, "jakarta", repo.filters[0].Search)
	assert.Equal(t, "2025-03-02", repo.filters[0].TodayString())
	assert.Equal(t, [2]int{1, defaultDirectoryPage}, repo.pages[0])
}

func TestDirectoryServiceListUsesCacheUntilInvalidated(t *testing.T) {
	svc, repo, _, _ := newDirectoryFixture()
	query := dto.DirectoryQuery{Filter: "all", Page: 2, Limit: 500}

	_, hit, err := svc.List(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, [2]int{2, maxDirectoryPage}, repo.pages[0])

	_, hit, err = svc.List(context.Background(), query)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Len(t, repo.filters, 1)

	svc.Invalidate(context.Background())
	_, hit, err = svc.List(context.Background(), query)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, repo.filters, 2)
}

func TestDirectoryServiceRejectsUnknownFilter(t *testing.T) {
	svc, _, _, _ := newDirectoryFixture()

	_, _, err := svc.List(context.Background(), dto.DirectoryQuery{Filter: "tomorrow"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestDirectoryServiceDetailPublishedOnly(t *testing.T) {
	svc, _, loader, _ := newDirectoryFixture()
	loader.err = appErrors.Clone(appErrors.ErrNotFound, "event not found")

	_, _, err := svc.Detail(context.Background(), "draft")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestDirectoryServiceNeighbors(t *testing.T) {
	svc, _, _, _ := newDirectoryFixture()

	n, err := svc.Neighbors(context.Background(), "ev-1")
	require.NoError(t, err)
	require.NotNil(t, n.Prev)
	assert.Equal(t, "ev-0", n.Prev.ID)
	assert.Nil(t, n.Next)
}
