package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/run-directory-api/internal/directory"
	"github.com/noah-isme/run-directory-api/internal/models"
)

func newEventRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func listingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "series_id", "series_name", "event_year", "date_start", "date_end", "event_location", "is_published"})
}

func TestEventRepositoryListPublishedUpcoming(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	filter, err := directory.BuildFilter("upcoming", "", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 2025)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id, e.series_id, s.series_name, e.event_year, e.date_start, e.date_end, e.event_location, e.is_published FROM events e JOIN series s ON s.id = e.series_id WHERE e.is_published = TRUE AND e.date_start >= $1 ORDER BY e.date_start ASC, e.id ASC LIMIT 20 OFFSET 0")).
		WithArgs("2025-06-01").
		WillReturnRows(listingRows().
			AddRow("ev-1", "s-1", "Jakarta Marathon", 2025, time.Date(2025, 10, 19, 0, 0, 0, 0, time.UTC), nil, "Jakarta", true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM events e JOIN series s ON s.id = e.series_id WHERE e.is_published = TRUE AND e.date_start >= $1")).
		WithArgs("2025-06-01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT ed.event_id, d.distance_name, d.distance_km FROM event_distances ed")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "distance_name", "distance_km"}).
			AddRow("ev-1", "10K", 10.0).
			AddRow("ev-1", "Full Marathon", 42.195))

	listings, total, err := repo.ListPublished(context.Background(), filter, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, listings, 1)
	assert.Equal(t, []string{"10K", "Full Marathon"}, listings[0].DistanceNames)
	assert.Equal(t, []float64{10, 42.195}, listings[0].DistanceKms)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListPublishedFinishedWithSearch(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	filter, err := directory.BuildFilter("finished", "100%_run", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), 2025)
	require.NoError(t, err)

	where := `FROM events e JOIN series s ON s.id = e.series_id WHERE e.is_published = TRUE AND e.date_start < $1 AND (s.series_name ILIKE $2 ESCAPE '\' OR e.event_location ILIKE $2 ESCAPE '\')`
	mock.ExpectQuery(regexp.QuoteMeta("SELECT e.id, e.series_id, s.series_name, e.event_year, e.date_start, e.date_end, e.event_location, e.is_published " + where + " ORDER BY e.date_start DESC, e.id ASC")).
		WithArgs("2025-06-01", `%100\%\_run%`).
		WillReturnRows(listingRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) "+where)).
		WithArgs("2025-06-01", `%100\%\_run%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	listings, total, err := repo.ListPublished(context.Background(), filter, 0, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, listings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListSeriesTimeline(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, event_year, date_start FROM events WHERE series_id = $1 AND is_published = TRUE ORDER BY event_year ASC, date_start ASC")).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_year", "date_start"}).
			AddRow("ev-2024", 2024, time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)).
			AddRow("ev-2025", 2025, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))

	refs, err := repo.ListSeriesTimeline(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "ev-2025", refs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListAdmin(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	mock.ExpectQuery(`FROM events e LEFT JOIN series s ON s.id = e.series_id WHERE e.series_id = \$1 ORDER BY e.date_start DESC`).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "series_id", "event_year", "date_start", "date_end", "event_location", "is_published", "results_links", "docs_links", "rpc_info", "created_at", "updated_at", "series_name"}).
			AddRow("ev-1", "s-1", 2025, now, nil, "Magelang", false, []byte(`[]`), []byte(`[]`), []byte(`[]`), now, now, "Borobudur Marathon"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT ed.event_id, d.distance_name, d.distance_km FROM event_distances ed")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "distance_name", "distance_km"}).AddRow("ev-1", "Half Marathon", 21.0975))

	rows, err := repo.ListAdmin(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Borobudur Marathon", rows[0].SeriesName)
	assert.Equal(t, []string{"Half Marathon"}, rows[0].DistanceNames)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET series_id")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), nil, &models.Event{ID: "missing", SeriesID: "s-1"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryFindPublishedByIDHidesDrafts(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = $1 AND is_published = TRUE")).
		WithArgs("draft").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindPublishedByID(context.Background(), "draft")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_road \\`, escapeLike(`50% off_road \`))
}
