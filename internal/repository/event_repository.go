package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/run-directory-api/internal/directory"
	"github.com/noah-isme/run-directory-api/internal/models"
)

const eventColumns = `id, series_id, event_year, date_start, date_end, event_location, is_published, results_links, docs_links, rpc_info, created_at, updated_at`

// EventRepository persists event rows and serves directory reads.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// Insert creates the parent event row and assigns its id.
func (r *EventRepository) Insert(ctx context.Context, exec sqlx.ExtContext, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	const query = `INSERT INTO events (id, series_id, event_year, date_start, date_end, event_location, is_published, results_links, docs_links, rpc_info, created_at, updated_at)
VALUES (:id, :series_id, :event_year, :date_start, :date_end, :event_location, :is_published, :results_links, :docs_links, :rpc_info, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, event); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Update overwrites the parent event row.
func (r *EventRepository) Update(ctx context.Context, exec sqlx.ExtContext, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET series_id = :series_id, event_year = :event_year, date_start = :date_start, date_end = :date_end,
event_location = :event_location, is_published = :is_published, results_links = :results_links, docs_links = :docs_links,
rpc_info = :rpc_info, updated_at = :updated_at WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, event)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return expectAffected(result, "event")
}

// Delete removes the parent event row. Children must already be gone.
func (r *EventRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	result, err := r.exec(exec).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return expectAffected(result, "event")
}

// FindByID loads an event regardless of publication.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// FindPublishedByID loads an event only when it is published.
func (r *EventRepository) FindPublishedByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1 AND is_published = TRUE`
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListPublished returns published events matching filter with the total
// count. A size of zero returns every match.
func (r *EventRepository) ListPublished(ctx context.Context, filter directory.Filter, page, size int) ([]models.EventListing, int, error) {
	base, args := publishedWhere(filter)

	order := "ASC"
	if filter.Descending() {
		order = "DESC"
	}
	query := fmt.Sprintf(`SELECT e.id, e.series_id, s.series_name, e.event_year, e.date_start, e.date_end, e.event_location, e.is_published %s ORDER BY e.date_start %s, e.id ASC`, base, order)
	if size > 0 {
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", size, (page-1)*size)
	}

	var listings []models.EventListing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list published events: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count published events: %w", err)
	}

	if err := r.attachDistances(ctx, listings); err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func publishedWhere(filter directory.Filter) (string, []interface{}) {
	base := "FROM events e JOIN series s ON s.id = e.series_id WHERE e.is_published = TRUE"
	var args []interface{}

	switch filter.Mode {
	case directory.ModeUpcoming:
		args = append(args, filter.TodayString())
		base += fmt.Sprintf(" AND e.date_start >= $%d", len(args))
	case directory.ModeThisYear:
		args = append(args, filter.Year)
		base += fmt.Sprintf(" AND e.event_year = $%d", len(args))
	case directory.ModeFinished:
		args = append(args, filter.TodayString())
		base += fmt.Sprintf(" AND e.date_start < $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		base += fmt.Sprintf(` AND (s.series_name ILIKE $%d ESCAPE '\' OR e.event_location ILIKE $%d ESCAPE '\')`, len(args), len(args))
	}
	return base, args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike neutralises LIKE wildcards in user input.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type eventDistanceName struct {
	EventID string  `db:"event_id"`
	Name    string  `db:"distance_name"`
	Km      float64 `db:"distance_km"`
}

func (r *EventRepository) distanceNames(ctx context.Context, ids []string) (map[string][]eventDistanceName, error) {
	out := make(map[string][]eventDistanceName, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	const query = `SELECT ed.event_id, d.distance_name, d.distance_km FROM event_distances ed
JOIN distances d ON d.id = ed.distance_id WHERE ed.event_id = ANY($1) ORDER BY d.sort_order ASC, d.distance_km ASC`
	var rows []eventDistanceName
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list event distance names: %w", err)
	}
	for _, row := range rows {
		out[row.EventID] = append(out[row.EventID], row)
	}
	return out, nil
}

func (r *EventRepository) attachDistances(ctx context.Context, listings []models.EventListing) error {
	ids := make([]string, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	names, err := r.distanceNames(ctx, ids)
	if err != nil {
		return err
	}
	for i := range listings {
		for _, d := range names[listings[i].ID] {
			listings[i].DistanceNames = append(listings[i].DistanceNames, d.Name)
			listings[i].DistanceKms = append(listings[i].DistanceKms, d.Km)
		}
	}
	return nil
}

// ListSeriesTimeline returns the published events of a series in
// chronological order.
func (r *EventRepository) ListSeriesTimeline(ctx context.Context, seriesID string) ([]models.SeriesEventRef, error) {
	const query = `SELECT id, event_year, date_start FROM events WHERE series_id = $1 AND is_published = TRUE ORDER BY event_year ASC, date_start ASC`
	var refs []models.SeriesEventRef
	if err := r.db.SelectContext(ctx, &refs, query, seriesID); err != nil {
		return nil, fmt.Errorf("list series timeline: %w", err)
	}
	return refs, nil
}

// ListAdmin returns every event, newest first, optionally limited to one
// series. Events whose series is gone get an empty series name.
func (r *EventRepository) ListAdmin(ctx context.Context, seriesID string) ([]models.AdminEventRow, error) {
	query := `SELECT e.id, e.series_id, e.event_year, e.date_start, e.date_end, e.event_location, e.is_published, e.results_links,
e.docs_links, e.rpc_info, e.created_at, e.updated_at, COALESCE(s.series_name, '') AS series_name
FROM events e LEFT JOIN series s ON s.id = e.series_id`
	var args []interface{}
	if seriesID != "" {
		query += " WHERE e.series_id = $1"
		args = append(args, seriesID)
	}
	query += " ORDER BY e.date_start DESC"

	var rows []models.AdminEventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list admin events: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	names, err := r.distanceNames(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		for _, d := range names[rows[i].ID] {
			rows[i].DistanceNames = append(rows[i].DistanceNames, d.Name)
		}
	}
	return rows, nil
}
