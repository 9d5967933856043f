package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/run-directory-api/internal/models"
)

// EventDistanceRepository manages the distance rows of an event.
type EventDistanceRepository struct {
	db *sqlx.DB
}

// NewEventDistanceRepository constructs repository.
func NewEventDistanceRepository(db *sqlx.DB) *EventDistanceRepository {
	return &EventDistanceRepository{db: db}
}

func (r *EventDistanceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeleteByEvent removes every distance row of an event.
func (r *EventDistanceRepository) DeleteByEvent(ctx context.Context, exec sqlx.ExtContext, eventID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM event_distances WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("delete event distances: %w", err)
	}
	return nil
}

// InsertBatch inserts rows in a single statement.
func (r *EventDistanceRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, rows []models.EventDistance) error {
	if len(rows) == 0 {
		return nil
	}
	const query = `INSERT INTO event_distances (event_id, distance_id, price_min, flag_off_time, cut_off_time_hrs, cut_off_points, route_image_url)
VALUES (:event_id, :distance_id, :price_min, :flag_off_time, :cut_off_time_hrs, :cut_off_points, :route_image_url)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, rows); err != nil {
		return fmt.Errorf("insert event distances: %w", err)
	}
	return nil
}

// ListDetailed returns an event's distances joined with the master row,
// shortest first.
func (r *EventDistanceRepository) ListDetailed(ctx context.Context, eventID string) ([]models.EventDistanceDetail, error) {
	const query = `SELECT ed.event_id, ed.distance_id, ed.price_min, ed.flag_off_time, ed.cut_off_time_hrs, ed.cut_off_points, ed.route_image_url,
d.distance_name, d.distance_km, d.sort_order
FROM event_distances ed JOIN distances d ON d.id = ed.distance_id WHERE ed.event_id = $1 ORDER BY d.distance_km ASC`
	var rows []models.EventDistanceDetail
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("list event distances: %w", err)
	}
	return rows, nil
}

// ListRouteImageURLs returns every route image URL still referenced by an event.
func (r *EventDistanceRepository) ListRouteImageURLs(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT route_image_url FROM event_distances WHERE route_image_url IS NOT NULL AND route_image_url <> ''`
	var urls []string
	if err := r.db.SelectContext(ctx, &urls, query); err != nil {
		return nil, fmt.Errorf("list route image urls: %w", err)
	}
	return urls, nil
}
