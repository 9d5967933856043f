package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/run-directory-api/internal/models"
)

// EventRaceTypeRepository manages the race type associations of an event.
type EventRaceTypeRepository struct {
	db *sqlx.DB
}

// NewEventRaceTypeRepository constructs repository.
func NewEventRaceTypeRepository(db *sqlx.DB) *EventRaceTypeRepository {
	return &EventRaceTypeRepository{db: db}
}

func (r *EventRaceTypeRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// DeleteByEvent removes every race type association of an event.
func (r *EventRaceTypeRepository) DeleteByEvent(ctx context.Context, exec sqlx.ExtContext, eventID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `DELETE FROM event_race_types WHERE event_id = $1`, eventID); err != nil {
		return fmt.Errorf("delete event race types: %w", err)
	}
	return nil
}

// InsertBatch inserts associations in a single statement.
func (r *EventRaceTypeRepository) InsertBatch(ctx context.Context, exec sqlx.ExtContext, rows []models.EventRaceType) error {
	if len(rows) == 0 {
		return nil
	}
	const query = `INSERT INTO event_race_types (event_id, type_id) VALUES (:event_id, :type_id)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, rows); err != nil {
		return fmt.Errorf("insert event race types: %w", err)
	}
	return nil
}

// ListDetailed returns an event's race types with their names.
func (r *EventRaceTypeRepository) ListDetailed(ctx context.Context, eventID string) ([]models.EventRaceTypeDetail, error) {
	const query = `SELECT ert.event_id, ert.type_id, rt.type_name FROM event_race_types ert
JOIN race_types rt ON rt.id = ert.type_id WHERE ert.event_id = $1 ORDER BY rt.sort_order ASC`
	var rows []models.EventRaceTypeDetail
	if err := r.db.SelectContext(ctx, &rows, query, eventID); err != nil {
		return nil, fmt.Errorf("list event race types: %w", err)
	}
	return rows, nil
}
