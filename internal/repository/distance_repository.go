package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/run-directory-api/internal/models"
)

// DistanceRepository persists the distance master list.
type DistanceRepository struct {
	db *sqlx.DB
}

// NewDistanceRepository constructs repository.
func NewDistanceRepository(db *sqlx.DB) *DistanceRepository {
	return &DistanceRepository{db: db}
}

func (r *DistanceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns distances in display order.
func (r *DistanceRepository) List(ctx context.Context) ([]models.Distance, error) {
	const query = `SELECT id, distance_name, distance_km, sort_order FROM distances ORDER BY sort_order ASC, distance_km ASC`
	var distances []models.Distance
	if err := r.db.SelectContext(ctx, &distances, query); err != nil {
		return nil, fmt.Errorf("list distances: %w", err)
	}
	return distances, nil
}

// FindByID loads a distance.
func (r *DistanceRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Distance, error) {
	const query = `SELECT id, distance_name, distance_km, sort_order FROM distances WHERE id = $1`
	var distance models.Distance
	if err := sqlx.GetContext(ctx, r.exec(exec), &distance, query, id); err != nil {
		return nil, err
	}
	return &distance, nil
}

// Create appends a distance at the end of the display order.
func (r *DistanceRepository) Create(ctx context.Context, distance *models.Distance) error {
	if distance.ID == "" {
		distance.ID = uuid.NewString()
	}
	next, err := nextSortOrder(ctx, r.db, "distances")
	if err != nil {
		return err
	}
	distance.SortOrder = next

	const query = `INSERT INTO distances (id, distance_name, distance_km, sort_order) VALUES (:id, :distance_name, :distance_km, :sort_order)`
	if _, err := r.db.NamedExecContext(ctx, query, distance); err != nil {
		return fmt.Errorf("create distance: %w", err)
	}
	return nil
}

// Update changes name and km. Sort order only changes through Move.
func (r *DistanceRepository) Update(ctx context.Context, distance *models.Distance) error {
	const query = `UPDATE distances SET distance_name = :distance_name, distance_km = :distance_km WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, distance)
	if err != nil {
		return fmt.Errorf("update distance: %w", err)
	}
	return expectAffected(result, "distance")
}

// Delete removes a distance. Distances used by events are rejected by the
// foreign key.
func (r *DistanceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM distances WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete distance: %w", err)
	}
	return expectAffected(result, "distance")
}

// Move swaps the distance with its neighbour in dir. It reports false when the
// distance is already at that edge.
func (r *DistanceRepository) Move(ctx context.Context, exec sqlx.ExtContext, distance *models.Distance, dir models.MoveDirection) (bool, error) {
	return moveRow(ctx, r.exec(exec), "distances", "sort_order, distance_km, id", sortKey{ID: distance.ID, SortOrder: distance.SortOrder}, dir)
}
