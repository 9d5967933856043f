package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/run-directory-api/internal/models"
)

// RaceTypeRepository persists the race type master list.
type RaceTypeRepository struct {
	db *sqlx.DB
}

// NewRaceTypeRepository constructs repository.
func NewRaceTypeRepository(db *sqlx.DB) *RaceTypeRepository {
	return &RaceTypeRepository{db: db}
}

func (r *RaceTypeRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns race types in display order.
func (r *RaceTypeRepository) List(ctx context.Context) ([]models.RaceType, error) {
	const query = `SELECT id, type_name, description, sort_order FROM race_types ORDER BY sort_order ASC, type_name ASC`
	var types []models.RaceType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list race types: %w", err)
	}
	return types, nil
}

// FindByID loads a race type.
func (r *RaceTypeRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RaceType, error) {
	const query = `SELECT id, type_name, description, sort_order FROM race_types WHERE id = $1`
	var rt models.RaceType
	if err := sqlx.GetContext(ctx, r.exec(exec), &rt, query, id); err != nil {
		return nil, err
	}
	return &rt, nil
}

// Create appends a race type at the end of the display order.
func (r *RaceTypeRepository) Create(ctx context.Context, rt *models.RaceType) error {
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	next, err := nextSortOrder(ctx, r.db, "race_types")
	if err != nil {
		return err
	}
	rt.SortOrder = next

	const query = `INSERT INTO race_types (id, type_name, description, sort_order) VALUES (:id, :type_name, :description, :sort_order)`
	if _, err := r.db.NamedExecContext(ctx, query, rt); err != nil {
		return fmt.Errorf("create race type: %w", err)
	}
	return nil
}

// Update changes name and description.
func (r *RaceTypeRepository) Update(ctx context.Context, rt *models.RaceType) error {
	const query = `UPDATE race_types SET type_name = :type_name, description = :description WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, rt)
	if err != nil {
		return fmt.Errorf("update race type: %w", err)
	}
	return expectAffected(result, "race type")
}

// Delete removes a race type.
func (r *RaceTypeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM race_types WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete race type: %w", err)
	}
	return expectAffected(result, "race type")
}

// Move swaps the race type with its neighbour in dir.
func (r *RaceTypeRepository) Move(ctx context.Context, exec sqlx.ExtContext, rt *models.RaceType, dir models.MoveDirection) (bool, error) {
	return moveRow(ctx, r.exec(exec), "race_types", "sort_order, type_name, id", sortKey{ID: rt.ID, SortOrder: rt.SortOrder}, dir)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
