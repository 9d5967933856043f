package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/run-directory-api/internal/models"
)

const seriesColumns = `id, series_name, organizer, location_city_main, series_official_url, description, created_at, updated_at`

// SeriesRepository persists event series.
type SeriesRepository struct {
	db *sqlx.DB
}

// NewSeriesRepository constructs repository.
func NewSeriesRepository(db *sqlx.DB) *SeriesRepository {
	return &SeriesRepository{db: db}
}

// List returns all series ordered by name.
func (r *SeriesRepository) List(ctx context.Context) ([]models.Series, error) {
	query := `SELECT ` + seriesColumns + ` FROM series ORDER BY series_name ASC`
	var series []models.Series
	if err := r.db.SelectContext(ctx, &series, query); err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return series, nil
}

// FindByID loads a series by id.
func (r *SeriesRepository) FindByID(ctx context.Context, id string) (*models.Series, error) {
	query := `SELECT ` + seriesColumns + ` FROM series WHERE id = $1`
	var series models.Series
	if err := r.db.GetContext(ctx, &series, query, id); err != nil {
		return nil, err
	}
	return &series, nil
}

// Create inserts a series.
func (r *SeriesRepository) Create(ctx context.Context, series *models.Series) error {
	if series.ID == "" {
		series.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if series.CreatedAt.IsZero() {
		series.CreatedAt = now
	}
	series.UpdatedAt = now

	const query = `INSERT INTO series (id, series_name, organizer, location_city_main, series_official_url, description, created_at, updated_at)
VALUES (:id, :series_name, :organizer, :location_city_main, :series_official_url, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, series); err != nil {
		return fmt.Errorf("create series: %w", err)
	}
	return nil
}

// Update modifies a series.
func (r *SeriesRepository) Update(ctx context.Context, series *models.Series) error {
	series.UpdatedAt = time.Now().UTC()
	const query = `UPDATE series SET series_name = :series_name, organizer = :organizer, location_city_main = :location_city_main,
series_official_url = :series_official_url, description = :description, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, series)
	if err != nil {
		return fmt.Errorf("update series: %w", err)
	}
	return expectAffected(result, "series")
}

// Delete removes a series. Series that still own events are rejected by the
// foreign key.
func (r *SeriesRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM series WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete series: %w", err)
	}
	return expectAffected(result, "series")
}

func expectAffected(result sql.Result, entity string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", entity, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
