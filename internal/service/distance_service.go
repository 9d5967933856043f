package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/models"
	"github.com/noah-isme/run-directory-api/pkg/database"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
	"github.com/noah-isme/run-directory-api/pkg/sanitize"
)

type distanceRepository interface {
	List(ctx context.Context) ([]models.Distance, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Distance, error)
	Create(ctx context.Context, distance *models.Distance) error
	Update(ctx context.Context, distance *models.Distance) error
	Delete(ctx context.Context, id string) error
	Move(ctx context.Context, exec sqlx.ExtContext, distance *models.Distance, dir models.MoveDirection) (bool, error)
}

// DistanceService manages the distance master list.
type DistanceService struct {
	repo        distanceRepository
	tx          txProvider
	invalidator directoryInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewDistanceService creates a new distance service.
func NewDistanceService(repo distanceRepository, tx txProvider, invalidator directoryInvalidator, validate *validator.Validate, logger *zap.Logger) *DistanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistanceService{repo: repo, tx: tx, invalidator: invalidator, validator: validate, logger: logger}
}

// List returns distances in display order.
func (s *DistanceService) List(ctx context.Context) ([]models.Distance, error) {
	distances, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list distances")
	}
	if distances == nil {
		distances = []models.Distance{}
	}
	return distances, nil
}

// Create appends a distance to the end of the list.
func (s *DistanceService) Create(ctx context.Context, req dto.DistanceRequest) (*models.Distance, error) {
	req.Name = sanitize.Text(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "distance name is required and km must be greater than zero")
	}
	distance := &models.Distance{Name: req.Name, Km: req.Km}
	if err := s.repo.Create(ctx, distance); err != nil {
		return nil, masterWriteError(err, "distance", "failed to create distance")
	}
	return distance, nil
}

// Update renames a distance or changes its km.
func (s *DistanceService) Update(ctx context.Context, id string, req dto.DistanceRequest) (*models.Distance, error) {
	req.Name = sanitize.Text(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "distance name is required and km must be greater than zero")
	}
	distance, err := s.find(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	distance.Name = req.Name
	distance.Km = req.Km
	if err := s.repo.Update(ctx, distance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "distance not found")
		}
		return nil, masterWriteError(err, "distance", "failed to update distance")
	}
	s.invalidate(ctx)
	return distance, nil
}

// Delete removes a distance no event uses.
func (s *DistanceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "distance not found")
		case database.IsForeignKeyViolation(err):
			return appErrors.Wrap(err, appErrors.ErrConstraint.Code, appErrors.ErrConstraint.Status, "distance is still used by events")
		default:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete distance")
		}
	}
	return nil
}

// Move swaps a distance with its neighbour and returns the reordered list.
// Moving past either end leaves the order unchanged.
func (s *DistanceService) Move(ctx context.Context, id string, req dto.MoveRequest) ([]models.Distance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "direction must be up or down")
	}
	if err := runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		distance, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := s.repo.Move(ctx, tx, distance, models.MoveDirection(req.Direction)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reorder distance")
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return s.List(ctx)
}

func (s *DistanceService) find(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Distance, error) {
	distance, err := s.repo.FindByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "distance not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load distance")
	}
	return distance, nil
}

func (s *DistanceService) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}

// runInTx commits when fn succeeds and rolls back otherwise.
// masterWriteError maps a duplicate name to a conflict and anything else to
// an internal error.
func masterWriteError(err error, entity, message string) error {
	if database.IsUniqueViolation(err) {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "a "+entity+" with this name already exists")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func runInTx(ctx context.Context, provider txProvider, fn func(tx *sqlx.Tx) error) (err error) {
	if provider == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := provider.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transaction")
	}
	return nil
}
