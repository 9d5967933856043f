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

type raceTypeRepository interface {
	List(ctx context.Context) ([]models.RaceType, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RaceType, error)
	Create(ctx context.Context, rt *models.RaceType) error
	Update(ctx context.Context, rt *models.RaceType) error
	Delete(ctx context.Context, id string) error
	Move(ctx context.Context, exec sqlx.ExtContext, rt *models.RaceType, dir models.MoveDirection) (bool, error)
}

// RaceTypeService manages the race type master list.
type RaceTypeService struct {
	repo        raceTypeRepository
	tx          txProvider
	invalidator directoryInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRaceTypeService creates a new race type service.
func NewRaceTypeService(repo raceTypeRepository, tx txProvider, invalidator directoryInvalidator, validate *validator.Validate, logger *zap.Logger) *RaceTypeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RaceTypeService{repo: repo, tx: tx, invalidator: invalidator, validator: validate, logger: logger}
}

// List returns race types in display order.
func (s *RaceTypeService) List(ctx context.Context) ([]models.RaceType, error) {
	types, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list race types")
	}
	if types == nil {
		types = []models.RaceType{}
	}
	return types, nil
}

// Create appends a race type.
func (s *RaceTypeService) Create(ctx context.Context, req dto.RaceTypeRequest) (*models.RaceType, error) {
	rt, err := s.bind(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rt); err != nil {
		return nil, masterWriteError(err, "race type", "failed to create race type")
	}
	return rt, nil
}

// Update changes name and description.
func (s *RaceTypeService) Update(ctx context.Context, id string, req dto.RaceTypeRequest) (*models.RaceType, error) {
	patch, err := s.bind(req)
	if err != nil {
		return nil, err
	}
	rt, err := s.find(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	rt.Name = patch.Name
	rt.Description = patch.Description
	if err := s.repo.Update(ctx, rt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "race type not found")
		}
		return nil, masterWriteError(err, "race type", "failed to update race type")
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	return rt, nil
}

// Delete removes a race type no event uses.
func (s *RaceTypeService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "race type not found")
		case database.IsForeignKeyViolation(err):
			return appErrors.Wrap(err, appErrors.ErrConstraint.Code, appErrors.ErrConstraint.Status, "race type is still used by events")
		default:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete race type")
		}
	}
	return nil
}

// Move swaps a race type with its neighbour and returns the reordered list.
func (s *RaceTypeService) Move(ctx context.Context, id string, req dto.MoveRequest) ([]models.RaceType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "direction must be up or down")
	}
	if err := runInTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		rt, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := s.repo.Move(ctx, tx, rt, models.MoveDirection(req.Direction)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reorder race type")
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return s.List(ctx)
}

func (s *RaceTypeService) bind(req dto.RaceTypeRequest) (*models.RaceType, error) {
	req.Name = sanitize.Text(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "race type name is required")
	}
	return &models.RaceType{Name: req.Name, Description: sanitize.OptionalText(req.Description)}, nil
}

func (s *RaceTypeService) find(ctx context.Context, exec sqlx.ExtContext, id string) (*models.RaceType, error) {
	rt, err := s.repo.FindByID(ctx, exec, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "race type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load race type")
	}
	return rt, nil
}
