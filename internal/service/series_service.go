package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/models"
	"github.com/noah-isme/run-directory-api/pkg/database"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
	"github.com/noah-isme/run-directory-api/pkg/sanitize"
)

type seriesRepository interface {
	List(ctx context.Context) ([]models.Series, error)
	FindByID(ctx context.Context, id string) (*models.Series, error)
	Create(ctx context.Context, series *models.Series) error
	Update(ctx context.Context, series *models.Series) error
	Delete(ctx context.Context, id string) error
}

// SeriesService handles series workflows.
type SeriesService struct {
	repo        seriesRepository
	invalidator directoryInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSeriesService creates a new series service.
func NewSeriesService(repo seriesRepository, invalidator directoryInvalidator, validate *validator.Validate, logger *zap.Logger) *SeriesService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeriesService{repo: repo, invalidator: invalidator, validator: validate, logger: logger}
}

// List returns every series ordered by name.
func (s *SeriesService) List(ctx context.Context) ([]models.Series, error) {
	series, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list series")
	}
	if series == nil {
		series = []models.Series{}
	}
	return series, nil
}

// Get returns series by identifier.
func (s *SeriesService) Get(ctx context.Context, id string) (*models.Series, error) {
	series, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load series")
	}
	return series, nil
}

// Create adds a series.
func (s *SeriesService) Create(ctx context.Context, req dto.SeriesRequest) (*models.Series, error) {
	series, err := s.bind(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, series); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create series")
	}
	return series, nil
}

// Update modifies an existing series.
func (s *SeriesService) Update(ctx context.Context, id string, req dto.SeriesRequest) (*models.Series, error) {
	patch, err := s.bind(req)
	if err != nil {
		return nil, err
	}
	series, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	series.Name = patch.Name
	series.Organizer = patch.Organizer
	series.MainCity = patch.MainCity
	series.OfficialURL = patch.OfficialURL
	series.Description = patch.Description

	if err := s.repo.Update(ctx, series); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "series not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update series")
	}
	s.invalidate(ctx)
	return series, nil
}

// Delete removes a series. Series that still own events are kept.
func (s *SeriesService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrNotFound, "series not found")
		case database.IsForeignKeyViolation(err):
			return appErrors.Wrap(err, appErrors.ErrConstraint.Code, appErrors.ErrConstraint.Status, "series still has events, delete its events first")
		default:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete series")
		}
	}
	s.invalidate(ctx)
	s.logger.Info("series deleted", zap.String("series_id", id))
	return nil
}

func (s *SeriesService) bind(req dto.SeriesRequest) (*models.Series, error) {
	req.Name = sanitize.Text(req.Name)
	req.Organizer = sanitize.Text(req.Organizer)
	req.OfficialURL = trimOptional(req.OfficialURL)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "series name and organizer are required")
	}
	return &models.Series{
		Name:        req.Name,
		Organizer:   req.Organizer,
		MainCity:    sanitize.OptionalText(req.MainCity),
		OfficialURL: req.OfficialURL,
		Description: sanitize.OptionalText(req.Description),
	}, nil
}

func (s *SeriesService) invalidate(ctx context.Context) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
