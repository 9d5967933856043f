package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/run-directory-api/internal/authoring"
	"github.com/noah-isme/run-directory-api/internal/dto"
	"github.com/noah-isme/run-directory-api/internal/models"
	appErrors "github.com/noah-isme/run-directory-api/pkg/errors"
)

type aggregateLoader interface {
	LoadAggregate(ctx context.Context, id string, publishedOnly bool) (*models.EventAggregate, error)
}

type aggregateWriter interface {
	Write(ctx context.Context, key string, form *authoring.Form) (WriteResult, error)
}

type directoryInvalidator interface {
	Invalidate(ctx context.Context)
}

// EventAuthoringConfig tunes authoring sessions.
type EventAuthoringConfig struct {
	SessionTTL time.Duration
	Location   *time.Location
	Now        func() time.Time
}

// RouteImageTarget describes the slot a route image upload belongs to.
type RouteImageTarget struct {
	SeriesID   string
	Year       int
	DistanceID string
}

// EventAuthoringService hosts server-side authoring sessions: each wraps one
// editable event form and its lifecycle state.
type EventAuthoringService struct {
	loader      aggregateLoader
	writer      aggregateWriter
	invalidator directoryInvalidator
	store       *sessionStore
	validator   *validator.Validate
	logger      *zap.Logger
	loc         *time.Location
	now         func() time.Time
}

// NewEventAuthoringService wires authoring dependencies.
func NewEventAuthoringService(loader aggregateLoader, writer aggregateWriter, invalidator directoryInvalidator, validate *validator.Validate, logger *zap.Logger, cfg EventAuthoringConfig) *EventAuthoringService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &EventAuthoringService{
		loader:      loader,
		writer:      writer,
		invalidator: invalidator,
		store:       newSessionStore(cfg.SessionTTL, cfg.Now),
		validator:   validate,
		logger:      logger,
		loc:         cfg.Location,
		now:         cfg.Now,
	}
}

// Open starts a session, either seeded with defaults or hydrated from a stored event.
func (s *EventAuthoringService) Open(ctx context.Context, req dto.OpenAuthoringRequest) (*dto.AuthoringSessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid authoring session payload")
	}
	if req.Mode == string(authoring.ModeEdit) && !authoring.IsID(req.EventID) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event_id must be a valid identifier")
	}
	defaults := authoring.DefaultsAt(s.now(), s.loc, req.SeriesID)

	var form *authoring.Form
	if req.Mode == string(authoring.ModeEdit) {
		agg, err := s.loader.LoadAggregate(ctx, req.EventID, false)
		if err != nil {
			return nil, err
		}
		form = authoring.FromPersisted(agg, defaults)
	} else {
		form = authoring.New(defaults)
	}

	session := &authoringSession{id: uuid.NewString(), form: form}
	if err := session.machine.Transition(authoring.StateEditing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open authoring session")
	}
	s.store.Save(session)
	s.logger.Info("authoring session opened",
		zap.String("session_id", session.id),
		zap.String("mode", req.Mode),
		zap.String("event_id", req.EventID))
	return s.view(session, ""), nil
}

// Get returns the current state of a session.
func (s *EventAuthoringService) Get(ctx context.Context, sessionID string) (*dto.AuthoringSessionView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return s.view(session, ""), nil
}

// Apply performs one edit operation on the session form.
func (s *EventAuthoringService) Apply(ctx context.Context, sessionID string, op dto.AuthoringOperation) (*dto.AuthoringSessionView, error) {
	if err := s.validator.Struct(op); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid authoring operation")
	}
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := editable(session); err != nil {
		return nil, err
	}
	createdID, err := applyOperation(session.form, op)
	if err != nil {
		return nil, formError(err)
	}
	return s.view(session, createdID), nil
}

// Validate runs the validation rules without writing anything.
func (s *EventAuthoringService) Validate(ctx context.Context, sessionID string) (*dto.ValidationResult, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := editable(session); err != nil {
		return nil, err
	}
	if err := session.machine.Transition(authoring.StateValidating); err != nil {
		return nil, transitionError(err)
	}
	violations := authoring.Validate(session.form)
	if violations.Valid() {
		_ = session.machine.Transition(authoring.StateEditing)
	} else {
		_ = session.machine.Fail(violations.First().Message)
	}
	if violations == nil {
		violations = authoring.Violations{}
	}
	return &dto.ValidationResult{Valid: violations.Valid(), Violations: violations}, nil
}

// Submit validates and persists the session form. On success the session is
// closed and the freshly stored aggregate is returned. Failed writes leave the
// session open for another attempt.
func (s *EventAuthoringService) Submit(ctx context.Context, sessionID string) (*models.EventAggregate, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if err := editable(session); err != nil {
		session.mu.Unlock()
		return nil, err
	}
	if err := session.machine.Transition(authoring.StateValidating); err != nil {
		session.mu.Unlock()
		return nil, transitionError(err)
	}
	violations := authoring.Validate(session.form)
	if !violations.Valid() {
		first := violations.First()
		_ = session.machine.Fail(first.Message)
		session.mu.Unlock()
		return nil, appErrors.WithDetails(appErrors.ErrValidation, first.Message, violations)
	}
	_ = session.machine.Transition(authoring.StateWriting)
	form := session.form
	key := form.EventID
	if key == "" {
		key = session.id
	}
	session.mu.Unlock()

	result, writeErr := s.writer.Write(ctx, key, form)

	session.mu.Lock()
	defer session.mu.Unlock()
	if result.EventID != "" && form.EventID == "" {
		// the parent row exists now, later attempts must update it
		form.EventID = result.EventID
		form.Mode = authoring.ModeEdit
	}
	if result.EventID != "" && s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
	if writeErr != nil {
		_ = session.machine.Fail(appErrors.FromError(writeErr).Message)
		return nil, writeErr
	}
	_ = session.machine.Transition(authoring.StateClosed)
	s.store.Delete(session.id)
	s.logger.Info("authoring session submitted",
		zap.String("session_id", session.id),
		zap.String("event_id", result.EventID),
		zap.Bool("created", result.Created))

	agg, err := s.loader.LoadAggregate(ctx, result.EventID, false)
	if err != nil {
		return nil, err
	}
	return agg, nil
}

// Cancel discards a session.
func (s *EventAuthoringService) Cancel(ctx context.Context, sessionID string) error {
	session, err := s.session(sessionID)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.machine.State() == authoring.StateWriting {
		return appErrors.Clone(appErrors.ErrWriteInFlight, "")
	}
	if err := session.machine.Transition(authoring.StateClosed); err != nil {
		return transitionError(err)
	}
	s.store.Delete(session.id)
	return nil
}

// SweepExpired drops idle sessions. It is run on a schedule.
func (s *EventAuthoringService) SweepExpired() int {
	removed := s.store.Sweep()
	if removed > 0 {
		s.logger.Info("expired authoring sessions removed", zap.Int("count", removed))
	}
	return removed
}

// BeginRouteImageUpload marks a slot pending and returns what the upload path
// is derived from. Series and distance must already be chosen.
func (s *EventAuthoringService) BeginRouteImageUpload(ctx context.Context, sessionID, slotID string) (RouteImageTarget, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return RouteImageTarget{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := editable(session); err != nil {
		return RouteImageTarget{}, err
	}
	slot, err := session.form.DistanceSlot(slotID)
	if err != nil {
		return RouteImageTarget{}, formError(err)
	}
	if session.form.SeriesID == "" || slot.DistanceID == "" {
		return RouteImageTarget{}, appErrors.Clone(appErrors.ErrValidation, "choose a series and a distance before uploading a route image")
	}
	if slot.Upload == authoring.UploadPending {
		return RouteImageTarget{}, appErrors.Clone(appErrors.ErrConflict, "a route image upload is already running for this distance")
	}
	if err := session.form.MarkUploadPending(slotID); err != nil {
		return RouteImageTarget{}, formError(err)
	}
	return RouteImageTarget{SeriesID: session.form.SeriesID, Year: session.form.Year, DistanceID: slot.DistanceID}, nil
}

// CompleteRouteImageUpload stores the public URL on the slot.
func (s *EventAuthoringService) CompleteRouteImageUpload(sessionID, slotID, url string) error {
	return s.finishUpload(sessionID, slotID, func(f *authoring.Form) error {
		return f.CompleteUpload(slotID, url)
	})
}

// FailRouteImageUpload records an upload failure on the slot.
func (s *EventAuthoringService) FailRouteImageUpload(sessionID, slotID, reason string) error {
	return s.finishUpload(sessionID, slotID, func(f *authoring.Form) error {
		return f.FailUpload(slotID, reason)
	})
}

func (s *EventAuthoringService) finishUpload(sessionID, slotID string, apply func(*authoring.Form) error) error {
	session, err := s.session(sessionID)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if err := apply(session.form); err != nil {
		return formError(err)
	}
	return nil
}

func (s *EventAuthoringService) session(id string) (*authoringSession, error) {
	session, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "authoring session not found or expired")
	}
	return session, nil
}

func (s *EventAuthoringService) view(session *authoringSession, createdID string) *dto.AuthoringSessionView {
	return &dto.AuthoringSessionView{
		SessionID: session.id,
		State:     string(session.machine.State()),
		LastError: session.machine.LastError(),
		CreatedID: createdID,
		ExpiresAt: s.store.ExpiresAt(session),
		Form:      session.form.Snapshot(),
	}
}

func editable(session *authoringSession) error {
	switch session.machine.State() {
	case authoring.StateEditing:
		return nil
	case authoring.StateWriting:
		return appErrors.Clone(appErrors.ErrWriteInFlight, "")
	default:
		return appErrors.Clone(appErrors.ErrInvalidTransition, "authoring session is not editable")
	}
}

func transitionError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, appErrors.ErrInvalidTransition.Message)
}

func formError(err error) error {
	switch {
	case errors.Is(err, authoring.ErrUnknownElement):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, err.Error())
	case errors.Is(err, authoring.ErrUnknownField), errors.Is(err, authoring.ErrInvalidValue):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply authoring operation")
	}
}

// applyOperation dispatches op onto f and returns the id of any element it created.
func applyOperation(f *authoring.Form, op dto.AuthoringOperation) (string, error) {
	list := authoring.LinkList(op.List)
	switch op.Op {
	case dto.OpSetField:
		return "", f.SetScalarField(op.Field, op.Value)
	case dto.OpToggleRaceType:
		f.ToggleRaceType(op.TypeID, op.Selected)
		return "", nil
	case dto.OpAddDistance:
		return f.AddDistanceSlot(), nil
	case dto.OpRemoveDistance:
		return "", f.RemoveDistanceSlot(op.SlotID)
	case dto.OpSetDistanceField:
		return "", f.SetDistanceField(op.SlotID, op.Field, op.Value)
	case dto.OpAddCutOffPoint:
		return f.AddCutOffPoint(op.SlotID)
	case dto.OpRemoveCutOffPoint:
		return "", f.RemoveCutOffPoint(op.SlotID, op.PointID)
	case dto.OpSetCutOffPointField:
		return "", f.SetCutOffPointField(op.SlotID, op.PointID, op.Field, op.Value)
	case dto.OpAddRPCLocation:
		return f.AddRPCLocation(), nil
	case dto.OpRemoveRPCLocation:
		return "", f.RemoveRPCLocation(op.LocationID)
	case dto.OpSetRPCLocationName:
		return "", f.SetRPCLocationName(op.LocationID, op.Value)
	case dto.OpAddRPCDate:
		return f.AddRPCDate(op.LocationID)
	case dto.OpRemoveRPCDate:
		return "", f.RemoveRPCDate(op.LocationID, op.DateID)
	case dto.OpSetRPCDateField:
		return "", f.SetRPCDateField(op.LocationID, op.DateID, op.Field, op.Value)
	case dto.OpAddLink:
		return f.AddLink(list, op.Label)
	case dto.OpRemoveLink:
		return "", f.RemoveLink(list, op.LinkID)
	case dto.OpSetLinkField:
		return "", f.SetLinkField(list, op.LinkID, op.Field, op.Value)
	default:
		return "", authoring.ErrUnknownField
	}
}
