package services

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/openingdrill/internal/engine"
	"github.com/vytor/openingdrill/internal/errors"
	"github.com/vytor/openingdrill/internal/logger"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/practice"
	"github.com/vytor/openingdrill/internal/repository"
	"github.com/vytor/openingdrill/internal/roulette"
)

// OpeningSource is the read side of the opening catalog.
type OpeningSource interface {
	All() []models.Opening
	Get(id string) (models.Opening, bool)
	Filter(side models.Side, difficulty models.Difficulty) []models.Opening
}

// StartRequest picks what to practice. An empty OpeningID lets the roulette
// choose; an empty Side uses the opening's own side.
type StartRequest struct {
	OpeningID string
	Side      models.Side
}

// MoveResponse is the outcome of a learner move plus the resulting session view.
type MoveResponse struct {
	Result  practice.MoveResult `json:"result"`
	Session practice.View       `json:"session"`
}

// ActionResponse reports what happened to a requested action. Deferred means
// it is waiting on the rating prompt. Session is the session that is active
// afterwards, nil after browse.
type ActionResponse struct {
	Action   practice.PendingAction `json:"action"`
	Deferred bool                   `json:"deferred"`
	Session  *practice.View         `json:"session,omitempty"`
}

// PracticeService runs the single active practice session and exposes
// progress and history.
type PracticeService interface {
	ListOpenings(ctx context.Context, side models.Side, difficulty models.Difficulty) []models.Opening
	Recommend(ctx context.Context, n int) ([]roulette.Ranked, error)

	StartSession(ctx context.Context, req StartRequest) (practice.View, error)
	GetSession(ctx context.Context, id string) (practice.View, error)
	SubmitMove(ctx context.Context, id string, from, to models.Square, promo models.PieceKind) (MoveResponse, error)
	AcknowledgeInteraction(ctx context.Context, id string) (practice.View, error)
	RequestAction(ctx context.Context, id string, action practice.PendingAction) (ActionResponse, error)
	SubmitRating(ctx context.Context, id string, rating models.Rating) (ActionResponse, error)
	SkipRating(ctx context.Context, id string) (ActionResponse, error)
	ResetSession(ctx context.Context, id string) (practice.View, error)
	EndSession(ctx context.Context, id string) error

	GetProgress(ctx context.Context, openingID string) (models.ProgressRecord, error)
	ResetProgress(ctx context.Context, openingID string) error
	History(ctx context.Context, filter models.HistoryFilter) ([]models.SessionRecord, error)
}

type practiceService struct {
	openings     OpeningSource
	selector     *roulette.Selector
	progressRepo repository.ProgressRepository
	historyRepo  repository.SessionHistoryRepository
	recorder     practice.Recorder
	overlay      *progressOverlay

	delay       time.Duration
	newID       func() string
	newBoard    func() engine.Board
	sessionOpts []practice.Option

	mu     sync.Mutex
	active *practice.Session
}

type PracticeOption func(*practiceService)

// WithOpponentDelay sets how long the opponent waits before replying.
func WithOpponentDelay(d time.Duration) PracticeOption {
	return func(s *practiceService) {
		s.delay = d
	}
}

func WithIDGenerator(fn func() string) PracticeOption {
	return func(s *practiceService) {
		s.newID = fn
	}
}

// WithSessionOptions appends options applied to every new session.
func WithSessionOptions(opts ...practice.Option) PracticeOption {
	return func(s *practiceService) {
		s.sessionOpts = append(s.sessionOpts, opts...)
	}
}

// NewPracticeService creates a new PracticeService
func NewPracticeService(
	openings OpeningSource,
	selector *roulette.Selector,
	progressRepo repository.ProgressRepository,
	historyRepo repository.SessionHistoryRepository,
	recorder practice.Recorder,
	opts ...PracticeOption,
) PracticeService {
	overlay := newProgressOverlay(recorder)
	s := &practiceService{
		openings:     openings,
		selector:     selector,
		progressRepo: progressRepo,
		historyRepo:  historyRepo,
		recorder:     overlay,
		overlay:      overlay,
		delay:        practice.DefaultOpponentDelay,
		newID:        uuid.NewString,
		newBoard:     engine.NewBoard,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *practiceService) ListOpenings(ctx context.Context, side models.Side, difficulty models.Difficulty) []models.Opening {
	logger.FromContext(ctx).Debug("listing openings: side=%s difficulty=%s", side, difficulty)
	return s.openings.Filter(side, difficulty)
}

func (s *practiceService) Recommend(ctx context.Context, n int) ([]roulette.Ranked, error) {
	log := logger.FromContext(ctx)
	if n <= 0 {
		return nil, errors.NewValidationError("n", "must be positive")
	}
	progress, err := s.progressRepo.All(ctx)
	if err != nil {
		log.Error("failed to load progress: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return s.selector.Rank(s.openings.All(), s.overlay.applyAll(progress), n), nil
}

func (s *practiceService) StartSession(ctx context.Context, req StartRequest) (practice.View, error) {
	log := logger.FromContext(ctx)

	var (
		opening models.Opening
		err     error
	)
	if req.OpeningID == "" {
		opening, err = s.pick(ctx)
		if err != nil {
			return practice.View{}, err
		}
	} else {
		var ok bool
		opening, ok = s.openings.Get(req.OpeningID)
		if !ok {
			return practice.View{}, errors.NewNotFoundError("opening", req.OpeningID)
		}
	}

	side := req.Side
	if side == "" {
		side = opening.Side
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.replaceLocked()
	log.Info("starting session %s: opening=%s side=%s", session.ID(), opening.ID, side)
	session.Start(opening, side)
	return session.Snapshot(), nil
}

// pick draws the next opening from the roulette. Progress lookup failures
// fall back to unweighted selection.
func (s *practiceService) pick(ctx context.Context) (models.Opening, error) {
	log := logger.FromContext(ctx)
	progress, err := s.progressRepo.All(ctx)
	if err != nil {
		log.Warn("failed to load progress, selecting without it: %v", err)
		progress = nil
	}
	opening, err := s.selector.Select(s.openings.All(), s.overlay.applyAll(progress))
	if err != nil {
		log.Error("roulette selection failed: %v", err)
		return models.Opening{}, errors.NewInternalError(err)
	}
	log.Debug("roulette picked %s", opening.ID)
	return opening, nil
}

// replaceLocked ends the active session, if any, and installs a fresh one.
func (s *practiceService) replaceLocked() *practice.Session {
	if s.active != nil {
		s.active.EndEarly()
	}
	opts := append([]practice.Option{
		practice.WithRecorder(s.recorder),
		practice.WithOpponentDelay(s.delay),
	}, s.sessionOpts...)
	s.active = practice.New(s.newID(), s.newBoard(), opts...)
	return s.active
}

func (s *practiceService) session(id string) (*practice.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.ID() != id {
		return nil, errors.NewNotFoundError("session", id)
	}
	return s.active, nil
}

func (s *practiceService) GetSession(ctx context.Context, id string) (practice.View, error) {
	session, err := s.session(id)
	if err != nil {
		return practice.View{}, err
	}
	return session.Snapshot(), nil
}

func (s *practiceService) SubmitMove(ctx context.Context, id string, from, to models.Square, promo models.PieceKind) (MoveResponse, error) {
	log := logger.FromContext(ctx)
	if !from.Valid() {
		return MoveResponse{}, errors.NewValidationError("from", "not a square")
	}
	if !to.Valid() {
		return MoveResponse{}, errors.NewValidationError("to", "not a square")
	}
	switch promo {
	case models.NoPiece, models.Queen, models.Rook, models.Bishop, models.Knight:
	default:
		return MoveResponse{}, errors.NewValidationError("promotion", "must be q, r, b or n")
	}

	session, err := s.session(id)
	if err != nil {
		return MoveResponse{}, err
	}
	result, err := session.SubmitMove(from, to, promo)
	if err != nil {
		log.Debug("move rejected: %v", err)
		return MoveResponse{}, sessionError(err)
	}
	return MoveResponse{Result: result, Session: session.Snapshot()}, nil
}

func (s *practiceService) AcknowledgeInteraction(ctx context.Context, id string) (practice.View, error) {
	session, err := s.session(id)
	if err != nil {
		return practice.View{}, err
	}
	if session.AcknowledgeInteraction() {
		logger.FromContext(ctx).Debug("rating prompt shown for session %s", id)
	}
	return session.Snapshot(), nil
}

func (s *practiceService) RequestAction(ctx context.Context, id string, action practice.PendingAction) (ActionResponse, error) {
	session, err := s.session(id)
	if err != nil {
		return ActionResponse{}, err
	}
	ready, now := session.RequestAction(action)
	if !now {
		view := session.Snapshot()
		return ActionResponse{Action: action, Deferred: true, Session: &view}, nil
	}
	return s.perform(ctx, session, ready)
}

func (s *practiceService) SubmitRating(ctx context.Context, id string, rating models.Rating) (ActionResponse, error) {
	session, err := s.session(id)
	if err != nil {
		return ActionResponse{}, err
	}
	action, err := session.SubmitRating(rating)
	if err != nil {
		return ActionResponse{}, sessionError(err)
	}
	return s.perform(ctx, session, action)
}

func (s *practiceService) SkipRating(ctx context.Context, id string) (ActionResponse, error) {
	session, err := s.session(id)
	if err != nil {
		return ActionResponse{}, err
	}
	action, err := session.SkipRating()
	if err != nil {
		return ActionResponse{}, sessionError(err)
	}
	return s.perform(ctx, session, action)
}

// perform runs a resolved action against session.
func (s *practiceService) perform(ctx context.Context, session *practice.Session, action practice.PendingAction) (ActionResponse, error) {
	log := logger.FromContext(ctx)
	log.Debug("performing action %s for session %s", action, session.ID())

	switch action {
	case practice.ActionRetry:
		if err := session.Reset(); err != nil {
			return ActionResponse{}, sessionError(err)
		}
		view := session.Snapshot()
		return ActionResponse{Action: action, Session: &view}, nil

	case practice.ActionNextOpening:
		view, err := s.StartSession(ctx, StartRequest{})
		if err != nil {
			return ActionResponse{}, err
		}
		return ActionResponse{Action: action, Session: &view}, nil

	case practice.ActionBrowse:
		s.end(session)
		return ActionResponse{Action: action}, nil

	default:
		view := session.Snapshot()
		return ActionResponse{Action: practice.ActionNone, Session: &view}, nil
	}
}

func (s *practiceService) end(session *practice.Session) {
	session.EndEarly()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == session {
		s.active = nil
	}
}

func (s *practiceService) ResetSession(ctx context.Context, id string) (practice.View, error) {
	session, err := s.session(id)
	if err != nil {
		return practice.View{}, err
	}
	if err := session.Reset(); err != nil {
		return practice.View{}, sessionError(err)
	}
	logger.FromContext(ctx).Info("session %s reset", id)
	return session.Snapshot(), nil
}

func (s *practiceService) EndSession(ctx context.Context, id string) error {
	session, err := s.session(id)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info("ending session %s", id)
	s.end(session)
	return nil
}

func (s *practiceService) GetProgress(ctx context.Context, openingID string) (models.ProgressRecord, error) {
	log := logger.FromContext(ctx)
	if _, ok := s.openings.Get(openingID); !ok {
		return models.ProgressRecord{}, errors.NewNotFoundError("opening", openingID)
	}
	rec, err := s.progressRepo.Get(ctx, openingID)
	if err != nil {
		log.Error("failed to get progress: %v", err)
		return models.ProgressRecord{}, errors.NewInternalError(err)
	}
	if rec == nil {
		rec = &models.ProgressRecord{OpeningID: openingID}
	}
	return s.overlay.apply(*rec), nil
}

func (s *practiceService) ResetProgress(ctx context.Context, openingID string) error {
	log := logger.FromContext(ctx)
	if _, ok := s.openings.Get(openingID); !ok {
		return errors.NewNotFoundError("opening", openingID)
	}
	if err := s.progressRepo.Reset(ctx, openingID); err != nil {
		log.Error("failed to reset progress: %v", err)
		return errors.NewInternalError(err)
	}
	s.overlay.forget(openingID)
	return nil
}

func (s *practiceService) History(ctx context.Context, filter models.HistoryFilter) ([]models.SessionRecord, error) {
	log := logger.FromContext(ctx)
	if filter.Limit < 0 {
		return nil, errors.NewValidationError("limit", "cannot be negative")
	}
	records, err := s.historyRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list history: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return records, nil
}

func sessionError(err error) error {
	switch {
	case stderrors.Is(err, practice.ErrSessionOver),
		stderrors.Is(err, practice.ErrNotYourTurn),
		stderrors.Is(err, practice.ErrNoRatingPrompt):
		return errors.NewConflictError(err.Error(), err)
	case stderrors.Is(err, practice.ErrNoOpening):
		return errors.NewBadRequestError(err.Error())
	default:
		return errors.NewInternalError(err)
	}
}
