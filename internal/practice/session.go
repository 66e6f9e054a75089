// Package practice runs a single opening practice session: the learner plays
// one side, a scripted opponent plays the other, and every learner move is
// checked against theory.
package practice

import (
	"errors"
	"sync"
	"time"

	"github.com/vytor/openingdrill/internal/engine"
	"github.com/vytor/openingdrill/internal/logger"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/opponent"
	"github.com/vytor/openingdrill/internal/progress"
	"github.com/vytor/openingdrill/internal/theory"
)

var (
	ErrNoOpening      = errors.New("practice: no opening loaded")
	ErrSessionOver    = errors.New("practice: session is not active")
	ErrNotYourTurn    = errors.New("practice: opponent to move")
	ErrNoRatingPrompt = errors.New("practice: rating prompt is not showing")
)

const DefaultOpponentDelay = 500 * time.Millisecond

type Outcome string

const (
	Active          Outcome = "active"
	Completed       Outcome = "completed"
	Failed          Outcome = "failed"
	TheoryExhausted Outcome = "theory_exhausted"
)

// Terminal reports whether the outcome ends the session.
func (o Outcome) Terminal() bool {
	return o == Completed || o == Failed || o == TheoryExhausted
}

// RatingStage tracks the deferred rating prompt. A terminal outcome moves the
// stage to AwaitingInteraction; the next learner interaction shows the prompt;
// a rating or skip resolves it.
type RatingStage string

const (
	RatingNone                RatingStage = "none"
	RatingAwaitingInteraction RatingStage = "awaiting_interaction"
	RatingPrompting           RatingStage = "prompting"
	RatingResolved            RatingStage = "resolved"
)

// PendingAction is what the learner asked to do next while the rating prompt
// was still unresolved.
type PendingAction string

const (
	ActionNone        PendingAction = "none"
	ActionNextOpening PendingAction = "next_opening"
	ActionBrowse      PendingAction = "browse"
	ActionRetry       PendingAction = "retry"
)

// ParseAction accepts next_opening, browse or retry.
func ParseAction(s string) (PendingAction, bool) {
	switch a := PendingAction(s); a {
	case ActionNextOpening, ActionBrowse, ActionRetry:
		return a, true
	default:
		return ActionNone, false
	}
}

// Summary is what gets persisted when a session reaches a terminal outcome.
type Summary struct {
	SessionID  string
	Opening    models.Opening
	UserSide   models.Side
	Outcome    Outcome
	Correct    int
	Total      int
	Accuracy   float64
	Moves      []models.Move
	StartedAt  time.Time
	FinishedAt time.Time
}

// Recorder persists session results. Implementations must not block.
type Recorder interface {
	RecordSession(summary Summary)
	RecordRating(openingID string, rating models.Rating, at time.Time)
}

type nopRecorder struct{}

func (nopRecorder) RecordSession(Summary)                         {}
func (nopRecorder) RecordRating(string, models.Rating, time.Time) {}

// Scheduler runs f after d. The returned function cancels it.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// MoveResult describes what a learner move did.
type MoveResult struct {
	Accepted bool        `json:"accepted"`
	Correct  bool        `json:"correct"`
	Move     models.Move `json:"move"`
	Outcome  Outcome     `json:"outcome"`
}

type Session struct {
	mu sync.Mutex

	id       string
	board    engine.Board
	opp      *opponent.Opponent
	recorder Recorder
	sched    Scheduler
	delay    time.Duration
	now      func() time.Time
	log      *logger.Logger

	opening           *models.Opening
	userSide          models.Side
	history           []models.Move
	correct           int
	total             int
	outcome           Outcome
	ended             bool
	rating            RatingStage
	lastCorrect       *bool
	expectedOnFailure *models.Move
	pending           PendingAction
	startedAt         time.Time

	// generation invalidates opponent replies scheduled before a restart.
	generation int
	thinking   bool
	stopReply  func() bool
}

type Option func(*Session)

func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

func WithScheduler(sched Scheduler) Option {
	return func(s *Session) {
		s.sched = sched
	}
}

func WithOpponentDelay(d time.Duration) Option {
	return func(s *Session) {
		s.delay = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithOpponent replaces the opponent; it must play on the same board.
func WithOpponent(o *opponent.Opponent) Option {
	return func(s *Session) {
		s.opp = o
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

func New(id string, board engine.Board, opts ...Option) *Session {
	s := &Session{
		id:       id,
		board:    board,
		recorder: nopRecorder{},
		sched:    timerScheduler{},
		delay:    DefaultOpponentDelay,
		now:      time.Now,
		outcome:  Active,
		rating:   RatingNone,
		pending:  ActionNone,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.opp == nil {
		s.opp = opponent.New(board)
	}
	if s.log == nil {
		s.log = logger.Default().WithPrefix("practice")
	}
	s.log = s.log.WithField("session_id", id)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Opening returns the opening being practiced, if any.
func (s *Session) Opening() (models.Opening, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opening == nil {
		return models.Opening{}, false
	}
	return *s.opening, true
}

// Start begins practicing opening as side. When the learner plays Black the
// opponent's first move is scheduled.
func (s *Session) Start(opening models.Opening, side models.Side) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked(opening, side)
}

func (s *Session) startLocked(opening models.Opening, side models.Side) {
	s.cancelReplyLocked()
	s.generation++

	op := opening
	s.opening = &op
	s.userSide = side
	s.history = nil
	s.correct = 0
	s.total = 0
	s.outcome = Active
	s.ended = false
	s.rating = RatingNone
	s.lastCorrect = nil
	s.expectedOnFailure = nil
	s.pending = ActionNone
	s.startedAt = s.now()

	s.board.Reset()
	s.opp.SetOpening(s.opening)

	s.log.Info("session started: opening=%s side=%s", op.ID, side)

	if s.board.SideToMove() != side {
		s.scheduleReplyLocked()
		return
	}
	if _, ok := theory.ExpectedMove(op, nil, side); !ok {
		s.finishLocked(TheoryExhausted)
	}
}

// SubmitMove plays a learner move. Illegal moves are ignored and reported as
// not accepted. An empty promo defaults to a queen when the move promotes.
func (s *Session) SubmitMove(from, to models.Square, promo models.PieceKind) (MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opening == nil {
		return MoveResult{}, ErrNoOpening
	}
	if s.ended || s.outcome != Active {
		return MoveResult{Outcome: s.outcome}, ErrSessionOver
	}
	if s.board.SideToMove() != s.userSide {
		return MoveResult{Outcome: s.outcome}, ErrNotYourTurn
	}

	candidate, ok := s.findLegalLocked(from, to, promo)
	if !ok {
		s.log.Debug("ignoring illegal learner move %s%s", from, to)
		return MoveResult{Outcome: s.outcome}, nil
	}

	inTheory := theory.IsInTheory(*s.opening, s.history, candidate)
	expected, hasExpected := theory.ExpectedMove(*s.opening, s.history, s.userSide)

	played, err := s.board.ApplyMove(candidate)
	if err != nil {
		s.log.Debug("engine rejected learner move %s: %v", candidate.UCI(), err)
		return MoveResult{Outcome: s.outcome}, nil
	}
	s.history = append(s.history, played)
	s.opp.RecordMove(played)
	s.total++

	correct := inTheory
	s.lastCorrect = &correct

	if inTheory {
		s.correct++
		if theory.IsComplete(*s.opening, s.history) {
			s.finishLocked(Completed)
		} else {
			s.scheduleReplyLocked()
		}
	} else {
		if hasExpected {
			exp := expected
			s.expectedOnFailure = &exp
		}
		s.log.Debug("learner deviated: played=%s expected=%s", played.UCI(), expected.UCI())
		s.finishLocked(Failed)
	}

	return MoveResult{Accepted: true, Correct: inTheory, Move: played, Outcome: s.outcome}, nil
}

func (s *Session) findLegalLocked(from, to models.Square, promo models.PieceKind) (models.Move, bool) {
	var fallback *models.Move
	for _, lm := range s.board.LegalMoves(&from) {
		if lm.To != to {
			continue
		}
		if lm.Promotion == promo {
			return lm.Move, true
		}
		if promo == models.NoPiece && lm.Promotion == models.Queen {
			m := lm.Move
			fallback = &m
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return models.Move{}, false
}

func (s *Session) scheduleReplyLocked() {
	gen := s.generation
	s.thinking = true
	s.stopReply = s.sched.AfterFunc(s.delay, func() {
		s.playOpponent(gen)
	})
}

func (s *Session) cancelReplyLocked() {
	if s.stopReply != nil {
		s.stopReply()
		s.stopReply = nil
	}
	s.thinking = false
}

func (s *Session) playOpponent(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.ended || s.outcome != Active {
		return
	}
	s.thinking = false
	s.stopReply = nil

	proposal, ok := s.opp.NextMove()
	if !ok {
		s.log.Info("no legal moves left for the opponent")
		s.finishLocked(TheoryExhausted)
		return
	}

	played, err := s.board.ApplyMove(proposal.Move)
	if err != nil {
		s.log.Error("opponent produced an illegal move %s: %v", proposal.Move.UCI(), err)
		s.finishLocked(TheoryExhausted)
		return
	}
	s.history = append(s.history, played)
	s.opp.RecordMove(played)

	if proposal.FromTheory && theory.IsComplete(*s.opening, s.history) {
		s.finishLocked(Completed)
		return
	}
	if _, ok := theory.ExpectedMove(*s.opening, s.history, s.userSide); !ok {
		s.finishLocked(TheoryExhausted)
		return
	}
	if len(s.board.LegalMoves(nil)) == 0 {
		s.finishLocked(TheoryExhausted)
	}
}

func (s *Session) finishLocked(outcome Outcome) {
	s.cancelReplyLocked()
	s.outcome = outcome
	s.rating = RatingAwaitingInteraction

	summary := Summary{
		SessionID:  s.id,
		Opening:    *s.opening,
		UserSide:   s.userSide,
		Outcome:    outcome,
		Correct:    s.correct,
		Total:      s.total,
		Accuracy:   progress.Accuracy(s.correct, s.total),
		Moves:      append([]models.Move(nil), s.history...),
		StartedAt:  s.startedAt,
		FinishedAt: s.now(),
	}
	s.log.Info("session finished: outcome=%s correct=%d total=%d accuracy=%.1f", outcome, s.correct, s.total, summary.Accuracy)
	s.recorder.RecordSession(summary)
}

// AcknowledgeInteraction reveals the rating prompt if the session is waiting
// for the learner to tap the board. It reports whether the prompt was shown.
func (s *Session) AcknowledgeInteraction() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rating != RatingAwaitingInteraction {
		return false
	}
	s.rating = RatingPrompting
	return true
}

// RequestAction returns (action, true) when it can run now. While the rating
// prompt is unresolved the action is queued, the prompt is shown, and
// (ActionNone, false) is returned; the queued action comes back from
// SubmitRating or SkipRating.
func (s *Session) RequestAction(action PendingAction) (PendingAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rating != RatingAwaitingInteraction && s.rating != RatingPrompting {
		return action, true
	}
	s.pending = action
	s.rating = RatingPrompting
	return ActionNone, false
}

// SubmitRating stores the learner's difficulty rating and returns the queued action.
func (s *Session) SubmitRating(rating models.Rating) (PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rating != RatingPrompting {
		return ActionNone, ErrNoRatingPrompt
	}
	s.recorder.RecordRating(s.opening.ID, rating, s.now())
	s.log.Debug("rated opening %s as %s", s.opening.ID, rating)
	return s.resolveLocked(), nil
}

// SkipRating dismisses the prompt without rating and returns the queued action.
func (s *Session) SkipRating() (PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rating != RatingPrompting {
		return ActionNone, ErrNoRatingPrompt
	}
	return s.resolveLocked(), nil
}

func (s *Session) resolveLocked() PendingAction {
	s.rating = RatingResolved
	action := s.pending
	s.pending = ActionNone
	return action
}

// Reset restarts the current opening from the initial position.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opening == nil {
		return ErrNoOpening
	}
	s.startLocked(*s.opening, s.userSide)
	return nil
}

// EndEarly abandons the session. Scheduled opponent replies are dropped and
// nothing is persisted.
func (s *Session) EndEarly() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelReplyLocked()
	s.generation++
	s.ended = true
}

// View is a read-only snapshot for the interaction layer.
type View struct {
	ID                        string         `json:"id"`
	OpeningID                 string         `json:"opening_id"`
	OpeningName               string         `json:"opening_name"`
	UserSide                  models.Side    `json:"user_side"`
	SideToMove                models.Side    `json:"side_to_move"`
	Outcome                   Outcome        `json:"outcome"`
	Ended                     bool           `json:"ended"`
	Correct                   int            `json:"correct"`
	Total                     int            `json:"total"`
	Accuracy                  float64        `json:"accuracy"`
	LastMoveWasCorrect        *bool          `json:"last_move_was_correct"`
	ExpectedMoveOnFailure     *models.Move   `json:"expected_move_on_failure"`
	AwaitingRatingInteraction bool           `json:"awaiting_rating_interaction"`
	RatingPromptVisible       bool           `json:"rating_prompt_visible"`
	RatingStage               RatingStage    `json:"rating_stage"`
	PendingAction             PendingAction  `json:"pending_action"`
	OpponentThinking          bool           `json:"opponent_thinking"`
	InCheck                   bool           `json:"in_check"`
	History                   []models.Move  `json:"history"`
	FEN                       string         `json:"fen"`
}

func (s *Session) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:                        s.id,
		UserSide:                  s.userSide,
		SideToMove:                s.board.SideToMove(),
		Outcome:                   s.outcome,
		Ended:                     s.ended,
		Correct:                   s.correct,
		Total:                     s.total,
		Accuracy:                  progress.Accuracy(s.correct, s.total),
		AwaitingRatingInteraction: s.rating == RatingAwaitingInteraction,
		RatingPromptVisible:       s.rating == RatingPrompting,
		RatingStage:               s.rating,
		PendingAction:             s.pending,
		OpponentThinking:          s.thinking,
		InCheck:                   s.board.IsCheck(),
		History:                   append([]models.Move(nil), s.history...),
		FEN:                       s.board.Position(),
	}
	if s.opening != nil {
		v.OpeningID = s.opening.ID
		v.OpeningName = s.opening.Name
	}
	if s.lastCorrect != nil {
		c := *s.lastCorrect
		v.LastMoveWasCorrect = &c
	}
	if s.expectedOnFailure != nil {
		m := *s.expectedOnFailure
		v.ExpectedMoveOnFailure = &m
	}
	return v
}
