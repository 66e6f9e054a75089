// Package opponent plays the theory side of a practice session.
package opponent

import (
	"math/rand/v2"

	"github.com/vytor/openingdrill/internal/engine"
	"github.com/vytor/openingdrill/internal/logger"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/theory"
)

// Proposal is the move the opponent wants to play.
type Proposal struct {
	Move       models.Move
	FromTheory bool
}

// Opponent proposes theory moves, falling back to a check > capture > random
// heuristic. It keeps its own copy of the history for theory lookups, so every
// move made by either side must be passed to RecordMove.
type Opponent struct {
	board   engine.Board
	opening *models.Opening
	history []models.Move
	intn    func(n int) int
	log     *logger.Logger
}

type Option func(*Opponent)

// WithRandom replaces the random source used for heuristic tie-breaks.
func WithRandom(intn func(n int) int) Option {
	return func(o *Opponent) {
		o.intn = intn
	}
}

func New(board engine.Board, opts ...Option) *Opponent {
	o := &Opponent{
		board: board,
		intn:  rand.IntN,
		log:   logger.Default().WithPrefix("opponent"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetOpening assigns the opening and clears the history.
func (o *Opponent) SetOpening(opening *models.Opening) {
	o.opening = opening
	o.history = nil
}

func (o *Opponent) RecordMove(m models.Move) {
	o.history = append(o.history, m)
}

func (o *Opponent) Reset() {
	o.history = nil
}

func (o *Opponent) History() []models.Move {
	return append([]models.Move(nil), o.history...)
}

// TheoryMove returns the expected move for the side to move, if any.
func (o *Opponent) TheoryMove() (models.Move, bool) {
	if o.opening == nil {
		return models.Move{}, false
	}
	return theory.ExpectedMove(*o.opening, o.history, o.board.SideToMove())
}

// NextMove returns false only when the position has no legal moves.
func (o *Opponent) NextMove() (Proposal, bool) {
	legal := o.board.LegalMoves(nil)
	if len(legal) == 0 {
		return Proposal{}, false
	}

	if expected, ok := o.TheoryMove(); ok {
		for _, lm := range legal {
			if lm.SameAs(expected) {
				return Proposal{Move: lm.Move, FromTheory: true}, true
			}
		}
		o.log.Warn("theory move %s is not legal in %s, using heuristic", expected.UCI(), o.board.Position())
	}

	return Proposal{Move: o.heuristic(legal)}, true
}

func (o *Opponent) heuristic(legal []engine.LegalMove) models.Move {
	var checks, captures []engine.LegalMove
	for _, lm := range legal {
		switch {
		case lm.Check:
			checks = append(checks, lm)
		case lm.Capture:
			captures = append(captures, lm)
		}
	}
	tier := legal
	if len(checks) > 0 {
		tier = checks
	} else if len(captures) > 0 {
		tier = captures
	}
	return tier[o.intn(len(tier))].Move
}
