// Package engine adapts the corentings/chess rules implementation to the
// narrow board surface the practice engine needs.
package engine

import (
	"errors"
	"fmt"

	"github.com/corentings/chess/v2"
	"github.com/vytor/openingdrill/internal/models"
)

// ErrIllegalMove is returned when a move is not legal in the current position.
var ErrIllegalMove = errors.New("illegal move")

// LegalMove is a legal move plus the tags the opponent heuristics need.
type LegalMove struct {
	models.Move
	Check   bool
	Capture bool
}

// Board is the live position a session is played on.
type Board interface {
	// LegalMoves lists legal moves, optionally only those leaving from.
	LegalMoves(from *models.Square) []LegalMove
	// ApplyMove plays m and returns it with notation and side filled in.
	ApplyMove(m models.Move) (models.Move, error)
	SideToMove() models.Side
	IsCheck() bool
	IsCheckmate() bool
	IsStalemate() bool
	IsGameOver() bool
	// Position returns the current position as FEN.
	Position() string
	Reset()
}

type chessBoard struct {
	game *chess.Game
}

// NewBoard returns a Board at the standard starting position.
func NewBoard() Board {
	return &chessBoard{game: chess.NewGame()}
}

// NewBoardFromFEN returns a Board at the given position.
func NewBoardFromFEN(fen string) (Board, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	return &chessBoard{game: chess.NewGame(opt)}, nil
}

func (b *chessBoard) LegalMoves(from *models.Square) []LegalMove {
	pos := b.game.Position()
	valid := b.game.ValidMoves()
	out := make([]LegalMove, 0, len(valid))
	for i := range valid {
		cm := &valid[i]
		if from != nil && squareName(cm.S1()) != *from {
			continue
		}
		out = append(out, LegalMove{
			Move:    toModel(pos, cm),
			Check:   cm.HasTag(chess.Check),
			Capture: cm.HasTag(chess.Capture) || cm.HasTag(chess.EnPassant),
		})
	}
	return out
}

func (b *chessBoard) ApplyMove(m models.Move) (models.Move, error) {
	pos := b.game.Position()
	cm := findValid(b.game, m.From, m.To, m.Promotion)
	if cm == nil {
		return models.Move{}, fmt.Errorf("%s: %w", m.UCI(), ErrIllegalMove)
	}
	played := toModel(pos, cm)
	if err := b.game.Move(cm, nil); err != nil {
		return models.Move{}, fmt.Errorf("apply %s: %w", m.UCI(), err)
	}
	return played, nil
}

func (b *chessBoard) SideToMove() models.Side {
	return sideOf(b.game.Position().Turn())
}

func (b *chessBoard) IsCheck() bool {
	moves := b.game.Moves()
	if len(moves) == 0 {
		return false
	}
	return moves[len(moves)-1].HasTag(chess.Check)
}

func (b *chessBoard) IsCheckmate() bool {
	return b.game.Method() == chess.Checkmate
}

func (b *chessBoard) IsStalemate() bool {
	return b.game.Method() == chess.Stalemate
}

func (b *chessBoard) IsGameOver() bool {
	return b.game.Outcome() != chess.NoOutcome
}

func (b *chessBoard) Position() string {
	return b.game.FEN()
}

func (b *chessBoard) Reset() {
	b.game = chess.NewGame()
}

func toModel(pos *chess.Position, cm *chess.Move) models.Move {
	return models.Move{
		From:      squareName(cm.S1()),
		To:        squareName(cm.S2()),
		Notation:  chess.AlgebraicNotation{}.Encode(pos, cm),
		Side:      sideOf(pos.Turn()),
		Promotion: pieceKind(cm.Promo()),
	}
}

func squareName(sq chess.Square) models.Square {
	return models.Square(sq.String())
}

func sideOf(c chess.Color) models.Side {
	if c == chess.Black {
		return models.Black
	}
	return models.White
}

func pieceKind(pt chess.PieceType) models.PieceKind {
	switch pt {
	case chess.Queen:
		return models.Queen
	case chess.Rook:
		return models.Rook
	case chess.Bishop:
		return models.Bishop
	case chess.Knight:
		return models.Knight
	default:
		return models.NoPiece
	}
}
