package engine

import (
	"fmt"
	"sync"

	"github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
	"github.com/vytor/openingdrill/internal/models"
)

var (
	ecoOnce sync.Once
	ecoBook *opening.BookECO
)

func book() *opening.BookECO {
	ecoOnce.Do(func() {
		ecoBook = opening.NewBookECO()
	})
	return ecoBook
}

// DecodeSAN replays moves written in standard algebraic notation from the
// starting position and returns them as a line.
func DecodeSAN(sans []string) (models.Line, error) {
	game := chess.NewGame()
	line := make(models.Line, 0, len(sans))
	for i, san := range sans {
		pos := game.Position()
		decoded, err := chess.AlgebraicNotation{}.Decode(pos, san)
		if err != nil {
			return nil, fmt.Errorf("ply %d %q: %w: %v", i+1, san, ErrIllegalMove, err)
		}
		cm := findValid(game, squareName(decoded.S1()), squareName(decoded.S2()), pieceKind(decoded.Promo()))
		if cm == nil {
			return nil, fmt.Errorf("ply %d %q: %w", i+1, san, ErrIllegalMove)
		}
		line = append(line, toModel(pos, cm))
		if err := game.Move(cm, nil); err != nil {
			return nil, fmt.Errorf("ply %d %q: %w", i+1, san, err)
		}
	}
	return line, nil
}

// LookupECO names the line from the ECO book. ok is false when the book has
// no entry for it.
func LookupECO(line models.Line) (code, title string, ok bool) {
	game := chess.NewGame()
	for _, m := range line {
		cm := findValid(game, m.From, m.To, m.Promotion)
		if cm == nil {
			return "", "", false
		}
		if err := game.Move(cm, nil); err != nil {
			return "", "", false
		}
	}
	eco := book().Find(game.Moves())
	if eco == nil {
		return "", "", false
	}
	return eco.Code(), eco.Title(), true
}

func findValid(game *chess.Game, from, to models.Square, promo models.PieceKind) *chess.Move {
	valid := game.ValidMoves()
	for i := range valid {
		cm := &valid[i]
		if squareName(cm.S1()) == from && squareName(cm.S2()) == to && pieceKind(cm.Promo()) == promo {
			return cm
		}
	}
	return nil
}
