// Package theory matches played moves against the lines of an opening.
package theory

import "github.com/vytor/openingdrill/internal/models"

// MatchLine returns the first candidate line (alternates in order, then the
// main line) that agrees with every move in history. An empty history matches
// the first candidate. The first consistent line wins even if a later one
// shares a longer prefix.
func MatchLine(opening models.Opening, history []models.Move) (models.Line, bool) {
	for _, line := range opening.Lines() {
		if lineMatches(line, history) {
			return line, true
		}
	}
	return nil, false
}

func lineMatches(line models.Line, history []models.Move) bool {
	if len(history) > len(line) {
		return false
	}
	for i, mv := range history {
		if !line[i].SameAs(mv) {
			return false
		}
	}
	return true
}

// ExpectedMove returns the next theory move for side on the matched line.
// The move is the side's floor(len(history)/2)-th move within the line.
func ExpectedMove(opening models.Opening, history []models.Move, side models.Side) (models.Move, bool) {
	line, ok := MatchLine(opening, history)
	if !ok {
		return models.Move{}, false
	}
	return sideMove(line, side, len(history)/2)
}

func sideMove(line models.Line, side models.Side, index int) (models.Move, bool) {
	n := 0
	for ply, mv := range line {
		if models.SideForPly(ply) != side {
			continue
		}
		if n == index {
			return mv, true
		}
		n++
	}
	return models.Move{}, false
}

// IsInTheory reports whether move is the expected move for its mover given
// the history played before it.
func IsInTheory(opening models.Opening, history []models.Move, move models.Move) bool {
	mover := models.SideForPly(len(history))
	expected, ok := ExpectedMove(opening, history, mover)
	if !ok {
		return false
	}
	return expected.SameAs(move)
}

// IsComplete reports whether history covers the whole matched line.
func IsComplete(opening models.Opening, history []models.Move) bool {
	line, ok := MatchLine(opening, history)
	if !ok {
		return false
	}
	return len(history) >= len(line)
}
