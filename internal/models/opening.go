package models

import "strings"

type Side string

const (
	White Side = "white"
	Black Side = "black"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == White {
		return Black
	}
	return White
}

// ParseSide accepts "white"/"w" and "black"/"b" in any case.
func ParseSide(s string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	default:
		return "", false
	}
}

// SideForPly returns the side that makes the move at the given zero-based ply.
func SideForPly(ply int) Side {
	if ply%2 == 0 {
		return White
	}
	return Black
}

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// Square is an algebraic coordinate such as "e4".
type Square string

// Valid reports whether the square is inside a1..h8.
func (s Square) Valid() bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

// PieceKind is the lowercase promotion letter: q, r, b or n. Empty means none.
type PieceKind string

const (
	NoPiece PieceKind = ""
	Queen   PieceKind = "q"
	Rook    PieceKind = "r"
	Bishop  PieceKind = "b"
	Knight  PieceKind = "n"
)

type Move struct {
	From      Square    `json:"from" yaml:"from"`
	To        Square    `json:"to" yaml:"to"`
	Notation  string    `json:"notation" yaml:"notation"`
	Side      Side      `json:"side" yaml:"side"`
	Promotion PieceKind `json:"promotion,omitempty" yaml:"promotion,omitempty"`
}

// SameAs compares origin, destination and promotion. Notation and side are ignored.
func (m Move) SameAs(other Move) bool {
	return m.From == other.From && m.To == other.To && m.Promotion == other.Promotion
}

// UCI renders the move as e2e4 / e7e8q.
func (m Move) UCI() string {
	return string(m.From) + string(m.To) + string(m.Promotion)
}

type Line []Move

type AlternateLine struct {
	Name           string `json:"name"`
	DeviationIndex int    `json:"deviation_index"`
	Description    string `json:"description,omitempty"`
	Moves          Line   `json:"moves"`
}

type Opening struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	ECOCode        string          `json:"eco_code"`
	Difficulty     Difficulty      `json:"difficulty"`
	Description    string          `json:"description"`
	MainLine       Line            `json:"main_line"`
	AlternateLines []AlternateLine `json:"alternate_lines"`
	Tags           []string        `json:"tags"`
	Category       string          `json:"category"`
	Side           Side            `json:"side"`
}

// Lines returns the candidate lines in matching order: alternates in catalog
// order, then the main line.
func (o Opening) Lines() []Line {
	lines := make([]Line, 0, len(o.AlternateLines)+1)
	for _, alt := range o.AlternateLines {
		lines = append(lines, alt.Moves)
	}
	return append(lines, o.MainLine)
}
