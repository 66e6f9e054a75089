package catalog_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/openingdrill/internal/catalog"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/theory"
)

func TestDefault_LoadsEmbeddedCatalog(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	require.Greater(t, c.Len(), 5)

	seen := map[string]bool{}
	for _, op := range c.All() {
		assert.False(t, seen[op.ID], "duplicate id %s", op.ID)
		seen[op.ID] = true
		assert.NotEmpty(t, op.MainLine, op.ID)
		assert.NotEmpty(t, op.ECOCode, "%s should have an eco code", op.ID)
		for i, m := range op.MainLine {
			assert.Equal(t, models.SideForPly(i), m.Side, "%s ply %d", op.ID, i)
		}
	}
}

func TestGet_ItalianLines(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	op, ok := c.Get("italian-game")
	require.True(t, ok)
	assert.Equal(t, models.White, op.Side)
	assert.Equal(t, "C50", op.ECOCode)
	require.Len(t, op.AlternateLines, 2)

	two := op.AlternateLines[0]
	assert.Equal(t, "Two Knights Defense", two.Name)
	assert.Equal(t, 5, two.DeviationIndex)
	assert.Equal(t, models.Square("g8"), two.Moves[5].From)

	evans := op.AlternateLines[1]
	assert.Equal(t, 6, evans.DeviationIndex)

	expected, ok := theory.ExpectedMove(op, nil, models.White)
	require.True(t, ok)
	assert.Equal(t, models.Square("e2"), expected.From)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestFilter(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	black := c.Filter(models.Black, "")
	require.NotEmpty(t, black)
	for _, op := range black {
		assert.Equal(t, models.Black, op.Side)
	}

	beginnerWhite := c.Filter(models.White, models.Beginner)
	for _, op := range beginnerWhite {
		assert.Equal(t, models.White, op.Side)
		assert.Equal(t, models.Beginner, op.Difficulty)
	}
	assert.Len(t, c.Filter("", ""), c.Len())
}

func TestParse_BackfillsECO(t *testing.T) {
	c, err := catalog.Parse([]byte(`
openings:
  - id: italian
    name: Italian
    difficulty: beginner
    side: white
    main_line: [e4, e5, Nf3, Nc6, Bc4]
`))
	require.NoError(t, err)
	op, ok := c.Get("italian")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(op.ECOCode, "C"), "got %q", op.ECOCode)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "illegal move",
			yaml: `
openings:
  - id: bad
    name: Bad
    difficulty: beginner
    side: white
    main_line: [e4, e5, Ke3]
`,
			wantErr: "main line",
		},
		{
			name: "duplicate id",
			yaml: `
openings:
  - {id: a, name: A, difficulty: beginner, side: white, main_line: [e4]}
  - {id: a, name: B, difficulty: beginner, side: white, main_line: [d4]}
`,
			wantErr: "duplicate id",
		},
		{
			name:    "bad side",
			yaml:    `openings: [{id: a, name: A, difficulty: beginner, side: red, main_line: [e4]}]`,
			wantErr: "invalid side",
		},
		{
			name:    "bad difficulty",
			yaml:    `openings: [{id: a, name: A, difficulty: expert, side: white, main_line: [e4]}]`,
			wantErr: "invalid difficulty",
		},
		{
			name:    "empty main line",
			yaml:    `openings: [{id: a, name: A, difficulty: beginner, side: white}]`,
			wantErr: "empty main line",
		},
		{
			name: "illegal alternate",
			yaml: `
openings:
  - id: a
    name: A
    difficulty: beginner
    side: white
    main_line: [e4, e5]
    alternates:
      - {name: Broken, moves: [e4, e4]}
`,
			wantErr: "alternate",
		},
		{
			name: "empty alternate",
			yaml: `
openings:
  - id: a
    name: A
    difficulty: beginner
    side: white
    main_line: [e4, e5]
    alternates:
      - {name: Placeholder}
`,
			wantErr: "empty line",
		},
		{
			name: "alternate pgn without moves",
			yaml: `
openings:
  - id: a
    name: A
    difficulty: beginner
    side: white
    main_line: [e4, e5]
    alternates:
      - {name: Result only, pgn: "*"}
`,
			wantErr: "empty line",
		},
		{
			name:    "not yaml",
			yaml:    `openings: [`,
			wantErr: "parse catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_EmptyPathUsesEmbedded(t *testing.T) {
	c, err := catalog.Load("")
	require.NoError(t, err)
	assert.Greater(t, c.Len(), 0)

	_, err = catalog.Load("/nonexistent/openings.yaml")
	assert.Error(t, err)
}

func TestParse_PGNLines(t *testing.T) {
	c, err := catalog.Parse([]byte(`
openings:
  - id: najdorf
    difficulty: advanced
    side: black
    pgn: |
      [ECO "B90"]
      [Opening "Sicilian Najdorf"]

      1. e4 c5 2. Nf3 d6 3. d4 cxd4 4. Nxd4 Nf6 5. Nc3 a6 *
    alternates:
      - name: Alapin
        pgn: "1. e4 c5 2. c3"
`))
	require.NoError(t, err)

	op, ok := c.Get("najdorf")
	require.True(t, ok)
	assert.Equal(t, "Sicilian Najdorf", op.Name)
	assert.Equal(t, "B90", op.ECOCode)
	require.Len(t, op.MainLine, 10)
	assert.Equal(t, "a6", op.MainLine[9].Notation)
	require.Len(t, op.AlternateLines, 1)
	assert.Equal(t, 2, op.AlternateLines[0].DeviationIndex)
}

func TestDefault_ScotchFromPGN(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	op, ok := c.Get("scotch-game")
	require.True(t, ok)
	require.Len(t, op.MainLine, 7)
	assert.Equal(t, models.Square("d4"), op.MainLine[6].To)
}
