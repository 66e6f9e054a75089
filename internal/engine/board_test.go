package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/openingdrill/internal/engine"
	"github.com/vytor/openingdrill/internal/models"
)

func play(t *testing.T, b engine.Board, ucis ...string) {
	t.Helper()
	for _, u := range ucis {
		m := models.Move{From: models.Square(u[0:2]), To: models.Square(u[2:4])}
		if len(u) == 5 {
			m.Promotion = models.PieceKind(u[4:])
		}
		_, err := b.ApplyMove(m)
		require.NoError(t, err, "move %s", u)
	}
}

func TestLegalMoves_StartPosition(t *testing.T) {
	b := engine.NewBoard()
	assert.Len(t, b.LegalMoves(nil), 20)

	from := models.Square("e2")
	moves := b.LegalMoves(&from)
	require.Len(t, moves, 2)
	for _, m := range moves {
		assert.Equal(t, from, m.From)
		assert.Equal(t, models.White, m.Side)
		assert.False(t, m.Check)
		assert.False(t, m.Capture)
	}
}

func TestApplyMove_FillsNotationAndSide(t *testing.T) {
	b := engine.NewBoard()
	played, err := b.ApplyMove(models.Move{From: "g1", To: "f3"})
	require.NoError(t, err)
	assert.Equal(t, "Nf3", played.Notation)
	assert.Equal(t, models.White, played.Side)
	assert.Equal(t, models.Black, b.SideToMove())
}

func TestApplyMove_Illegal(t *testing.T) {
	b := engine.NewBoard()
	before := b.Position()
	_, err := b.ApplyMove(models.Move{From: "e2", To: "e5"})
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrIllegalMove)
	assert.Equal(t, before, b.Position(), "position must not change")
}

func TestCaptureAndCheckTags(t *testing.T) {
	b := engine.NewBoard()
	play(t, b, "e2e4", "d7d5")

	from := models.Square("e4")
	var capture bool
	for _, m := range b.LegalMoves(&from) {
		if m.To == "d5" {
			capture = m.Capture
		}
	}
	assert.True(t, capture, "exd5 should be tagged as a capture")

	play(t, b, "e4d5", "e7e6", "f1b5")
	assert.True(t, b.IsCheck())
	assert.False(t, b.IsCheckmate())
}

func TestCheckmate(t *testing.T) {
	b := engine.NewBoard()
	play(t, b, "f2f3", "e7e5", "g2g4", "d8h4")
	assert.True(t, b.IsCheck())
	assert.True(t, b.IsCheckmate())
	assert.True(t, b.IsGameOver())
	assert.Empty(t, b.LegalMoves(nil))
}

func TestStalemate(t *testing.T) {
	b, err := engine.NewBoardFromFEN("7k/4Q3/6K1/8/8/8/8/8 w - - 0 1")
	require.NoError(t, err)
	play(t, b, "e7f7")
	assert.True(t, b.IsStalemate())
	assert.False(t, b.IsCheck())
	assert.True(t, b.IsGameOver())
}

func TestPromotion(t *testing.T) {
	b, err := engine.NewBoardFromFEN("8/P7/8/8/8/8/8/k6K w - - 0 1")
	require.NoError(t, err)

	from := models.Square("a7")
	assert.Len(t, b.LegalMoves(&from), 4, "one move per promotion piece")

	played, err := b.ApplyMove(models.Move{From: "a7", To: "a8", Promotion: models.Knight})
	require.NoError(t, err)
	assert.Equal(t, models.Knight, played.Promotion)
}

func TestReset(t *testing.T) {
	b := engine.NewBoard()
	start := b.Position()
	play(t, b, "e2e4")
	assert.NotEqual(t, start, b.Position())
	b.Reset()
	assert.Equal(t, start, b.Position())
}

func TestDecodeSAN(t *testing.T) {
	line, err := engine.DecodeSAN([]string{"e4", "e5", "Nf3", "Nc6", "Bb5", "Nf6", "O-O"})
	require.NoError(t, err)
	require.Len(t, line, 7)

	assert.Equal(t, models.Square("g1"), line[2].From)
	assert.Equal(t, models.Square("f3"), line[2].To)
	assert.Equal(t, models.Black, line[3].Side)
	assert.Equal(t, models.Square("e1"), line[6].From)
	assert.Equal(t, models.Square("g1"), line[6].To)
	assert.Equal(t, "O-O", line[6].Notation)
}

func TestDecodeSAN_RejectsIllegal(t *testing.T) {
	_, err := engine.DecodeSAN([]string{"e4", "e5", "Ke3"})
	assert.ErrorIs(t, err, engine.ErrIllegalMove)
}

func TestLookupECO(t *testing.T) {
	line, err := engine.DecodeSAN([]string{"e4", "e5", "Nf3", "Nc6", "Bc4"})
	require.NoError(t, err)

	code, title, ok := engine.LookupECO(line)
	require.True(t, ok)
	assert.Equal(t, "C", code[:1])
	assert.NotEmpty(t, title)
}
