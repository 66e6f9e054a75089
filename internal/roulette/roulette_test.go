package roulette_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/roulette"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func rated(r models.Rating, practiced *time.Time) models.ProgressRecord {
	return models.ProgressRecord{DifficultyRating: &r, LastPracticedAt: practiced}
}

func daysAgo(n int) *time.Time {
	t := now.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}

func constant(v float64) func() float64 {
	return func() float64 { return v }
}

// sequence returns the values in order, repeating the last one.
func sequence(vals ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := vals[i]
		if i < len(vals)-1 {
			i++
		}
		return v
	}
}

func catalog() []models.Opening {
	return []models.Opening{{ID: "hard"}, {ID: "good"}, {ID: "easy"}}
}

func progressMap() map[string]models.ProgressRecord {
	return map[string]models.ProgressRecord{
		"hard": rated(models.RatingHard, daysAgo(1)),
		"good": rated(models.RatingGood, daysAgo(1)),
		"easy": rated(models.RatingEasy, daysAgo(1)),
	}
}

func TestBaseWeight_RatingTable(t *testing.T) {
	s := roulette.New(roulette.DefaultConfig(), roulette.WithClock(func() time.Time { return now }))

	assert.Equal(t, 1.0, s.BaseWeight(nil), "no progress is unrated")
	assert.Equal(t, 1.0, s.BaseWeight(&models.ProgressRecord{TimesPracticed: 3}), "no rating is unrated")

	hard := rated(models.RatingHard, nil)
	good := rated(models.RatingGood, nil)
	easy := rated(models.RatingEasy, nil)
	assert.Equal(t, 3.0, s.BaseWeight(&hard))
	assert.Equal(t, 1.0, s.BaseWeight(&good))
	assert.Equal(t, 0.3, s.BaseWeight(&easy))
}

func TestBaseWeight_TimeDecay(t *testing.T) {
	s := roulette.New(roulette.DefaultConfig(), roulette.WithClock(func() time.Time { return now }))

	today := rated(models.RatingEasy, daysAgo(0))
	week := rated(models.RatingEasy, daysAgo(7))
	tenDays := rated(models.RatingEasy, daysAgo(10))
	month := rated(models.RatingEasy, daysAgo(30))

	assert.Equal(t, 0.3, s.BaseWeight(&today))
	assert.Equal(t, 0.3, s.BaseWeight(&week), "decay starts after decayDays")
	assert.InDelta(t, 0.3*(1+3.0/7.0), s.BaseWeight(&tenDays), 1e-9)
	assert.Greater(t, s.BaseWeight(&month), s.BaseWeight(&today))
	assert.InDelta(t, 2.0, s.BaseWeight(&month)/s.BaseWeight(&today), 1e-9, "multiplier is capped")
}

func TestBaseWeight_DecayOnlyForEasy(t *testing.T) {
	s := roulette.New(roulette.DefaultConfig(), roulette.WithClock(func() time.Time { return now }))
	hard := rated(models.RatingHard, daysAgo(30))
	assert.Equal(t, 3.0, s.BaseWeight(&hard))
}

func TestBaseWeight_DecayDisabled(t *testing.T) {
	cfg := roulette.DefaultConfig()
	cfg.DecayEnabled = false
	s := roulette.New(cfg, roulette.WithClock(func() time.Time { return now }))
	easy := rated(models.RatingEasy, daysAgo(30))
	assert.Equal(t, 0.3, s.BaseWeight(&easy))
}

func TestWeight_FuzzBounds(t *testing.T) {
	good := rated(models.RatingGood, nil)

	low := roulette.New(roulette.DefaultConfig(), roulette.WithRandom(constant(0)))
	high := roulette.New(roulette.DefaultConfig(), roulette.WithRandom(constant(0.999999)))
	mid := roulette.New(roulette.DefaultConfig(), roulette.WithRandom(constant(0.5)))

	assert.InDelta(t, 0.9, low.Weight(&good), 1e-9)
	assert.InDelta(t, 1.1, high.Weight(&good), 1e-5)
	assert.InDelta(t, 1.0, mid.Weight(&good), 1e-9)
}

func TestWeight_Floor(t *testing.T) {
	cfg := roulette.DefaultConfig()
	cfg.UnratedWeight = 0
	s := roulette.New(cfg, roulette.WithRandom(constant(0.5)))
	assert.Equal(t, 0.01, s.Weight(nil))
}

func TestSelect_EmptyCatalog(t *testing.T) {
	s := roulette.New(roulette.DefaultConfig())
	_, err := s.Select(nil, nil)
	assert.ErrorIs(t, err, roulette.ErrEmptyCatalog)
}

func TestSelect_SingleOpeningConsumesNoRandomness(t *testing.T) {
	calls := 0
	s := roulette.New(roulette.DefaultConfig(), roulette.WithRandom(func() float64 {
		calls++
		return 0.5
	}))

	for i := 0; i < 10; i++ {
		got, err := s.Select([]models.Opening{{ID: "only"}}, progressMap())
		require.NoError(t, err)
		assert.Equal(t, "only", got.ID)
	}
	assert.Zero(t, calls)
}

func TestSelect_CumulativeWalk(t *testing.T) {
	// Three fuzz draws at 0.5 leave weights 3.0, 1.0, 0.3 (total 4.3).
	tests := []struct {
		name     string
		draw     float64
		expected string
	}{
		{name: "start of hard band", draw: 0.0, expected: "hard"},
		{name: "end of hard band", draw: 2.9 / 4.3, expected: "hard"},
		{name: "good band", draw: 3.5 / 4.3, expected: "good"},
		{name: "easy band", draw: 4.2 / 4.3, expected: "easy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := roulette.New(roulette.DefaultConfig(),
				roulette.WithClock(func() time.Time { return now }),
				roulette.WithRandom(sequence(0.5, 0.5, 0.5, tt.draw)))
			got, err := s.Select(catalog(), progressMap())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.ID)
		})
	}
}

func TestSelect_HardRatedWinsPlurality(t *testing.T) {
	s := roulette.New(roulette.DefaultConfig(), roulette.WithClock(func() time.Time { return now }))
	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		got, err := s.Select(catalog(), progressMap())
		require.NoError(t, err)
		counts[got.ID]++
	}

	assert.Greater(t, counts["hard"], counts["good"])
	assert.Greater(t, counts["hard"], counts["easy"])
	assert.Greater(t, counts["good"], counts["easy"])
	assert.Greater(t, counts["easy"], 0, "every opening keeps a chance")
}

func TestRank(t *testing.T) {
	s := roulette.New(roulette.DefaultConfig(),
		roulette.WithClock(func() time.Time { return now }),
		roulette.WithRandom(constant(0.5)))

	openings := []models.Opening{{ID: "easy"}, {ID: "unrated-a"}, {ID: "hard"}, {ID: "unrated-b"}}
	ranked := s.Rank(openings, map[string]models.ProgressRecord{
		"hard": rated(models.RatingHard, nil),
		"easy": rated(models.RatingEasy, nil),
	}, 3)

	require.Len(t, ranked, 3)
	assert.Equal(t, "hard", ranked[0].Opening.ID)
	assert.Equal(t, "unrated-a", ranked[1].Opening.ID, "ties keep catalog order")
	assert.Equal(t, "unrated-b", ranked[2].Opening.ID)
	assert.InDelta(t, 3.0, ranked[0].Weight, 1e-9)
}

func TestRank_NLargerThanCatalog(t *testing.T) {
	s := roulette.New(roulette.DefaultConfig())
	assert.Len(t, s.Rank(catalog(), nil, 10), 3)
}
