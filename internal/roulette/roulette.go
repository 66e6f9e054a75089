// Package roulette picks the next opening to practice with a weighted random
// draw that favours hard openings and resurfaces easy ones after a while.
package roulette

import (
	"errors"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/vytor/openingdrill/internal/models"
)

// ErrEmptyCatalog is returned by Select when there is nothing to choose from.
var ErrEmptyCatalog = errors.New("roulette: empty opening catalog")

const (
	minWeight = 0.01
	day       = 24 * time.Hour
)

type Config struct {
	HardWeight    float64
	GoodWeight    float64
	EasyWeight    float64
	UnratedWeight float64
	DecayEnabled  bool
	DecayDays     int
	MaxMultiplier float64
	FuzzFactor    float64
}

func DefaultConfig() Config {
	return Config{
		HardWeight:    3.0,
		GoodWeight:    1.0,
		EasyWeight:    0.3,
		UnratedWeight: 1.0,
		DecayEnabled:  true,
		DecayDays:     7,
		MaxMultiplier: 2.0,
		FuzzFactor:    0.1,
	}
}

// Ranked is an opening with the weight it was ranked by.
type Ranked struct {
	Opening models.Opening `json:"opening"`
	Weight  float64        `json:"weight"`
}

// Selector is safe for concurrent use as long as its random source is.
type Selector struct {
	cfg   Config
	now   func() time.Time
	float func() float64
}

type Option func(*Selector)

func WithClock(now func() time.Time) Option {
	return func(s *Selector) {
		s.now = now
	}
}

// WithRandom replaces the uniform [0,1) source.
func WithRandom(float func() float64) Option {
	return func(s *Selector) {
		s.float = float
	}
}

func New(cfg Config, opts ...Option) *Selector {
	s := &Selector{cfg: cfg, now: time.Now, float: rand.Float64}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Selector) Config() Config {
	return s.cfg
}

// BaseWeight is the weight before fuzz: rating table value times time decay.
func (s *Selector) BaseWeight(progress *models.ProgressRecord) float64 {
	if progress == nil || progress.DifficultyRating == nil {
		return s.cfg.UnratedWeight
	}
	rating := *progress.DifficultyRating
	var base float64
	switch rating {
	case models.RatingHard:
		base = s.cfg.HardWeight
	case models.RatingGood:
		base = s.cfg.GoodWeight
	case models.RatingEasy:
		base = s.cfg.EasyWeight
	default:
		base = s.cfg.UnratedWeight
	}
	if rating == models.RatingEasy && s.cfg.DecayEnabled && progress.LastPracticedAt != nil {
		base *= s.decayMultiplier(*progress.LastPracticedAt)
	}
	return base
}

func (s *Selector) decayMultiplier(last time.Time) float64 {
	if s.cfg.DecayDays <= 0 {
		return 1
	}
	daysSince := int(math.Floor(float64(s.now().Sub(last)) / float64(day)))
	if daysSince <= s.cfg.DecayDays {
		return 1
	}
	m := 1 + float64(daysSince-s.cfg.DecayDays)/float64(s.cfg.DecayDays)
	return math.Min(m, s.cfg.MaxMultiplier)
}

// Weight is BaseWeight with ±FuzzFactor noise, floored at 0.01.
func (s *Selector) Weight(progress *models.ProgressRecord) float64 {
	w := s.BaseWeight(progress)
	w *= 1 + (s.float()-0.5)*2*s.cfg.FuzzFactor
	return math.Max(w, minWeight)
}

func (s *Selector) lookup(progress map[string]models.ProgressRecord, id string) *models.ProgressRecord {
	if rec, ok := progress[id]; ok {
		return &rec
	}
	return nil
}

// Select draws one opening. A single candidate is returned without drawing.
func (s *Selector) Select(openings []models.Opening, progress map[string]models.ProgressRecord) (models.Opening, error) {
	switch len(openings) {
	case 0:
		return models.Opening{}, ErrEmptyCatalog
	case 1:
		return openings[0], nil
	}

	weights := make([]float64, len(openings))
	var total float64
	for i, o := range openings {
		weights[i] = s.Weight(s.lookup(progress, o.ID))
		total += weights[i]
	}

	r := s.float() * total
	for i, w := range weights {
		r -= w
		if r <= 0 {
			return openings[i], nil
		}
	}
	return openings[len(openings)-1], nil
}

// Rank returns the top n openings by fuzzed weight, ties in catalog order.
func (s *Selector) Rank(openings []models.Opening, progress map[string]models.ProgressRecord, n int) []Ranked {
	ranked := make([]Ranked, len(openings))
	for i, o := range openings {
		ranked[i] = Ranked{Opening: o, Weight: s.Weight(s.lookup(progress, o.ID))}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight > ranked[j].Weight
	})
	if n >= 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
