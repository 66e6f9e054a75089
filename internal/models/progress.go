package models

import "time"

type Rating string

const (
	RatingHard Rating = "hard"
	RatingGood Rating = "good"
	RatingEasy Rating = "easy"
)

// ParseRating accepts hard, good or easy.
func ParseRating(s string) (Rating, bool) {
	switch r := Rating(s); r {
	case RatingHard, RatingGood, RatingEasy:
		return r, true
	default:
		return "", false
	}
}

type RatingEntry struct {
	At     time.Time `json:"at"`
	Rating Rating    `json:"rating"`
}

type ProgressRecord struct {
	OpeningID        string        `json:"opening_id"`
	TimesPracticed   int           `json:"times_practiced"`
	LastPracticedAt  *time.Time    `json:"last_practiced_at"`
	BestAccuracy     float64       `json:"best_accuracy"`
	AverageAccuracy  float64       `json:"average_accuracy"`
	Completed        bool          `json:"completed"`
	MasteryLevel     int           `json:"mastery_level"`
	DifficultyRating *Rating       `json:"difficulty_rating,omitempty"`
	LastRatedAt      *time.Time    `json:"last_rated_at,omitempty"`
	RatingHistory    []RatingEntry `json:"rating_history"`
}

type SessionRecord struct {
	ID          string    `json:"id"`
	OpeningID   string    `json:"opening_id"`
	OpeningName string    `json:"opening_name"`
	UserSide    Side      `json:"user_side"`
	Outcome     string    `json:"outcome"`
	Correct     int       `json:"correct"`
	Total       int       `json:"total"`
	Accuracy    float64   `json:"accuracy"`
	Moves       []string  `json:"moves"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

type HistoryFilter struct {
	OpeningID string
	Limit     int
}
