package progress

import (
	"time"

	"github.com/vytor/openingdrill/internal/models"
)

// masteryThresholds maps a star level to its minimum average accuracy and
// practice count, highest first.
var masteryThresholds = []struct {
	level    int
	accuracy float64
	times    int
}{
	{5, 95, 5},
	{4, 90, 4},
	{3, 80, 3},
	{2, 70, 2},
	{1, 60, 1},
}

// Accuracy returns correct/total as a percentage, 0 when nothing was played.
func Accuracy(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// MasteryLevel returns 0-5 stars for the given average accuracy and practice count.
func MasteryLevel(avgAccuracy float64, timesPracticed int) int {
	for _, t := range masteryThresholds {
		if avgAccuracy >= t.accuracy && timesPracticed >= t.times {
			return t.level
		}
	}
	return 0
}

// ApplySession folds one finished session into the record.
func ApplySession(rec models.ProgressRecord, accuracy float64, completed bool, at time.Time) models.ProgressRecord {
	oldCount := rec.TimesPracticed
	rec.TimesPracticed++
	rec.AverageAccuracy = (rec.AverageAccuracy*float64(oldCount) + accuracy) / float64(rec.TimesPracticed)
	if accuracy > rec.BestAccuracy {
		rec.BestAccuracy = accuracy
	}
	if completed {
		rec.Completed = true
	}
	practiced := at
	rec.LastPracticedAt = &practiced
	rec.MasteryLevel = MasteryLevel(rec.AverageAccuracy, rec.TimesPracticed)
	return rec
}

// ApplyRating records a self-reported difficulty rating.
func ApplyRating(rec models.ProgressRecord, rating models.Rating, at time.Time) models.ProgressRecord {
	r := rating
	ratedAt := at
	rec.DifficultyRating = &r
	rec.LastRatedAt = &ratedAt
	history := make([]models.RatingEntry, len(rec.RatingHistory), len(rec.RatingHistory)+1)
	copy(history, rec.RatingHistory)
	rec.RatingHistory = append(history, models.RatingEntry{At: at, Rating: rating})
	return rec
}
