package jobs

import (
	"time"

	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/practice"
)

// JobQueue hands session results to background persistence. It satisfies
// practice.Recorder, so calls never block the session.
type JobQueue interface {
	RecordSession(summary practice.Summary)
	RecordRating(openingID string, rating models.Rating, at time.Time)
}
