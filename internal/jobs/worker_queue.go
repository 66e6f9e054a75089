package jobs

import (
	"time"

	"github.com/vytor/openingdrill/internal/logger"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/practice"
	"github.com/vytor/openingdrill/internal/repository"
	"github.com/vytor/openingdrill/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	pool         *worker.Pool
	progressRepo repository.ProgressRepository
	historyRepo  repository.SessionHistoryRepository
	log          *logger.Logger
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(
	pool *worker.Pool,
	progressRepo repository.ProgressRepository,
	historyRepo repository.SessionHistoryRepository,
) *WorkerQueue {
	return &WorkerQueue{
		pool:         pool,
		progressRepo: progressRepo,
		historyRepo:  historyRepo,
		log:          logger.Default().WithPrefix("job_queue"),
	}
}

// RecordSession queues the summary for persistence. Failures are logged and dropped.
func (q *WorkerQueue) RecordSession(summary practice.Summary) {
	err := q.pool.Submit(&worker.RecordSessionJob{
		Progress: q.progressRepo,
		History:  q.historyRepo,
		Session:  SessionRecord(summary),
	})
	if err != nil {
		q.log.Error("failed to queue session %s: %v", summary.SessionID, err)
	}
}

func (q *WorkerQueue) RecordRating(openingID string, rating models.Rating, at time.Time) {
	err := q.pool.Submit(&worker.RecordRatingJob{
		Progress:  q.progressRepo,
		OpeningID: openingID,
		Rating:    rating,
		At:        at,
	})
	if err != nil {
		q.log.Error("failed to queue rating for %s: %v", openingID, err)
	}
}

// SessionRecord converts a finished session into its stored form.
func SessionRecord(s practice.Summary) models.SessionRecord {
	moves := make([]string, len(s.Moves))
	for i, m := range s.Moves {
		moves[i] = m.UCI()
	}
	return models.SessionRecord{
		ID:          s.SessionID,
		OpeningID:   s.Opening.ID,
		OpeningName: s.Opening.Name,
		UserSide:    s.UserSide,
		Outcome:     string(s.Outcome),
		Correct:     s.Correct,
		Total:       s.Total,
		Accuracy:    s.Accuracy,
		Moves:       moves,
		StartedAt:   s.StartedAt,
		FinishedAt:  s.FinishedAt,
	}
}
