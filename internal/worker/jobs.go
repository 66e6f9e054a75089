package worker

import (
	"context"
	"time"

	"github.com/vytor/openingdrill/internal/logger"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/progress"
	"github.com/vytor/openingdrill/internal/repository"
)

// RecordSessionJob folds a finished session into the opening's progress and
// appends it to the history.
type RecordSessionJob struct {
	Progress repository.ProgressRepository
	History  repository.SessionHistoryRepository
	Session  models.SessionRecord
}

func (j *RecordSessionJob) Name() string { return "record_session" }

// Key serializes read-modify-write of one opening's progress.
func (j *RecordSessionJob) Key() string { return j.Session.OpeningID }

func (j *RecordSessionJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"session_id": j.Session.ID,
		"opening_id": j.Session.OpeningID,
	})

	rec, err := loadProgress(ctx, j.Progress, j.Session.OpeningID)
	if err != nil {
		return err
	}
	updated := progress.ApplySession(rec, j.Session.Accuracy, j.Session.Outcome == "completed", j.Session.FinishedAt)
	if err := j.Progress.Put(ctx, updated); err != nil {
		log.Error("failed to save progress: %v", err)
		return err
	}
	log.Debug("progress updated: times_practiced=%d mastery=%d", updated.TimesPracticed, updated.MasteryLevel)

	if j.History == nil {
		return nil
	}
	if err := j.History.Append(ctx, j.Session); err != nil {
		log.Error("failed to append session history: %v", err)
		return err
	}
	return nil
}

// RecordRatingJob stores a difficulty rating for an opening.
type RecordRatingJob struct {
	Progress  repository.ProgressRepository
	OpeningID string
	Rating    models.Rating
	At        time.Time
}

func (j *RecordRatingJob) Name() string { return "record_rating" }

func (j *RecordRatingJob) Key() string { return j.OpeningID }

func (j *RecordRatingJob) Run(ctx context.Context) error {
	rec, err := loadProgress(ctx, j.Progress, j.OpeningID)
	if err != nil {
		return err
	}
	if err := j.Progress.Put(ctx, progress.ApplyRating(rec, j.Rating, j.At)); err != nil {
		logger.FromContext(ctx).Error("failed to save rating for %s: %v", j.OpeningID, err)
		return err
	}
	return nil
}

func loadProgress(ctx context.Context, repo repository.ProgressRepository, openingID string) (models.ProgressRecord, error) {
	rec, err := repo.Get(ctx, openingID)
	if err != nil {
		return models.ProgressRecord{}, err
	}
	if rec == nil {
		return models.ProgressRecord{OpeningID: openingID}, nil
	}
	return *rec, nil
}
