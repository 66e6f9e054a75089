package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/openingdrill/internal/logger"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/repository"
)

type progressRepository struct {
	db *sql.DB
}

// NewProgressRepository creates a new ProgressRepository implementation
func NewProgressRepository(db *sql.DB) repository.ProgressRepository {
	return &progressRepository{db: db}
}

var progressColumns = []string{
	"opening_id", "times_practiced", "last_practiced_at", "best_accuracy",
	"average_accuracy", "completed", "mastery_level", "difficulty_rating", "last_rated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgress(row rowScanner) (models.ProgressRecord, error) {
	var (
		rec    models.ProgressRecord
		rating sql.NullString
	)
	err := row.Scan(&rec.OpeningID, &rec.TimesPracticed, &rec.LastPracticedAt, &rec.BestAccuracy,
		&rec.AverageAccuracy, &rec.Completed, &rec.MasteryLevel, &rating, &rec.LastRatedAt)
	if err != nil {
		return rec, err
	}
	if rating.Valid {
		r := models.Rating(rating.String)
		rec.DifficultyRating = &r
	}
	return rec, nil
}

func (r *progressRepository) Get(ctx context.Context, openingID string) (*models.ProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("getting progress: opening_id=%s", openingID)

	query, args, err := sqlBuilder.Select(progressColumns...).
		From("opening_progress").
		Where(squirrel.Eq{"opening_id": openingID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rec, err := scanProgress(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no progress for opening_id=%s", openingID)
			return nil, nil
		}
		log.Error("failed to get progress: %v", err)
		return nil, err
	}

	history, err := r.ratingHistory(ctx, &openingID)
	if err != nil {
		return nil, err
	}
	rec.RatingHistory = history[openingID]
	return &rec, nil
}

func (r *progressRepository) All(ctx context.Context) (map[string]models.ProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("listing all progress")

	query, args, err := sqlBuilder.Select(progressColumns...).From("opening_progress").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list progress: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.ProgressRecord)
	for rows.Next() {
		rec, err := scanProgress(rows)
		if err != nil {
			log.Error("failed to scan progress row: %v", err)
			return nil, err
		}
		out[rec.OpeningID] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Release the connection before the second query.
	rows.Close()

	history, err := r.ratingHistory(ctx, nil)
	if err != nil {
		return nil, err
	}
	for id, entries := range history {
		if rec, ok := out[id]; ok {
			rec.RatingHistory = entries
			out[id] = rec
		}
	}

	log.Debug("found progress for %d openings", len(out))
	return out, nil
}

func (r *progressRepository) ratingHistory(ctx context.Context, openingID *string) (map[string][]models.RatingEntry, error) {
	q := sqlBuilder.Select("opening_id", "rating", "rated_at").From("rating_history").OrderBy("rated_at ASC", "id ASC")
	if openingID != nil {
		q = q.Where(squirrel.Eq{"opening_id": *openingID})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]models.RatingEntry)
	for rows.Next() {
		var (
			id    string
			entry models.RatingEntry
		)
		if err := rows.Scan(&id, &entry.Rating, &entry.At); err != nil {
			return nil, err
		}
		out[id] = append(out[id], entry)
	}
	return out, rows.Err()
}

// Put replaces the stored record, including its rating history.
func (r *progressRepository) Put(ctx context.Context, rec models.ProgressRecord) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("saving progress: opening_id=%s times_practiced=%d mastery=%d", rec.OpeningID, rec.TimesPracticed, rec.MasteryLevel)

	var rating any
	if rec.DifficultyRating != nil {
		rating = string(*rec.DifficultyRating)
	}

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		query, args, err := sqlBuilder.Insert("opening_progress").
			Columns(progressColumns...).
			Values(rec.OpeningID, rec.TimesPracticed, nullTime(rec.LastPracticedAt), rec.BestAccuracy,
				rec.AverageAccuracy, rec.Completed, rec.MasteryLevel, rating, nullTime(rec.LastRatedAt)).
			Suffix(`ON CONFLICT(opening_id) DO UPDATE SET
times_practiced = excluded.times_practiced,
last_practiced_at = excluded.last_practiced_at,
best_accuracy = excluded.best_accuracy,
average_accuracy = excluded.average_accuracy,
completed = excluded.completed,
mastery_level = excluded.mastery_level,
difficulty_rating = excluded.difficulty_rating,
last_rated_at = excluded.last_rated_at`).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.Error("failed to upsert progress: %v", err)
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM rating_history WHERE opening_id = ?`, rec.OpeningID); err != nil {
			return err
		}
		if len(rec.RatingHistory) == 0 {
			return nil
		}
		ins := sqlBuilder.Insert("rating_history").Columns("opening_id", "rating", "rated_at")
		for _, e := range rec.RatingHistory {
			ins = ins.Values(rec.OpeningID, string(e.Rating), e.At.UTC())
		}
		query, args, err = ins.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.Error("failed to insert rating history: %v", err)
			return err
		}
		return nil
	})
}

func (r *progressRepository) Reset(ctx context.Context, openingID string) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Info("resetting progress: opening_id=%s", openingID)

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rating_history WHERE opening_id = ?`, openingID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM opening_progress WHERE opening_id = ?`, openingID)
		return err
	})
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
