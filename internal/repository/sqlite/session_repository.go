package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/openingdrill/internal/logger"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/repository"
)

const defaultHistoryLimit = 50

type sessionHistoryRepository struct {
	db *sql.DB
}

// NewSessionHistoryRepository creates a new SessionHistoryRepository implementation
func NewSessionHistoryRepository(db *sql.DB) repository.SessionHistoryRepository {
	return &sessionHistoryRepository{db: db}
}

func (r *sessionHistoryRepository) Append(ctx context.Context, rec models.SessionRecord) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("appending session: id=%s opening_id=%s outcome=%s", rec.ID, rec.OpeningID, rec.Outcome)

	moves, err := json.Marshal(rec.Moves)
	if err != nil {
		return err
	}

	query, args, err := sqlBuilder.Insert("session_history").
		Columns("id", "opening_id", "opening_name", "user_side", "outcome", "correct", "total",
			"accuracy", "moves", "started_at", "finished_at").
		Values(rec.ID, rec.OpeningID, rec.OpeningName, string(rec.UserSide), rec.Outcome, rec.Correct,
			rec.Total, rec.Accuracy, string(moves), rec.StartedAt.UTC(), rec.FinishedAt.UTC()).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.Error("failed to append session: %v", err)
		return err
	}
	return nil
}

func (r *sessionHistoryRepository) List(ctx context.Context, filter models.HistoryFilter) ([]models.SessionRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("listing sessions with filter: opening_id=%s limit=%d", filter.OpeningID, filter.Limit)

	query := sqlBuilder.Select("id", "opening_id", "opening_name", "user_side", "outcome", "correct",
		"total", "accuracy", "moves", "started_at", "finished_at").
		From("session_history")
	if filter.OpeningID != "" {
		query = query.Where(squirrel.Eq{"opening_id": filter.OpeningID})
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	query = query.OrderBy("finished_at DESC").Limit(uint64(limit))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list sessions: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.SessionRecord
	for rows.Next() {
		var (
			rec   models.SessionRecord
			moves string
		)
		if err := rows.Scan(&rec.ID, &rec.OpeningID, &rec.OpeningName, &rec.UserSide, &rec.Outcome, &rec.Correct,
			&rec.Total, &rec.Accuracy, &moves, &rec.StartedAt, &rec.FinishedAt); err != nil {
			log.Error("failed to scan session row: %v", err)
			return nil, err
		}
		if err := json.Unmarshal([]byte(moves), &rec.Moves); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	log.Debug("found %d sessions", len(out))
	return out, rows.Err()
}
