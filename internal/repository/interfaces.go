package repository

import (
	"context"

	"github.com/vytor/openingdrill/internal/models"
)

// ProgressRepository stores per-opening practice progress.
// Get returns nil, nil when the opening has never been practiced.
type ProgressRepository interface {
	Get(ctx context.Context, openingID string) (*models.ProgressRecord, error)
	Put(ctx context.Context, rec models.ProgressRecord) error
	All(ctx context.Context) (map[string]models.ProgressRecord, error)
	Reset(ctx context.Context, openingID string) error
}

// SessionHistoryRepository stores finished practice sessions, newest first.
type SessionHistoryRepository interface {
	Append(ctx context.Context, rec models.SessionRecord) error
	List(ctx context.Context, filter models.HistoryFilter) ([]models.SessionRecord, error)
}
