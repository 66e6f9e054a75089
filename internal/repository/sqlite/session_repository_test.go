package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/repository"
	"github.com/vytor/openingdrill/internal/repository/sqlite"
	"github.com/vytor/openingdrill/internal/testutil"
)

type SessionHistoryRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.SessionHistoryRepository
}

func (s *SessionHistoryRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewSessionHistoryRepository(s.db)
}

func (s *SessionHistoryRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func session(id, opening string, finished time.Time) models.SessionRecord {
	return models.SessionRecord{
		ID:          id,
		OpeningID:   opening,
		OpeningName: opening,
		UserSide:    models.White,
		Outcome:     "completed",
		Correct:     3,
		Total:       3,
		Accuracy:    100,
		Moves:       []string{"e2e4", "e7e5", "g1f3"},
		StartedAt:   finished.Add(-time.Minute),
		FinishedAt:  finished,
	}
}

func (s *SessionHistoryRepositorySuite) TestAppendAndListNewestFirst() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.Require().NoError(s.repo.Append(ctx, session("a", "italian", base)))
	s.Require().NoError(s.repo.Append(ctx, session("b", "sicilian", base.Add(time.Hour))))
	s.Require().NoError(s.repo.Append(ctx, session("c", "italian", base.Add(2*time.Hour))))

	all, err := s.repo.List(ctx, models.HistoryFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal("c", all[0].ID)
	s.Equal("a", all[2].ID)
	s.Equal([]string{"e2e4", "e7e5", "g1f3"}, all[0].Moves)
	s.Equal(models.White, all[0].UserSide)

	italian, err := s.repo.List(ctx, models.HistoryFilter{OpeningID: "italian"})
	s.Require().NoError(err)
	s.Len(italian, 2)

	limited, err := s.repo.List(ctx, models.HistoryFilter{Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(limited, 1)
	s.Equal("c", limited[0].ID)
}

func (s *SessionHistoryRepositorySuite) TestDuplicateIDFails() {
	ctx := context.Background()
	now := time.Now()
	s.Require().NoError(s.repo.Append(ctx, session("a", "italian", now)))
	s.Error(s.repo.Append(ctx, session("a", "italian", now)))
}

func TestSessionHistoryRepositorySuite(t *testing.T) {
	suite.Run(t, new(SessionHistoryRepositorySuite))
}
