package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/openingdrill/internal/models"
)

// MockSessionHistoryRepository is a mock implementation of repository.SessionHistoryRepository
type MockSessionHistoryRepository struct {
	mock.Mock
}

func (m *MockSessionHistoryRepository) Append(ctx context.Context, rec models.SessionRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockSessionHistoryRepository) List(ctx context.Context, filter models.HistoryFilter) ([]models.SessionRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SessionRecord), args.Error(1)
}
