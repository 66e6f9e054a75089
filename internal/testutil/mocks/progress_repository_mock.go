package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/openingdrill/internal/models"
)

// MockProgressRepository is a mock implementation of repository.ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) Get(ctx context.Context, openingID string) (*models.ProgressRecord, error) {
	args := m.Called(ctx, openingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProgressRecord), args.Error(1)
}

func (m *MockProgressRepository) Put(ctx context.Context, rec models.ProgressRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockProgressRepository) All(ctx context.Context) (map[string]models.ProgressRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]models.ProgressRecord), args.Error(1)
}

func (m *MockProgressRepository) Reset(ctx context.Context, openingID string) error {
	args := m.Called(ctx, openingID)
	return args.Error(0)
}
