package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/practice"
)

// MockJobQueue is a mock implementation of jobs.JobQueue
type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) RecordSession(summary practice.Summary) {
	m.Called(summary)
}

func (m *MockJobQueue) RecordRating(openingID string, rating models.Rating, at time.Time) {
	m.Called(openingID, rating, at)
}
