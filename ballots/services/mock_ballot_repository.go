// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/ballots/models"
	"github.com/qolzam/metamorph/ballots/repository"
	"github.com/stretchr/testify/mock"
)

// MockBallotRepository is a mock implementation of BallotRepository for testing
type MockBallotRepository struct {
	mock.Mock
}

// Ensure MockBallotRepository implements BallotRepository
var _ repository.BallotRepository = (*MockBallotRepository)(nil)

func (m *MockBallotRepository) Find(ctx context.Context, userID, submissionID uuid.UUID) (*models.Ballot, error) {
	args := m.Called(ctx, userID, submissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ballot), args.Error(1)
}

func (m *MockBallotRepository) Insert(ctx context.Context, ballot *models.Ballot) error {
	return m.Called(ctx, ballot).Error(0)
}

func (m *MockBallotRepository) Delete(ctx context.Context, userID, submissionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, submissionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBallotRepository) CountYes(ctx context.Context, submissionID uuid.UUID) (int, error) {
	args := m.Called(ctx, submissionID)
	return args.Int(0), args.Error(1)
}

func (m *MockBallotRepository) CountYesForSubmissions(ctx context.Context, submissionIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	args := m.Called(ctx, submissionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]int), args.Error(1)
}

func (m *MockBallotRepository) VotedMap(ctx context.Context, userID uuid.UUID, submissionIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	args := m.Called(ctx, userID, submissionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]bool), args.Error(1)
}
