// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/auth/models"
	"github.com/qolzam/metamorph/auth/repository"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository for testing
type MockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	args := m.Called(ctx, login)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) CountByEmailOrUsername(ctx context.Context, email, username string) (int64, error) {
	args := m.Called(ctx, email, username)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) AdjustTokens(ctx context.Context, id uuid.UUID, delta int64, floorAtZero bool) (int64, error) {
	args := m.Called(ctx, id, delta, floorAtZero)
	return args.Get(0).(int64), args.Error(1)
}

// MockSessionIssuer is a mock implementation of SessionIssuer for testing
type MockSessionIssuer struct {
	mock.Mock
}

var _ SessionIssuer = (*MockSessionIssuer)(nil)

func (m *MockSessionIssuer) Issue(ctx context.Context, userID uuid.UUID, username string) (string, time.Time, error) {
	args := m.Called(ctx, userID, username)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockSessionIssuer) Revoke(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}
