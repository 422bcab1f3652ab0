// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"errors"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/auth/models"
)

// ErrUserNotFound is returned when no user matches
var ErrUserNotFound = errors.New("user not found")

// ErrDuplicateUser is returned when the email or username is taken
var ErrDuplicateUser = errors.New("email or username already taken")

// UserRepository defines the data access interface for accounts
type UserRepository interface {
	// Create inserts a new user. Returns ErrDuplicateUser on email/username conflict.
	Create(ctx context.Context, user *models.User) error

	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// FindByIDs bulk loads users; unknown ids are absent from the map
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.User, error)

	// FindByLogin finds a user whose username or email equals login
	FindByLogin(ctx context.Context, login string) (*models.User, error)

	CountByEmailOrUsername(ctx context.Context, email, username string) (int64, error)

	// AdjustTokens applies delta to the balance and returns the new value.
	// With floorAtZero the result never drops below zero.
	AdjustTokens(ctx context.Context, id uuid.UUID, delta int64, floorAtZero bool) (int64, error)
}
