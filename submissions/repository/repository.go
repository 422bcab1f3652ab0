// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"errors"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/submissions/models"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrContentNotFound    = errors.New("content not found")
)

// SubmissionRepository defines the data access interface for submissions
type SubmissionRepository interface {
	// WithTransaction runs fn in a transaction carried by the context passed
	// to fn. Every repository honours it.
	WithTransaction(ctx context.Context, fn func(context.Context) error) error

	Create(ctx context.Context, submission *models.Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)

	// LockByID loads the submission and holds a row lock until the
	// transaction in ctx ends, serialising vote processing per submission.
	LockByID(ctx context.Context, id uuid.UUID) (*models.Submission, error)

	UpdateStage(ctx context.Context, id uuid.UUID, stage string) (*models.Submission, error)

	// Find lists submissions matching filter, newest first
	Find(ctx context.Context, filter models.Filter) ([]*models.Submission, error)

	// FindVotedBy lists submissions carrying a yes ballot from userID that
	// also match filter, newest first
	FindVotedBy(ctx context.Context, userID uuid.UUID, filter models.Filter) ([]*models.Submission, error)
}
