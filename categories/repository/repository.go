// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"errors"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/categories/models"
)

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateCategory = errors.New("category title already exists")
)

// CategoryRepository defines the data access interface for categories
type CategoryRepository interface {
	// Create inserts a category. Returns ErrDuplicateCategory on title conflict.
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	CountByTitle(ctx context.Context, title string) (int64, error)
	// List returns all categories ordered by title
	List(ctx context.Context) ([]*models.Category, error)
}
