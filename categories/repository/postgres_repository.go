// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	uuid "github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/qolzam/metamorph/categories/models"
	"github.com/qolzam/metamorph/internal/database/postgres"
)

type postgresCategoryRepository struct {
	client *postgres.Client
}

// NewPostgresCategoryRepository creates a new PostgreSQL repository for categories
func NewPostgresCategoryRepository(client *postgres.Client) CategoryRepository {
	return &postgresCategoryRepository{client: client}
}

func (r *postgresCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	query := `INSERT INTO categories (id, title) VALUES ($1, $2) RETURNING created_at`

	err := sqlx.GetContext(ctx, r.client.Executor(ctx), &category.CreatedAt, query, category.ID, category.Title)
	if err != nil {
		if postgres.IsUniqueViolation(err, postgres.ConstraintCategoriesTitle) {
			return ErrDuplicateCategory
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *postgresCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	query := `SELECT id, title, created_at FROM categories WHERE id = $1`

	var category models.Category
	if err := sqlx.GetContext(ctx, r.client.Executor(ctx), &category, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return &category, nil
}

func (r *postgresCategoryRepository) CountByTitle(ctx context.Context, title string) (int64, error) {
	var count int64
	err := sqlx.GetContext(ctx, r.client.Executor(ctx), &count, `SELECT COUNT(*) FROM categories WHERE title = $1`, title)
	if err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

func (r *postgresCategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT id, title, created_at FROM categories ORDER BY title ASC`

	categories := []*models.Category{}
	if err := sqlx.SelectContext(ctx, r.client.Executor(ctx), &categories, query); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
