// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/categories/models"
	"github.com/qolzam/metamorph/categories/repository"
	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/internal/pkg/log"
)

// CategoryService defines category operations
type CategoryService interface {
	Add(ctx context.Context, title string) (*models.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
}

type categoryService struct {
	repo repository.CategoryRepository
}

// NewCategoryService creates a new instance of the category service
func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

// Add creates a category. A title already in use yields DuplicateResource and
// inserts nothing.
func (s *categoryService) Add(ctx context.Context, title string) (*models.Category, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Validation("title", "must not be empty")
	}

	count, err := s.repo.CountByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.Duplicate(apperr.ResourceCategory, fmt.Sprintf("category %q already exists", title))
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate category ID: %w", err)
	}

	category := &models.Category{ID: id, Title: title}
	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateCategory) {
			return nil, apperr.Duplicate(apperr.ResourceCategory, fmt.Sprintf("category %q already exists", title))
		}
		return nil, err
	}

	log.InfoWithContext(ctx, "category %s created: %s", category.ID, category.Title)
	return category, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, apperr.NotFound(apperr.ResourceCategory, id.String())
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) List(ctx context.Context) ([]*models.Category, error) {
	return s.repo.List(ctx)
}
