// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/metamorph/categories/models"
	"github.com/qolzam/metamorph/categories/services"
	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/internal/middleware/session"
)

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	categoryService services.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler with injected dependencies
func NewCategoryHandler(categoryService services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// Add creates a category
// Endpoint: POST /categories
// Body: {"title": "Science"}
func (h *CategoryHandler) Add(c *fiber.Ctx) error {
	if session.Caller(c) == nil {
		return apperr.Handle(c, apperr.Unauthenticated("log in to add categories"))
	}

	var req models.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.HandleValidationError(c, "Invalid request body")
	}

	category, err := h.categoryService.Add(c.UserContext(), req.Title)
	if err != nil {
		return apperr.Handle(c, err)
	}
	return c.Status(http.StatusCreated).JSON(category)
}

// List returns all categories ordered by title
// Endpoint: GET /categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	categories, err := h.categoryService.List(c.UserContext())
	if err != nil {
		return apperr.Handle(c, err)
	}
	return c.JSON(categories)
}
