// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/internal/middleware/session"
	"github.com/qolzam/metamorph/internal/pkg/query"
	"github.com/qolzam/metamorph/submissions/models"
	"github.com/qolzam/metamorph/submissions/services"
)

// SubmissionHandler handles submission HTTP requests
type SubmissionHandler struct {
	submissionService services.SubmissionService
}

// NewSubmissionHandler creates a new SubmissionHandler with injected dependencies
func NewSubmissionHandler(submissionService services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// Submit posts a URL into a category
// Endpoint: POST /submissions
// Body: {"categoryId": "...", "comment": "...", "url": "https://..."}
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	var req models.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.HandleValidationError(c, "Invalid request body")
	}

	categoryID, err := uuid.FromString(req.CategoryID)
	if err != nil {
		return apperr.Handle(c, apperr.Validation("categoryId", "must be a UUID"))
	}

	view, err := h.submissionService.Submit(c.UserContext(), session.Caller(c), categoryID, req.Comment, req.URL)
	if err != nil {
		return apperr.Handle(c, err)
	}
	return c.Status(http.StatusCreated).JSON(view)
}

// List returns submissions, newest first
// Endpoint: GET /submissions?stage=&category_id=&user_id=&limit=&offset=
func (h *SubmissionHandler) List(c *fiber.Ctx) error {
	filter, err := ParseFilter(c)
	if err != nil {
		return apperr.Handle(c, err)
	}

	views, err := h.submissionService.List(c.UserContext(), session.Caller(c), filter)
	if err != nil {
		return apperr.Handle(c, err)
	}
	return c.JSON(views)
}

// Get returns a single submission
// Endpoint: GET /submissions/:id
func (h *SubmissionHandler) Get(c *fiber.Ctx) error {
	id, err := submissionID(c)
	if err != nil {
		return apperr.Handle(c, err)
	}

	view, err := h.submissionService.Get(c.UserContext(), session.Caller(c), id)
	if err != nil {
		return apperr.Handle(c, err)
	}
	return c.JSON(view)
}

// Vote toggles the caller's ballot. It is not idempotent: a retried request
// retracts the vote the first one cast.
// Endpoint: POST /submissions/:id/vote
func (h *SubmissionHandler) Vote(c *fiber.Ctx) error {
	id, err := submissionID(c)
	if err != nil {
		return apperr.Handle(c, err)
	}

	view, err := h.submissionService.ApplyVote(c.UserContext(), session.Caller(c), id)
	if err != nil {
		return apperr.Handle(c, err)
	}
	return c.JSON(view)
}

func submissionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Params("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("id", "must be a UUID")
	}
	return id, nil
}

// ParseFilter decodes listing query parameters
func ParseFilter(c *fiber.Ctx) (models.Filter, error) {
	var q models.ListQuery
	if err := query.Decode(c, &q); err != nil {
		return models.Filter{}, apperr.Validation("query", err.Error())
	}
	return q.Filter()
}
