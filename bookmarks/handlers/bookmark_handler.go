package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/metamorph/bookmarks/services"
	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/internal/middleware/session"
	submissionHandlers "github.com/qolzam/metamorph/submissions/handlers"
)

type BookmarkHandler struct {
	service services.Service
}

func NewBookmarkHandler(service services.Service) *BookmarkHandler {
	return &BookmarkHandler{service: service}
}

// List returns submissions the caller voted for, with the same filters as
// the submission listing.
// Endpoint: GET /bookmarks?stage=&category_id=&user_id=&limit=&offset=
func (h *BookmarkHandler) List(c *fiber.Ctx) error {
	caller := session.Caller(c)
	if caller == nil {
		return apperr.Handle(c, apperr.Unauthenticated("log in or sign up to see bookmarks"))
	}

	filter, err := submissionHandlers.ParseFilter(c)
	if err != nil {
		return apperr.Handle(c, err)
	}

	resp, err := h.service.ListBookmarks(c.UserContext(), caller, filter)
	if err != nil {
		return apperr.Handle(c, err)
	}
	return c.Status(http.StatusOK).JSON(resp)
}
