package bookmarks

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/metamorph/bookmarks/handlers"
)

type Handlers struct {
	BookmarkHandler *handlers.BookmarkHandler
}

// RegisterRoutes wires bookmark endpoints.
func RegisterRoutes(app *fiber.App, handlers *Handlers) {
	group := app.Group("/bookmarks")
	group.Get("/", handlers.BookmarkHandler.List)
}
