package categories

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/metamorph/categories/handlers"
)

// CategoriesHandlers holds all the handlers this router needs
type CategoriesHandlers struct {
	CategoryHandler *handlers.CategoryHandler
}

// RegisterRoutes is the single entry point for setting up category routes
func RegisterRoutes(app *fiber.App, handlers *CategoriesHandlers) {
	group := app.Group("/categories")

	group.Get("/", handlers.CategoryHandler.List)
	group.Post("/", handlers.CategoryHandler.Add)
}
