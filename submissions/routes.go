package submissions

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/metamorph/submissions/handlers"
)

// SubmissionsHandlers holds all the handlers this router needs
type SubmissionsHandlers struct {
	SubmissionHandler *handlers.SubmissionHandler
}

// RegisterRoutes is the single entry point for setting up submission routes
func RegisterRoutes(app *fiber.App, handlers *SubmissionsHandlers) {
	group := app.Group("/submissions")

	group.Get("/", handlers.SubmissionHandler.List)
	group.Post("/", handlers.SubmissionHandler.Submit)
	group.Get("/:id", handlers.SubmissionHandler.Get)
	group.Post("/:id/vote", handlers.SubmissionHandler.Vote)
}
