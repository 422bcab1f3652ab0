// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/metamorph/auth/handlers"
)

// AuthHandlers holds all the handlers this router needs
type AuthHandlers struct {
	AuthHandler *handlers.AuthHandler
}

// RegisterRoutes is the single entry point for setting up auth routes.
// The session middleware is installed app-wide by the server.
func RegisterRoutes(app *fiber.App, handlers *AuthHandlers) {
	group := app.Group("/auth")

	group.Post("/signup", handlers.AuthHandler.Signup)
	group.Post("/login", handlers.AuthHandler.Login)
	group.Post("/logout", handlers.AuthHandler.Logout)
	group.Get("/me", handlers.AuthHandler.Me)
}
