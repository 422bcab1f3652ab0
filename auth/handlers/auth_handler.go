// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/metamorph/auth/models"
	"github.com/qolzam/metamorph/auth/services"
	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/internal/middleware/session"
)

// AuthHandler handles signup, login, logout and me
type AuthHandler struct {
	authService services.AuthService
	cookieName  string
}

// NewAuthHandler creates a new AuthHandler with injected dependencies
func NewAuthHandler(authService services.AuthService, cookieName string) *AuthHandler {
	return &AuthHandler{authService: authService, cookieName: cookieName}
}

// Signup creates an account and starts a session
// Endpoint: POST /auth/signup
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req models.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.HandleValidationError(c, "Invalid request body")
	}

	resp, err := h.authService.Signup(c.UserContext(), session.Caller(c), req)
	if err != nil {
		return apperr.Handle(c, err)
	}

	h.setCookie(c, resp.Token, resp.ExpiresAt)
	return c.Status(http.StatusCreated).JSON(resp)
}

// Login starts a session
// Endpoint: POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.HandleValidationError(c, "Invalid request body")
	}

	resp, err := h.authService.Login(c.UserContext(), session.Caller(c), req)
	if err != nil {
		return apperr.Handle(c, err)
	}

	h.setCookie(c, resp.Token, resp.ExpiresAt)
	return c.JSON(resp)
}

// Logout revokes the current session
// Endpoint: POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), session.Caller(c)); err != nil {
		return apperr.Handle(c, err)
	}

	c.ClearCookie(h.cookieName)
	return c.JSON(fiber.Map{"success": true})
}

// Me returns the current user, or null when anonymous
// Endpoint: GET /auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.authService.Me(c.UserContext(), session.Caller(c))
	if err != nil {
		return apperr.Handle(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *AuthHandler) setCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Expires:  expiresAt,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
	})
}
