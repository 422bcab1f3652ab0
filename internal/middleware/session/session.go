// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package session attaches the optional authenticated caller to a request.
// Anonymous requests pass through; each operation decides whether a caller is
// required.
package session

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/qolzam/metamorph/internal/pkg/log"
	"github.com/qolzam/metamorph/internal/types"
)

// Verifier resolves a session token to its caller
type Verifier interface {
	Verify(ctx context.Context, token string) (*types.UserContext, error)
}

// Config defines the config for the session middleware
type Config struct {
	Verifier   Verifier
	CookieName string
}

// New creates the session middleware
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := Token(c, cfg.CookieName)
		if token == "" {
			return c.Next()
		}

		user, err := cfg.Verifier.Verify(c.UserContext(), token)
		if err != nil {
			log.DebugWithContext(c.UserContext(), "ignoring session token: %v", err)
			return c.Next()
		}

		c.Locals(types.UserCtxName, *user)
		c.SetUserContext(types.WithUser(c.UserContext(), user))
		return c.Next()
	}
}

// Token returns the bearer token, falling back to the session cookie
func Token(c *fiber.Ctx, cookieName string) string {
	authHeader := c.Get(types.HeaderAuthorization)
	if strings.HasPrefix(authHeader, types.BearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, types.BearerPrefix))
	}
	if cookieName != "" {
		return c.Cookies(cookieName)
	}
	return ""
}

// Caller returns the authenticated caller, or nil when anonymous
func Caller(c *fiber.Ctx) *types.UserContext {
	user, ok := c.Locals(types.UserCtxName).(types.UserContext)
	if !ok {
		return nil
	}
	return &user
}
