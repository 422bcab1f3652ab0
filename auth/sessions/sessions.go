// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sessions issues HS256 session tokens and keeps an allowlist of live
// session ids so that logout invalidates a token before it expires.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/internal/cache"
	"github.com/qolzam/metamorph/internal/types"
)

var (
	ErrInvalidToken   = errors.New("invalid session token")
	ErrSessionRevoked = errors.New("session revoked")
)

const keyPrefix = "session:"

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager issues and verifies session tokens
type Manager struct {
	secret []byte
	ttl    time.Duration
	store  cache.Cache
	now    func() time.Time
}

// NewManager creates a Manager. store holds the allowlist.
func NewManager(secret string, ttl time.Duration, store cache.Cache) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		store:  store,
		now:    time.Now,
	}
}

// Issue signs a new token for the user and records its session id
func (m *Manager) Issue(ctx context.Context, userID uuid.UUID, username string) (string, time.Time, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	if err := m.store.Set(ctx, keyPrefix+jti.String(), []byte(userID.String()), m.ttl); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store session: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify parses the token and checks that its session is still live
func (m *Manager) Verify(ctx context.Context, tokenString string) (*types.UserContext, error) {
	parsed := new(claims)
	token, err := jwt.ParseWithClaims(tokenString, parsed, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.FromString(parsed.Subject)
	if err != nil || parsed.ID == "" {
		return nil, ErrInvalidToken
	}

	stored, err := m.store.Get(ctx, keyPrefix+parsed.ID)
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if string(stored) != userID.String() {
		return nil, ErrSessionRevoked
	}

	return &types.UserContext{
		UserID:    userID,
		Username:  parsed.Username,
		SessionID: parsed.ID,
	}, nil
}

// Revoke removes the session from the allowlist
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := m.store.Delete(ctx, keyPrefix+sessionID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}
