// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/auth/models"
	"github.com/qolzam/metamorph/auth/repository"
	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/internal/pkg/log"
	"github.com/qolzam/metamorph/internal/types"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// InitialTokens is the balance of a new account
const InitialTokens int64 = 1

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// SessionIssuer creates and revokes login sessions
type SessionIssuer interface {
	Issue(ctx context.Context, userID uuid.UUID, username string) (string, time.Time, error)
	Revoke(ctx context.Context, sessionID string) error
}

// AuthService defines account and session operations. Every method takes the
// current caller explicitly; nil means anonymous.
type AuthService interface {
	Signup(ctx context.Context, caller *types.UserContext, req models.SignupRequest) (*models.SessionResponse, error)
	Login(ctx context.Context, caller *types.UserContext, req models.LoginRequest) (*models.SessionResponse, error)
	Logout(ctx context.Context, caller *types.UserContext) error
	Me(ctx context.Context, caller *types.UserContext) (*models.User, error)
}

type authService struct {
	users      repository.UserRepository
	sessions   SessionIssuer
	bcryptCost int
}

// NewAuthService creates a new instance of the auth service
func NewAuthService(users repository.UserRepository, sessions SessionIssuer) AuthService {
	return &authService{
		users:      users,
		sessions:   sessions,
		bcryptCost: bcrypt.DefaultCost,
	}
}

func (s *authService) Signup(ctx context.Context, caller *types.UserContext, req models.SignupRequest) (*models.SessionResponse, error) {
	if caller != nil {
		return nil, apperr.AlreadyAuthenticated("log out before signing up")
	}

	email := strings.TrimSpace(req.Email)
	if !isEmail(email) {
		return nil, apperr.Validation("email", "not an email address")
	}
	if !usernamePattern.MatchString(req.Username) {
		return nil, apperr.Validation("username", "must be alphanumeric")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, apperr.Validation("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	count, err := s.users.CountByEmailOrUsername(ctx, email, req.Username)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.Duplicate(apperr.ResourceUser, "email address or username is taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID: %w", err)
	}

	user := &models.User{
		ID:       id,
		Email:    email,
		Username: req.Username,
		Hash:     string(hash),
		Tokens:   InitialTokens,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperr.Duplicate(apperr.ResourceUser, "email address or username is taken")
		}
		return nil, err
	}

	log.InfoWithContext(ctx, "user %s signed up", user.ID)
	return s.startSession(ctx, user)
}

func (s *authService) Login(ctx context.Context, caller *types.UserContext, req models.LoginRequest) (*models.SessionResponse, error) {
	if caller != nil {
		return nil, apperr.AlreadyAuthenticated("already logged in")
	}

	login := strings.TrimSpace(req.Username)
	if !usernamePattern.MatchString(login) && !isEmail(login) {
		return nil, apperr.Validation("username", "must be alphanumeric or an email address")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, apperr.Validation("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	user, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.Unauthenticated("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Hash), []byte(req.Password)); err != nil {
		log.WarnWithContext(ctx, "failed login for user %s", user.ID)
		return nil, apperr.Unauthenticated("invalid credentials")
	}

	return s.startSession(ctx, user)
}

func (s *authService) Logout(ctx context.Context, caller *types.UserContext) error {
	if caller == nil {
		return apperr.Unauthenticated("not logged in")
	}
	return s.sessions.Revoke(ctx, caller.SessionID)
}

func (s *authService) Me(ctx context.Context, caller *types.UserContext) (*models.User, error) {
	if caller == nil {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) startSession(ctx context.Context, user *models.User) (*models.SessionResponse, error) {
	token, expiresAt, err := s.sessions.Issue(ctx, user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &models.SessionResponse{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, "@")
}
