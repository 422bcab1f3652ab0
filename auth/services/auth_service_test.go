package services

import (
	"context"
	"testing"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/auth/models"
	"github.com/qolzam/metamorph/auth/repository"
	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(users *MockUserRepository, sessions *MockSessionIssuer) *authService {
	return &authService{users: users, sessions: sessions, bcryptCost: bcrypt.MinCost}
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)

	t.Run("creates user with initial tokens", func(t *testing.T) {
		users := new(MockUserRepository)
		sessions := new(MockSessionIssuer)
		svc := newTestService(users, sessions)

		users.On("CountByEmailOrUsername", mock.Anything, "a@example.com", "alice").Return(int64(0), nil)
		users.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Username == "alice" && u.Tokens == InitialTokens &&
				bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte("secret1")) == nil
		})).Return(nil)
		sessions.On("Issue", mock.Anything, mock.AnythingOfType("uuid.UUID"), "alice").Return("tok", expires, nil)

		resp, err := svc.Signup(ctx, nil, models.SignupRequest{Email: " a@example.com ", Username: "alice", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, "tok", resp.Token)
		assert.Equal(t, "a@example.com", resp.User.Email)
		users.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	cases := []struct {
		name string
		req  models.SignupRequest
	}{
		{"bad email", models.SignupRequest{Email: "nope", Username: "alice", Password: "secret1"}},
		{"non alphanumeric username", models.SignupRequest{Email: "a@example.com", Username: "al ice", Password: "secret1"}},
		{"short password", models.SignupRequest{Email: "a@example.com", Username: "alice", Password: "12345"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(new(MockUserRepository), new(MockSessionIssuer))
			_, err := svc.Signup(ctx, nil, tc.req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	t.Run("already authenticated", func(t *testing.T) {
		svc := newTestService(new(MockUserRepository), new(MockSessionIssuer))
		_, err := svc.Signup(ctx, &types.UserContext{UserID: uuid.Must(uuid.NewV4())}, models.SignupRequest{})
		assert.ErrorIs(t, err, apperr.ErrAlreadyAuthenticated)
	})

	t.Run("duplicate by count", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("CountByEmailOrUsername", mock.Anything, "a@example.com", "alice").Return(int64(1), nil)
		svc := newTestService(users, new(MockSessionIssuer))

		_, err := svc.Signup(ctx, nil, models.SignupRequest{Email: "a@example.com", Username: "alice", Password: "secret1"})
		assert.ErrorIs(t, err, apperr.ErrDuplicateResource)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate on insert race", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("CountByEmailOrUsername", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
		users.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateUser)
		svc := newTestService(users, new(MockSessionIssuer))

		_, err := svc.Signup(ctx, nil, models.SignupRequest{Email: "a@example.com", Username: "alice", Password: "secret1"})
		assert.ErrorIs(t, err, apperr.ErrDuplicateResource)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{ID: uuid.Must(uuid.NewV4()), Username: "alice", Email: "a@example.com", Hash: string(hash)}

	t.Run("by username", func(t *testing.T) {
		users := new(MockUserRepository)
		sessions := new(MockSessionIssuer)
		users.On("FindByLogin", mock.Anything, "alice").Return(user, nil)
		sessions.On("Issue", mock.Anything, user.ID, "alice").Return("tok", time.Now(), nil)

		resp, err := newTestService(users, sessions).Login(ctx, nil, models.LoginRequest{Username: "alice", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, resp.User.ID)
	})

	t.Run("by email", func(t *testing.T) {
		users := new(MockUserRepository)
		sessions := new(MockSessionIssuer)
		users.On("FindByLogin", mock.Anything, "a@example.com").Return(user, nil)
		sessions.On("Issue", mock.Anything, user.ID, "alice").Return("tok", time.Now(), nil)

		_, err := newTestService(users, sessions).Login(ctx, nil, models.LoginRequest{Username: "a@example.com", Password: "secret1"})
		require.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByLogin", mock.Anything, "alice").Return(user, nil)

		_, err := newTestService(users, new(MockSessionIssuer)).Login(ctx, nil, models.LoginRequest{Username: "alice", Password: "wrong!!"})
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("unknown user", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByLogin", mock.Anything, "bob").Return(nil, repository.ErrUserNotFound)

		_, err := newTestService(users, new(MockSessionIssuer)).Login(ctx, nil, models.LoginRequest{Username: "bob", Password: "secret1"})
		assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	})

	t.Run("already authenticated", func(t *testing.T) {
		_, err := newTestService(new(MockUserRepository), new(MockSessionIssuer)).
			Login(ctx, &types.UserContext{}, models.LoginRequest{Username: "alice", Password: "secret1"})
		assert.ErrorIs(t, err, apperr.ErrAlreadyAuthenticated)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	sessions := new(MockSessionIssuer)
	sessions.On("Revoke", mock.Anything, "sid").Return(nil)
	svc := newTestService(new(MockUserRepository), sessions)

	require.NoError(t, svc.Logout(ctx, &types.UserContext{SessionID: "sid"}))
	sessions.AssertExpectations(t)

	assert.ErrorIs(t, svc.Logout(ctx, nil), apperr.ErrUnauthenticated)
}

func TestAuthService_Me(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: uuid.Must(uuid.NewV4()), Username: "alice"}

	users := new(MockUserRepository)
	users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	svc := newTestService(users, new(MockSessionIssuer))

	me, err := svc.Me(ctx, &types.UserContext{UserID: user.ID})
	require.NoError(t, err)
	assert.Equal(t, user, me)

	me, err = svc.Me(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, me)
}
