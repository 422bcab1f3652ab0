package tokens

import (
	"context"
	"errors"
	"testing"

	uuid "github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) AdjustTokens(ctx context.Context, userID uuid.UUID, delta int64, floorAtZero bool) (int64, error) {
	args := m.Called(ctx, userID, delta, floorAtZero)
	return args.Get(0).(int64), args.Error(1)
}

func TestAccount_Adjust(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV4())

	t.Run("negative balances allowed", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("AdjustTokens", mock.Anything, userID, int64(-1), false).Return(int64(-1), nil)

		balance, err := NewAccount(repo, true).Adjust(ctx, userID, -1)
		require.NoError(t, err)
		assert.Equal(t, int64(-1), balance)
		repo.AssertExpectations(t)
	})

	t.Run("floor at zero", func(t *testing.T) {
		repo := new(mockRepository)
		repo.On("AdjustTokens", mock.Anything, userID, int64(-1), true).Return(int64(0), nil)

		balance, err := NewAccount(repo, false).Adjust(ctx, userID, -1)
		require.NoError(t, err)
		assert.Equal(t, int64(0), balance)
		repo.AssertExpectations(t)
	})

	t.Run("repository error is wrapped", func(t *testing.T) {
		repo := new(mockRepository)
		boom := errors.New("boom")
		repo.On("AdjustTokens", mock.Anything, userID, SubmissionCredit, false).Return(int64(0), boom)

		_, err := NewAccount(repo, true).Adjust(ctx, userID, SubmissionCredit)
		assert.ErrorIs(t, err, boom)
	})
}

func TestVoteDelta(t *testing.T) {
	assert.Equal(t, int64(1), VoteDelta(false))
	assert.Equal(t, int64(-1), VoteDelta(true))
}
