package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	uuid "github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	ballotServices "github.com/qolzam/metamorph/ballots/services"
	contentServices "github.com/qolzam/metamorph/contents/services"
	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/internal/metrics"
	"github.com/qolzam/metamorph/internal/testutil"
	"github.com/qolzam/metamorph/internal/types"
	"github.com/qolzam/metamorph/submissions/models"
	submissionServices "github.com/qolzam/metamorph/submissions/services"
	"github.com/qolzam/metamorph/tokens"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func viewsOf(n int) []*models.SubmissionView {
	views := make([]*models.SubmissionView, n)
	for i := range views {
		views[i] = &models.SubmissionView{Submission: models.Submission{ID: uuid.Must(uuid.NewV4())}, MeHasVoted: true}
	}
	return views
}

func TestListBookmarks(t *testing.T) {
	ctx := context.Background()
	caller := &types.UserContext{UserID: uuid.Must(uuid.NewV4())}

	t.Run("requires a caller", func(t *testing.T) {
		provider := new(submissionServices.MockSubmissionService)

		_, err := NewService(provider).ListBookmarks(ctx, nil, models.Filter{})

		require.ErrorIs(t, err, apperr.ErrUnauthenticated)
		provider.AssertNotCalled(t, "ListVotedBy")
	})

	t.Run("probes one past the limit", func(t *testing.T) {
		provider := new(submissionServices.MockSubmissionService)
		provider.On("ListVotedBy", ctx, caller, models.Filter{Stage: "egg", Limit: 3, Offset: 4}).Return(viewsOf(3), nil).Once()

		resp, err := NewService(provider).ListBookmarks(ctx, caller, models.Filter{Stage: "egg", Limit: 2, Offset: 4})

		require.NoError(t, err)
		require.Len(t, resp.Submissions, 2)
		require.True(t, resp.HasNext)
		require.Equal(t, 2, resp.Limit)
		require.Equal(t, 4, resp.Offset)
		provider.AssertExpectations(t)
	})

	t.Run("last page", func(t *testing.T) {
		provider := new(submissionServices.MockSubmissionService)
		provider.On("ListVotedBy", ctx, caller, models.Filter{Limit: models.DefaultLimit + 1}).Return(viewsOf(1), nil).Once()

		resp, err := NewService(provider).ListBookmarks(ctx, caller, models.Filter{})

		require.NoError(t, err)
		require.Len(t, resp.Submissions, 1)
		require.False(t, resp.HasNext)
	})

	t.Run("propagates errors", func(t *testing.T) {
		provider := new(submissionServices.MockSubmissionService)
		provider.On("ListVotedBy", ctx, caller, mock.Anything).Return(nil, errors.New("db down")).Once()

		_, err := NewService(provider).ListBookmarks(ctx, caller, models.Filter{})
		require.Error(t, err)
	})
}

func TestListBookmarks_FullPageReportsNext(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	m := metrics.New(prometheus.NewRegistry())
	submissions := submissionServices.NewSubmissionService(submissionServices.Dependencies{
		Submissions: store.Submissions(),
		Users:       store.Users(),
		Categories:  store.Categories(),
		Contents:    store.Contents(),
		Resolver:    contentServices.NewResolver(store.Contents(), testutil.NewFakeFetcher(), nil, m, contentServices.Config{}),
		Ledger:      ballotServices.NewLedger(store.Ballots()),
		Ballots:     store.Ballots(),
		Tokens:      tokens.NewAccount(store.Users(), true),
		Metrics:     m,
	})

	category := store.SeedCategory("Science")
	author := store.SeedUser("alice", "", 1)
	reader := store.SeedUser("bob", "", 1)
	authorCtx := &types.UserContext{UserID: author.ID, Username: author.Username}
	readerCtx := &types.UserContext{UserID: reader.ID, Username: reader.Username}

	for i := 0; i < models.MaxLimit+5; i++ {
		view, err := submissions.Submit(ctx, authorCtx, category.ID, "", fmt.Sprintf("https://example.com/%d", i))
		require.NoError(t, err)
		_, err = submissions.ApplyVote(ctx, readerCtx, view.ID)
		require.NoError(t, err)
	}

	svc := NewService(submissions)

	first, err := svc.ListBookmarks(ctx, readerCtx, models.Filter{Limit: models.MaxLimit})
	require.NoError(t, err)
	require.Len(t, first.Submissions, models.MaxLimit)
	require.True(t, first.HasNext)

	last, err := svc.ListBookmarks(ctx, readerCtx, models.Filter{Limit: models.MaxLimit, Offset: models.MaxLimit})
	require.NoError(t, err)
	require.Len(t, last.Submissions, 5)
	require.False(t, last.HasNext)
}
