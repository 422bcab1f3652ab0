package repository

import (
	"context"
	"os"
	"testing"

	uuid "github.com/gofrs/uuid"
	authModels "github.com/qolzam/metamorph/auth/models"
	authRepository "github.com/qolzam/metamorph/auth/repository"
	ballotModels "github.com/qolzam/metamorph/ballots/models"
	ballotRepository "github.com/qolzam/metamorph/ballots/repository"
	categoryModels "github.com/qolzam/metamorph/categories/models"
	categoryRepository "github.com/qolzam/metamorph/categories/repository"
	contentModels "github.com/qolzam/metamorph/contents/models"
	contentRepository "github.com/qolzam/metamorph/contents/repository"
	"github.com/qolzam/metamorph/internal/database/postgres"
	"github.com/qolzam/metamorph/internal/platform/config"
	"github.com/qolzam/metamorph/submissions/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	client      *postgres.Client
	submissions SubmissionRepository
	ballots     ballotRepository.BallotRepository
	user        *authModels.User
	category    *categoryModels.Category
	content     *contentModels.Content
}

func setup(t *testing.T) *fixture {
	t.Helper()
	if os.Getenv("RUN_DB_TESTS") != "1" {
		t.Skip("set RUN_DB_TESTS=1 to run database tests")
	}

	ctx := context.Background()
	client, err := postgres.NewClient(ctx, config.PostgreSQLConfig{DSN: os.Getenv("DATABASE_DSN")})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(ctx))
	t.Cleanup(func() { client.Close() })

	suffix := uuid.Must(uuid.NewV4()).String()[:8]
	user := &authModels.User{
		ID:       uuid.Must(uuid.NewV4()),
		Email:    "s" + suffix + "@example.com",
		Username: "s" + suffix,
		Hash:     "hash",
		Tokens:   1,
	}
	require.NoError(t, authRepository.NewPostgresUserRepository(client).Create(ctx, user))

	category := &categoryModels.Category{ID: uuid.Must(uuid.NewV4()), Title: "cat-" + suffix}
	require.NoError(t, categoryRepository.NewPostgresCategoryRepository(client).Create(ctx, category))

	content, err := contentRepository.NewPostgresContentRepository(client).InsertIfAbsent(ctx, &contentModels.Content{
		ID:    uuid.Must(uuid.NewV4()),
		URL:   "https://example.com/" + suffix,
		Type:  contentModels.TypeWeb,
		Title: "page " + suffix,
	})
	require.NoError(t, err)

	return &fixture{
		client:      client,
		submissions: NewPostgresSubmissionRepository(client),
		ballots:     ballotRepository.NewPostgresBallotRepository(client),
		user:        user,
		category:    category,
		content:     content,
	}
}

func (f *fixture) newSubmission(t *testing.T) *models.Submission {
	t.Helper()
	sub := &models.Submission{
		ID:         uuid.Must(uuid.NewV4()),
		UserID:     f.user.ID,
		CategoryID: f.category.ID,
		ContentID:  f.content.ID,
		Stage:      "egg",
	}
	require.NoError(t, f.submissions.Create(context.Background(), sub))
	return sub
}

func TestPostgresSubmissionRepository_CreateAndStage(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sub := f.newSubmission(t)
	assert.False(t, sub.CreatedAt.IsZero())

	_, err := f.submissions.LockByID(ctx, sub.ID)
	assert.Error(t, err, "locking outside a transaction is refused")

	err = f.submissions.WithTransaction(ctx, func(txCtx context.Context) error {
		locked, err := f.submissions.LockByID(txCtx, sub.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, "egg", locked.Stage)
		_, err = f.submissions.UpdateStage(txCtx, sub.ID, "caterpillar")
		return err
	})
	require.NoError(t, err)

	stored, err := f.submissions.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "caterpillar", stored.Stage)

	_, err = f.submissions.FindByID(ctx, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestPostgresSubmissionRepository_UnknownCategory(t *testing.T) {
	f := setup(t)

	err := f.submissions.Create(context.Background(), &models.Submission{
		ID:         uuid.Must(uuid.NewV4()),
		UserID:     f.user.ID,
		CategoryID: uuid.Must(uuid.NewV4()),
		ContentID:  f.content.ID,
		Stage:      "egg",
	})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestPostgresSubmissionRepository_FindVotedBy(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	voted := f.newSubmission(t)
	f.newSubmission(t)

	require.NoError(t, f.ballots.Insert(ctx, &ballotModels.Ballot{
		UserID:       f.user.ID,
		SubmissionID: voted.ID,
		Vote:         ballotModels.VoteYes,
		Stage:        "egg",
	}))

	got, err := f.submissions.FindVotedBy(ctx, f.user.ID, models.Filter{CategoryID: f.category.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, voted.ID, got[0].ID)

	all, err := f.submissions.Find(ctx, models.Filter{CategoryID: f.category.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	count, err := f.ballots.CountYes(ctx, voted.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPostgresSubmissionRepository_RollbackOnError(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sub := f.newSubmission(t)

	err := f.submissions.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := f.ballots.Insert(txCtx, &ballotModels.Ballot{
			UserID: f.user.ID, SubmissionID: sub.ID, Vote: ballotModels.VoteYes, Stage: "egg",
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	count, err := f.ballots.CountYes(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
