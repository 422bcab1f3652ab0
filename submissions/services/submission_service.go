// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"errors"
	"fmt"

	uuid "github.com/gofrs/uuid"
	authModels "github.com/qolzam/metamorph/auth/models"
	authRepository "github.com/qolzam/metamorph/auth/repository"
	ballotServices "github.com/qolzam/metamorph/ballots/services"
	categoryModels "github.com/qolzam/metamorph/categories/models"
	categoryRepository "github.com/qolzam/metamorph/categories/repository"
	contentModels "github.com/qolzam/metamorph/contents/models"
	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/internal/metrics"
	"github.com/qolzam/metamorph/internal/pkg/log"
	"github.com/qolzam/metamorph/internal/types"
	"github.com/qolzam/metamorph/stages"
	"github.com/qolzam/metamorph/submissions/models"
	"github.com/qolzam/metamorph/submissions/repository"
	"github.com/qolzam/metamorph/tokens"
)

// SubmissionService defines submission and voting operations. Every method
// takes the caller explicitly; nil means anonymous.
type SubmissionService interface {
	// Submit posts url into a category and credits the submitter
	Submit(ctx context.Context, caller *types.UserContext, categoryID uuid.UUID, comment, url string) (*models.SubmissionView, error)

	// ApplyVote toggles the caller's ballot and re-derives the stage in one
	// transaction. Repeating the call undoes it.
	ApplyVote(ctx context.Context, caller *types.UserContext, submissionID uuid.UUID) (*models.SubmissionView, error)

	Get(ctx context.Context, caller *types.UserContext, submissionID uuid.UUID) (*models.SubmissionView, error)

	// List returns one page of submissions, newest first
	List(ctx context.Context, caller *types.UserContext, filter models.Filter) (*models.Page, error)

	// ListVotedBy lists submissions the caller has a yes ballot on
	ListVotedBy(ctx context.Context, caller *types.UserContext, filter models.Filter) ([]*models.SubmissionView, error)
}

// ContentResolver resolves a URL to its canonical content
type ContentResolver interface {
	Resolve(ctx context.Context, url string) (*contentModels.Content, error)
}

// ContentLoader bulk loads contents for views
type ContentLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*contentModels.Content, error)
}

// UserStore loads users
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*authModels.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*authModels.User, error)
}

// CategoryFinder loads categories
type CategoryFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*categoryModels.Category, error)
	List(ctx context.Context) ([]*categoryModels.Category, error)
}

// BallotReader answers vote counts and per-user vote status
type BallotReader interface {
	CountYesForSubmissions(ctx context.Context, submissionIDs []uuid.UUID) (map[uuid.UUID]int, error)
	VotedMap(ctx context.Context, userID uuid.UUID, submissionIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

// TokenAdjuster applies ledger deltas
type TokenAdjuster interface {
	Adjust(ctx context.Context, userID uuid.UUID, delta int64) (int64, error)
}

// Dependencies groups the collaborators of the service
type Dependencies struct {
	Submissions repository.SubmissionRepository
	Users       UserStore
	Categories  CategoryFinder
	Contents    ContentLoader
	Resolver    ContentResolver
	Ledger      ballotServices.Ledger
	Ballots     BallotReader
	Tokens      TokenAdjuster
	Metrics     *metrics.Metrics
}

type submissionService struct {
	Dependencies
}

// NewSubmissionService creates a new instance of the submission service
func NewSubmissionService(deps Dependencies) SubmissionService {
	return &submissionService{Dependencies: deps}
}

func (s *submissionService) Submit(ctx context.Context, caller *types.UserContext, categoryID uuid.UUID, comment, url string) (*models.SubmissionView, error) {
	if caller == nil {
		return nil, apperr.Unauthenticated("log in or sign up to submit")
	}

	category, err := s.Categories.FindByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, categoryRepository.ErrCategoryNotFound) {
			return nil, apperr.NotFound(apperr.ResourceCategory, categoryID.String())
		}
		return nil, err
	}

	// Outside the transaction: a slow fetch must not hold row locks. A content
	// row created here is kept even if the submission below fails.
	content, err := s.Resolver.Resolve(ctx, url)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate submission ID: %w", err)
	}

	var (
		submission *models.Submission
		submitter  *authModels.User
	)
	err = s.Submissions.WithTransaction(ctx, func(txCtx context.Context) error {
		user, err := s.loadCaller(txCtx, caller)
		if err != nil {
			return err
		}
		submitter = user

		submission = &models.Submission{
			ID:         id,
			UserID:     submitter.ID,
			CategoryID: category.ID,
			ContentID:  content.ID,
			Comment:    comment,
			Stage:      submitter.CurrentStage().String(),
		}
		if err := s.Submissions.Create(txCtx, submission); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return apperr.NotFound(apperr.ResourceCategory, categoryID.String())
			}
			return err
		}

		balance, err := s.Tokens.Adjust(txCtx, submitter.ID, tokens.SubmissionCredit)
		if err != nil {
			return err
		}
		submitter.Tokens = balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.SubmissionCreated()
	log.InfoWithContext(ctx, "submission %s created by %s in category %s", submission.ID, submitter.ID, category.ID)

	public := submitter.Public()
	return &models.SubmissionView{
		Submission: *submission,
		User:       &public,
		Category:   category,
		Content:    content,
	}, nil
}

func (s *submissionService) ApplyVote(ctx context.Context, caller *types.UserContext, submissionID uuid.UUID) (*models.SubmissionView, error) {
	if caller == nil {
		return nil, apperr.Unauthenticated("log in or sign up to vote")
	}

	var (
		before  string
		updated *models.Submission
		result  ballotServices.ToggleResult
	)
	err := s.Submissions.WithTransaction(ctx, func(txCtx context.Context) error {
		submission, err := s.Submissions.LockByID(txCtx, submissionID)
		if err != nil {
			if errors.Is(err, repository.ErrSubmissionNotFound) {
				return apperr.NotFound(apperr.ResourceSubmission, submissionID.String())
			}
			return err
		}
		before = submission.Stage

		voter, err := s.loadCaller(txCtx, caller)
		if err != nil {
			return err
		}

		result, err = s.Ledger.Toggle(txCtx, ballotServices.Voter{ID: voter.ID, Stage: voter.CurrentStage()}, submissionID)
		if err != nil {
			return err
		}

		if _, err := s.Tokens.Adjust(txCtx, voter.ID, tokens.VoteDelta(result.ExistedBefore)); err != nil {
			return err
		}

		stage, err := stages.Classify(result.Votes)
		if err != nil {
			return err
		}

		updated, err = s.Submissions.UpdateStage(txCtx, submissionID, stage.String())
		return err
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindConfiguration {
			log.ErrorWithContext(ctx, "stage table failed for submission %s: %v", submissionID, err)
		}
		return nil, err
	}

	s.Metrics.Ballot(result.ExistedBefore)
	s.Metrics.StageTransition(before, updated.Stage)
	if before != updated.Stage {
		log.InfoWithContext(ctx, "submission %s moved from %s to %s at %d votes", submissionID, before, updated.Stage, result.Votes)
	}

	views, err := s.hydrate(ctx, caller, []*models.Submission{updated})
	if err != nil {
		return nil, err
	}
	view := views[0]
	view.Votes = result.Votes
	view.MeHasVoted = !result.ExistedBefore
	return view, nil
}

func (s *submissionService) Get(ctx context.Context, caller *types.UserContext, submissionID uuid.UUID) (*models.SubmissionView, error) {
	submission, err := s.Submissions.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return nil, apperr.NotFound(apperr.ResourceSubmission, submissionID.String())
		}
		return nil, err
	}

	views, err := s.hydrate(ctx, caller, []*models.Submission{submission})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *submissionService) List(ctx context.Context, caller *types.UserContext, filter models.Filter) (*models.Page, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	submissions, err := s.Submissions.Find(ctx, filter.LookAhead())
	if err != nil {
		return nil, err
	}
	views, err := s.hydrate(ctx, caller, submissions)
	if err != nil {
		return nil, err
	}
	return models.NewPage(filter, views), nil
}

func (s *submissionService) ListVotedBy(ctx context.Context, caller *types.UserContext, filter models.Filter) ([]*models.SubmissionView, error) {
	if caller == nil {
		return nil, apperr.Unauthenticated("log in or sign up to see bookmarks")
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	submissions, err := s.Submissions.FindVotedBy(ctx, caller.UserID, filter)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, caller, submissions)
}

// loadCaller reads the caller's row; a session for a deleted user counts as
// no session.
func (s *submissionService) loadCaller(ctx context.Context, caller *types.UserContext) (*authModels.User, error) {
	user, err := s.Users.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, authRepository.ErrUserNotFound) {
			return nil, apperr.Unauthenticated("session user no longer exists")
		}
		return nil, err
	}
	return user, nil
}

// hydrate attaches votes, the caller's vote status, submitter, category and
// content using one bulk query per relation.
func (s *submissionService) hydrate(ctx context.Context, caller *types.UserContext, submissions []*models.Submission) ([]*models.SubmissionView, error) {
	views := make([]*models.SubmissionView, len(submissions))
	if len(submissions) == 0 {
		return views, nil
	}

	ids := make([]uuid.UUID, len(submissions))
	userIDs := make([]uuid.UUID, 0, len(submissions))
	contentIDs := make([]uuid.UUID, 0, len(submissions))
	for i, sub := range submissions {
		ids[i] = sub.ID
		userIDs = append(userIDs, sub.UserID)
		contentIDs = append(contentIDs, sub.ContentID)
	}

	votes, err := s.Ballots.CountYesForSubmissions(ctx, ids)
	if err != nil {
		return nil, err
	}

	voted := map[uuid.UUID]bool{}
	if caller != nil {
		if voted, err = s.Ballots.VotedMap(ctx, caller.UserID, ids); err != nil {
			return nil, err
		}
	}

	users, err := s.Users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	contents, err := s.Contents.FindByIDs(ctx, contentIDs)
	if err != nil {
		return nil, err
	}
	categories, err := s.Categories.List(ctx)
	if err != nil {
		return nil, err
	}
	categoryByID := make(map[uuid.UUID]*categoryModels.Category, len(categories))
	for _, c := range categories {
		categoryByID[c.ID] = c
	}

	for i, sub := range submissions {
		view := &models.SubmissionView{
			Submission: *sub,
			Votes:      votes[sub.ID],
			MeHasVoted: voted[sub.ID],
			Category:   categoryByID[sub.CategoryID],
			Content:    contents[sub.ContentID],
		}
		if u, ok := users[sub.UserID]; ok {
			public := u.Public()
			view.User = &public
		}
		views[i] = view
	}
	return views, nil
}

func validateFilter(filter models.Filter) error {
	if filter.Stage == "" {
		return nil
	}
	_, err := stages.Parse(filter.Stage)
	return err
}
