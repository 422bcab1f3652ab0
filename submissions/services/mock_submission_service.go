package services

import (
	"context"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/internal/types"
	"github.com/qolzam/metamorph/submissions/models"
	"github.com/stretchr/testify/mock"
)

// MockSubmissionService is a testify mock of SubmissionService
type MockSubmissionService struct {
	mock.Mock
}

func (m *MockSubmissionService) Submit(ctx context.Context, caller *types.UserContext, categoryID uuid.UUID, comment, url string) (*models.SubmissionView, error) {
	args := m.Called(ctx, caller, categoryID, comment, url)
	return view(args)
}

func (m *MockSubmissionService) ApplyVote(ctx context.Context, caller *types.UserContext, submissionID uuid.UUID) (*models.SubmissionView, error) {
	args := m.Called(ctx, caller, submissionID)
	return view(args)
}

func (m *MockSubmissionService) Get(ctx context.Context, caller *types.UserContext, submissionID uuid.UUID) (*models.SubmissionView, error) {
	args := m.Called(ctx, caller, submissionID)
	return view(args)
}

func (m *MockSubmissionService) List(ctx context.Context, caller *types.UserContext, filter models.Filter) (*models.Page, error) {
	args := m.Called(ctx, caller, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page), args.Error(1)
}

func (m *MockSubmissionService) ListVotedBy(ctx context.Context, caller *types.UserContext, filter models.Filter) ([]*models.SubmissionView, error) {
	args := m.Called(ctx, caller, filter)
	return views(args)
}

func view(args mock.Arguments) (*models.SubmissionView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubmissionView), args.Error(1)
}

func views(args mock.Arguments) ([]*models.SubmissionView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubmissionView), args.Error(1)
}
