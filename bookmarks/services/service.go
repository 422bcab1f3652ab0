// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package services

import (
	"context"
	"fmt"

	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/internal/types"
	"github.com/qolzam/metamorph/submissions/models"
)

// Service defines bookmark operations. A bookmark is a yes ballot; there is
// no separate bookmark table.
type Service interface {
	// ListBookmarks returns hydrated submissions the caller voted for
	ListBookmarks(ctx context.Context, caller *types.UserContext, filter models.Filter) (*ListResponse, error)
}

// ListResponse is the body of GET /bookmarks
type ListResponse = models.Page

// submissionProvider captures the subset of SubmissionService we need.
type submissionProvider interface {
	ListVotedBy(ctx context.Context, caller *types.UserContext, filter models.Filter) ([]*models.SubmissionView, error)
}

type service struct {
	submissions submissionProvider
}

// NewService constructs a bookmark service.
func NewService(submissions submissionProvider) Service {
	return &service{submissions: submissions}
}

func (s *service) ListBookmarks(ctx context.Context, caller *types.UserContext, filter models.Filter) (*ListResponse, error) {
	if s.submissions == nil {
		return nil, fmt.Errorf("bookmark service dependencies are not configured")
	}
	if caller == nil {
		return nil, apperr.Unauthenticated("log in or sign up to see bookmarks")
	}

	views, err := s.submissions.ListVotedBy(ctx, caller, filter.LookAhead())
	if err != nil {
		return nil, err
	}
	return models.NewPage(filter, views), nil
}
