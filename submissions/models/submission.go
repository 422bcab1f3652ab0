// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package models

import (
	"time"

	uuid "github.com/gofrs/uuid"
	authModels "github.com/qolzam/metamorph/auth/models"
	categoryModels "github.com/qolzam/metamorph/categories/models"
	contentModels "github.com/qolzam/metamorph/contents/models"
	"github.com/qolzam/metamorph/internal/apperr"
)

// Submission is a user's URL posted into a category. Stage is the only
// mutable column and always equals the classification of its yes votes.
type Submission struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"userId" db:"user_id"`
	CategoryID uuid.UUID `json:"categoryId" db:"category_id"`
	ContentID  uuid.UUID `json:"contentId" db:"content_id"`
	Comment    string    `json:"comment" db:"comment"`
	Stage      string    `json:"stage" db:"stage"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// SubmissionView is a submission as returned to clients
type SubmissionView struct {
	Submission
	Votes      int                      `json:"votes"`
	MeHasVoted bool                     `json:"meHasVoted"`
	User       *authModels.PublicUser   `json:"user,omitempty"`
	Category   *categoryModels.Category `json:"category,omitempty"`
	Content    *contentModels.Content   `json:"content,omitempty"`
}

// Filter narrows a submission listing. Zero values match everything.
type Filter struct {
	Stage      string
	CategoryID uuid.UUID
	UserID     uuid.UUID
	Limit      int
	Offset     int
}

// Listing bounds
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Normalize applies listing bounds
func (f Filter) Normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// LookAhead normalizes the filter and asks for one row past the page, so the
// result shows whether another page exists.
func (f Filter) LookAhead() Filter {
	f = f.Normalize()
	f.Limit++
	return f
}

// Window is what repositories apply: the bounds of Normalize, with room for
// the extra row of LookAhead.
func (f Filter) Window() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit+1 {
		f.Limit = MaxLimit + 1
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Page is one window of a submission listing
type Page struct {
	Submissions []*SubmissionView `json:"submissions"`
	Limit       int               `json:"limit"`
	Offset      int               `json:"offset"`
	HasNext     bool              `json:"hasNext"`
}

// NewPage trims rows fetched with filter.LookAhead() down to the page
func NewPage(filter Filter, views []*SubmissionView) *Page {
	filter = filter.Normalize()
	hasNext := len(views) > filter.Limit
	if hasNext {
		views = views[:filter.Limit]
	}
	return &Page{
		Submissions: views,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
		HasNext:     hasNext,
	}
}

// SubmitRequest is the body of POST /submissions
type SubmitRequest struct {
	CategoryID string `json:"categoryId"`
	Comment    string `json:"comment"`
	URL        string `json:"url"`
}

// ListQuery is decoded from the query string of listing endpoints
type ListQuery struct {
	Stage      string `schema:"stage"`
	CategoryID string `schema:"category_id"`
	UserID     string `schema:"user_id"`
	Limit      int    `schema:"limit"`
	Offset     int    `schema:"offset"`
}

// Filter converts the decoded query into a listing filter
func (q ListQuery) Filter() (Filter, error) {
	filter := Filter{Stage: q.Stage, Limit: q.Limit, Offset: q.Offset}
	if q.CategoryID != "" {
		id, err := uuid.FromString(q.CategoryID)
		if err != nil {
			return Filter{}, apperr.Validation("category_id", "must be a UUID")
		}
		filter.CategoryID = id
	}
	if q.UserID != "" {
		id, err := uuid.FromString(q.UserID)
		if err != nil {
			return Filter{}, apperr.Validation("user_id", "must be a UUID")
		}
		filter.UserID = id
	}
	return filter, nil
}
