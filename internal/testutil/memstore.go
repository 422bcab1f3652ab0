// Package testutil provides an in-memory implementation of every repository,
// sharing one state so that service tests can exercise transactions,
// rollbacks and concurrent callers without Postgres.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	uuid "github.com/gofrs/uuid"
	authModels "github.com/qolzam/metamorph/auth/models"
	authRepository "github.com/qolzam/metamorph/auth/repository"
	ballotModels "github.com/qolzam/metamorph/ballots/models"
	ballotRepository "github.com/qolzam/metamorph/ballots/repository"
	categoryModels "github.com/qolzam/metamorph/categories/models"
	categoryRepository "github.com/qolzam/metamorph/categories/repository"
	contentModels "github.com/qolzam/metamorph/contents/models"
	contentRepository "github.com/qolzam/metamorph/contents/repository"
	submissionModels "github.com/qolzam/metamorph/submissions/models"
	submissionRepository "github.com/qolzam/metamorph/submissions/repository"
)

type ballotKey struct {
	user       uuid.UUID
	submission uuid.UUID
}

type state struct {
	users       map[uuid.UUID]authModels.User
	categories  map[uuid.UUID]categoryModels.Category
	contents    map[uuid.UUID]contentModels.Content
	submissions map[uuid.UUID]submissionModels.Submission
	ballots     map[ballotKey]ballotModels.Ballot
	seq         int64
}

func newState() *state {
	return &state{
		users:       make(map[uuid.UUID]authModels.User),
		categories:  make(map[uuid.UUID]categoryModels.Category),
		contents:    make(map[uuid.UUID]contentModels.Content),
		submissions: make(map[uuid.UUID]submissionModels.Submission),
		ballots:     make(map[ballotKey]ballotModels.Ballot),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.contents {
		c.contents[k] = v
	}
	for k, v := range s.submissions {
		c.submissions[k] = v
	}
	for k, v := range s.ballots {
		c.ballots[k] = v
	}
	c.seq = s.seq
	return c
}

// Store is the shared in-memory database. A transaction holds the store lock
// until it ends, so transactions are fully serialised.
type Store struct {
	mu    sync.Mutex
	state *state
	base  time.Time
}

type txKey struct{}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{state: newState(), base: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) run(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) {
		return fn(s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// WithTransaction runs fn atomically; any error restores the prior state
func (s *Store) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// tick returns strictly increasing timestamps so ordering is deterministic
func (st *state) tick(base time.Time) time.Time {
	st.seq++
	return base.Add(time.Duration(st.seq) * time.Millisecond)
}

// Counts reports the number of rows per table
type Counts struct {
	Users, Categories, Contents, Submissions, Ballots int
}

func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Counts{
		Users:       len(s.state.users),
		Categories:  len(s.state.categories),
		Contents:    len(s.state.contents),
		Submissions: len(s.state.submissions),
		Ballots:     len(s.state.ballots),
	}
}

// Tokens returns a user's balance
func (s *Store) Tokens(userID uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.users[userID].Tokens
}

// SeedUser stores a user with the given stage (empty for none) and balance
func (s *Store) SeedUser(username string, stage string, tokens int64) *authModels.User {
	user := authModels.User{
		ID:       uuid.Must(uuid.NewV4()),
		Email:    username + "@example.com",
		Username: username,
		Hash:     "x",
		Tokens:   tokens,
	}
	if stage != "" {
		user.Stage = &stage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user.CreatedAt = s.state.tick(s.base)
	s.state.users[user.ID] = user
	return &user
}

// SeedCategory stores a category
func (s *Store) SeedCategory(title string) *categoryModels.Category {
	category := categoryModels.Category{ID: uuid.Must(uuid.NewV4()), Title: title}

	s.mu.Lock()
	defer s.mu.Unlock()
	category.CreatedAt = s.state.tick(s.base)
	s.state.categories[category.ID] = category
	return &category
}

// Users returns the user repository view
func (s *Store) Users() authRepository.UserRepository { return &userRepo{s} }

// Categories returns the category repository view
func (s *Store) Categories() categoryRepository.CategoryRepository { return &categoryRepo{s} }

// Contents returns the content repository view
func (s *Store) Contents() contentRepository.ContentRepository { return &contentRepo{s} }

// Submissions returns the submission repository view
func (s *Store) Submissions() submissionRepository.SubmissionRepository { return &submissionRepo{s} }

// Ballots returns the ballot repository view
func (s *Store) Ballots() ballotRepository.BallotRepository { return &ballotRepo{s} }

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *authModels.User) error {
	return r.s.run(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.Email == user.Email || u.Username == user.Username {
				return authRepository.ErrDuplicateUser
			}
		}
		user.CreatedAt = st.tick(r.s.base)
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*authModels.User, error) {
	var out *authModels.User
	err := r.s.run(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return authRepository.ErrUserNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *userRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*authModels.User, error) {
	out := make(map[uuid.UUID]*authModels.User, len(ids))
	err := r.s.run(ctx, func(st *state) error {
		for _, id := range ids {
			if u, ok := st.users[id]; ok {
				out[id] = &u
			}
		}
		return nil
	})
	return out, err
}

func (r *userRepo) FindByLogin(ctx context.Context, login string) (*authModels.User, error) {
	var out *authModels.User
	err := r.s.run(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.Username == login || u.Email == login {
				out = &u
				return nil
			}
		}
		return authRepository.ErrUserNotFound
	})
	return out, err
}

func (r *userRepo) CountByEmailOrUsername(ctx context.Context, email, username string) (int64, error) {
	var n int64
	err := r.s.run(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.Email == email || u.Username == username {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *userRepo) AdjustTokens(ctx context.Context, id uuid.UUID, delta int64, floorAtZero bool) (int64, error) {
	var balance int64
	err := r.s.run(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return authRepository.ErrUserNotFound
		}
		u.Tokens += delta
		if floorAtZero && u.Tokens < 0 {
			u.Tokens = 0
		}
		st.users[id] = u
		balance = u.Tokens
		return nil
	})
	return balance, err
}

type categoryRepo struct{ s *Store }

func (r *categoryRepo) Create(ctx context.Context, category *categoryModels.Category) error {
	return r.s.run(ctx, func(st *state) error {
		for _, c := range st.categories {
			if c.Title == category.Title {
				return categoryRepository.ErrDuplicateCategory
			}
		}
		category.CreatedAt = st.tick(r.s.base)
		st.categories[category.ID] = *category
		return nil
	})
}

func (r *categoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*categoryModels.Category, error) {
	var out *categoryModels.Category
	err := r.s.run(ctx, func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return categoryRepository.ErrCategoryNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *categoryRepo) CountByTitle(ctx context.Context, title string) (int64, error) {
	var n int64
	err := r.s.run(ctx, func(st *state) error {
		for _, c := range st.categories {
			if c.Title == title {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *categoryRepo) List(ctx context.Context) ([]*categoryModels.Category, error) {
	out := []*categoryModels.Category{}
	err := r.s.run(ctx, func(st *state) error {
		for _, c := range st.categories {
			out = append(out, &c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, err
}

type contentRepo struct{ s *Store }

func (r *contentRepo) FindByURL(ctx context.Context, url string) (*contentModels.Content, error) {
	var out *contentModels.Content
	err := r.s.run(ctx, func(st *state) error {
		for _, c := range st.contents {
			if c.URL == url {
				out = &c
				return nil
			}
		}
		return contentRepository.ErrContentNotFound
	})
	return out, err
}

func (r *contentRepo) FindByID(ctx context.Context, id uuid.UUID) (*contentModels.Content, error) {
	var out *contentModels.Content
	err := r.s.run(ctx, func(st *state) error {
		c, ok := st.contents[id]
		if !ok {
			return contentRepository.ErrContentNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *contentRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*contentModels.Content, error) {
	out := make(map[uuid.UUID]*contentModels.Content, len(ids))
	err := r.s.run(ctx, func(st *state) error {
		for _, id := range ids {
			if c, ok := st.contents[id]; ok {
				out[id] = &c
			}
		}
		return nil
	})
	return out, err
}

func (r *contentRepo) InsertIfAbsent(ctx context.Context, content *contentModels.Content) (*contentModels.Content, error) {
	var out *contentModels.Content
	err := r.s.run(ctx, func(st *state) error {
		for _, c := range st.contents {
			if c.URL == content.URL {
				out = &c
				return nil
			}
		}
		stored := *content
		stored.CreatedAt = st.tick(r.s.base)
		st.contents[stored.ID] = stored
		out = &stored
		return nil
	})
	return out, err
}

type submissionRepo struct{ s *Store }

func (r *submissionRepo) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return r.s.WithTransaction(ctx, fn)
}

func (r *submissionRepo) Create(ctx context.Context, submission *submissionModels.Submission) error {
	return r.s.run(ctx, func(st *state) error {
		if _, ok := st.categories[submission.CategoryID]; !ok {
			return submissionRepository.ErrCategoryNotFound
		}
		if _, ok := st.contents[submission.ContentID]; !ok {
			return submissionRepository.ErrContentNotFound
		}
		submission.CreatedAt = st.tick(r.s.base)
		st.submissions[submission.ID] = *submission
		return nil
	})
}

func (r *submissionRepo) FindByID(ctx context.Context, id uuid.UUID) (*submissionModels.Submission, error) {
	var out *submissionModels.Submission
	err := r.s.run(ctx, func(st *state) error {
		sub, ok := st.submissions[id]
		if !ok {
			return submissionRepository.ErrSubmissionNotFound
		}
		out = &sub
		return nil
	})
	return out, err
}

// LockByID is FindByID; the store lock already serialises transactions
func (r *submissionRepo) LockByID(ctx context.Context, id uuid.UUID) (*submissionModels.Submission, error) {
	return r.FindByID(ctx, id)
}

func (r *submissionRepo) UpdateStage(ctx context.Context, id uuid.UUID, stage string) (*submissionModels.Submission, error) {
	var out *submissionModels.Submission
	err := r.s.run(ctx, func(st *state) error {
		sub, ok := st.submissions[id]
		if !ok {
			return submissionRepository.ErrSubmissionNotFound
		}
		sub.Stage = stage
		st.submissions[id] = sub
		out = &sub
		return nil
	})
	return out, err
}

func (r *submissionRepo) Find(ctx context.Context, filter submissionModels.Filter) ([]*submissionModels.Submission, error) {
	return r.list(ctx, filter, nil)
}

func (r *submissionRepo) FindVotedBy(ctx context.Context, userID uuid.UUID, filter submissionModels.Filter) ([]*submissionModels.Submission, error) {
	return r.list(ctx, filter, func(st *state, sub submissionModels.Submission) bool {
		b, ok := st.ballots[ballotKey{user: userID, submission: sub.ID}]
		return ok && b.Vote == ballotModels.VoteYes
	})
}

func (r *submissionRepo) list(ctx context.Context, filter submissionModels.Filter, extra func(*state, submissionModels.Submission) bool) ([]*submissionModels.Submission, error) {
	filter = filter.Window()
	out := []*submissionModels.Submission{}
	err := r.s.run(ctx, func(st *state) error {
		for _, sub := range st.submissions {
			if filter.Stage != "" && sub.Stage != filter.Stage {
				continue
			}
			if filter.CategoryID != uuid.Nil && sub.CategoryID != filter.CategoryID {
				continue
			}
			if filter.UserID != uuid.Nil && sub.UserID != filter.UserID {
				continue
			}
			if extra != nil && !extra(st, sub) {
				continue
			}
			out = append(out, &sub)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset >= len(out) {
		return []*submissionModels.Submission{}, nil
	}
	out = out[filter.Offset:]
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type ballotRepo struct{ s *Store }

func (r *ballotRepo) Find(ctx context.Context, userID, submissionID uuid.UUID) (*ballotModels.Ballot, error) {
	var out *ballotModels.Ballot
	err := r.s.run(ctx, func(st *state) error {
		b, ok := st.ballots[ballotKey{user: userID, submission: submissionID}]
		if !ok {
			return ballotRepository.ErrBallotNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *ballotRepo) Insert(ctx context.Context, ballot *ballotModels.Ballot) error {
	return r.s.run(ctx, func(st *state) error {
		if _, ok := st.submissions[ballot.SubmissionID]; !ok {
			return ballotRepository.ErrSubmissionNotFound
		}
		key := ballotKey{user: ballot.UserID, submission: ballot.SubmissionID}
		if _, ok := st.ballots[key]; ok {
			return ballotRepository.ErrDuplicateBallot
		}
		ballot.CreatedAt = st.tick(r.s.base)
		st.ballots[key] = *ballot
		return nil
	})
}

func (r *ballotRepo) Delete(ctx context.Context, userID, submissionID uuid.UUID) (bool, error) {
	var existed bool
	err := r.s.run(ctx, func(st *state) error {
		key := ballotKey{user: userID, submission: submissionID}
		_, existed = st.ballots[key]
		delete(st.ballots, key)
		return nil
	})
	return existed, err
}

func (r *ballotRepo) CountYes(ctx context.Context, submissionID uuid.UUID) (int, error) {
	var n int
	err := r.s.run(ctx, func(st *state) error {
		for k, b := range st.ballots {
			if k.submission == submissionID && b.Vote == ballotModels.VoteYes {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *ballotRepo) CountYesForSubmissions(ctx context.Context, submissionIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(submissionIDs))
	wanted := make(map[uuid.UUID]bool, len(submissionIDs))
	for _, id := range submissionIDs {
		wanted[id] = true
	}
	err := r.s.run(ctx, func(st *state) error {
		for k, b := range st.ballots {
			if wanted[k.submission] && b.Vote == ballotModels.VoteYes {
				out[k.submission]++
			}
		}
		return nil
	})
	return out, err
}

func (r *ballotRepo) VotedMap(ctx context.Context, userID uuid.UUID, submissionIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(submissionIDs))
	err := r.s.run(ctx, func(st *state) error {
		for _, id := range submissionIDs {
			if b, ok := st.ballots[ballotKey{user: userID, submission: id}]; ok && b.Vote == ballotModels.VoteYes {
				out[id] = true
			}
		}
		return nil
	})
	return out, err
}
