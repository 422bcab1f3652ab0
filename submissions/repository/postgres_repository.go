// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	uuid "github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/qolzam/metamorph/internal/database/postgres"
	"github.com/qolzam/metamorph/submissions/models"
)

// postgresSubmissionRepository implements SubmissionRepository using raw SQL queries
type postgresSubmissionRepository struct {
	client *postgres.Client
}

// NewPostgresSubmissionRepository creates a new PostgreSQL repository for submissions
func NewPostgresSubmissionRepository(client *postgres.Client) SubmissionRepository {
	return &postgresSubmissionRepository{client: client}
}

const submissionColumns = `s.id, s.user_id, s.category_id, s.content_id, s.comment, s.stage, s.created_at`

func (r *postgresSubmissionRepository) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	return r.client.WithTransaction(ctx, nil, fn)
}

func (r *postgresSubmissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	query := `
		INSERT INTO submissions (id, user_id, category_id, content_id, comment, stage)
		VALUES (:id, :user_id, :category_id, :content_id, :comment, :stage)
		RETURNING created_at
	`

	rows, err := sqlx.NamedQueryContext(ctx, r.client.Executor(ctx), query, submission)
	if err != nil {
		switch {
		case postgres.IsForeignKeyViolation(err, postgres.ConstraintSubmissionsCategory):
			return ErrCategoryNotFound
		case postgres.IsForeignKeyViolation(err, postgres.ConstraintSubmissionsContent):
			return ErrContentNotFound
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&submission.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan created submission: %w", err)
		}
	}
	return rows.Err()
}

func (r *postgresSubmissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	return r.findOne(ctx, `SELECT `+submissionColumns+` FROM submissions s WHERE s.id = $1`, id)
}

func (r *postgresSubmissionRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Submission, error) {
	if !postgres.InTransaction(ctx) {
		return nil, errors.New("LockByID requires a transaction")
	}
	return r.findOne(ctx, `SELECT `+submissionColumns+` FROM submissions s WHERE s.id = $1 FOR UPDATE`, id)
}

func (r *postgresSubmissionRepository) UpdateStage(ctx context.Context, id uuid.UUID, stage string) (*models.Submission, error) {
	query := `
		UPDATE submissions s SET stage = $1
		WHERE s.id = $2
		RETURNING ` + submissionColumns

	return r.findOne(ctx, query, stage, id)
}

func (r *postgresSubmissionRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Submission, error) {
	var submission models.Submission
	if err := sqlx.GetContext(ctx, r.client.Executor(ctx), &submission, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	return &submission, nil
}

func (r *postgresSubmissionRepository) Find(ctx context.Context, filter models.Filter) ([]*models.Submission, error) {
	q := newQuery(`SELECT ` + submissionColumns + ` FROM submissions s`)
	q.apply(filter)
	return r.list(ctx, q, filter)
}

func (r *postgresSubmissionRepository) FindVotedBy(ctx context.Context, userID uuid.UUID, filter models.Filter) ([]*models.Submission, error) {
	q := newQuery(`SELECT ` + submissionColumns + ` FROM submissions s JOIN ballots b ON b.submission_id = s.id`)
	q.where("b.user_id = ?", userID)
	q.where("b.vote = ?", "yes")
	q.apply(filter)
	return r.list(ctx, q, filter)
}

func (r *postgresSubmissionRepository) list(ctx context.Context, q *query, filter models.Filter) ([]*models.Submission, error) {
	filter = filter.Window()
	sqlText, args := q.build(filter.Limit, filter.Offset)

	submissions := []*models.Submission{}
	if err := sqlx.SelectContext(ctx, r.client.Executor(ctx), &submissions, sqlText, args...); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

// query accumulates WHERE conditions with positional arguments
type query struct {
	base       string
	conditions []string
	args       []interface{}
}

func newQuery(base string) *query {
	return &query{base: base}
}

// where adds a condition; each ? becomes the next $n placeholder
func (q *query) where(cond string, arg interface{}) {
	q.args = append(q.args, arg)
	q.conditions = append(q.conditions, strings.Replace(cond, "?", fmt.Sprintf("$%d", len(q.args)), 1))
}

func (q *query) apply(filter models.Filter) {
	if filter.Stage != "" {
		q.where("s.stage = ?", filter.Stage)
	}
	if filter.CategoryID != uuid.Nil {
		q.where("s.category_id = ?", filter.CategoryID)
	}
	if filter.UserID != uuid.Nil {
		q.where("s.user_id = ?", filter.UserID)
	}
}

func (q *query) build(limit, offset int) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(q.base)
	if len(q.conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.conditions, " AND "))
	}
	args := append(q.args, limit, offset)
	fmt.Fprintf(&b, " ORDER BY s.created_at DESC, s.id LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}
