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

	uuid "github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/qolzam/metamorph/ballots/models"
	"github.com/qolzam/metamorph/internal/database/postgres"
)

// postgresBallotRepository implements BallotRepository using raw SQL queries
type postgresBallotRepository struct {
	client *postgres.Client
}

// NewPostgresBallotRepository creates a new PostgreSQL repository for ballots
func NewPostgresBallotRepository(client *postgres.Client) BallotRepository {
	return &postgresBallotRepository{client: client}
}

func (r *postgresBallotRepository) Find(ctx context.Context, userID, submissionID uuid.UUID) (*models.Ballot, error) {
	query := `
		SELECT user_id, submission_id, vote, stage, created_at
		FROM ballots
		WHERE user_id = $1 AND submission_id = $2
	`

	var ballot models.Ballot
	if err := sqlx.GetContext(ctx, r.client.Executor(ctx), &ballot, query, userID, submissionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBallotNotFound
		}
		return nil, fmt.Errorf("failed to find ballot: %w", err)
	}
	return &ballot, nil
}

func (r *postgresBallotRepository) Insert(ctx context.Context, ballot *models.Ballot) error {
	query := `
		INSERT INTO ballots (user_id, submission_id, vote, stage)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	err := sqlx.GetContext(ctx, r.client.Executor(ctx), &ballot.CreatedAt, query,
		ballot.UserID, ballot.SubmissionID, ballot.Vote, ballot.Stage)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return ErrDuplicateBallot
		}
		if postgres.IsForeignKeyViolation(err, postgres.ConstraintBallotsSubmission) {
			return ErrSubmissionNotFound
		}
		return fmt.Errorf("failed to insert ballot: %w", err)
	}
	return nil
}

func (r *postgresBallotRepository) Delete(ctx context.Context, userID, submissionID uuid.UUID) (bool, error) {
	res, err := r.client.Executor(ctx).ExecContext(ctx,
		`DELETE FROM ballots WHERE user_id = $1 AND submission_id = $2`, userID, submissionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete ballot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *postgresBallotRepository) CountYes(ctx context.Context, submissionID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM ballots WHERE submission_id = $1 AND vote = $2`

	var count int
	if err := sqlx.GetContext(ctx, r.client.Executor(ctx), &count, query, submissionID, models.VoteYes); err != nil {
		return 0, fmt.Errorf("failed to count ballots: %w", err)
	}
	return count, nil
}

func (r *postgresBallotRepository) CountYesForSubmissions(ctx context.Context, submissionIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(submissionIDs))
	if len(submissionIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT submission_id, COUNT(*) AS votes
		FROM ballots
		WHERE submission_id = ANY($1::uuid[]) AND vote = $2
		GROUP BY submission_id
	`

	type countRow struct {
		SubmissionID uuid.UUID `db:"submission_id"`
		Votes        int       `db:"votes"`
	}

	var rows []countRow
	if err := sqlx.SelectContext(ctx, r.client.Executor(ctx), &rows, query, pq.Array(uuidStrings(submissionIDs)), models.VoteYes); err != nil {
		return nil, fmt.Errorf("failed to count ballots: %w", err)
	}
	for _, row := range rows {
		counts[row.SubmissionID] = row.Votes
	}
	return counts, nil
}

func (r *postgresBallotRepository) VotedMap(ctx context.Context, userID uuid.UUID, submissionIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	voted := make(map[uuid.UUID]bool, len(submissionIDs))
	if len(submissionIDs) == 0 {
		return voted, nil
	}

	query := `
		SELECT submission_id
		FROM ballots
		WHERE user_id = $1 AND submission_id = ANY($2::uuid[]) AND vote = $3
	`

	var ids []uuid.UUID
	if err := sqlx.SelectContext(ctx, r.client.Executor(ctx), &ids, query, userID, pq.Array(uuidStrings(submissionIDs)), models.VoteYes); err != nil {
		return nil, fmt.Errorf("failed to load voted submissions: %w", err)
	}
	for _, id := range ids {
		voted[id] = true
	}
	return voted, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
