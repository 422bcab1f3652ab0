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
	"github.com/qolzam/metamorph/ballots/models"
	"github.com/qolzam/metamorph/ballots/repository"
	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/stages"
)

// Voter is the identity casting or retracting a ballot
type Voter struct {
	ID    uuid.UUID
	Stage stages.Stage
}

// ToggleResult reports the vote count after a toggle and whether the voter
// had a ballot before it
type ToggleResult struct {
	Votes         int
	ExistedBefore bool
}

// Ledger flips a voter's yes ballot on a submission.
//
// Toggle is not idempotent: every call flips the state, so a client retry
// after a timeout undoes the first call. Callers must run it inside the same
// transaction that holds the submission lock.
type Ledger interface {
	Toggle(ctx context.Context, voter Voter, submissionID uuid.UUID) (ToggleResult, error)
}

type ledger struct {
	repo repository.BallotRepository
}

// NewLedger creates a new ballot ledger
func NewLedger(repo repository.BallotRepository) Ledger {
	return &ledger{repo: repo}
}

func (l *ledger) Toggle(ctx context.Context, voter Voter, submissionID uuid.UUID) (ToggleResult, error) {
	var result ToggleResult

	_, err := l.repo.Find(ctx, voter.ID, submissionID)
	switch {
	case err == nil:
		result.ExistedBefore = true
		if _, err := l.repo.Delete(ctx, voter.ID, submissionID); err != nil {
			return result, fmt.Errorf("failed to retract ballot: %w", err)
		}

	case errors.Is(err, repository.ErrBallotNotFound):
		stage := voter.Stage
		if !stage.Valid() {
			stage = stages.Default
		}
		ballot := &models.Ballot{
			UserID:       voter.ID,
			SubmissionID: submissionID,
			Vote:         models.VoteYes,
			Stage:        stage.String(),
		}
		if err := l.repo.Insert(ctx, ballot); err != nil {
			if errors.Is(err, repository.ErrSubmissionNotFound) {
				return result, apperr.NotFound(apperr.ResourceSubmission, submissionID.String())
			}
			return result, fmt.Errorf("failed to cast ballot: %w", err)
		}

	default:
		return result, fmt.Errorf("failed to find ballot: %w", err)
	}

	votes, err := l.repo.CountYes(ctx, submissionID)
	if err != nil {
		return result, fmt.Errorf("failed to recount votes: %w", err)
	}
	result.Votes = votes
	return result, nil
}
