// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"errors"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/ballots/models"
)

var (
	ErrBallotNotFound  = errors.New("ballot not found")
	ErrDuplicateBallot = errors.New("ballot already exists")
	// ErrSubmissionNotFound is returned by Insert when the submission is gone
	ErrSubmissionNotFound = errors.New("submission not found")
)

// BallotRepository defines the data access interface for ballots
type BallotRepository interface {
	Find(ctx context.Context, userID, submissionID uuid.UUID) (*models.Ballot, error)
	Insert(ctx context.Context, ballot *models.Ballot) error
	// Delete removes the ballot and reports whether one existed
	Delete(ctx context.Context, userID, submissionID uuid.UUID) (bool, error)

	// CountYes returns the number of yes ballots on a submission
	CountYes(ctx context.Context, submissionID uuid.UUID) (int, error)
	// CountYesForSubmissions bulk counts yes ballots; missing ids count zero
	CountYesForSubmissions(ctx context.Context, submissionIDs []uuid.UUID) (map[uuid.UUID]int, error)
	// VotedMap reports which of submissionIDs carry a yes ballot from userID
	VotedMap(ctx context.Context, userID uuid.UUID, submissionIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}
