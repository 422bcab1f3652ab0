package models

import (
	"time"

	uuid "github.com/gofrs/uuid"
)

// VoteYes is the only vote value ever written; no row means no vote
const VoteYes = "yes"

// Ballot is one user's yes vote on one submission
type Ballot struct {
	UserID       uuid.UUID `json:"userId" db:"user_id"`
	SubmissionID uuid.UUID `json:"submissionId" db:"submission_id"`
	Vote         string    `json:"vote" db:"vote"`
	// Stage is the voter's stage when the ballot was cast. It is never recomputed.
	Stage     string    `json:"stage" db:"stage"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
