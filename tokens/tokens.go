// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package tokens keeps the per-user token balance in step with submission and
// ballot events.
package tokens

import (
	"context"
	"fmt"

	uuid "github.com/gofrs/uuid"
)

// Ledger deltas
const (
	SubmissionCredit int64 = 3
	VoteCredit       int64 = 1
)

// Repository applies a delta to a stored balance in a single statement.
// Implementations must honour a transaction carried in ctx.
type Repository interface {
	AdjustTokens(ctx context.Context, userID uuid.UUID, delta int64, floorAtZero bool) (int64, error)
}

// Account adjusts user balances
type Account struct {
	repo          Repository
	allowNegative bool
}

// NewAccount creates an Account. With allowNegative false a decrement stops at zero.
func NewAccount(repo Repository, allowNegative bool) *Account {
	return &Account{repo: repo, allowNegative: allowNegative}
}

// Adjust sets tokens = tokens + delta and returns the new balance
func (a *Account) Adjust(ctx context.Context, userID uuid.UUID, delta int64) (int64, error) {
	balance, err := a.repo.AdjustTokens(ctx, userID, delta, !a.allowNegative)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust tokens for user %s: %w", userID, err)
	}
	return balance, nil
}

// VoteDelta returns +VoteCredit for a cast and -VoteCredit for a retraction
func VoteDelta(retracted bool) int64 {
	if retracted {
		return -VoteCredit
	}
	return VoteCredit
}
