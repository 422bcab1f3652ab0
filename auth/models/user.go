// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package models

import (
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/stages"
)

// User represents an account row
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Username  string    `json:"username" db:"username"`
	Hash      string    `json:"-" db:"hash"`
	Tokens    int64     `json:"tokens" db:"tokens"`
	Stage     *string   `json:"stage,omitempty" db:"stage"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// CurrentStage is the stage snapshotted onto new submissions and ballots
func (u *User) CurrentStage() stages.Stage {
	if u == nil || u.Stage == nil {
		return stages.Default
	}
	return stages.OrDefault(stages.Stage(*u.Stage))
}

// Public returns the fields visible to other users
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username}
}

// PublicUser is the submitter shown on another user's submission
type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}

// SignupRequest is the body of POST /auth/signup
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login. Username may also be an email.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is returned after signup and login
type SessionResponse struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
