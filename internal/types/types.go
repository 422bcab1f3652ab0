package types

import (
	"context"

	uuid "github.com/gofrs/uuid"
)

// HTTP Header Constants
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
)

// BearerPrefix precedes the session token in the Authorization header
const BearerPrefix = "Bearer "

// UserCtxName is the fiber Locals key holding the authenticated caller
const UserCtxName = "user"

// UserContext identifies the authenticated caller of a request
type UserContext struct {
	UserID    uuid.UUID `json:"userId"`
	Username  string    `json:"username"`
	SessionID string    `json:"-"`
}

type userKey struct{}

// WithUser returns a context carrying the caller
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom returns the caller carried by ctx, or nil when anonymous
func UserFrom(ctx context.Context) *UserContext {
	user, _ := ctx.Value(userKey{}).(*UserContext)
	return user
}
