package requestid

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"
	"github.com/qolzam/metamorph/internal/pkg/log"
	"github.com/qolzam/metamorph/internal/types"
)

// maxInboundLength bounds a client supplied id before it reaches the logs
const maxInboundLength = 64

// New tags every request with an id. A usable X-Request-ID from the client is
// kept, anything else is replaced. The id travels in the user context so
// services log it, and each finished request gets a debug line.
func New() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(types.HeaderRequestID)
		if !usable(requestID) {
			requestID = uuid.Must(uuid.NewV4()).String()
		}

		ctx := log.WithRequestID(c.UserContext(), requestID)
		c.SetUserContext(ctx)
		c.Set(types.HeaderRequestID, requestID)

		started := time.Now()
		err := c.Next()
		log.DebugWithContext(ctx, "%s %s -> %d (%s)", c.Method(), c.Path(), c.Response().StatusCode(), time.Since(started))
		return err
	}
}

// GetRequestID returns the id New attached to the request
func GetRequestID(c *fiber.Ctx) string {
	return log.RequestID(c.UserContext())
}

func usable(id string) bool {
	if id == "" || len(id) > maxInboundLength {
		return false
	}
	for _, r := range id {
		if r < 0x21 || r > 0x7e {
			return false
		}
	}
	return true
}
