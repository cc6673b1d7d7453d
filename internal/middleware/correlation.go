package middleware

import (
	"catalog/internal/logging"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CorrelationHeader carries the id that ties a request to its log lines.
const CorrelationHeader = "X-Correlation-Id"

// Correlation reuses the caller's X-Correlation-Id or assigns a new one, echoes
// it on the response and stores it in the request context for logging.
func Correlation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(CorrelationHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals("correlation_id", id)
		c.Set(CorrelationHeader, id)
		c.SetUserContext(logging.WithCorrelationID(c.UserContext(), id))

		return c.Next()
	}
}
