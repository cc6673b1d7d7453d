package middleware

import (
	"strings"

	"catalog/internal/logging"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(tokens *services.TokenService, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			logging.Warn(c.UserContext(), logger, "JWT validation failed", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals("subject", claims["sub"])
		return c.Next()
	}
}
