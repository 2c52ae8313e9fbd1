package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefinder/internal/services"
)

// AuthRequired is a Fiber middleware that checks for a valid JWT and puts
// the acting user's id into the request locals. Every operation that needs
// the acting user (ownership checks, heart toggling, authored-by stamping)
// reads it from there explicitly.
func AuthRequired(accounts *services.AccountService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
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

		claims, err := accounts.ValidateToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals("user_id", userID)
		c.Locals("email", claims["email"])

		return c.Next()
	}
}
