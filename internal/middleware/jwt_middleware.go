package middleware

import (
	"context"
	"log"
	"strings"

	"tokoshop/internal/models"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// Authenticator resolves a bearer token to the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Principal, error)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token.
func AuthRequired(auth Authenticator) fiber.Handler {
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

		principal, err := auth.Authenticate(c.UserContext(), parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// RequireRole rejects principals that lack role. It must run after AuthRequired.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := c.Locals(principalKey).(models.Principal)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "login first",
			})
		}
		if !principal.HasRole(role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Insufficient permissions",
			})
		}
		return c.Next()
	}
}

// Principal returns the principal stored by AuthRequired.
func Principal(c *fiber.Ctx) models.Principal {
	p, _ := c.Locals(principalKey).(models.Principal)
	return p
}
