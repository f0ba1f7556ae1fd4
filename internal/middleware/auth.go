// Package middleware provides authentication and request plumbing middleware for the application.
package middleware

import (
	"strings"

	"positiveonly/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SessionTokenLocal is the Fiber locals key holding the bearer token.
const SessionTokenLocal = "sessionToken"

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// AuthRequired rejects requests without a well formed bearer header and
// stores the raw token for the handler. Resolving the token to a session is
// left to the service layer, which owns revocation.
func AuthRequired(c *fiber.Ctx) error {
	if c.Get("Authorization") == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization header required"))
	}
	token, ok := BearerToken(c)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid authorization header format"))
	}
	c.Locals(SessionTokenLocal, token)
	return c.Next()
}

// SessionToken returns the token stored by AuthRequired.
func SessionToken(c *fiber.Ctx) string {
	token, _ := c.Locals(SessionTokenLocal).(string)
	return token
}
