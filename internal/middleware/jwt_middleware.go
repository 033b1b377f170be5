package middleware

import (
	"log"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie carries the JWT for browser clients.
const SessionCookie = "session"

const identityKey = "identity"

// AuthRequired is a Fiber middleware to check for a valid JWT token, taken
// from the Authorization header or the session cookie.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ""
		if authHeader := c.Get("Authorization"); authHeader != "" {
			// Expected format: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if !(len(parts) == 2 && parts[0] == "Bearer") {
				return unauthorized(c, "Authorization header format must be 'Bearer <token>'")
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Cookies(SessionCookie)
		}
		if tokenString == "" {
			return unauthorized(c, "authentication required")
		}

		identity, err := authService.Identify(tokenString)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return unauthorized(c, "invalid or expired token")
		}

		// Store the identity in Fiber context for subsequent handlers
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// RequireRole rejects callers without the given role. It must run after
// AuthRequired.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IdentityFrom(c).Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "FORBIDDEN",
				"message": role + " role required",
			})
		}
		return c.Next()
	}
}

// IdentityFrom returns the identity stored by AuthRequired, or the zero
// identity for anonymous requests.
func IdentityFrom(c *fiber.Ctx) auth.Identity {
	if id, ok := c.Locals(identityKey).(auth.Identity); ok {
		return id
	}
	return auth.Identity{}
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   "AUTHENTICATION_REQUIRED",
		"message": message,
	})
}
