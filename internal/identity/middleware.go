package identity

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// localsUserKey is where the middleware stores the authenticated user id.
const localsUserKey = "userID"

// AuthMiddleware resolves the bearer token and stores the user id in the
// request locals. WebSocket clients may pass the token as a query parameter
// since browsers cannot set headers on upgrade requests.
func AuthMiddleware(provider Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		userID, err := provider.Authenticate(c.Context(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authentication required",
			})
		}
		c.Locals(localsUserKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated user stored by AuthMiddleware.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(localsUserKey).(uuid.UUID)
	return id, ok
}
