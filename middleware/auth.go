package middleware

import (
	"strings"

	"greened-backend/logger"
	"greened-backend/services"

	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// UserContextMiddleware resolves the identity headers set by the gateway into
// a services.Session. Requests without X-User-ID continue anonymously.
func UserContextMiddleware(users *services.UserService, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		if userID == "" {
			return c.Next()
		}

		var roles []string
		for _, r := range strings.Split(c.Get("X-User-Roles"), ",") {
			if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
				roles = append(roles, r)
			}
		}

		sess, err := users.EnsureUser(c.UserContext(), services.Identity{
			ExternalUserID: userID,
			Name:           c.Get("X-User-Name"),
			Email:          c.Get("X-User-Email"),
			Roles:          roles,
		})
		if err != nil {
			log.Error("failed to resolve user", "external_user_id", userID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to resolve user",
				"cause": err.Error(),
			})
		}
		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// RequireUser rejects requests that did not resolve to a user. Mounted on /s.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sess := SessionFrom(c); sess == nil || sess.User == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID, request must come through gateway with auth context",
			})
		}
		return c.Next()
	}
}

// SessionFrom returns the resolved session or nil for anonymous requests.
func SessionFrom(c *fiber.Ctx) *services.Session {
	sess, _ := c.Locals(sessionKey).(*services.Session)
	return sess
}
