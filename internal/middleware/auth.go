package middleware

import (
	"lcfs-backend/internal/domain"
	"lcfs-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(userLocal).(*SessionUser)
		if !ok || user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) *SessionUser {
	u, _ := c.Locals(userLocal).(*SessionUser)
	return u
}

// GetActor builds the domain actor for the logged-in user. Returns a zero
// actor if no session user is present; use behind RequireAuth.
func GetActor(c *fiber.Ctx) domain.Actor {
	u := GetUser(c)
	if u == nil {
		return domain.Actor{}
	}
	return domain.Actor{
		UserID:         u.UserID,
		OrganizationID: u.OrgID,
		DisplayName:    u.FullName,
		Roles:          u.Roles,
	}
}
