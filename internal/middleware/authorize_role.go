package middleware

import (
	"lcfs-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RequireRoles allows the request through when the session user holds at
// least one of the given roles. Role not held -> 403.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		for _, want := range roles {
			for _, have := range user.Roles {
				if have == want {
					return c.Next()
				}
			}
		}
		return response.Error(c, "User is forbidden from performing this action", 403, nil)
	}
}

// RequireGovernment allows only government users (no organization).
func RequireGovernment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		if user.OrgID != nil {
			return response.Error(c, "User is forbidden from performing this action", 403, nil)
		}
		return c.Next()
	}
}
