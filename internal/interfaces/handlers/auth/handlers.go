package auth

import (
	"context"
	"strconv"

	authsvc "lcfs-backend/internal/auth"
	"lcfs-backend/internal/middleware"
	"lcfs-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const userSessionsPrefix = "user_sessions:"

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	DB     *gorm.DB
	Rdb    *redis.Client
	Config middleware.SessionConfig
}

// Login POST /api/v1/auth/login. Authenticates, regenerates the session,
// tracks it under user_sessions:user_id and sets the cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.DB == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req authsvc.LoginInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Email and password are required", fiber.StatusBadRequest, nil)
	}

	user, err := authsvc.LoginUser(h.DB, req)
	if err != nil {
		switch err {
		case authsvc.ErrEmailPasswordRequired:
			return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
		case authsvc.ErrInvalidEmail, authsvc.ErrIncorrectPassword:
			return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
		default:
			return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
		}
	}

	shape := authsvc.Shape(user)

	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		UserID:   shape.UserID,
		FullName: shape.FullName,
		Email:    shape.Email,
		Roles:    shape.Roles,
		OrgID:    shape.OrgID,
	})

	ctx := context.Background()
	if err := h.Rdb.SAdd(ctx, userSessionsPrefix+itoa(shape.UserID), sessionID).Err(); err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = sessionID
	c.Cookie(&cookie)

	return response.Success(c, "Login successful", fiber.Map{"user": shape}, nil)
}

// Me GET /api/v1/auth/me. Returns the current session user, re-verified
// against the database so deactivated users lose access immediately.
func (h *Handlers) Me(c *fiber.Ctx) error {
	sessionUser := middleware.GetUser(c)
	if sessionUser == nil || h.DB == nil {
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	shape, err := authsvc.VerifyUser(h.DB, sessionUser.UserID)
	if err != nil {
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": shape}, nil)
}

// Logout DELETE /api/v1/auth/logout. Removes the session from the user's
// session set, deletes the Redis key and clears the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	sessionUser := middleware.GetUser(c)

	ctx := context.Background()
	if sessionUser != nil && sessionID != "" {
		_ = h.Rdb.SRem(ctx, userSessionsPrefix+itoa(sessionUser.UserID), sessionID).Err()
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Logout successful", fiber.Map{}, nil)
}

func itoa(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
