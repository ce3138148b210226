package middleware

import (
	"accounting-admin/internal/config"
	"accounting-admin/internal/utils"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// AuthMiddleware accepts a Bearer access token or, for pages calling the API,
// a logged-in web session.
func AuthMiddleware(cfg *config.Config, store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			if store != nil && loadSessionUser(c, store) {
				return c.Next()
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authorization header is required",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid authorization header format",
			})
		}

		claims, err := utils.ValidateToken(parts[1], cfg.JWTSecret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("username", claims.Username)
		c.Locals("role", claims.Role)

		return c.Next()
	}
}

func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := c.Locals("role")
		if role != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Admin access required",
			})
		}
		return c.Next()
	}
}

// WebAuthMiddleware protects HTML pages with the session cookie
func WebAuthMiddleware(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !loadSessionUser(c, store) {
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

// GuestMiddleware sends logged-in users away from the login page
func GuestMiddleware(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return c.Next()
		}

		if sess.Get("user_id") != nil {
			return c.Redirect("/")
		}

		return c.Next()
	}
}

func loadSessionUser(c *fiber.Ctx, store *session.Store) bool {
	sess, err := store.Get(c)
	if err != nil {
		return false
	}

	userID := sess.Get("user_id")
	if userID == nil {
		return false
	}

	if expiresAt, ok := sess.Get("expires_at").(int64); ok && expiresAt < utils.GetCurrentTimestamp() {
		_ = sess.Destroy()
		return false
	}

	c.Locals("user_id", userID)
	c.Locals("username", sess.Get("username"))
	c.Locals("role", sess.Get("role"))
	return true
}
