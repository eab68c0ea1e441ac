package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// LocalsUserKey is where the middleware stores the authenticated user id.
const LocalsUserKey = "user_id"

// Middleware rejects the request with 401 unless a valid token is present.
// Tokens are taken from the Authorization header, or from the token query
// param as a fallback because EventSource cannot set headers.
func Middleware(v *Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := ""
		if h := c.Get("Authorization"); h != "" {
			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization"})
			}
			token = parts[1]
		} else {
			token = c.Query("token")
		}
		uid, err := v.Validate(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals(LocalsUserKey, uid)
		return c.Next()
	}
}

// UserID returns the authenticated user id set by Middleware.
func UserID(c *fiber.Ctx) string {
	uid, _ := c.Locals(LocalsUserKey).(string)
	return uid
}
