package rest

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	jobboard "github.com/jobhive/jobhive"
)

// userLocalKey is where the authenticated user rides on the request.
const userLocalKey = "jobboard:user"

// RequireAuth resolves the bearer token and stores the live user on the
// context. Deleted, banned, and stale-credential sessions are rejected
// by the authenticator itself.
func RequireAuth(auther jobboard.Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return goerrors.New("missing bearer token", goerrors.CategoryAuth).
				WithCode(goerrors.CodeUnauthorized)
		}

		user, err := auther.Authenticate(c.UserContext(), token)
		if err != nil {
			return err
		}

		c.Locals(userLocalKey, user)
		return c.Next()
	}
}

// RequireAdmin guards the admin surface. Must run after RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || user.Role != jobboard.RoleAdmin {
			return jobboard.ErrForbidden
		}
		return c.Next()
	}
}

// CurrentUser returns the authenticated user set by RequireAuth, or nil.
func CurrentUser(c *fiber.Ctx) *jobboard.User {
	user, _ := c.Locals(userLocalKey).(*jobboard.User)
	return user
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
