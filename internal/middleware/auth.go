package middleware

import (
	"errors"

	"taskboard/internal/session"

	"github.com/gofiber/fiber/v2"
)

// SessionLocalKey is the fiber local under which the resolved session record
// is stored for downstream handlers.
const SessionLocalKey = "session"

// SessionRequired enforces an authenticated session for protected routes.
// On success it stores the session record and the user ID in fiber locals.
func SessionRequired(store session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := resolveSession(c, store)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authentication required",
			})
		}
		if !sess.Authenticated() {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authentication required",
			})
		}

		c.Locals("userID", sess.UserID)
		c.Locals(SessionLocalKey, sess)
		return c.Next()
	}
}

// SessionLoader resolves the session cookie without enforcing authentication.
// The two-factor verify/resend endpoints need the pending session before the
// user counts as logged in.
func SessionLoader(store session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sess, err := resolveSession(c, store); err == nil {
			if sess.Authenticated() {
				c.Locals("userID", sess.UserID)
			}
			c.Locals(SessionLocalKey, sess)
		}
		return c.Next()
	}
}

// CurrentSession returns the session record placed in locals by
// SessionRequired or SessionLoader, or nil when absent.
func CurrentSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(SessionLocalKey).(*session.Session)
	return sess
}

func resolveSession(c *fiber.Ctx, store session.Store) (*session.Session, error) {
	token := c.Cookies(session.CookieName)
	if token == "" {
		return nil, session.ErrNotFound
	}
	sess, err := store.Get(c.UserContext(), token)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			Logger.WarnContext(c.UserContext(), "session lookup failed", "error", err.Error())
		}
		return nil, err
	}
	return sess, nil
}
