// middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"strings"

	"bonus-hunt-service/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const sessionKey = "session"

// SessionReader resolves a session token.
type SessionReader interface {
	GetSession(ctx context.Context, token string) (*services.Session, error)
}

// SessionToken reads the bearer token, falling back to the session cookie.
func SessionToken(c *fiber.Ctx, cookieName string) string {
	if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return c.Cookies(cookieName)
}

// RequireSession rejects requests without a valid session and stores the session in c.Locals.
func RequireSession(sessions SessionReader, cookieName string, log logrus.FieldLogger) fiber.Handler {
	log = log.WithField("component", "auth")
	return func(c *fiber.Ctx) error {
		sess, err := sessions.GetSession(c.UserContext(), SessionToken(c, cookieName))
		if err != nil {
			if errors.Is(err, services.ErrNoSession) {
				log.Debugf("🚫 [AUTH] no session for %s", c.Path())
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "sign in required",
				})
			}
			log.WithError(err).Errorf("❌ [AUTH] session lookup failed for %s", c.Path())
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to check session",
			})
		}

		c.Locals(sessionKey, sess)
		return c.Next()
	}
}

// RequireAdmin must run after RequireSession.
func RequireAdmin(log logrus.FieldLogger) fiber.Handler {
	log = log.WithField("component", "auth")
	return func(c *fiber.Ctx) error {
		sess, ok := CurrentSession(c)
		if !ok || !sess.IsAdmin() {
			userID := ""
			if ok {
				userID = sess.UserID
			}
			log.WithField("user_id", userID).Warnf("🚫 [AUTH] admin route denied: %s", c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": services.ErrForbidden.Error(),
			})
		}
		return c.Next()
	}
}

// CurrentSession returns the session stored by RequireSession.
func CurrentSession(c *fiber.Ctx) (*services.Session, bool) {
	sess, ok := c.Locals(sessionKey).(*services.Session)
	return sess, ok && sess != nil
}
