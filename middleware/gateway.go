// middleware/gateway.go
package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ScraperTokenAuth guards machine endpoints such as /metrics with a static bearer token.
// An empty expected token disables the endpoint entirely.
func ScraperTokenAuth(expectedToken string, log logrus.FieldLogger) fiber.Handler {
	log = log.WithField("component", "auth")
	return func(c *fiber.Ctx) error {
		if expectedToken == "" {
			return c.SendStatus(fiber.StatusNotFound)
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Warnf("🚫 [SCRAPER_AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "scraper token missing",
			})
		}

		// accept "Bearer <token>" or the raw token
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			log.Warnf("❌ [SCRAPER_AUTH] Invalid token for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid scraper token",
			})
		}
		return c.Next()
	}
}
