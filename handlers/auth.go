// handlers/auth.go
package handlers

import (
	"context"
	"net/url"
	"time"

	"bonus-hunt-service/middleware"
	"bonus-hunt-service/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const oauthStateCookie = "bh_oauth_state"

type LoginFlow interface {
	LoginURL(state string) string
	CompleteLogin(ctx context.Context, code string) (string, *services.Session, error)
}

type SessionEnder interface {
	SignOut(ctx context.Context, sess *services.Session) error
}

// AuthRoutesConfig holds the cookie and redirect settings for the login flow.
type AuthRoutesConfig struct {
	CookieName   string
	SecureCookie bool
	HomeURL      string
	LoginURL     string
}

type AuthHandler struct {
	login    LoginFlow
	sessions SessionEnder
	cfg      AuthRoutesConfig
	log      logrus.FieldLogger
}

func SetupAuthRoutes(app fiber.Router, login LoginFlow, sessions SessionEnder, cfg AuthRoutesConfig, requireSession fiber.Handler, log logrus.FieldLogger) {
	h := &AuthHandler{login: login, sessions: sessions, cfg: cfg, log: log.WithField("component", "auth")}

	app.Get("/auth/discord/login", h.StartLogin)
	app.Get("/auth/discord/callback", h.Callback)

	app.Get("/auth/session", requireSession, h.GetSession)
	app.Post("/auth/signout", requireSession, h.SignOut)
}

func (h *AuthHandler) StartLogin(c *fiber.Ctx) error {
	state := uuid.NewString()
	c.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/discord",
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(h.login.LoginURL(state), fiber.StatusFound)
}

// Callback finishes the Discord login, sets the session cookie and sends the browser home.
// Failures go back to the login page with an error message.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	expected := c.Cookies(oauthStateCookie)
	c.ClearCookie(oauthStateCookie)

	if msg := c.Query("error_description", c.Query("error")); msg != "" {
		return h.loginFailed(c, msg)
	}
	if expected == "" || c.Query("state") != expected {
		h.log.Warn("🚫 [AUTH] oauth state mismatch")
		return h.loginFailed(c, "login expired, please try again")
	}
	code := c.Query("code")
	if code == "" {
		return h.loginFailed(c, "missing authorization code")
	}

	token, sess, err := h.login.CompleteLogin(c.UserContext(), code)
	if err != nil {
		h.log.WithError(err).Error("❌ [AUTH] discord login failed")
		return h.loginFailed(c, "login failed, please try again")
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(h.cfg.HomeURL, fiber.StatusFound)
}

func (h *AuthHandler) loginFailed(c *fiber.Ctx, msg string) error {
	target, err := url.Parse(h.cfg.LoginURL)
	if err != nil {
		return badRequest(c, msg, nil)
	}
	q := target.Query()
	q.Set("error", msg)
	target.RawQuery = q.Encode()
	return c.Redirect(target.String(), fiber.StatusFound)
}

func (h *AuthHandler) GetSession(c *fiber.Ctx) error {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return respondError(c, services.ErrNoSession)
	}
	return c.JSON(fiber.Map{
		"user_id":    sess.UserID,
		"user_name":  sess.UserName,
		"avatar_url": sess.AvatarURL,
		"is_admin":   sess.IsAdmin(),
		"expires_at": sess.ExpiresAt,
	})
}

func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		return respondError(c, services.ErrNoSession)
	}
	if err := h.sessions.SignOut(c.UserContext(), sess); err != nil {
		return respondError(c, err)
	}
	c.ClearCookie(h.cfg.CookieName)
	return c.JSON(fiber.Map{"message": "Signed out"})
}
