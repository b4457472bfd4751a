// services/discord_oauth.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bonus-hunt-service/config"
	"bonus-hunt-service/models"
	"bonus-hunt-service/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	discordAPIBaseURL = "https://discord.com/api"
	discordCDNBaseURL = "https://cdn.discordapp.com"
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// DiscordUser is the subset of GET /users/@me the login flow uses.
type DiscordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
	Email      string `json:"email"`
}

// DisplayName picks the first non-empty of global name, username, email, then "Guest".
func (u *DiscordUser) DisplayName() string {
	for _, name := range []string{u.GlobalName, u.Username, u.Email} {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	return "Guest"
}

func (u *DiscordUser) AvatarURL() *string {
	if u.Avatar == "" {
		return nil
	}
	url := fmt.Sprintf("%s/avatars/%s/%s.png", discordCDNBaseURL, u.ID, u.Avatar)
	return &url
}

// DiscordAuth runs the Discord OAuth2 login and turns a successful login into a session.
type DiscordAuth struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
	profiles   ProfileStore
	sessions   *SessionService
	log        logrus.FieldLogger
	metrics    *Metrics
}

func NewDiscordAuth(cfg config.Discord, profiles ProfileStore, sessions *SessionService, log logrus.FieldLogger, metrics *Metrics) *DiscordAuth {
	return &DiscordAuth{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"identify", "email"},
			Endpoint:     discordEndpoint,
		},
		apiBaseURL: discordAPIBaseURL,
		httpClient: utils.NewHTTPClient(10 * time.Second),
		profiles:   profiles,
		sessions:   sessions,
		log:        log.WithField("component", "auth"),
		metrics:    metrics,
	}
}

// LoginURL is where the browser is sent to start the login.
func (a *DiscordAuth) LoginURL(state string) string {
	return a.oauth.AuthCodeURL(state)
}

// CompleteLogin exchanges the callback code, refreshes the user's profile and issues a session token.
func (a *DiscordAuth) CompleteLogin(ctx context.Context, code string) (string, *Session, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	tok, err := a.oauth.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("exchange code: %w", err)
	}

	user, err := a.fetchUser(ctx, tok)
	if err != nil {
		return "", nil, err
	}

	profile := &models.Profile{
		ID:        user.ID,
		UserName:  user.DisplayName(),
		AvatarURL: user.AvatarURL(),
		Email:     user.Email,
	}
	if err := a.profiles.UpsertProfile(ctx, profile); err != nil {
		return "", nil, &StorageError{Op: "upsert profile", Err: err}
	}
	// re-read so an existing role is kept
	stored, err := a.profiles.Profile(ctx, user.ID)
	if err != nil {
		return "", nil, &StorageError{Op: "load profile", Err: err}
	}

	token, sess, err := a.sessions.Issue(stored)
	if err != nil {
		return "", nil, err
	}

	a.metrics.LoginCompleted()
	a.log.WithFields(logrus.Fields{
		"user_id": sess.UserID,
		"role":    sess.Role,
	}).Info("🔑 [AUTH] discord login completed")
	return token, sess, nil
}

func (a *DiscordAuth) fetchUser(ctx context.Context, tok *oauth2.Token) (*DiscordUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBaseURL+"/users/@me", nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch discord user: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		a.log.WithField("status", resp.StatusCode).Warnf("Discord /users/@me returned %d: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("fetch discord user: status %d", resp.StatusCode)
	}

	var user DiscordUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode discord user: %w", err)
	}
	if user.ID == "" {
		return nil, fmt.Errorf("decode discord user: missing id")
	}
	return &user, nil
}
