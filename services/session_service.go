package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bonus-hunt-service/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const sessionIssuer = "bonus-hunt-service"

// Session is an authenticated user. Role is read from the profile on every lookup,
// so a role change applies to existing sessions.
type Session struct {
	ID        string    `json:"-"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) Actor() Actor {
	return Actor{UserID: s.UserID, Role: s.Role}
}

func (s *Session) IsAdmin() bool { return s.Role == models.RoleAdmin }

type sessionClaims struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	jwt.RegisteredClaims
}

type SessionService struct {
	secret      []byte
	ttl         time.Duration
	revocations RevocationStore
	profiles    ProfileStore
	log         logrus.FieldLogger
	metrics     *Metrics
	now         func() time.Time

	mu        sync.RWMutex
	listeners []func(Session)
}

func NewSessionService(secret string, ttl time.Duration, revocations RevocationStore, profiles ProfileStore, log logrus.FieldLogger, metrics *Metrics) *SessionService {
	return &SessionService{
		secret:      []byte(secret),
		ttl:         ttl,
		revocations: revocations,
		profiles:    profiles,
		log:         log.WithField("component", "session"),
		metrics:     metrics,
		now:         time.Now,
	}
}

// Issue signs a new session token for profile.
func (s *SessionService) Issue(profile *models.Profile) (string, *Session, error) {
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    profile.ID,
		UserName:  profile.UserName,
		Role:      profile.Role,
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}
	if profile.AvatarURL != nil {
		sess.AvatarURL = *profile.AvatarURL
	}

	claims := sessionClaims{
		Name:   sess.UserName,
		Avatar: sess.AvatarURL,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   sess.UserID,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return token, sess, nil
}

// GetSession returns the session behind token, or ErrNoSession when the token is
// missing, malformed, expired, revoked, or belongs to an unknown profile.
func (s *SessionService) GetSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			s.log.WithError(err).Debug("🚫 [AUTH] rejected session token")
		}
		return nil, ErrNoSession
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, ErrNoSession
	}

	revoked, err := s.revocations.IsSessionRevoked(ctx, claims.ID)
	if err != nil {
		return nil, &StorageError{Op: "check session revocation", Err: err}
	}
	if revoked {
		return nil, ErrNoSession
	}

	profile, err := s.profiles.Profile(ctx, claims.Subject)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, &StorageError{Op: "load profile", Err: err}
	}

	return &Session{
		ID:        claims.ID,
		UserID:    claims.Subject,
		UserName:  claims.Name,
		AvatarURL: claims.Avatar,
		Role:      profile.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignOut revokes the session and notifies OnSessionEnd listeners.
func (s *SessionService) SignOut(ctx context.Context, sess *Session) error {
	if err := s.revocations.RevokeSession(ctx, &models.RevokedSession{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		ExpiresAt: sess.ExpiresAt,
	}); err != nil {
		return &StorageError{Op: "revoke session", Err: err}
	}

	s.metrics.SessionEnded()
	s.log.WithField("user_id", sess.UserID).Info("👋 [AUTH] signed out")

	s.mu.RLock()
	listeners := append([]func(Session){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(*sess)
	}
	return nil
}

// OnSessionEnd registers fn to run after every sign out.
func (s *SessionService) OnSessionEnd(fn func(Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// PurgeExpired drops revocation records for tokens that have expired on their own.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.revocations.PurgeExpiredRevocations(ctx, s.now())
}
