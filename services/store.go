package services

import (
	"context"
	"errors"
	"time"

	"bonus-hunt-service/models"
)

// ErrNotFound is returned by stores when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

type HuntStore interface {
	ActiveHunt(ctx context.Context) (*models.Hunt, error)
	Hunt(ctx context.Context, huntID int64) (*models.Hunt, error)
	// ActivateHunt deactivates the current hunt and upserts hunt as active, atomically.
	ActivateHunt(ctx context.Context, hunt *models.Hunt) error
	DeactivateHunts(ctx context.Context) (int64, error)
}

type GuessStore interface {
	InsertGuess(ctx context.Context, guess *models.Guess) error
	// GuessesForHunt returns the hunt's guesses oldest first.
	GuessesForHunt(ctx context.Context, huntID int64) ([]models.Guess, error)
	RecentGuesses(ctx context.Context, limit int) ([]models.Guess, error)
}

type ProfileStore interface {
	// UpsertProfile creates the profile or refreshes its Discord fields. The role is never overwritten.
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	Profile(ctx context.Context, userID string) (*models.Profile, error)
	SetRole(ctx context.Context, userID, role string) error
}

type RevocationStore interface {
	RevokeSession(ctx context.Context, revoked *models.RevokedSession) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
	PurgeExpiredRevocations(ctx context.Context, before time.Time) (int64, error)
}
