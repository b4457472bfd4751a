package services

import (
	"context"
	"errors"

	"bonus-hunt-service/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultRecentGuesses = 50
	MaxRecentGuesses     = 50
)

type GuessService struct {
	guesses GuessStore
	hunts   HuntStore
	log     logrus.FieldLogger
	metrics *Metrics
}

func NewGuessService(guesses GuessStore, hunts HuntStore, log logrus.FieldLogger, metrics *Metrics) *GuessService {
	return &GuessService{
		guesses: guesses,
		hunts:   hunts,
		log:     log.WithField("component", "guess"),
		metrics: metrics,
	}
}

// SubmitGuess records a user's guess for a hunt. A second guess by the same user
// for the same hunt returns ErrGuessConflict and leaves the first one in place.
func (s *GuessService) SubmitGuess(ctx context.Context, huntID int64, userID, userName string, value NumberInput) (*models.Guess, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "is required"}
	}
	amount, err := ParseGuessValue(value)
	if err != nil {
		s.metrics.GuessSubmitted(OutcomeInvalid)
		return nil, err
	}

	guess := &models.Guess{
		ID:       uuid.NewString(),
		HuntID:   huntID,
		UserID:   userID,
		UserName: userName,
		Value:    amount,
	}
	if err := s.guesses.InsertGuess(ctx, guess); err != nil {
		if isUniqueViolation(err) {
			s.metrics.GuessSubmitted(OutcomeConflict)
			return nil, ErrGuessConflict
		}
		if isForeignKeyViolation(err) {
			s.metrics.GuessSubmitted(OutcomeInvalid)
			return nil, ErrHuntNotFound
		}
		s.metrics.GuessSubmitted(OutcomeError)
		s.log.WithError(err).WithField("hunt_id", huntID).Error("❌ [GUESS] insert failed")
		return nil, &StorageError{Op: "insert guess", Err: err}
	}

	s.metrics.GuessSubmitted(OutcomeAccepted)
	s.log.WithFields(logrus.Fields{
		"hunt_id": huntID,
		"user_id": userID,
		"guess":   amount.StringFixed(2),
	}).Info("🎯 [GUESS] guess accepted")
	return guess, nil
}

// SubmitForActiveHunt submits a guess against whichever hunt is active, if it accepts guesses.
func (s *GuessService) SubmitForActiveHunt(ctx context.Context, sess *Session, value NumberInput) (*models.Guess, error) {
	hunt, err := s.activeHunt(ctx)
	if err != nil {
		return nil, err
	}
	if !hunt.AllowGuesses {
		s.metrics.GuessSubmitted(OutcomeClosed)
		return nil, ErrGuessesClosed
	}
	return s.SubmitGuess(ctx, hunt.HuntID, sess.UserID, sess.UserName, value)
}

// HuntLeaderboard ranks a hunt's guesses against its ending balance.
// Callers should check hunt.LeaderboardVisible first.
func (s *GuessService) HuntLeaderboard(ctx context.Context, hunt *models.Hunt, limit int) ([]RankedGuess, error) {
	if !hunt.EndingKnown() {
		return nil, ErrNoEndingBalance
	}
	guesses, err := s.guesses.GuessesForHunt(ctx, hunt.HuntID)
	if err != nil {
		return nil, &StorageError{Op: "load guesses", Err: err}
	}
	return Leaderboard(hunt.EndingBalance.Decimal, guesses, limit), nil
}

// HuntWinners returns the hunt and every guess tied for closest to its ending balance.
func (s *GuessService) HuntWinners(ctx context.Context, actor Actor, huntID int64) (*models.Hunt, []RankedGuess, error) {
	if !actor.IsAdmin() {
		return nil, nil, ErrForbidden
	}
	hunt, err := s.hunts.Hunt(ctx, huntID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil, ErrHuntNotFound
	}
	if err != nil {
		return nil, nil, &StorageError{Op: "load hunt", Err: err}
	}
	if !hunt.EndingKnown() {
		return hunt, nil, ErrNoEndingBalance
	}

	guesses, err := s.guesses.GuessesForHunt(ctx, huntID)
	if err != nil {
		return hunt, nil, &StorageError{Op: "load guesses", Err: err}
	}
	winners, err := FindWinners(hunt.EndingBalance.Decimal, guesses)
	if err != nil {
		return hunt, nil, err
	}

	s.log.WithFields(logrus.Fields{
		"hunt_id": huntID,
		"winners": len(winners),
		"diff":    winners[0].Diff.StringFixed(2),
	}).Info("🏆 [GUESS] winners computed")
	return hunt, winners, nil
}

// RecentGuesses returns the newest guesses across all hunts for the admin feed.
func (s *GuessService) RecentGuesses(ctx context.Context, actor Actor, limit int) ([]models.Guess, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if limit <= 0 {
		limit = DefaultRecentGuesses
	}
	if limit > MaxRecentGuesses {
		limit = MaxRecentGuesses
	}
	guesses, err := s.guesses.RecentGuesses(ctx, limit)
	if err != nil {
		return nil, &StorageError{Op: "load recent guesses", Err: err}
	}
	return guesses, nil
}

func (s *GuessService) activeHunt(ctx context.Context) (*models.Hunt, error) {
	hunt, err := s.hunts.ActiveHunt(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoActiveHunt
	}
	if err != nil {
		return nil, &StorageError{Op: "load active hunt", Err: err}
	}
	return hunt, nil
}
