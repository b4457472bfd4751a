package services

import (
	"context"
	"errors"

	"bonus-hunt-service/models"

	"github.com/sirupsen/logrus"
)

// Actor is the caller of an operation, as established by the session layer.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// HuntService owns the active hunt.
type HuntService struct {
	store   HuntStore
	log     logrus.FieldLogger
	metrics *Metrics
}

func NewHuntService(store HuntStore, log logrus.FieldLogger, metrics *Metrics) *HuntService {
	return &HuntService{
		store:   store,
		log:     log.WithField("component", "hunt"),
		metrics: metrics,
	}
}

// GetActiveHunt returns the active hunt, or ErrNoActiveHunt.
func (s *HuntService) GetActiveHunt(ctx context.Context) (*models.Hunt, error) {
	hunt, err := s.store.ActiveHunt(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoActiveHunt
	}
	if err != nil {
		return nil, &StorageError{Op: "load active hunt", Err: err}
	}
	return hunt, nil
}

// CreateOrReplaceActiveHunt validates in, then makes the hunt it describes the only active one.
// An existing hunt with the same id has all its fields replaced.
func (s *HuntService) CreateOrReplaceActiveHunt(ctx context.Context, actor Actor, in HuntInput) (*models.Hunt, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}

	hunt, err := in.Hunt()
	if err != nil {
		s.metrics.HuntActivation(OutcomeInvalid)
		return nil, err
	}

	if err := s.store.ActivateHunt(ctx, hunt); err != nil {
		if isUniqueViolation(err) {
			s.metrics.HuntActivation(OutcomeConflict)
			s.log.WithField("hunt_id", hunt.HuntID).Warn("⚠️ [HUNT] activation lost a race with another admin")
			return nil, ErrActivationConflict
		}
		s.metrics.HuntActivation(OutcomeError)
		s.log.WithError(err).WithField("hunt_id", hunt.HuntID).Error("❌ [HUNT] activation failed")
		return nil, &StorageError{Op: "activate hunt", Err: err}
	}

	s.metrics.HuntActivation(OutcomeAccepted)
	s.log.WithFields(logrus.Fields{
		"hunt_id":           hunt.HuntID,
		"actor":             actor.UserID,
		"allow_guesses":     hunt.AllowGuesses,
		"allow_leaderboard": hunt.AllowLeaderboard,
		"ending_known":      hunt.EndingKnown(),
	}).Info("✅ [HUNT] hunt activated")
	return hunt, nil
}

// DeactivateHunt leaves no hunt active. It is a no-op when none is.
func (s *HuntService) DeactivateHunt(ctx context.Context, actor Actor) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	n, err := s.store.DeactivateHunts(ctx)
	if err != nil {
		return &StorageError{Op: "deactivate hunt", Err: err}
	}
	if n > 0 {
		s.log.WithField("actor", actor.UserID).Info("🛑 [HUNT] active hunt deactivated")
	}
	return nil
}
