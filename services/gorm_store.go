// services/gorm_store.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bonus-hunt-service/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements every store interface on PostgreSQL.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// Migrate creates the tables and the index that allows only one active hunt.
func (s *GormStore) Migrate(ctx context.Context) error {
	db := s.DB.WithContext(ctx)
	if err := db.AutoMigrate(
		&models.Hunt{},
		&models.Guess{},
		&models.Profile{},
		&models.RevokedSession{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bonus_hunts_single_active ON bonus_hunts (is_active) WHERE is_active`,
	).Error; err != nil {
		return fmt.Errorf("create single active index: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) ActiveHunt(ctx context.Context) (*models.Hunt, error) {
	var hunt models.Hunt
	err := s.DB.WithContext(ctx).
		Where("is_active = ?", true).
		Order("hunt_id DESC").
		First(&hunt).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &hunt, nil
}

func (s *GormStore) Hunt(ctx context.Context, huntID int64) (*models.Hunt, error) {
	var hunt models.Hunt
	if err := s.DB.WithContext(ctx).First(&hunt, "hunt_id = ?", huntID).Error; err != nil {
		return nil, notFound(err)
	}
	return &hunt, nil
}

func (s *GormStore) ActivateHunt(ctx context.Context, hunt *models.Hunt) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Hunt{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("deactivate current hunt: %w", err)
		}

		hunt.IsActive = true
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "hunt_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"bonuses", "starting_bal", "ending_bal",
				"is_active", "allow_guesses", "allow_leaderboard", "updated_at",
			}),
		}).Create(hunt).Error; err != nil {
			hunt.IsActive = false
			return fmt.Errorf("upsert hunt %d: %w", hunt.HuntID, err)
		}
		return nil
	})
}

func (s *GormStore) DeactivateHunts(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Hunt{}).
		Where("is_active = ?", true).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (s *GormStore) InsertGuess(ctx context.Context, guess *models.Guess) error {
	return s.DB.WithContext(ctx).Create(guess).Error
}

func (s *GormStore) GuessesForHunt(ctx context.Context, huntID int64) ([]models.Guess, error) {
	var guesses []models.Guess
	err := s.DB.WithContext(ctx).
		Where("hunt_id = ?", huntID).
		Order("created_at ASC, id ASC").
		Find(&guesses).Error
	return guesses, err
}

func (s *GormStore) RecentGuesses(ctx context.Context, limit int) ([]models.Guess, error) {
	var guesses []models.Guess
	err := s.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&guesses).Error
	return guesses, err
}

func (s *GormStore) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	if profile.Role == "" {
		profile.Role = models.RoleUser
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_name", "avatar_url", "email", "updated_at"}),
	}).Create(profile).Error
}

func (s *GormStore) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.DB.WithContext(ctx).First(&profile, "id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

func (s *GormStore) SetRole(ctx context.Context, userID, role string) error {
	res := s.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) RevokeSession(ctx context.Context, revoked *models.RevokedSession) error {
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(revoked).Error
}

func (s *GormStore) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.RevokedSession{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) PurgeExpiredRevocations(ctx context.Context, before time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&models.RevokedSession{})
	return res.RowsAffected, res.Error
}
