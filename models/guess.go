package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Guess is a player's prediction of a hunt's ending balance. One per user per hunt.
type Guess struct {
	ID       string          `json:"id" gorm:"primaryKey;type:uuid"`
	HuntID   int64           `json:"hunt_id" gorm:"not null;index;uniqueIndex:idx_guesses_user_hunt,priority:2"`
	UserID   string          `json:"user_id" gorm:"not null;uniqueIndex:idx_guesses_user_hunt,priority:1"`
	UserName string          `json:"user_name" gorm:"not null"`
	Value    decimal.Decimal `json:"guess" gorm:"column:guess;type:numeric(14,2);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`

	Hunt *Hunt `json:"-" gorm:"foreignKey:HuntID;references:HuntID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Guess) TableName() string { return "guesses" }
