// models/hunt.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Hunt is one bonus hunt round. At most one row has IsActive set; the partial
// unique index created by the store enforces it.
type Hunt struct {
	HuntID           int64               `json:"hunt_id" gorm:"column:hunt_id;primaryKey;autoIncrement:false"`
	BonusCount       int                 `json:"bonuses" gorm:"column:bonuses;not null"`
	StartingBalance  decimal.Decimal     `json:"starting_bal" gorm:"column:starting_bal;type:numeric(14,2);not null"`
	EndingBalance    decimal.NullDecimal `json:"ending_bal" gorm:"column:ending_bal;type:numeric(14,2)"`
	IsActive         bool                `json:"is_active" gorm:"not null"`
	AllowGuesses     bool                `json:"allow_guesses" gorm:"not null"`
	AllowLeaderboard bool                `json:"allow_leaderboard" gorm:"not null"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Hunt) TableName() string { return "bonus_hunts" }

// EndingKnown reports whether the final balance has been recorded.
func (h *Hunt) EndingKnown() bool {
	return h.EndingBalance.Valid
}

// LeaderboardVisible reports whether players may see the ranking.
func (h *Hunt) LeaderboardVisible() bool {
	return h.AllowLeaderboard && h.EndingKnown()
}
