package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile mirrors a Discord account that has signed in at least once.
type Profile struct {
	ID        string  `json:"id" gorm:"primaryKey"` // Discord user ID
	UserName  string  `json:"user_name" gorm:"not null"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Email     string  `json:"-"`
	Role      string  `json:"role" gorm:"not null;default:'user';index"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// RevokedSession records a signed-out session token until it would have expired anyway.
type RevokedSession struct {
	SessionID string    `gorm:"primaryKey"` // jti claim
	UserID    string    `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
