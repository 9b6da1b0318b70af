package models

import "time"

// EmailOTP stores a pending one-time code for account verification.
// Issuing a new code replaces any previous record for the user, and a
// successful verification consumes the record so the code cannot be replayed.
type EmailOTP struct {
	BaseModel

	UserID     string     `gorm:"type:uuid;not null;index" json:"user_id"`
	CodeHash   string     `gorm:"not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"index" json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at"`
}
