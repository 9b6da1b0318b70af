package models

import "time"

// Session tracks a refresh token issued at login. Refreshing rotates the
// token; logout revokes the session.
type Session struct {
	BaseModel

	UserID       string `gorm:"type:uuid;not null;index" json:"user_id"`
	RefreshToken string `gorm:"uniqueIndex;not null" json:"-"`

	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`

	ExpiresAt  time.Time  `gorm:"index" json:"expires_at"`
	LastUsedAt time.Time  `json:"last_used_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
}
