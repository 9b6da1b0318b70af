package models

import "time"

// User is the account identity. Registration creates it unverified; the
// verified flag flips exactly once after a successful OTP check.
type User struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	IsVerified bool `gorm:"default:false" json:"is_verified"`

	LastLoginAt *time.Time `json:"last_login_at"`
	LastLoginIP string     `json:"-"`

	Profile  *Profile  `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	Sessions []Session `gorm:"foreignKey:UserID" json:"-"`
}
