package models

import "time"

// Profile holds the public identity of a user. Exactly one profile exists per
// user, and the slug is assigned at creation and never changes afterwards.
type Profile struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User   *User  `json:"-"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	AvatarURL string `json:"avatar_url"`

	IsPrivate bool `gorm:"default:false" json:"is_private"`

	LastActiveAt *time.Time `json:"last_active_at"`

	// Social links come in (name, url) pairs; a pair is either fully present
	// or fully absent.
	Link1Name string `json:"link1_name"`
	Link1URL  string `json:"link1_url"`
	Link2Name string `json:"link2_name"`
	Link2URL  string `json:"link2_url"`
	Link3Name string `json:"link3_name"`
	Link3URL  string `json:"link3_url"`

	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
}
