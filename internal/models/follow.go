package models

// Follow is a directed edge in the social graph: follower follows following.
// The composite unique index guarantees at most one edge per ordered pair.
type Follow struct {
	BaseModel

	FollowerID  string `gorm:"type:uuid;not null;index;uniqueIndex:idx_follows_follower_following" json:"follower_id"`
	FollowingID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_follows_follower_following" json:"following_id"`

	Follower  *Profile `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Following *Profile `gorm:"foreignKey:FollowingID" json:"following,omitempty"`
}
