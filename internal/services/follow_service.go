package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/muhammadNahidul/social-media-API/internal/models"
	"github.com/muhammadNahidul/social-media-API/pkg/metrics"
)

// ErrSelfFollow is returned when a profile tries to follow itself.
var ErrSelfFollow = errors.New("follow service: cannot follow yourself")

// ToggleResult reports what a toggle call did.
type ToggleResult string

const (
	// ToggleFollowed means a new follow edge was created.
	ToggleFollowed ToggleResult = "followed"
	// ToggleUnfollowed means an existing follow edge was removed.
	ToggleUnfollowed ToggleResult = "unfollowed"
)

// FollowService manages the directed follow graph between profiles.
type FollowService struct {
	db *gorm.DB
}

// NewFollowService constructs a follow service.
func NewFollowService(db *gorm.DB) (*FollowService, error) {
	if db == nil {
		return nil, errors.New("follow service: db is required")
	}
	return &FollowService{db: db}, nil
}

// Toggle flips the follow edge from follower to following: it removes the
// edge when present and creates it otherwise. Two requests racing to create
// the same edge are serialised by the unique pair index; the loser treats
// the rival's edge as the existing one and removes it, the same outcome as
// toggling against an edge that was already there.
func (s *FollowService) Toggle(ctx context.Context, followerID, followingID string) (ToggleResult, error) {
	ctx = ensuredContext(ctx)

	if followerID == followingID {
		metrics.FollowToggles.WithLabelValues("rejected").Inc()
		return "", ErrSelfFollow
	}

	if err := s.ensureProfileExists(ctx, followerID); err != nil {
		return "", err
	}
	if err := s.ensureProfileExists(ctx, followingID); err != nil {
		return "", err
	}

	var result ToggleResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deleted := tx.
			Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&models.Follow{})
		if deleted.Error != nil {
			return fmt.Errorf("follow service: remove edge: %w", deleted.Error)
		}
		if deleted.RowsAffected > 0 {
			result = ToggleUnfollowed
			return nil
		}

		edge := models.Follow{FollowerID: followerID, FollowingID: followingID}
		if err := tx.Create(&edge).Error; err != nil {
			return fmt.Errorf("follow service: create edge: %w", err)
		}
		result = ToggleFollowed
		return nil
	})
	if err != nil {
		if !isUniqueConstraintError(err) {
			return "", err
		}
		// another request created the edge between our delete and insert;
		// the edge exists now, so this toggle removes it
		removed := s.db.WithContext(ctx).
			Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&models.Follow{})
		if removed.Error != nil {
			return "", fmt.Errorf("follow service: remove rival edge: %w", removed.Error)
		}
		result = ToggleUnfollowed
	}

	switch result {
	case ToggleFollowed:
		metrics.FollowToggles.WithLabelValues("created").Inc()
	case ToggleUnfollowed:
		metrics.FollowToggles.WithLabelValues("deleted").Inc()
	}
	return result, nil
}

// IsFollowing reports whether the directed edge exists.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	ctx = ensuredContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("follow service: check edge: %w", err)
	}
	return count > 0, nil
}

// Followers returns the profiles following the given profile, oldest
// follower first.
func (s *FollowService) Followers(ctx context.Context, profileID string) ([]models.Profile, error) {
	ctx = ensuredContext(ctx)

	if err := s.ensureProfileExists(ctx, profileID); err != nil {
		return nil, err
	}

	var profiles []models.Profile
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = profiles.id").
		Where("follows.following_id = ?", profileID).
		Order("follows.created_at").
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("follow service: list followers: %w", err)
	}
	return profiles, nil
}

// Following returns the profiles the given profile follows, oldest first.
func (s *FollowService) Following(ctx context.Context, profileID string) ([]models.Profile, error) {
	ctx = ensuredContext(ctx)

	if err := s.ensureProfileExists(ctx, profileID); err != nil {
		return nil, err
	}

	var profiles []models.Profile
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.following_id = profiles.id").
		Where("follows.follower_id = ?", profileID).
		Order("follows.created_at").
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("follow service: list following: %w", err)
	}
	return profiles, nil
}

// Counts returns follower and following totals for a profile.
func (s *FollowService) Counts(ctx context.Context, profileID string) (followers, following int64, err error) {
	ctx = ensuredContext(ctx)

	err = s.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("following_id = ?", profileID).
		Count(&followers).Error
	if err != nil {
		return 0, 0, fmt.Errorf("follow service: count followers: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", profileID).
		Count(&following).Error
	if err != nil {
		return 0, 0, fmt.Errorf("follow service: count following: %w", err)
	}
	return followers, following, nil
}

func (s *FollowService) ensureProfileExists(ctx context.Context, profileID string) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", profileID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("follow service: check profile: %w", err)
	}
	if count == 0 {
		return ErrProfileNotFound
	}
	return nil
}
