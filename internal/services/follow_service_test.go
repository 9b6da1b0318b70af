package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/muhammadNahidul/social-media-API/internal/database/testutil"
	"github.com/muhammadNahidul/social-media-API/internal/models"
)

func newFollowFixture(t *testing.T) (*FollowService, *gorm.DB, *models.Profile, *models.Profile) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	svc, err := NewFollowService(db)
	require.NoError(t, err)

	profiles, err := NewProfileService(db)
	require.NoError(t, err)

	jane := createTestUser(t, db, "jane@example.com")
	john := createTestUser(t, db, "john@example.com")

	janeProfile, err := profiles.Create(context.Background(), jane.ID, CreateProfileInput{FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	johnProfile, err := profiles.Create(context.Background(), john.ID, CreateProfileInput{FirstName: "John", LastName: "Doe"})
	require.NoError(t, err)

	return svc, db, janeProfile, johnProfile
}

func TestToggleCreatesThenRemovesEdge(t *testing.T) {
	svc, db, jane, john := newFollowFixture(t)

	result, err := svc.Toggle(context.Background(), jane.ID, john.ID)
	require.NoError(t, err)
	require.Equal(t, ToggleFollowed, result)

	following, err := svc.IsFollowing(context.Background(), jane.ID, john.ID)
	require.NoError(t, err)
	require.True(t, following)

	result, err = svc.Toggle(context.Background(), jane.ID, john.ID)
	require.NoError(t, err)
	require.Equal(t, ToggleUnfollowed, result)

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	require.Zero(t, count)

	// toggling a third time follows again
	result, err = svc.Toggle(context.Background(), jane.ID, john.ID)
	require.NoError(t, err)
	require.Equal(t, ToggleFollowed, result)
}

func TestToggleRemovesEdgeWhenCreateRaceIsLost(t *testing.T) {
	svc, db, jane, john := newFollowFixture(t)

	// slip a rival edge onto the same connection right before the insert so
	// the unique pair index fires deterministically
	armed := true
	err := db.Callback().Create().Before("gorm:create").Register("rival_follow", func(tx *gorm.DB) {
		if !armed {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.Follow); !ok {
			return
		}
		armed = false
		rival := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO follows (id, created_at, updated_at, follower_id, following_id) VALUES (?, ?, ?, ?, ?)",
			uuid.NewString(), time.Now(), time.Now(), jane.ID, john.ID,
		)
		require.NoError(t, rival.Error)
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Callback().Create().Remove("rival_follow") })

	result, err := svc.Toggle(context.Background(), jane.ID, john.ID)
	require.NoError(t, err)
	require.Equal(t, ToggleUnfollowed, result)
	require.False(t, armed, "rival insert never ran")

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&count).Error)
	require.Zero(t, count, "lost create race must leave no edge behind")
}

func TestToggleRejectsSelfFollow(t *testing.T) {
	svc, _, jane, _ := newFollowFixture(t)

	_, err := svc.Toggle(context.Background(), jane.ID, jane.ID)
	require.ErrorIs(t, err, ErrSelfFollow)
}

func TestToggleRequiresExistingProfiles(t *testing.T) {
	svc, _, jane, _ := newFollowFixture(t)

	_, err := svc.Toggle(context.Background(), jane.ID, "missing-profile")
	require.ErrorIs(t, err, ErrProfileNotFound)

	_, err = svc.Toggle(context.Background(), "missing-profile", jane.ID)
	require.ErrorIs(t, err, ErrProfileNotFound)
}

func TestReverseEdgesAreIndependent(t *testing.T) {
	svc, _, jane, john := newFollowFixture(t)

	_, err := svc.Toggle(context.Background(), jane.ID, john.ID)
	require.NoError(t, err)
	_, err = svc.Toggle(context.Background(), john.ID, jane.ID)
	require.NoError(t, err)

	janeFollowsJohn, err := svc.IsFollowing(context.Background(), jane.ID, john.ID)
	require.NoError(t, err)
	johnFollowsJane, err := svc.IsFollowing(context.Background(), john.ID, jane.ID)
	require.NoError(t, err)
	require.True(t, janeFollowsJohn)
	require.True(t, johnFollowsJane)

	// removing one direction leaves the other intact
	_, err = svc.Toggle(context.Background(), jane.ID, john.ID)
	require.NoError(t, err)

	johnFollowsJane, err = svc.IsFollowing(context.Background(), john.ID, jane.ID)
	require.NoError(t, err)
	require.True(t, johnFollowsJane)
}

func TestFollowersAndFollowingLists(t *testing.T) {
	svc, db, jane, john := newFollowFixture(t)

	profiles, err := NewProfileService(db)
	require.NoError(t, err)
	mary := createTestUser(t, db, "mary@example.com")
	maryProfile, err := profiles.Create(context.Background(), mary.ID, CreateProfileInput{FirstName: "Mary", LastName: "Doe"})
	require.NoError(t, err)

	_, err = svc.Toggle(context.Background(), jane.ID, john.ID)
	require.NoError(t, err)
	_, err = svc.Toggle(context.Background(), maryProfile.ID, john.ID)
	require.NoError(t, err)
	_, err = svc.Toggle(context.Background(), john.ID, jane.ID)
	require.NoError(t, err)

	followers, err := svc.Followers(context.Background(), john.ID)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	require.Equal(t, jane.ID, followers[0].ID)
	require.Equal(t, maryProfile.ID, followers[1].ID)

	following, err := svc.Following(context.Background(), john.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	require.Equal(t, jane.ID, following[0].ID)

	janeFollowers, janeFollowing, err := svc.Counts(context.Background(), jane.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, janeFollowers)
	require.EqualValues(t, 1, janeFollowing)

	_, err = svc.Followers(context.Background(), "missing-profile")
	require.ErrorIs(t, err, ErrProfileNotFound)
}
