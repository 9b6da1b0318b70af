package database

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/muhammadNahidul/social-media-API/internal/models"
)

func TestOpenSQLiteInMemoryAndMigrate(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"users", "email_otps", "sessions", "profiles", "follows"} {
		require.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
}

func TestFollowUniquePairEnforced(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, AutoMigrate(db))

	// profiles need backing users; foreign keys are enforced on sqlite
	userA := models.User{Email: "a@example.com", Password: "hash"}
	userB := models.User{Email: "b@example.com", Password: "hash"}
	require.NoError(t, db.Create(&userA).Error)
	require.NoError(t, db.Create(&userB).Error)

	a := models.Profile{UserID: userA.ID, FirstName: "A", Slug: "a"}
	b := models.Profile{UserID: userB.ID, FirstName: "B", Slug: "b"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)

	first := models.Follow{FollowerID: a.ID, FollowingID: b.ID}
	require.NoError(t, db.Create(&first).Error)

	duplicate := models.Follow{FollowerID: a.ID, FollowingID: b.ID}
	require.Error(t, db.Create(&duplicate).Error, "duplicate ordered pair must violate the unique index")

	// the reverse edge is a different ordered pair and remains legal
	reverse := models.Follow{FollowerID: b.ID, FollowingID: a.ID}
	require.NoError(t, db.Create(&reverse).Error)
}
