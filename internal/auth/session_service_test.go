package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/muhammadNahidul/social-media-API/internal/database/testutil"
	"github.com/muhammadNahidul/social-media-API/internal/models"
)

func newSessionFixture(t *testing.T, cfg SessionConfig) (*SessionService, *gorm.DB, *models.User) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	jwtSvc, err := NewJWTService(JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)

	svc, err := NewSessionService(db, jwtSvc, cfg)
	require.NoError(t, err)

	user := &models.User{Email: "a@x.com", Password: "hash", IsVerified: true}
	require.NoError(t, db.Create(user).Error)

	return svc, db, user
}

func TestCreateSessionIssuesTokenPair(t *testing.T) {
	svc, db, user := newSessionFixture(t, SessionConfig{})

	pair, session, err := svc.CreateSession(user, SessionMetadata{IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, user.ID, session.UserID)

	var stored models.Session
	require.NoError(t, db.Take(&stored, "id = ?", session.ID).Error)
	require.Equal(t, pair.RefreshToken, stored.RefreshToken)
}

func TestRefreshSessionRotatesToken(t *testing.T) {
	svc, _, user := newSessionFixture(t, SessionConfig{})

	pair, _, err := svc.CreateSession(user, SessionMetadata{})
	require.NoError(t, err)

	rotated, session, err := svc.RefreshSession(pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)
	require.Equal(t, user.ID, session.UserID)

	// the old token is gone after rotation
	_, _, err = svc.RefreshSession(pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRefreshSessionRejectsExpired(t *testing.T) {
	base := time.Now()
	clock := base
	svc, _, user := newSessionFixture(t, SessionConfig{
		RefreshTokenTTL: time.Hour,
		Clock:           func() time.Time { return clock },
	})

	pair, _, err := svc.CreateSession(user, SessionMetadata{})
	require.NoError(t, err)

	clock = base.Add(2 * time.Hour)
	_, _, err = svc.RefreshSession(pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestRevokeSessionBlocksRefresh(t *testing.T) {
	svc, _, user := newSessionFixture(t, SessionConfig{})

	pair, session, err := svc.CreateSession(user, SessionMetadata{})
	require.NoError(t, err)

	require.NoError(t, svc.RevokeSession(session.ID))
	require.ErrorIs(t, svc.RevokeSession(session.ID), ErrSessionNotFound)

	_, _, err = svc.RefreshSession(pair.RefreshToken)
	require.ErrorIs(t, err, ErrSessionRevoked)
}

func TestCleanupExpiredRemovesStaleSessions(t *testing.T) {
	base := time.Now()
	clock := base
	svc, db, user := newSessionFixture(t, SessionConfig{
		RefreshTokenTTL: time.Hour,
		Clock:           func() time.Time { return clock },
	})

	_, session, err := svc.CreateSession(user, SessionMetadata{})
	require.NoError(t, err)
	require.NoError(t, svc.RevokeSession(session.ID))

	_, _, err = svc.CreateSession(user, SessionMetadata{})
	require.NoError(t, err)

	clock = base.Add(30 * time.Minute)
	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed, "only the revoked session should be swept")

	var remaining int64
	require.NoError(t, db.Model(&models.Session{}).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
}
