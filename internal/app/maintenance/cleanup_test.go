package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	iauth "github.com/muhammadNahidul/social-media-API/internal/auth"
	"github.com/muhammadNahidul/social-media-API/internal/database/testutil"
	"github.com/muhammadNahidul/social-media-API/internal/models"
	"github.com/muhammadNahidul/social-media-API/internal/services"
)

func TestRunOnceSweepsSessionsAndCodes(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	base := time.Now()
	clock := base

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret"})
	require.NoError(t, err)
	sessions, err := iauth.NewSessionService(db, jwtSvc, iauth.SessionConfig{
		RefreshTokenTTL: time.Hour,
		Clock:           func() time.Time { return clock },
	})
	require.NoError(t, err)
	otp, err := services.NewOTPService(db, nil, services.WithOTPClock(func() time.Time { return clock }))
	require.NoError(t, err)

	user := &models.User{Email: "jane@example.com", Password: "hash", IsVerified: true}
	require.NoError(t, db.Create(user).Error)

	_, _, err = sessions.CreateSession(user, iauth.SessionMetadata{})
	require.NoError(t, err)
	_, err = otp.Issue(context.Background(), user.ID, user.Email)
	require.NoError(t, err)

	cleaner := NewCleaner(sessions, otp)

	// nothing is stale yet
	require.NoError(t, cleaner.RunOnce(context.Background()))

	var sessionCount, otpCount int64
	require.NoError(t, db.Model(&models.Session{}).Count(&sessionCount).Error)
	require.NoError(t, db.Model(&models.EmailOTP{}).Count(&otpCount).Error)
	require.EqualValues(t, 1, sessionCount)
	require.EqualValues(t, 1, otpCount)

	clock = base.Add(2 * time.Hour)
	require.NoError(t, cleaner.RunOnce(context.Background()))

	require.NoError(t, db.Model(&models.Session{}).Count(&sessionCount).Error)
	require.NoError(t, db.Model(&models.EmailOTP{}).Count(&otpCount).Error)
	require.Zero(t, sessionCount)
	require.Zero(t, otpCount)
}

func TestStartWithoutDependenciesIsNoop(t *testing.T) {
	cleaner := NewCleaner(nil, nil)
	require.NoError(t, cleaner.Start())
	<-cleaner.Stop().Done()
}
