package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/muhammadNahidul/social-media-API/internal/database/testutil"
	"github.com/muhammadNahidul/social-media-API/internal/models"
	"github.com/muhammadNahidul/social-media-API/pkg/crypto"
)

func newAccountFixture(t *testing.T) (*AccountService, *OTPService, *gorm.DB, *recordingMailer) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	mailer := &recordingMailer{}

	otp, err := NewOTPService(db, mailer)
	require.NoError(t, err)

	svc, err := NewAccountService(db, otp)
	require.NoError(t, err)

	return svc, otp, db, mailer
}

func TestRegisterCreatesUnverifiedUser(t *testing.T) {
	svc, _, db, _ := newAccountFixture(t)

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Jane@Example.COM ",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", user.Email)
	require.False(t, user.IsVerified)
	require.NotEqual(t, "s3cret-pass", user.Password)
	require.True(t, crypto.VerifyPassword(user.Password, "s3cret-pass"))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newAccountFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "jane@example.com", Password: "pass-one"})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "JANE@example.com", Password: "pass-two"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestSendVerificationCodeEmailsTheUser(t *testing.T) {
	svc, _, _, mailer := newAccountFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "jane@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	require.NoError(t, svc.SendVerificationCode(context.Background(), "jane@example.com"))
	require.Len(t, mailer.sent(), 1)

	require.ErrorIs(t, svc.SendVerificationCode(context.Background(), "ghost@example.com"), ErrAccountNotFound)
}

func TestAuthenticateFullFlow(t *testing.T) {
	svc, otp, _, _ := newAccountFixture(t)

	user, err := svc.Register(context.Background(), RegisterInput{Email: "jane@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	// login is blocked until the account verifies
	_, err = svc.Authenticate(context.Background(), "jane@example.com", "s3cret-pass", "")
	require.ErrorIs(t, err, ErrAccountNotVerified)

	code, err := otp.Issue(context.Background(), user.ID, user.Email)
	require.NoError(t, err)
	_, err = otp.Verify(context.Background(), user.Email, code)
	require.NoError(t, err)

	authed, err := svc.Authenticate(context.Background(), "Jane@Example.com", "s3cret-pass", "203.0.113.9")
	require.NoError(t, err)
	require.Equal(t, user.ID, authed.ID)
	require.NotNil(t, authed.LastLoginAt)
}

func TestAuthenticateSameErrorForUnknownEmailAndWrongPassword(t *testing.T) {
	svc, _, _, _ := newAccountFixture(t)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "jane@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	_, unknownErr := svc.Authenticate(context.Background(), "ghost@example.com", "whatever", "")
	_, wrongErr := svc.Authenticate(context.Background(), "jane@example.com", "wrong-pass", "")

	require.ErrorIs(t, unknownErr, ErrInvalidLogin)
	require.ErrorIs(t, wrongErr, ErrInvalidLogin)
}

func TestGetByID(t *testing.T) {
	svc, _, _, _ := newAccountFixture(t)

	user, err := svc.Register(context.Background(), RegisterInput{Email: "jane@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)

	loaded, err := svc.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Email, loaded.Email)

	_, err = svc.GetByID(context.Background(), "missing-id")
	require.ErrorIs(t, err, ErrAccountNotFound)
}
