package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/muhammadNahidul/social-media-API/internal/database/testutil"
	"github.com/muhammadNahidul/social-media-API/internal/models"
	"github.com/muhammadNahidul/social-media-API/pkg/mail"
)

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}

func newOTPFixture(t *testing.T, opts ...OTPOption) (*OTPService, *gorm.DB, *models.User, *recordingMailer) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	mailer := &recordingMailer{}

	svc, err := NewOTPService(db, mailer, opts...)
	require.NoError(t, err)

	user := &models.User{Email: "jane@example.com", Password: "hash"}
	require.NoError(t, db.Create(user).Error)

	return svc, db, user, mailer
}

func TestIssueStoresHashedCodeAndSendsMail(t *testing.T) {
	svc, db, user, mailer := newOTPFixture(t)

	code, err := svc.Issue(context.Background(), user.ID, user.Email)
	require.NoError(t, err)
	require.Len(t, code, 6)

	var record models.EmailOTP
	require.NoError(t, db.Take(&record, "user_id = ?", user.ID).Error)
	require.NotEqual(t, code, record.CodeHash, "plaintext code must never be stored")
	require.Equal(t, otpHash(code), record.CodeHash)
	require.Nil(t, record.ConsumedAt)

	sent := mailer.sent()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"jane@example.com"}, sent[0].To)
	require.Contains(t, sent[0].Body, code)
}

func TestIssueReplacesPendingCode(t *testing.T) {
	svc, db, user, _ := newOTPFixture(t)

	first, err := svc.Issue(context.Background(), user.ID, user.Email)
	require.NoError(t, err)
	second, err := svc.Issue(context.Background(), user.ID, user.Email)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.EmailOTP{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	// the first code no longer verifies unless it happened to collide
	if first != second {
		_, err = svc.Verify(context.Background(), user.Email, first)
		require.ErrorIs(t, err, ErrOTPMismatch)
	}
}

func TestVerifyMarksUserVerifiedAndConsumesCode(t *testing.T) {
	svc, db, user, _ := newOTPFixture(t)

	code, err := svc.Issue(context.Background(), user.ID, user.Email)
	require.NoError(t, err)

	verified, err := svc.Verify(context.Background(), user.Email, code)
	require.NoError(t, err)
	require.True(t, verified.IsVerified)

	var stored models.User
	require.NoError(t, db.Take(&stored, "id = ?", user.ID).Error)
	require.True(t, stored.IsVerified)

	var record models.EmailOTP
	require.NoError(t, db.Take(&record, "user_id = ?", user.ID).Error)
	require.NotNil(t, record.ConsumedAt)

	// consumed codes are single use
	_, err = svc.Verify(context.Background(), user.Email, code)
	require.ErrorIs(t, err, ErrOTPMismatch)
}

func TestVerifyRejectsWrongCodeWithoutSideEffects(t *testing.T) {
	svc, db, user, _ := newOTPFixture(t)

	code, err := svc.Issue(context.Background(), user.ID, user.Email)
	require.NoError(t, err)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, err = svc.Verify(context.Background(), user.Email, wrong)
	require.ErrorIs(t, err, ErrOTPMismatch)

	var stored models.User
	require.NoError(t, db.Take(&stored, "id = ?", user.ID).Error)
	require.False(t, stored.IsVerified)

	// the pending code survives the failed attempt
	verified, err := svc.Verify(context.Background(), user.Email, code)
	require.NoError(t, err)
	require.True(t, verified.IsVerified)
}

func TestVerifyRejectsExpiredCode(t *testing.T) {
	base := time.Now()
	clock := base

	svc, _, user, _ := newOTPFixture(t, WithOTPClock(func() time.Time { return clock }))

	code, err := svc.Issue(context.Background(), user.ID, user.Email)
	require.NoError(t, err)

	clock = base.Add(11 * time.Minute)
	_, err = svc.Verify(context.Background(), user.Email, code)
	require.ErrorIs(t, err, ErrOTPExpired)
}

func TestVerifyUnknownEmail(t *testing.T) {
	svc, _, _, _ := newOTPFixture(t)

	_, err := svc.Verify(context.Background(), "nobody@example.com", "123456")
	require.ErrorIs(t, err, ErrOTPUserNotFound)
}

func TestCleanupExpiredSweepsStaleCodes(t *testing.T) {
	base := time.Now()
	clock := base

	svc, db, user, _ := newOTPFixture(t, WithOTPClock(func() time.Time { return clock }))

	code, err := svc.Issue(context.Background(), user.ID, user.Email)
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), user.Email, code)
	require.NoError(t, err)

	other := &models.User{Email: "john@example.com", Password: "hash"}
	require.NoError(t, db.Create(other).Error)
	_, err = svc.Issue(context.Background(), other.ID, other.Email)
	require.NoError(t, err)

	// the consumed code is swept, the fresh pending one stays
	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	clock = base.Add(time.Hour)
	removed, err = svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
}
