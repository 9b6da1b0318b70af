package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/muhammadNahidul/social-media-API/internal/models"
	"github.com/muhammadNahidul/social-media-API/pkg/crypto"
	"github.com/muhammadNahidul/social-media-API/pkg/mail"
	"github.com/muhammadNahidul/social-media-API/pkg/metrics"
)

const defaultOTPExpiry = 10 * time.Minute

var (
	// ErrOTPUserNotFound indicates no account exists for the supplied email.
	ErrOTPUserNotFound = errors.New("otp service: user not found")
	// ErrOTPMismatch is returned when the submitted code does not match the pending one.
	ErrOTPMismatch = errors.New("otp service: wrong otp")
	// ErrOTPExpired signals that the pending code has passed its expiry.
	ErrOTPExpired = errors.New("otp service: code expired")
)

// OTPOption customises the OTPService.
type OTPOption func(*OTPService)

// WithOTPExpiry overrides the pending-code lifetime.
func WithOTPExpiry(d time.Duration) OTPOption {
	return func(s *OTPService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithOTPClock injects a custom time source.
func WithOTPClock(clock func() time.Time) OTPOption {
	return func(s *OTPService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// OTPService issues and verifies the one-time numeric codes used for account
// verification. Issuing replaces any pending code; a successful verification
// consumes the code and flips the account's verified flag.
type OTPService struct {
	db     *gorm.DB
	mailer mail.Mailer
	expiry time.Duration
	now    func() time.Time
}

// NewOTPService constructs an OTP service with the provided dependencies.
func NewOTPService(db *gorm.DB, mailer mail.Mailer, opts ...OTPOption) (*OTPService, error) {
	if db == nil {
		return nil, errors.New("otp service: db is required")
	}

	service := &OTPService{
		db:     db,
		mailer: mailer,
		expiry: defaultOTPExpiry,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// Issue generates a six digit code for the given account, replaces any
// pending code, and emails it to the user. The plaintext code is returned so
// callers can log or test against it.
func (s *OTPService) Issue(ctx context.Context, userID, email string) (string, error) {
	ctx = ensuredContext(ctx)

	email = normalizeEmail(email)
	if userID == "" || email == "" {
		return "", errors.New("otp service: user id and email are required")
	}

	code, err := crypto.GenerateOTPCode()
	if err != nil {
		return "", fmt.Errorf("otp service: generate code: %w", err)
	}

	now := s.now()
	record := models.EmailOTP{
		UserID:    userID,
		CodeHash:  otpHash(code),
		ExpiresAt: now.Add(s.expiry),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.EmailOTP{}).Error; err != nil {
			return fmt.Errorf("otp service: replace pending code: %w", err)
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("otp service: store code: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if s.mailer != nil {
		message := mail.Message{
			To:      []string{email},
			Subject: "Your verification mail",
			Body:    fmt.Sprintf("Your otp %s\n", code),
		}
		if mailErr := s.mailer.Send(ctx, message); mailErr != nil && !errors.Is(mailErr, mail.ErrSMTPDisabled) {
			return "", fmt.Errorf("otp service: send email: %w", mailErr)
		}
	}

	return code, nil
}

// Verify checks the submitted code against the pending one for the account.
// On success the pending record is consumed and the user becomes verified; a
// mismatch leaves all state untouched.
func (s *OTPService) Verify(ctx context.Context, email, code string) (*models.User, error) {
	ctx = ensuredContext(ctx)

	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrOTPUserNotFound
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.OTPVerifications.WithLabelValues("not_found").Inc()
		return nil, ErrOTPUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("otp service: find user: %w", err)
	}

	var pending models.EmailOTP
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND consumed_at IS NULL", user.ID).
		Order("created_at DESC").
		Take(&pending).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.OTPVerifications.WithLabelValues("mismatch").Inc()
		return nil, ErrOTPMismatch
	}
	if err != nil {
		return nil, fmt.Errorf("otp service: find pending code: %w", err)
	}

	now := s.now()
	if pending.ExpiresAt.Before(now) {
		metrics.OTPVerifications.WithLabelValues("expired").Inc()
		return nil, ErrOTPExpired
	}

	if pending.CodeHash != otpHash(code) {
		metrics.OTPVerifications.WithLabelValues("mismatch").Inc()
		return nil, ErrOTPMismatch
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&pending).Update("consumed_at", now).Error; err != nil {
			return fmt.Errorf("otp service: consume code: %w", err)
		}
		if err := tx.Model(&user).Update("is_verified", true).Error; err != nil {
			return fmt.Errorf("otp service: mark verified: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OTPVerifications.WithLabelValues("verified").Inc()

	user.IsVerified = true
	return &user, nil
}

func otpHash(code string) string {
	digest := sha256.Sum256([]byte(code))
	return hex.EncodeToString(digest[:])
}

// CleanupExpired removes consumed and expired codes. Called by the
// maintenance sweeper.
func (s *OTPService) CleanupExpired(ctx context.Context) (int64, error) {
	now := s.now()
	result := s.db.WithContext(ctx).
		Where("expires_at < ? OR consumed_at IS NOT NULL", now).
		Delete(&models.EmailOTP{})
	if result.Error != nil {
		return 0, fmt.Errorf("otp service: cleanup expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}
