package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/muhammadNahidul/social-media-API/internal/models"
	"github.com/muhammadNahidul/social-media-API/pkg/crypto"
	"github.com/muhammadNahidul/social-media-API/pkg/logger"
	"github.com/muhammadNahidul/social-media-API/pkg/metrics"
)

var (
	// ErrEmailTaken is returned when registering with an address already on file.
	ErrEmailTaken = errors.New("account service: email already registered")
	// ErrInvalidLogin covers both unknown email and wrong password.
	ErrInvalidLogin = errors.New("account service: email or password not correct")
	// ErrAccountNotVerified blocks login until the email code has been confirmed.
	ErrAccountNotVerified = errors.New("account service: account not verified")
	// ErrAccountNotFound indicates no account exists for the identifier.
	ErrAccountNotFound = errors.New("account service: account not found")
)

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Email    string
	Password string
}

// AccountService owns account lifecycle: registration, credential checks and
// verification-code dispatch.
type AccountService struct {
	db  *gorm.DB
	otp *OTPService
	now func() time.Time
}

// AccountOption customises the AccountService.
type AccountOption func(*AccountService)

// WithAccountClock injects a custom time source.
func WithAccountClock(clock func() time.Time) AccountOption {
	return func(s *AccountService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewAccountService constructs an account service.
func NewAccountService(db *gorm.DB, otp *OTPService, opts ...AccountOption) (*AccountService, error) {
	if db == nil {
		return nil, errors.New("account service: db is required")
	}
	if otp == nil {
		return nil, errors.New("account service: otp service is required")
	}

	service := &AccountService{db: db, otp: otp, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Register creates an unverified account with a hashed password. Verification
// mail dispatch is the caller's concern so a slow SMTP server never blocks or
// rolls back the signup itself.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	ctx = ensuredContext(ctx)

	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, errors.New("account service: email is required")
	}
	if input.Password == "" {
		return nil, errors.New("account service: password is required")
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account service: hash password: %w", err)
	}

	user := models.User{
		Email:    email,
		Password: hash,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("account service: create user: %w", err)
	}

	return &user, nil
}

// SendVerificationCode issues a fresh code for the account and emails it.
func (s *AccountService) SendVerificationCode(ctx context.Context, email string) error {
	ctx = ensuredContext(ctx)

	email = normalizeEmail(email)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAccountNotFound
	}
	if err != nil {
		return fmt.Errorf("account service: find user: %w", err)
	}

	if _, err := s.otp.Issue(ctx, user.ID, user.Email); err != nil {
		return err
	}

	logger.WithModule("accounts").Debug("verification code issued",
		zap.String("user_id", user.ID))
	return nil
}

// Authenticate checks credentials and the verified flag. The same error is
// returned for unknown email and wrong password so responses never reveal
// which one failed.
func (s *AccountService) Authenticate(ctx context.Context, email, password, clientIP string) (*models.User, error) {
	ctx = ensuredContext(ctx)

	email = normalizeEmail(email)

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidLogin
	}
	if err != nil {
		return nil, fmt.Errorf("account service: find user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrInvalidLogin
	}

	if !user.IsVerified {
		metrics.AuthAttempts.WithLabelValues("unverified").Inc()
		return nil, ErrAccountNotVerified
	}

	now := s.now()
	updates := map[string]any{"last_login_at": now}
	if clientIP != "" {
		updates["last_login_ip"] = clientIP
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		logger.WithModule("accounts").Warn("failed to record last login",
			zap.String("user_id", user.ID), zap.Error(err))
	}
	user.LastLoginAt = &now

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, nil
}

// GetByID loads an account by primary key.
func (s *AccountService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	ctx = ensuredContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Take(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("account service: load user: %w", err)
	}
	return &user, nil
}
