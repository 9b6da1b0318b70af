package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/muhammadNahidul/social-media-API/internal/auth"
	"github.com/muhammadNahidul/social-media-API/internal/models"
	"github.com/muhammadNahidul/social-media-API/internal/services"
	appErrors "github.com/muhammadNahidul/social-media-API/pkg/errors"
	"github.com/muhammadNahidul/social-media-API/pkg/logger"
	"github.com/muhammadNahidul/social-media-API/pkg/response"
)

const verificationDispatchTimeout = 30 * time.Second

// AuthHandler manages the account lifecycle flows: register, verify, login,
// refresh, logout and me.
type AuthHandler struct {
	accounts *services.AccountService
	otp      *services.OTPService
	sessions *iauth.SessionService
}

func NewAuthHandler(accounts *services.AccountService, otp *services.OTPService, sessions *iauth.SessionService) *AuthHandler {
	return &AuthHandler{accounts: accounts, otp: otp, sessions: sessions}
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func userPayload(user *models.User) gin.H {
	return gin.H{
		"id":          user.ID,
		"email":       user.Email,
		"is_verified": user.IsVerified,
		"created_at":  user.CreatedAt,
	}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.accounts.Register(requestContext(c), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			response.Error(c, appErrors.NewConflict("Email already registered"))
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	// Dispatch the code off the request path so a slow SMTP server never
	// delays the signup response. Failures are logged, not surfaced; the
	// client can always request a fresh code.
	email := user.Email
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), verificationDispatchTimeout)
		defer cancel()
		if err := h.accounts.SendVerificationCode(ctx, email); err != nil {
			logger.WithModule("auth").Error("failed to send verification code",
				zap.String("email", email), zap.Error(err))
		}
	}()

	response.SuccessWithMessage(c, http.StatusCreated,
		"Account created. Check your email for the verification code.",
		userPayload(user))
}

// POST /api/auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.otp.Verify(requestContext(c), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOTPUserNotFound):
			response.Error(c, appErrors.ErrNotFound)
		case errors.Is(err, services.ErrOTPExpired):
			response.Error(c, appErrors.NewBadRequest("Otp expired"))
		case errors.Is(err, services.ErrOTPMismatch):
			response.Error(c, appErrors.NewBadRequest("Wrong otp"))
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Account verified", userPayload(user))
}

// POST /api/auth/resend-code
func (h *AuthHandler) ResendCode(c *gin.Context) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if !bindAndValidate(c, &req) {
		return
	}

	err := h.accounts.SendVerificationCode(requestContext(c), req.Email)
	if err != nil && !errors.Is(err, services.ErrAccountNotFound) {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	// An unknown address gets the same answer so the endpoint cannot be
	// used to enumerate accounts.
	response.SuccessWithMessage(c, http.StatusOK,
		"If the account exists, a verification code has been sent.", nil)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.accounts.Authenticate(requestContext(c), req.Email, req.Password, c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAccountNotVerified):
			response.Error(c, appErrors.ErrAccountUnverified)
		case errors.Is(err, services.ErrInvalidLogin):
			response.Error(c, appErrors.ErrInvalidCredentials)
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	pair, _, err := h.sessions.CreateSession(user, iauth.SessionMetadata{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"tokens": tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
		"user":   userPayload(user),
	})
}

// POST /api/auth/refresh
//
// The refresh token is taken from the JSON body when present, falling back
// to the Refresh-Token header.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		token = strings.TrimSpace(c.GetHeader("Refresh-Token"))
	}
	if token == "" {
		response.Error(c, appErrors.NewBadRequest("refresh token is required"))
		return
	}

	pair, _, err := h.sessions.RefreshSession(token)
	if err != nil {
		response.Error(c, appErrors.ErrInvalidRefreshToken)
		return
	}

	response.Success(c, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	sid := currentSessionID(c)
	if sid == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.sessions.RevokeSession(sid); err != nil {
		if errors.Is(err, iauth.ErrSessionNotFound) {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	user, err := h.accounts.GetByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, userPayload(user))
}
