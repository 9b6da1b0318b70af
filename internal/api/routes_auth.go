package api

import (
	"github.com/gin-gonic/gin"

	"github.com/muhammadNahidul/social-media-API/internal/handlers"
)

func registerAuthRoutes(r *gin.Engine, deps Dependencies, requireAuth gin.HandlerFunc) {
	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.OTP, deps.Sessions)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/verify", authHandler.Verify)
		auth.POST("/resend-code", authHandler.ResendCode)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Authenticated auth routes
	auth.POST("/logout", requireAuth, authHandler.Logout)
	auth.GET("/me", requireAuth, authHandler.Me)
}
