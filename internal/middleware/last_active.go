package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/muhammadNahidul/social-media-API/internal/services"
	"github.com/muhammadNahidul/social-media-API/pkg/logger"
)

// LastActive stamps the authenticated user's profile with the current time
// after each request. Must run behind Auth so the user id is in context.
func LastActive(profiles *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		userID := c.GetString(CtxUserIDKey)
		if userID == "" {
			return
		}
		if err := profiles.TouchLastActive(c.Request.Context(), userID); err != nil {
			logger.WithModule("http").Warn("failed to touch last active",
				zap.String("user_id", userID), zap.Error(err))
		}
	}
}
