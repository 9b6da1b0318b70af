package api

import (
	"github.com/gin-gonic/gin"

	"github.com/muhammadNahidul/social-media-API/internal/handlers"
)

func registerProfileRoutes(r *gin.Engine, deps Dependencies, requireAuth, trackActivity gin.HandlerFunc) {
	profileHandler := handlers.NewProfileHandler(deps.Profiles, deps.Follows)
	followHandler := handlers.NewFollowHandler(deps.Profiles, deps.Follows)

	profiles := r.Group("/api/profiles")
	profiles.Use(requireAuth, trackActivity)
	{
		profiles.GET("", profileHandler.List)
		profiles.POST("", profileHandler.Create)
		profiles.GET("/me", profileHandler.GetMine)
		profiles.PUT("/me", profileHandler.UpdateMine)
		profiles.PUT("/me/links", profileHandler.UpdateLinks)

		profiles.GET("/:slug", profileHandler.GetBySlug)
		profiles.PUT("/:slug", profileHandler.UpdateBySlug)
		profiles.POST("/:slug/follow", followHandler.Toggle)
		profiles.GET("/:slug/followers", followHandler.Followers)
		profiles.GET("/:slug/following", followHandler.Following)
	}
}
