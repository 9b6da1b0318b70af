package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/muhammadNahidul/social-media-API/internal/app"
	iauth "github.com/muhammadNahidul/social-media-API/internal/auth"
	"github.com/muhammadNahidul/social-media-API/internal/handlers"
	"github.com/muhammadNahidul/social-media-API/internal/middleware"
	"github.com/muhammadNahidul/social-media-API/internal/services"
)

// Dependencies bundles the services the router wires into handlers.
type Dependencies struct {
	DB       *gorm.DB
	Config   *app.Config
	JWT      *iauth.JWTService
	Sessions *iauth.SessionService
	Accounts *services.AccountService
	OTP      *services.OTPService
	Profiles *services.ProfileService
	Follows  *services.FollowService
}

func (d Dependencies) validate() error {
	switch {
	case d.DB == nil:
		return fmt.Errorf("database handle must be provided")
	case d.Config == nil:
		return fmt.Errorf("config must be provided")
	case d.JWT == nil:
		return fmt.Errorf("jwt service must be provided")
	case d.Sessions == nil:
		return fmt.Errorf("session service must be provided")
	case d.Accounts == nil:
		return fmt.Errorf("account service must be provided")
	case d.OTP == nil:
		return fmt.Errorf("otp service must be provided")
	case d.Profiles == nil:
		return fmt.Errorf("profile service must be provided")
	case d.Follows == nil:
		return fmt.Errorf("follow service must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	cfg := deps.Config

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins...))
	r.Use(middleware.RateLimit(cfg.Server.RateLimit.MaxRequests, cfg.Server.RateLimit.Window))

	r.NoRoute(middleware.NotFoundHandler)

	// Health endpoint (public)
	r.GET("/health", handlers.Health(deps.DB))

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	requireAuth := middleware.Auth(deps.JWT)
	trackActivity := middleware.LastActive(deps.Profiles)

	registerAuthRoutes(r, deps, requireAuth)
	registerProfileRoutes(r, deps, requireAuth, trackActivity)

	return r, nil
}
