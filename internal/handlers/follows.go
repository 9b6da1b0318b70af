package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muhammadNahidul/social-media-API/internal/models"
	"github.com/muhammadNahidul/social-media-API/internal/services"
	appErrors "github.com/muhammadNahidul/social-media-API/pkg/errors"
	"github.com/muhammadNahidul/social-media-API/pkg/response"
)

// FollowHandler serves follow toggling and the follower/following lists.
type FollowHandler struct {
	profiles *services.ProfileService
	follows  *services.FollowService
}

func NewFollowHandler(profiles *services.ProfileService, follows *services.FollowService) *FollowHandler {
	return &FollowHandler{profiles: profiles, follows: follows}
}

// actorProfile resolves the authenticated user's own profile. Users must
// create a profile before they can participate in the follow graph.
func (h *FollowHandler) actorProfile(c *gin.Context) (*models.Profile, bool) {
	profile, err := h.profiles.GetByUser(requestContext(c), currentUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			response.Error(c, appErrors.NewBadRequest("Create a profile before following others"))
		} else {
			response.Error(c, appErrors.ErrInternalServer)
		}
		return nil, false
	}
	return profile, true
}

// targetProfile resolves the :slug route parameter. Privacy is not checked
// here: private profiles can be followed, only their details stay hidden.
func (h *FollowHandler) targetProfile(c *gin.Context) (*models.Profile, bool) {
	profile, err := h.profiles.GetBySlugUnchecked(requestContext(c), c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			response.Error(c, appErrors.ErrNotFound)
		} else {
			response.Error(c, appErrors.ErrInternalServer)
		}
		return nil, false
	}
	return profile, true
}

// POST /api/profiles/:slug/follow
func (h *FollowHandler) Toggle(c *gin.Context) {
	actor, ok := h.actorProfile(c)
	if !ok {
		return
	}
	target, ok := h.targetProfile(c)
	if !ok {
		return
	}

	result, err := h.follows.Toggle(requestContext(c), actor.ID, target.ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfFollow):
			response.Error(c, appErrors.NewBadRequest("You cannot follow yourself"))
		case errors.Is(err, services.ErrProfileNotFound):
			response.Error(c, appErrors.ErrNotFound)
		default:
			response.Error(c, appErrors.ErrInternalServer)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": string(result), "slug": target.Slug})
}

// GET /api/profiles/:slug/followers
func (h *FollowHandler) Followers(c *gin.Context) {
	target, ok := h.targetProfile(c)
	if !ok {
		return
	}

	profiles, err := h.follows.Followers(requestContext(c), target.ID)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"followers": summarizeProfiles(profiles),
		"count":     len(profiles),
	})
}

// GET /api/profiles/:slug/following
func (h *FollowHandler) Following(c *gin.Context) {
	target, ok := h.targetProfile(c)
	if !ok {
		return
	}

	profiles, err := h.follows.Following(requestContext(c), target.ID)
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"following": summarizeProfiles(profiles),
		"count":     len(profiles),
	})
}

type profileSummary struct {
	Slug      string `json:"slug"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	LastSeen  string `json:"last_seen"`
}

// summarizeProfiles reduces profiles to the public basics used in follower
// and following lists.
func summarizeProfiles(profiles []models.Profile) []profileSummary {
	now := time.Now()
	out := make([]profileSummary, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		out = append(out, profileSummary{
			Slug:      p.Slug,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			AvatarURL: p.AvatarURL,
			LastSeen:  humanizeLastSeen(p.LastActiveAt, now),
		})
	}
	return out
}
