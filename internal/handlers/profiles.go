package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muhammadNahidul/social-media-API/internal/models"
	"github.com/muhammadNahidul/social-media-API/internal/services"
	appErrors "github.com/muhammadNahidul/social-media-API/pkg/errors"
	"github.com/muhammadNahidul/social-media-API/pkg/response"
)

// ProfileHandler serves profile CRUD and lookup endpoints.
type ProfileHandler struct {
	profiles *services.ProfileService
	follows  *services.FollowService
}

func NewProfileHandler(profiles *services.ProfileService, follows *services.FollowService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, follows: follows}
}

type createProfileRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Bio       string `json:"bio" validate:"max=500"`
	Phone     string `json:"phone" validate:"max=32"`
	Address   string `json:"address" validate:"max=255"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
	IsPrivate bool   `json:"is_private"`
	Link1Name string `json:"link1_name" validate:"max=100"`
	Link1URL  string `json:"link1_url" validate:"omitempty,url"`
	Link2Name string `json:"link2_name" validate:"max=100"`
	Link2URL  string `json:"link2_url" validate:"omitempty,url"`
	Link3Name string `json:"link3_name" validate:"max=100"`
	Link3URL  string `json:"link3_url" validate:"omitempty,url"`
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	AvatarURL *string `json:"avatar_url"`
	IsPrivate *bool   `json:"is_private"`
	Link1Name *string `json:"link1_name" validate:"omitempty,max=100"`
	Link1URL  *string `json:"link1_url"`
	Link2Name *string `json:"link2_name" validate:"omitempty,max=100"`
	Link2URL  *string `json:"link2_url"`
	Link3Name *string `json:"link3_name" validate:"omitempty,max=100"`
	Link3URL  *string `json:"link3_url"`
}

type profileLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type profileResponse struct {
	ID         string        `json:"id"`
	Slug       string        `json:"slug"`
	FirstName  string        `json:"first_name"`
	LastName   string        `json:"last_name"`
	Bio        string        `json:"bio,omitempty"`
	Phone      string        `json:"phone,omitempty"`
	Address    string        `json:"address,omitempty"`
	AvatarURL  string        `json:"avatar_url,omitempty"`
	IsPrivate  bool          `json:"is_private"`
	Links      []profileLink `json:"links"`
	LastSeen   string        `json:"last_seen"`
	CreatedAt  time.Time     `json:"created_at"`
	Followers  *int64        `json:"followers,omitempty"`
	Following  *int64        `json:"following,omitempty"`
	IsFollowed *bool         `json:"is_followed,omitempty"`
}

func newProfileResponse(p *models.Profile) profileResponse {
	links := make([]profileLink, 0, 3)
	for _, pair := range [][2]string{
		{p.Link1Name, p.Link1URL},
		{p.Link2Name, p.Link2URL},
		{p.Link3Name, p.Link3URL},
	} {
		if pair[0] != "" {
			links = append(links, profileLink{Name: pair[0], URL: pair[1]})
		}
	}

	return profileResponse{
		ID:        p.ID,
		Slug:      p.Slug,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Bio:       p.Bio,
		Phone:     p.Phone,
		Address:   p.Address,
		AvatarURL: p.AvatarURL,
		IsPrivate: p.IsPrivate,
		Links:     links,
		LastSeen:  humanizeLastSeen(p.LastActiveAt, time.Now()),
		CreatedAt: p.CreatedAt,
	}
}

// humanizeLastSeen renders a rough human readable gap between the profile's
// last activity and now.
func humanizeLastSeen(lastActive *time.Time, now time.Time) string {
	if lastActive == nil {
		return "never"
	}

	gap := now.Sub(*lastActive)
	switch {
	case gap < time.Minute:
		return "just now"
	case gap < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(gap.Minutes()))
	case gap < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(gap.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(gap.Hours()/24))
	}
}

func (h *ProfileHandler) profileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProfileNotFound):
		response.Error(c, appErrors.ErrNotFound)
	case errors.Is(err, services.ErrProfilePrivate):
		response.Error(c, appErrors.ErrProfilePrivate)
	case errors.Is(err, services.ErrProfileExists):
		response.Error(c, appErrors.NewConflict("Profile already exists"))
	case errors.Is(err, services.ErrIncompleteLinkPair):
		response.Error(c, appErrors.NewBadRequest("link name and url must be set together"))
	default:
		response.Error(c, appErrors.ErrInternalServer)
	}
}

// GET /api/profiles
//
// Private profiles stay enumerable but their detail fields are blanked for
// everyone except the owner.
func (h *ProfileHandler) List(c *gin.Context) {
	profiles, err := h.profiles.List(requestContext(c))
	if err != nil {
		response.Error(c, appErrors.ErrInternalServer)
		return
	}

	viewerID := currentUserID(c)
	out := make([]profileResponse, 0, len(profiles))
	for i := range profiles {
		p := &profiles[i]
		item := newProfileResponse(p)
		if p.IsPrivate && p.UserID != viewerID {
			item.Bio = ""
			item.Phone = ""
			item.Address = ""
			item.Links = []profileLink{}
		}
		out = append(out, item)
	}
	response.Success(c, http.StatusOK, gin.H{"profiles": out, "count": len(out)})
}

// POST /api/profiles
func (h *ProfileHandler) Create(c *gin.Context) {
	var req createProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profiles.Create(requestContext(c), currentUserID(c), services.CreateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Phone:     req.Phone,
		Address:   req.Address,
		AvatarURL: req.AvatarURL,
		IsPrivate: req.IsPrivate,
		Link1Name: req.Link1Name,
		Link1URL:  req.Link1URL,
		Link2Name: req.Link2Name,
		Link2URL:  req.Link2URL,
		Link3Name: req.Link3Name,
		Link3URL:  req.Link3URL,
	})
	if err != nil {
		h.profileError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, newProfileResponse(profile))
}

// GET /api/profiles/me
func (h *ProfileHandler) GetMine(c *gin.Context) {
	profile, err := h.profiles.GetByUser(requestContext(c), currentUserID(c))
	if err != nil {
		h.profileError(c, err)
		return
	}
	h.respondWithCounts(c, profile)
}

// PUT /api/profiles/me
func (h *ProfileHandler) UpdateMine(c *gin.Context) {
	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profiles.Update(requestContext(c), currentUserID(c), services.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Phone:     req.Phone,
		Address:   req.Address,
		AvatarURL: req.AvatarURL,
		IsPrivate: req.IsPrivate,
		Link1Name: req.Link1Name,
		Link1URL:  req.Link1URL,
		Link2Name: req.Link2Name,
		Link2URL:  req.Link2URL,
		Link3Name: req.Link3Name,
		Link3URL:  req.Link3URL,
	})
	if err != nil {
		h.profileError(c, err)
		return
	}

	response.Success(c, http.StatusOK, newProfileResponse(profile))
}

type updateLinksRequest struct {
	Link1Name *string `json:"link1_name" validate:"omitempty,max=100"`
	Link1URL  *string `json:"link1_url"`
	Link2Name *string `json:"link2_name" validate:"omitempty,max=100"`
	Link2URL  *string `json:"link2_url"`
	Link3Name *string `json:"link3_name" validate:"omitempty,max=100"`
	Link3URL  *string `json:"link3_url"`
}

// PUT /api/profiles/me/links
func (h *ProfileHandler) UpdateLinks(c *gin.Context) {
	var req updateLinksRequest
	if !bindAndValidate(c, &req) {
		return
	}

	profile, err := h.profiles.Update(requestContext(c), currentUserID(c), services.UpdateProfileInput{
		Link1Name: req.Link1Name,
		Link1URL:  req.Link1URL,
		Link2Name: req.Link2Name,
		Link2URL:  req.Link2URL,
		Link3Name: req.Link3Name,
		Link3URL:  req.Link3URL,
	})
	if err != nil {
		h.profileError(c, err)
		return
	}

	response.Success(c, http.StatusOK, newProfileResponse(profile))
}

// PUT /api/profiles/:slug
//
// Only the owner may update a profile through its slug; everyone else gets a
// 403 regardless of the profile's privacy setting.
func (h *ProfileHandler) UpdateBySlug(c *gin.Context) {
	profile, err := h.profiles.GetBySlugUnchecked(requestContext(c), c.Param("slug"))
	if err != nil {
		h.profileError(c, err)
		return
	}
	if profile.UserID != currentUserID(c) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	h.UpdateMine(c)
}

// GET /api/profiles/:slug
func (h *ProfileHandler) GetBySlug(c *gin.Context) {
	viewerID := currentUserID(c)
	profile, err := h.profiles.GetBySlug(requestContext(c), c.Param("slug"), viewerID)
	if err != nil {
		h.profileError(c, err)
		return
	}

	payload := newProfileResponse(profile)
	if followers, following, err := h.follows.Counts(requestContext(c), profile.ID); err == nil {
		payload.Followers = &followers
		payload.Following = &following
	}

	// tell the viewer whether their own profile already follows this one
	if viewerID != "" && viewerID != profile.UserID {
		if viewer, err := h.profiles.GetByUser(requestContext(c), viewerID); err == nil {
			if followed, err := h.follows.IsFollowing(requestContext(c), viewer.ID, profile.ID); err == nil {
				payload.IsFollowed = &followed
			}
		}
	}

	response.Success(c, http.StatusOK, payload)
}

func (h *ProfileHandler) respondWithCounts(c *gin.Context, profile *models.Profile) {
	payload := newProfileResponse(profile)
	if followers, following, err := h.follows.Counts(requestContext(c), profile.ID); err == nil {
		payload.Followers = &followers
		payload.Following = &following
	}
	response.Success(c, http.StatusOK, payload)
}
