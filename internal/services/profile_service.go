package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/muhammadNahidul/social-media-API/internal/models"
)

const slugProbeAttempts = 5

var (
	// ErrProfileExists is returned when the account already has a profile.
	ErrProfileExists = errors.New("profile service: profile already exists")
	// ErrProfileNotFound indicates no profile matched the lookup.
	ErrProfileNotFound = errors.New("profile service: profile not found")
	// ErrProfilePrivate is returned when a viewer other than the owner requests a private profile.
	ErrProfilePrivate = errors.New("profile service: profile is private")
	// ErrIncompleteLinkPair is returned when a link name is set without its URL or vice versa.
	ErrIncompleteLinkPair = errors.New("profile service: link name and url must be set together")
)

// CreateProfileInput carries the fields accepted at profile creation. The
// slug is derived from the names and never supplied by the caller.
type CreateProfileInput struct {
	FirstName string
	LastName  string
	Bio       string
	Phone     string
	Address   string
	AvatarURL string
	IsPrivate bool
	Link1Name string
	Link1URL  string
	Link2Name string
	Link2URL  string
	Link3Name string
	Link3URL  string
}

// UpdateProfileInput is a partial update; nil fields are left untouched.
// Slugs are immutable so there is no slug field here.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Bio       *string
	Phone     *string
	Address   *string
	AvatarURL *string
	IsPrivate *bool
	Link1Name *string
	Link1URL  *string
	Link2Name *string
	Link2URL  *string
	Link3Name *string
	Link3URL  *string
}

// ProfileService manages profile records and their unique slugs.
type ProfileService struct {
	db  *gorm.DB
	now func() time.Time
}

// ProfileOption customises the ProfileService.
type ProfileOption func(*ProfileService)

// WithProfileClock injects a custom time source.
func WithProfileClock(clock func() time.Time) ProfileOption {
	return func(s *ProfileService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewProfileService constructs a profile service.
func NewProfileService(db *gorm.DB, opts ...ProfileOption) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}

	service := &ProfileService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Create stores a profile for the account and assigns the first free slug
// derived from the names: jane-doe, then jane-doe-1, jane-doe-2 and so on.
// Concurrent creations racing for the same slug are resolved by the unique
// index; losers probe again from the next suffix.
func (s *ProfileService) Create(ctx context.Context, userID string, input CreateProfileInput) (*models.Profile, error) {
	ctx = ensuredContext(ctx)

	if userID == "" {
		return nil, errors.New("profile service: user id is required")
	}
	if err := validateLinkPairs(input.Link1Name, input.Link1URL, input.Link2Name, input.Link2URL, input.Link3Name, input.Link3URL); err != nil {
		return nil, err
	}

	base := baseSlugFor(input.FirstName, input.LastName)

	var created *models.Profile
	for attempt := 0; attempt < slugProbeAttempts; attempt++ {
		slug, err := s.nextAvailableSlug(ctx, base)
		if err != nil {
			return nil, err
		}

		profile := models.Profile{
			UserID:    userID,
			FirstName: strings.TrimSpace(input.FirstName),
			LastName:  strings.TrimSpace(input.LastName),
			Bio:       input.Bio,
			Phone:     input.Phone,
			Address:   input.Address,
			AvatarURL: input.AvatarURL,
			IsPrivate: input.IsPrivate,
			Link1Name: input.Link1Name,
			Link1URL:  input.Link1URL,
			Link2Name: input.Link2Name,
			Link2URL:  input.Link2URL,
			Link3Name: input.Link3Name,
			Link3URL:  input.Link3URL,
			Slug:      slug,
		}

		err = s.db.WithContext(ctx).Create(&profile).Error
		if err == nil {
			created = &profile
			break
		}
		if !isUniqueConstraintError(err) {
			return nil, fmt.Errorf("profile service: create profile: %w", err)
		}

		// The violated index tells us which race we lost. A user_id conflict
		// means a profile already exists for this account; a slug conflict
		// means another profile claimed our candidate between probe and
		// insert, so we probe again.
		if strings.Contains(strings.ToLower(err.Error()), "user_id") {
			return nil, ErrProfileExists
		}
		if s.profileExistsForUser(ctx, userID) {
			return nil, ErrProfileExists
		}
	}

	if created == nil {
		return nil, errors.New("profile service: could not assign a unique slug")
	}
	return created, nil
}

// nextAvailableSlug probes base, base-1, base-2 and so on until it finds a
// slug not yet taken.
func (s *ProfileService) nextAvailableSlug(ctx context.Context, base string) (string, error) {
	candidate := base
	for suffix := 1; ; suffix++ {
		var count int64
		err := s.db.WithContext(ctx).
			Model(&models.Profile{}).
			Where("slug = ?", candidate).
			Count(&count).Error
		if err != nil {
			return "", fmt.Errorf("profile service: probe slug: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}

func (s *ProfileService) profileExistsForUser(ctx context.Context, userID string) bool {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// Update applies a partial update to the owner's profile. The slug never
// changes. Link names and URLs must stay paired after the update.
func (s *ProfileService) Update(ctx context.Context, userID string, input UpdateProfileInput) (*models.Profile, error) {
	ctx = ensuredContext(ctx)

	profile, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	applyString := func(column string, value *string, target *string) {
		if value != nil {
			updates[column] = *value
			*target = *value
		}
	}

	applyString("first_name", input.FirstName, &profile.FirstName)
	applyString("last_name", input.LastName, &profile.LastName)
	applyString("bio", input.Bio, &profile.Bio)
	applyString("phone", input.Phone, &profile.Phone)
	applyString("address", input.Address, &profile.Address)
	applyString("avatar_url", input.AvatarURL, &profile.AvatarURL)
	applyString("link1_name", input.Link1Name, &profile.Link1Name)
	applyString("link1_url", input.Link1URL, &profile.Link1URL)
	applyString("link2_name", input.Link2Name, &profile.Link2Name)
	applyString("link2_url", input.Link2URL, &profile.Link2URL)
	applyString("link3_name", input.Link3Name, &profile.Link3Name)
	applyString("link3_url", input.Link3URL, &profile.Link3URL)
	if input.IsPrivate != nil {
		updates["is_private"] = *input.IsPrivate
		profile.IsPrivate = *input.IsPrivate
	}

	// the invariant holds on the merged state, not just the submitted fields
	if err := validateLinkPairs(
		profile.Link1Name, profile.Link1URL,
		profile.Link2Name, profile.Link2URL,
		profile.Link3Name, profile.Link3URL,
	); err != nil {
		return nil, err
	}

	if len(updates) == 0 {
		return profile, nil
	}

	if err := s.db.WithContext(ctx).Model(profile).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("profile service: update profile: %w", err)
	}
	return profile, nil
}

// GetByUser loads the profile owned by the account.
func (s *ProfileService) GetByUser(ctx context.Context, userID string) (*models.Profile, error) {
	ctx = ensuredContext(ctx)

	var profile models.Profile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile service: load profile: %w", err)
	}
	return &profile, nil
}

// GetBySlug loads a profile by its slug. Private profiles are only readable
// by their owner; everyone else gets ErrProfilePrivate.
func (s *ProfileService) GetBySlug(ctx context.Context, slug, viewerUserID string) (*models.Profile, error) {
	ctx = ensuredContext(ctx)

	var profile models.Profile
	err := s.db.WithContext(ctx).Where("slug = ?", slug).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile service: load profile: %w", err)
	}

	if profile.IsPrivate && profile.UserID != viewerUserID {
		return nil, ErrProfilePrivate
	}
	return &profile, nil
}

// GetBySlugUnchecked loads a profile by slug without the privacy check.
// Follow operations use it: a private profile can still be followed, only
// its details stay hidden.
func (s *ProfileService) GetBySlugUnchecked(ctx context.Context, slug string) (*models.Profile, error) {
	ctx = ensuredContext(ctx)

	var profile models.Profile
	err := s.db.WithContext(ctx).Where("slug = ?", slug).Take(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile service: load profile: %w", err)
	}
	return &profile, nil
}

// List returns every profile, newest first. Private profiles are included;
// hiding their details from non-owners is the caller's concern.
func (s *ProfileService) List(ctx context.Context) ([]models.Profile, error) {
	ctx = ensuredContext(ctx)

	var profiles []models.Profile
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("profile service: list profiles: %w", err)
	}
	return profiles, nil
}

// TouchLastActive stamps the profile's last activity time. A missing profile
// is not an error; the account may not have created one yet.
func (s *ProfileService) TouchLastActive(ctx context.Context, userID string) error {
	ctx = ensuredContext(ctx)

	err := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("last_active_at", s.now()).Error
	if err != nil {
		return fmt.Errorf("profile service: touch last active: %w", err)
	}
	return nil
}

func validateLinkPairs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		name, url := strings.TrimSpace(pairs[i]), strings.TrimSpace(pairs[i+1])
		if (name == "") != (url == "") {
			return ErrIncompleteLinkPair
		}
	}
	return nil
}
