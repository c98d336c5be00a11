package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
)

// ProfileService manages household member profiles.
type ProfileService struct {
	store ledger.ProfileStore
}

func NewProfileService(store ledger.ProfileStore) *ProfileService {
	return &ProfileService{store: store}
}

// EnsureProfile returns the profile for an auth user, creating it on first
// call. Creation is idempotent: calling again for the same user returns the
// existing profile unchanged.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID, displayName string) (core.Profile, error) {
	existing, err := s.store.GetProfileByUser(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !core.IsKind(err, core.KindNotFound) {
		return core.Profile{}, fmt.Errorf("get profile for user %s: %w", userID, err)
	}

	if strings.TrimSpace(displayName) == "" {
		displayName = "User"
	}

	created, err := s.store.CreateProfile(ctx, core.Profile{
		UserID:      userID,
		DisplayName: displayName,
	})
	if err != nil {
		return core.Profile{}, fmt.Errorf("create profile: %w", err)
	}

	slog.InfoContext(ctx, "Profile created", "profile_id", created.ID, "display_name", created.DisplayName)
	return created, nil
}

// GetProfile returns the profile owned by an auth user.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (core.Profile, error) {
	return s.store.GetProfileByUser(ctx, userID)
}

// UpdateDisplayName changes a profile's display name, the only mutable
// profile field.
func (s *ProfileService) UpdateDisplayName(ctx context.Context, userID, displayName string) (core.Profile, error) {
	if strings.TrimSpace(displayName) == "" {
		return core.Profile{}, core.ErrEmptyName
	}

	p, err := s.store.GetProfileByUser(ctx, userID)
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile for user %s: %w", userID, err)
	}

	if err := s.store.UpdateProfileName(ctx, p.ID, displayName); err != nil {
		return core.Profile{}, fmt.Errorf("update profile %d: %w", p.ID, err)
	}
	p.DisplayName = displayName
	return p, nil
}

// Rename changes a profile's display name by profile ID. Profiles may only
// rename themselves.
func (s *ProfileService) Rename(ctx context.Context, profileID, requesterID int64, displayName string) (core.Profile, error) {
	if profileID != requesterID {
		return core.Profile{}, core.Unauthorizedf("profile %d can only be renamed by its owner", profileID)
	}
	if strings.TrimSpace(displayName) == "" {
		return core.Profile{}, core.ErrEmptyName
	}

	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return core.Profile{}, fmt.Errorf("list profiles: %w", err)
	}
	for _, p := range profiles {
		if p.ID == profileID {
			if err := s.store.UpdateProfileName(ctx, profileID, displayName); err != nil {
				return core.Profile{}, fmt.Errorf("update profile %d: %w", profileID, err)
			}
			p.DisplayName = displayName
			return p, nil
		}
	}
	return core.Profile{}, core.NotFoundf("profile %d not found", profileID)
}

// ListProfiles returns every household member.
func (s *ProfileService) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	return s.store.ListProfiles(ctx)
}
