package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yann-pourcenoux/expense-manager/internal/core"
	"github.com/yann-pourcenoux/expense-manager/internal/ledger"
	"github.com/yann-pourcenoux/expense-manager/internal/services"
)

// Service handles signup and login. Every auth user owns exactly one ledger
// profile, created at signup.
type Service struct {
	users    ledger.UserStore
	profiles *services.ProfileService
}

func NewService(users ledger.UserStore, profiles *services.ProfileService) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
	}
}

// Signup registers a new user and creates their profile. The display name
// defaults to the local part of the email address.
func (s *Service) Signup(ctx context.Context, email, password string) (core.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return core.Profile{}, core.Invalidf("invalid email address")
	}
	if len(password) < 8 {
		return core.Profile{}, core.Invalidf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.Profile{}, fmt.Errorf("hash password: %w", err)
	}

	userID := uuid.NewString()
	if err := s.users.CreateUser(ctx, userID, email, string(hash)); err != nil {
		return core.Profile{}, fmt.Errorf("create user: %w", err)
	}

	displayName, _, _ := strings.Cut(email, "@")
	profile, err := s.profiles.EnsureProfile(ctx, userID, displayName)
	if err != nil {
		return core.Profile{}, fmt.Errorf("create profile: %w", err)
	}

	slog.InfoContext(ctx, "User signed up", "user_id", userID, "profile_id", profile.ID)
	return profile, nil
}

// Login verifies credentials and returns the user's profile. Wrong email and
// wrong password produce the same error so the response does not reveal which
// accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (core.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	userID, hash, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if core.IsKind(err, core.KindNotFound) {
			return core.Profile{}, core.Unauthorizedf("invalid email or password")
		}
		return core.Profile{}, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return core.Profile{}, core.Unauthorizedf("invalid email or password")
	}

	profile, err := s.profiles.EnsureProfile(ctx, userID, "")
	if err != nil {
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", userID, "profile_id", profile.ID)
	return profile, nil
}
