package service

import (
	"context"

	"luckydraw-api/internal/domain"
)

// AuthService defines the identity-provider boundary
type AuthService interface {
	// ValidateGoogleToken validates a Google OAuth token and returns user profile
	ValidateGoogleToken(ctx context.Context, token string) (*domain.UserProfile, error)

	// ExchangeCode resolves an interactive sign-in: it exchanges the
	// OAuth authorization code for the user's profile, or returns a
	// classified sign-in failure.
	ExchangeCode(ctx context.Context, code string) (*domain.UserProfile, error)

	// IssueSessionToken signs an app session JWT for a resolved profile.
	IssueSessionToken(profile *domain.UserProfile) (string, error)
}

// Services aggregates all service interfaces
type Services struct {
	Auth AuthService
}
