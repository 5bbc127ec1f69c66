package domain

import "time"

// Identity is the authenticated user as reported by the identity provider.
// It is observed, never owned: the provider issues it and the backend only
// mirrors it for the duration of a session.
type Identity struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Picture       string `json:"picture,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// UserProfile represents user profile information from Google OAuth
type UserProfile struct {
	Sub           string `json:"sub"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Locale        string `json:"locale"`
}

// Identity converts the provider profile into the session identity.
func (p *UserProfile) Identity() Identity {
	return Identity{
		UserID:        p.Sub,
		Email:         p.Email,
		Name:          p.Name,
		Picture:       p.Picture,
		EmailVerified: p.EmailVerified,
	}
}

// AuthClaims represents JWT token claims
type AuthClaims struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	EmailVerified bool   `json:"email_verified"`
	Aud           string `json:"aud"`
	Iss           string `json:"iss"`
	Iat           int64  `json:"iat"`
	Exp           int64  `json:"exp"`
}

// SignInFailureReason classifies interactive sign-in failures for the client.
type SignInFailureReason string

const (
	SignInCancelled SignInFailureReason = "cancelled" // user aborted the consent flow
	SignInConflict  SignInFailureReason = "conflict"  // account exists with different credential
	SignInExpired   SignInFailureReason = "expired"   // authorization code expired or already used
	SignInUnknown   SignInFailureReason = "unknown"
)

// SignInRequest carries the OAuth authorization code from the client.
type SignInRequest struct {
	Code string `json:"code"`
}

// SignInResponse is returned after a resolved interactive sign-in. Token
// is the app session JWT accepted by the auth middleware.
type SignInResponse struct {
	Identity Identity        `json:"identity"`
	Profile  ProfileSnapshot `json:"profile"`
	Token    string          `json:"token"`
	SignedIn time.Time       `json:"signed_in"`
}
