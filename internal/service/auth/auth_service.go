package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"luckydraw-api/internal/domain"
	"luckydraw-api/internal/service"
	"luckydraw-api/pkg/errors"
	"luckydraw-api/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const sessionTokenTTL = 24 * time.Hour

// Service implements the AuthService interface against Google as the
// identity provider. Two token shapes are accepted at the middleware:
// Google access tokens (validated via the tokeninfo endpoint) and this
// service's own session JWTs issued after an interactive sign-in.
type Service struct {
	oauthConfig *oauth2.Config
	jwtSecret   string
	httpClient  *http.Client
	logger      *logger.Logger
}

// NewService creates a new auth service
func NewService(clientID, clientSecret, redirectURL, jwtSecret string, log *logger.Logger) service.AuthService {
	return &Service{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		jwtSecret: jwtSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: log,
	}
}

// ExchangeCode resolves an interactive sign-in. OAuth failures are
// classified so the client can tell a user-cancelled flow from a broken
// one; the reason travels in the error details.
func (s *Service) ExchangeCode(ctx context.Context, code string) (*domain.UserProfile, error) {
	if code == "" {
		return nil, errors.NewValidationError("Authorization code is required", nil)
	}

	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		reason := classifyOAuthError(err)
		s.logger.WithError(err).WithField("reason", string(reason)).Error("OAuth code exchange failed")
		appErr := errors.NewAuthenticationError("Sign-in failed")
		appErr.Details = map[string]interface{}{"reason": string(reason)}
		return nil, appErr
	}

	svc, err := goauth2.NewService(ctx,
		option.WithTokenSource(s.oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return nil, errors.NewExternalError("Failed to reach identity provider", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		s.logger.WithError(err).Error("Failed to fetch user info after exchange")
		return nil, errors.NewExternalError("Failed to load identity", err)
	}

	profile := &domain.UserProfile{
		Sub:        info.Id,
		Email:      info.Email,
		Name:       info.Name,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
		Picture:    info.Picture,
		Locale:     info.Locale,
	}
	if info.VerifiedEmail != nil {
		profile.EmailVerified = *info.VerifiedEmail
	}
	if profile.Sub == "" && profile.Email != "" {
		profile.Sub = profile.Email
	}
	if profile.Sub == "" {
		return nil, errors.NewAuthenticationError("Invalid identity: no user identifier")
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":        profile.Sub,
		"email_verified": profile.EmailVerified,
	}).Info("Interactive sign-in resolved")

	return profile, nil
}

// classifyOAuthError maps provider error strings onto the sign-in
// failure taxonomy.
func classifyOAuthError(err error) domain.SignInFailureReason {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "access_denied"):
		return domain.SignInCancelled
	case strings.Contains(msg, "invalid_grant"):
		return domain.SignInExpired
	case strings.Contains(msg, "account"):
		return domain.SignInConflict
	default:
		return domain.SignInUnknown
	}
}

// ValidateGoogleToken validates a bearer token and returns the user
// profile. Google access tokens and app session JWTs are both accepted.
func (s *Service) ValidateGoogleToken(ctx context.Context, token string) (*domain.UserProfile, error) {
	if isGoogleAccessToken(token) {
		return s.validateGoogleAccessToken(ctx, token)
	}

	if isJWTToken(token) {
		return s.validateSessionJWT(token)
	}

	s.logger.Error("Unrecognized token format")
	return nil, errors.NewAuthenticationError("Unrecognized token format")
}

// validateGoogleAccessToken validates a Google OAuth access token
func (s *Service) validateGoogleAccessToken(ctx context.Context, token string) (*domain.UserProfile, error) {
	// Use Google's tokeninfo endpoint to validate the access token
	url := fmt.Sprintf("https://oauth2.googleapis.com/tokeninfo?access_token=%s", token)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, errors.NewInternalError("Failed to create validation request", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.WithError(err).Error("Failed to call Google tokeninfo endpoint")
		return nil, errors.NewAuthenticationError("Failed to validate token")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errors.NewAuthenticationError("Invalid or expired Google token")
	}
	if resp.StatusCode != http.StatusOK {
		s.logger.WithField("status_code", resp.StatusCode).Error("Google tokeninfo returned error")
		return nil, errors.NewAuthenticationError("Token validation failed")
	}

	var tokenInfo map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return nil, errors.NewInternalError("Failed to decode token information", err)
	}

	// Verify the audience matches our client ID (if present in response)
	// Note: access tokens may not always include 'aud', unlike ID tokens
	if aud, ok := tokenInfo["aud"].(string); ok && aud != "" {
		if aud != s.oauthConfig.ClientID {
			s.logger.WithField("actual_audience", aud).Error("Token audience mismatch")
			return nil, errors.NewAuthenticationError("Token not intended for this application")
		}
	}

	profile := &domain.UserProfile{
		Sub:           getStringValue(tokenInfo, "sub"),
		Email:         getStringValue(tokenInfo, "email"),
		EmailVerified: getBoolValue(tokenInfo, "email_verified"),
		Picture:       getStringValue(tokenInfo, "picture"),
		Name:          getStringValue(tokenInfo, "name"),
		GivenName:     getStringValue(tokenInfo, "given_name"),
		FamilyName:    getStringValue(tokenInfo, "family_name"),
		Locale:        getStringValue(tokenInfo, "locale"),
	}

	if profile.Sub == "" && profile.Email != "" {
		profile.Sub = profile.Email
	}
	if profile.Sub == "" {
		return nil, errors.NewAuthenticationError("Invalid token: no user identifier")
	}

	s.logger.WithField("user_id", profile.Sub).Debug("Google access token validated")
	return profile, nil
}

// IssueSessionToken signs an app session JWT for a resolved profile.
func (s *Service) IssueSessionToken(profile *domain.UserProfile) (string, error) {
	if s.jwtSecret == "" {
		return "", errors.NewInternalError("JWT signing not configured", nil)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":            profile.Sub,
		"email":          profile.Email,
		"name":           profile.Name,
		"picture":        profile.Picture,
		"email_verified": profile.EmailVerified,
		"iss":            "luckydraw-api",
		"iat":            now.Unix(),
		"exp":            now.Add(sessionTokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", errors.NewInternalError("Failed to sign session token", err)
	}
	return signed, nil
}

// validateSessionJWT verifies an app session JWT's signature and expiry.
func (s *Service) validateSessionJWT(tokenString string) (*domain.UserProfile, error) {
	if s.jwtSecret == "" {
		return nil, errors.NewAuthenticationError("JWT validation not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		s.logger.WithError(err).Error("Session JWT validation failed")
		return nil, errors.NewAuthenticationError("Invalid session token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.NewAuthenticationError("Invalid session token")
	}

	if exp, ok := claims["exp"].(float64); ok {
		if time.Now().Unix() > int64(exp) {
			return nil, errors.NewAuthenticationError("Session token has expired")
		}
	}

	profile := &domain.UserProfile{
		Sub:           getStringValue(claims, "sub"),
		Email:         getStringValue(claims, "email"),
		Name:          getStringValue(claims, "name"),
		Picture:       getStringValue(claims, "picture"),
		EmailVerified: getBoolValue(claims, "email_verified"),
	}
	if profile.Sub == "" {
		return nil, errors.NewAuthenticationError("Invalid session token: no user identifier")
	}

	return profile, nil
}

// Helper functions for token format detection
func isGoogleAccessToken(token string) bool {
	// Google access tokens start with "ya29."
	return len(token) > 5 && token[:5] == "ya29."
}

func isJWTToken(token string) bool {
	// JWT tokens have exactly 3 segments separated by dots
	dotCount := 0
	for _, char := range token {
		if char == '.' {
			dotCount++
		}
	}
	return dotCount == 2
}

// Helper functions to safely extract values from claim maps
func getStringValue(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

func getBoolValue(m map[string]interface{}, key string) bool {
	if val, ok := m[key].(bool); ok {
		return val
	}
	return false
}
