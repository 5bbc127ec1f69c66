package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"luckydraw-api/internal/container"
	"luckydraw-api/internal/domain"
	"luckydraw-api/pkg/errors"
)

// AuthHandler handles authentication related requests
type AuthHandler struct {
	container *container.Container
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(container *container.Container) *AuthHandler {
	return &AuthHandler{
		container: container,
	}
}

// SignIn handles POST /api/v1/auth/signin. It exchanges the OAuth
// authorization code for an identity, opens the user's session and
// returns the session token together with the initial ledger snapshot.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()
	ctx := r.Context()

	var req domain.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.NewValidationError("Invalid request body", nil), logger)
		return
	}
	if req.Code == "" {
		respondError(w, errors.NewValidationError("Authorization code is required", nil), logger)
		return
	}

	profile, err := h.container.GetAuthService().ExchangeCode(ctx, req.Code)
	if err != nil {
		respondError(w, toAppError(err), logger)
		return
	}

	identity := profile.Identity()
	snapshot, err := h.container.Session.SignIn(ctx, identity)
	if err != nil {
		respondError(w, toAppError(err), logger)
		return
	}

	token, err := h.container.GetAuthService().IssueSessionToken(profile)
	if err != nil {
		// The session is open but unusable without a token; roll it back.
		h.container.Session.SignOut(ctx, identity.UserID)
		respondError(w, errors.NewInternalError("Failed to issue session token", err), logger)
		return
	}

	logger.WithField("user_id", identity.UserID).Info("User signed in")

	respondJSON(w, http.StatusOK, domain.SignInResponse{
		Identity: identity,
		Profile:  snapshot,
		Token:    token,
		SignedIn: time.Now().UTC(),
	})
}

// SignOut handles POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	identity, ok := identityFromContext(r)
	if !ok {
		respondError(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}

	h.container.Session.SignOut(r.Context(), identity.UserID)

	logger.WithField("user_id", identity.UserID).Info("User signed out")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
