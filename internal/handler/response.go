package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"luckydraw-api/internal/domain"
	"luckydraw-api/internal/middleware"
	"luckydraw-api/pkg/errors"
	"luckydraw-api/pkg/logger"
)

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes a structured error response to the client
func respondError(w http.ResponseWriter, appErr *errors.AppError, log *logger.Logger) {
	log.WithError(appErr).Error("Request error")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.WithError(err).Error("Failed to encode error response")
	}
}

// toAppError maps service errors onto the HTTP error taxonomy. Expected
// outcomes (duplicate entry, empty balance, cooldown) map to 409 so the
// client can render them without treating the request as broken.
func toAppError(err error) *errors.AppError {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	switch {
	case stderrors.Is(err, domain.ErrNotSignedIn):
		return errors.NewAuthenticationError("No active session")
	case stderrors.Is(err, domain.ErrInsufficientTokens):
		return errors.NewInsufficientTokensError(0, 0)
	case stderrors.Is(err, domain.ErrAlreadyEntered):
		return errors.NewAlreadyEnteredError("")
	case stderrors.Is(err, domain.ErrDrawNotFound):
		return errors.NewNotFoundError("Draw not found")
	case stderrors.Is(err, domain.ErrProfileNotFound):
		return errors.NewNotFoundError("Profile not found")
	case stderrors.Is(err, domain.ErrQuizNotInProgress):
		return errors.NewValidationError("Quiz is not in progress", nil)
	case stderrors.Is(err, domain.ErrNoOptionSelected):
		return errors.NewValidationError("Select an option before advancing", nil)
	case stderrors.Is(err, domain.ErrInvalidOption):
		return errors.NewValidationError("Option index out of range", nil)
	case stderrors.Is(err, domain.ErrCooldownActive):
		return errors.NewCooldownActiveError(0)
	default:
		return errors.NewInternalError("Internal server error", err)
	}
}

// userFromContext returns the provider profile placed in the request
// context by the auth middleware.
func userFromContext(r *http.Request) (*domain.UserProfile, bool) {
	user, ok := r.Context().Value(middleware.UserContextKey).(*domain.UserProfile)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// identityFromContext returns the authenticated identity, or false when
// the request reached the handler without passing the auth middleware.
func identityFromContext(r *http.Request) (domain.Identity, bool) {
	user, ok := userFromContext(r)
	if !ok {
		return domain.Identity{}, false
	}
	return user.Identity(), true
}
