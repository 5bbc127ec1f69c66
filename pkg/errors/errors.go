package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different types of application errors
type ErrorType string

const (
	ErrorTypeValidation         ErrorType = "validation"
	ErrorTypeAuthentication     ErrorType = "authentication"
	ErrorTypeAuthorization      ErrorType = "authorization"
	ErrorTypeNotFound           ErrorType = "not_found"
	ErrorTypeInternal           ErrorType = "internal"
	ErrorTypeExternal           ErrorType = "external"
	ErrorTypeInsufficientTokens ErrorType = "insufficient_tokens"
	ErrorTypeAlreadyEntered     ErrorType = "already_entered"
	ErrorTypeCooldownActive     ErrorType = "cooldown_active"
	ErrorTypePersistence        ErrorType = "persistence"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Internal:   internal,
	}
}

// NewInsufficientTokensError creates the expected outcome for a debit
// that exceeds the current balance.
func NewInsufficientTokensError(balance, cost int) *AppError {
	return &AppError{
		Type:       ErrorTypeInsufficientTokens,
		Message:    "Not enough tokens to enter this draw",
		StatusCode: http.StatusConflict,
		Details: map[string]interface{}{
			"balance": balance,
			"cost":    cost,
		},
	}
}

// NewAlreadyEnteredError creates the expected outcome for a repeated
// entry into the same draw.
func NewAlreadyEnteredError(drawID string) *AppError {
	return &AppError{
		Type:       ErrorTypeAlreadyEntered,
		Message:    "Already entered this draw",
		StatusCode: http.StatusConflict,
		Details: map[string]interface{}{
			"draw_id": drawID,
		},
	}
}

// NewCooldownActiveError creates the expected outcome for a watch-ad
// request issued while the cooldown is still running.
func NewCooldownActiveError(remainingSeconds int) *AppError {
	return &AppError{
		Type:       ErrorTypeCooldownActive,
		Message:    "Ad reward is still cooling down",
		StatusCode: http.StatusConflict,
		Details: map[string]interface{}{
			"remaining_seconds": remainingSeconds,
		},
	}
}

// NewPersistenceError creates an error for a failed remote write after
// the local optimistic change has been rolled back.
func NewPersistenceError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypePersistence,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Internal:   internal,
	}
}

// ErrorResponse represents the JSON error response
type ErrorResponse struct {
	Error struct {
		Type      ErrorType              `json:"type"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details,omitempty"`
		RequestID string                 `json:"request_id,omitempty"`
		Timestamp string                 `json:"timestamp"`
	} `json:"error"`
}
