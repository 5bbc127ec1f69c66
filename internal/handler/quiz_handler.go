package handler

import (
	"encoding/json"
	"net/http"

	"luckydraw-api/internal/container"
	"luckydraw-api/pkg/errors"
)

// QuizHandler serves the token quiz flow.
type QuizHandler struct {
	container *container.Container
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(container *container.Container) *QuizHandler {
	return &QuizHandler{
		container: container,
	}
}

// SelectOptionRequest carries the chosen option for the current question.
type SelectOptionRequest struct {
	Option int `json:"option"`
}

// Get handles GET /api/v1/quiz
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	identity, ok := identityFromContext(r)
	if !ok {
		respondError(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}

	respondJSON(w, http.StatusOK, h.container.Quiz.Snapshot(identity.UserID))
}

// Start handles POST /api/v1/quiz/start
func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	identity, ok := identityFromContext(r)
	if !ok {
		respondError(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}

	if _, err := h.container.Session.EnsureOpen(r.Context(), identity); err != nil {
		respondError(w, toAppError(err), logger)
		return
	}

	respondJSON(w, http.StatusOK, h.container.Quiz.Start(identity.UserID))
}

// Select handles POST /api/v1/quiz/select
func (h *QuizHandler) Select(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	identity, ok := identityFromContext(r)
	if !ok {
		respondError(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}

	var req SelectOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.NewValidationError("Invalid request body", nil), logger)
		return
	}

	snapshot, err := h.container.Quiz.Select(identity.UserID, req.Option)
	if err != nil {
		respondError(w, toAppError(err), logger)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// Advance handles POST /api/v1/quiz/advance. A wrong selection is a
// normal outcome, reported with correct=false and an unchanged question
// index so the client can let the user try again.
func (h *QuizHandler) Advance(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	identity, ok := identityFromContext(r)
	if !ok {
		respondError(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}

	result, err := h.container.Quiz.Advance(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, toAppError(err), logger)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Restart handles POST /api/v1/quiz/restart
func (h *QuizHandler) Restart(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	identity, ok := identityFromContext(r)
	if !ok {
		respondError(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}

	respondJSON(w, http.StatusOK, h.container.Quiz.Restart(identity.UserID))
}
