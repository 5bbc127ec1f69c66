package handler

import (
	"net/http"

	"luckydraw-api/internal/container"
	"luckydraw-api/pkg/errors"
)

// ProfileHandler serves the signed-in user's ledger view.
type ProfileHandler struct {
	container *container.Container
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(container *container.Container) *ProfileHandler {
	return &ProfileHandler{
		container: container,
	}
}

// Me handles GET /api/v1/me. A valid token without an open session
// (for example after a server restart) re-opens the session first, so
// the balance survives reconnects.
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	identity, ok := identityFromContext(r)
	if !ok {
		respondError(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}

	snapshot, err := h.container.Session.EnsureOpen(r.Context(), identity)
	if err != nil {
		respondError(w, toAppError(err), logger)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}
