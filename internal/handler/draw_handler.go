package handler

import (
	stderrors "errors"
	"net/http"
	"time"

	"luckydraw-api/internal/container"
	"luckydraw-api/internal/domain"
	"luckydraw-api/pkg/errors"

	"github.com/go-chi/chi/v5"
)

// DrawHandler serves the draw catalog and entry submissions.
type DrawHandler struct {
	container *container.Container
}

// NewDrawHandler creates a new draw handler
func NewDrawHandler(container *container.Container) *DrawHandler {
	return &DrawHandler{
		container: container,
	}
}

// DrawListResponse is the catalog decorated with the caller's entries.
type DrawListResponse struct {
	Draws     []domain.DrawWithEntryStatus `json:"draws"`
	Tokens    int                          `json:"tokens"`
	UpdatedAt string                       `json:"updated_at"`
}

// EnterDrawResponse reports a committed entry and the new balance.
type EnterDrawResponse struct {
	Draw    domain.Draw            `json:"draw"`
	Profile domain.ProfileSnapshot `json:"profile"`
}

// List handles GET /api/v1/draws
func (h *DrawHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	identity, ok := identityFromContext(r)
	if !ok {
		respondError(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}

	profile, err := h.container.Session.EnsureOpen(r.Context(), identity)
	if err != nil {
		respondError(w, toAppError(err), logger)
		return
	}

	catalog := h.container.Catalog.Snapshot()

	entered := make(map[string]bool, len(profile.EnteredDraws))
	for _, id := range profile.EnteredDraws {
		entered[id] = true
	}

	draws := make([]domain.DrawWithEntryStatus, 0, len(catalog.Draws))
	for _, draw := range catalog.Draws {
		draws = append(draws, domain.DrawWithEntryStatus{
			Draw:    draw,
			Entered: entered[draw.ID],
		})
	}

	respondJSON(w, http.StatusOK, DrawListResponse{
		Draws:     draws,
		Tokens:    profile.Tokens,
		UpdatedAt: catalog.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

// Enter handles POST /api/v1/draws/{drawID}/enter
func (h *DrawHandler) Enter(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()
	ctx := r.Context()

	identity, ok := identityFromContext(r)
	if !ok {
		respondError(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}

	drawID := chi.URLParam(r, "drawID")
	if drawID == "" {
		respondError(w, errors.NewValidationError("Draw ID is required", nil), logger)
		return
	}

	if _, err := h.container.Session.EnsureOpen(ctx, identity); err != nil {
		respondError(w, toAppError(err), logger)
		return
	}

	draw, err := h.container.Catalog.Draw(drawID)
	if err != nil {
		respondError(w, errors.NewNotFoundError("Draw not found"), logger)
		return
	}

	snapshot, err := h.container.Ledger.Debit(ctx, identity.UserID, draw.TokenCost, drawID)
	if err != nil {
		switch {
		case stderrors.Is(err, domain.ErrAlreadyEntered):
			respondError(w, errors.NewAlreadyEnteredError(drawID), logger)
		case stderrors.Is(err, domain.ErrInsufficientTokens):
			respondError(w, errors.NewInsufficientTokensError(snapshot.Tokens, draw.TokenCost), logger)
		default:
			respondError(w, toAppError(err), logger)
		}
		return
	}

	respondJSON(w, http.StatusCreated, EnterDrawResponse{
		Draw:    draw,
		Profile: snapshot,
	})
}
