package handler

import (
	stderrors "errors"
	"net/http"

	"luckydraw-api/internal/container"
	"luckydraw-api/internal/domain"
	"luckydraw-api/pkg/errors"
)

// RewardHandler serves the watch-ad reward flow.
type RewardHandler struct {
	container *container.Container
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(container *container.Container) *RewardHandler {
	return &RewardHandler{
		container: container,
	}
}

// Get handles GET /api/v1/rewards/ad
func (h *RewardHandler) Get(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()

	identity, ok := identityFromContext(r)
	if !ok {
		respondError(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}

	respondJSON(w, http.StatusOK, h.container.Reward.Snapshot(identity.UserID))
}

// Watch handles POST /api/v1/rewards/ad. While the cooldown is running
// the request is rejected with the remaining wait, never double-credited.
func (h *RewardHandler) Watch(w http.ResponseWriter, r *http.Request) {
	logger := h.container.GetLogger()
	ctx := r.Context()

	identity, ok := identityFromContext(r)
	if !ok {
		respondError(w, errors.NewAuthenticationError("User not authenticated"), logger)
		return
	}

	if _, err := h.container.Session.EnsureOpen(ctx, identity); err != nil {
		respondError(w, toAppError(err), logger)
		return
	}

	snapshot, err := h.container.Reward.Watch(ctx, identity.UserID)
	if err != nil {
		if stderrors.Is(err, domain.ErrCooldownActive) {
			respondError(w, errors.NewCooldownActiveError(snapshot.RemainingSeconds), logger)
			return
		}
		respondError(w, toAppError(err), logger)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}
