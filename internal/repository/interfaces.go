package repository

import (
	"context"

	"luckydraw-api/internal/domain"
)

// ProfileRepository defines the interface for profile persistence. The
// remote store is the source of truth for recovery after reload; the
// ledger keeps the in-memory copy it renders from.
type ProfileRepository interface {
	// GetByUserID retrieves a profile by user ID. Returns (nil, nil)
	// when no profile exists yet.
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)

	// Create creates a new profile record.
	Create(ctx context.Context, profile *domain.Profile) error

	// AddTokens atomically increments the token balance and returns the
	// new persisted balance.
	AddTokens(ctx context.Context, userID string, amount int) (int, error)

	// EnterDraw atomically debits cost tokens and appends drawID to the
	// entered set in a single write, guarded remotely by balance >= cost
	// and non-membership. Returns false when the guard rejected the
	// write (stale local state); a partial write cannot occur.
	EnterDraw(ctx context.Context, userID, drawID string, cost int) (bool, error)
}

// DrawRepository defines the interface for reading the draw catalog.
type DrawRepository interface {
	// ListActive returns the active draws in catalog order.
	ListActive(ctx context.Context) ([]domain.Draw, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Profile ProfileRepository
	Draw    DrawRepository
}
