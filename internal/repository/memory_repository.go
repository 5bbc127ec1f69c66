package repository

import (
	"context"
	"sync"
	"time"

	"luckydraw-api/internal/domain"
)

// MemoryProfileRepository is an in-memory ProfileRepository with the same
// atomicity guarantees as the Postgres implementation. It backs unit
// tests and redis/postgres-less local runs.
type MemoryProfileRepository struct {
	mu       sync.Mutex
	profiles map[string]*domain.Profile

	// failNext, when set, makes the next write fail with that error.
	failNext error
}

func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{
		profiles: make(map[string]*domain.Profile),
	}
}

// FailNextWrite makes the next mutating call return err. Test hook for
// persistence-failure rollback paths.
func (r *MemoryProfileRepository) FailNextWrite(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = err
}

func (r *MemoryProfileRepository) takeFailure() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *MemoryProfileRepository) GetByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, nil
	}
	clone := profile.Clone()
	return &clone, nil
}

func (r *MemoryProfileRepository) Create(_ context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.takeFailure(); err != nil {
		return err
	}

	if existing, ok := r.profiles[profile.UserID]; ok {
		*profile = existing.Clone()
		return nil
	}

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if profile.EnteredDraws == nil {
		profile.EnteredDraws = []string{}
	}
	clone := profile.Clone()
	r.profiles[profile.UserID] = &clone
	return nil
}

func (r *MemoryProfileRepository) AddTokens(_ context.Context, userID string, amount int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.takeFailure(); err != nil {
		return 0, err
	}

	profile, ok := r.profiles[userID]
	if !ok {
		return 0, domain.ErrProfileNotFound
	}
	profile.Tokens += amount
	profile.UpdatedAt = time.Now()
	return profile.Tokens, nil
}

func (r *MemoryProfileRepository) EnterDraw(_ context.Context, userID, drawID string, cost int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.takeFailure(); err != nil {
		return false, err
	}

	profile, ok := r.profiles[userID]
	if !ok {
		return false, nil
	}
	if profile.Tokens < cost || profile.HasEntered(drawID) {
		return false, nil
	}
	profile.Tokens -= cost
	profile.EnteredDraws = append(profile.EnteredDraws, drawID)
	profile.UpdatedAt = time.Now()
	return true, nil
}

// MemoryDrawRepository serves a fixed draw list. Test double for the
// catalog's initial load.
type MemoryDrawRepository struct {
	mu    sync.Mutex
	draws []domain.Draw
}

func NewMemoryDrawRepository(draws []domain.Draw) *MemoryDrawRepository {
	return &MemoryDrawRepository{draws: draws}
}

func (r *MemoryDrawRepository) ListActive(context.Context) ([]domain.Draw, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Draw, len(r.draws))
	copy(out, r.draws)
	return out, nil
}

func (r *MemoryDrawRepository) SetDraws(draws []domain.Draw) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draws = draws
}
