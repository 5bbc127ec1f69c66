package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"luckydraw-api/internal/domain"
	"luckydraw-api/internal/repository"
	apperrors "luckydraw-api/pkg/errors"

	"go.uber.org/zap"
)

// LedgerService is the single authority that turns a credit or debit
// intent into a validated state change plus one persistence request. The
// in-memory session is what handlers render from; the remote store is the
// recovery source of truth after reload.
//
// Both credit and debit commit optimistically and roll the local change
// back when the remote write fails, so local and remote state never
// silently diverge.
type LedgerService struct {
	profiles repository.ProfileRepository
	cache    *CacheService
	logger   *zap.Logger

	mu       sync.Mutex
	sessions map[string]*ledgerSession
}

// ledgerSession serializes all mutations for one profile. Holding mu
// across the whole intent (check, apply, persist) is the single-flight
// discipline: a second debit always sees the first one's effect.
type ledgerSession struct {
	mu          sync.Mutex
	profile     domain.Profile
	subscribers map[chan domain.ProfileSnapshot]struct{}
}

func NewLedgerService(profiles repository.ProfileRepository, cache *CacheService, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		profiles: profiles,
		cache:    cache,
		logger:   logger,
		sessions: make(map[string]*ledgerSession),
	}
}

// Open loads the profile for an identity, creating it on first sighting
// with the signup bonus and an empty entry set, and seeds the in-memory
// session.
func (s *LedgerService) Open(ctx context.Context, identity domain.Identity, signupBonus int) (domain.ProfileSnapshot, error) {
	profile, err := s.profiles.GetByUserID(ctx, identity.UserID)
	if err != nil {
		return domain.ProfileSnapshot{}, fmt.Errorf("failed to load profile: %w", err)
	}

	if profile == nil {
		profile = &domain.Profile{
			UserID:       identity.UserID,
			Email:        identity.Email,
			DisplayName:  identity.Name,
			Tokens:       signupBonus,
			EnteredDraws: []string{},
		}
		if err := s.profiles.Create(ctx, profile); err != nil {
			return domain.ProfileSnapshot{}, fmt.Errorf("failed to create profile: %w", err)
		}
		s.logger.Info("profile created",
			zap.String("user_id", identity.UserID),
			zap.Int("signup_bonus", signupBonus))
	}

	s.mu.Lock()
	session, ok := s.sessions[identity.UserID]
	if !ok {
		session = &ledgerSession{
			subscribers: make(map[chan domain.ProfileSnapshot]struct{}),
		}
		s.sessions[identity.UserID] = session
	}
	s.mu.Unlock()

	session.mu.Lock()
	session.profile = profile.Clone()
	snap := session.profile.Snapshot()
	session.broadcastLocked(snap)
	session.mu.Unlock()

	s.cacheProfile(profile)

	return snap, nil
}

// Close drops the session. Further ledger operations for the user fail
// with ErrNotSignedIn; any already-issued write completes on its own.
func (s *LedgerService) Close(userID string) {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if !ok {
		return
	}

	session.mu.Lock()
	for ch := range session.subscribers {
		close(ch)
	}
	session.subscribers = make(map[chan domain.ProfileSnapshot]struct{})
	session.mu.Unlock()
}

// Credit applies balance' = balance + amount, then persists via the
// store's atomic increment. On persistence failure the optimistic local
// value is rolled back and a persistence error returned.
func (s *LedgerService) Credit(ctx context.Context, userID string, amount int) (domain.ProfileSnapshot, error) {
	if amount <= 0 {
		return domain.ProfileSnapshot{}, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	session, ok := s.session(userID)
	if !ok {
		return domain.ProfileSnapshot{}, domain.ErrNotSignedIn
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	previous := session.profile.Tokens
	session.profile.Tokens += amount

	balance, err := s.profiles.AddTokens(ctx, userID, amount)
	if err != nil {
		session.profile.Tokens = previous
		s.logger.Error("credit rolled back",
			zap.String("user_id", userID),
			zap.Int("amount", amount),
			zap.Error(err))
		return domain.ProfileSnapshot{}, apperrors.NewPersistenceError("Failed to save token credit", err)
	}

	// Reconcile with the persisted balance in case another device
	// credited concurrently.
	session.profile.Tokens = balance
	session.profile.UpdatedAt = time.Now()

	snap := session.profile.Snapshot()
	session.broadcastLocked(snap)
	s.cacheProfile(&session.profile)

	s.logger.Debug("tokens credited",
		zap.String("user_id", userID),
		zap.Int("amount", amount),
		zap.Int("balance", balance))

	return snap, nil
}

// Debit spends amount tokens to enter drawID. Membership and balance are
// evaluated against the latest in-memory state under the session lock,
// then both field changes are persisted in a single conditional write.
func (s *LedgerService) Debit(ctx context.Context, userID string, amount int, drawID string) (domain.ProfileSnapshot, error) {
	if amount <= 0 {
		return domain.ProfileSnapshot{}, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	session, ok := s.session(userID)
	if !ok {
		return domain.ProfileSnapshot{}, domain.ErrNotSignedIn
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.profile.HasEntered(drawID) {
		return session.profile.Snapshot(), domain.ErrAlreadyEntered
	}
	if session.profile.Tokens < amount {
		return session.profile.Snapshot(), domain.ErrInsufficientTokens
	}

	previousTokens := session.profile.Tokens
	previousDraws := len(session.profile.EnteredDraws)
	session.profile.Tokens -= amount
	session.profile.EnteredDraws = append(session.profile.EnteredDraws, drawID)

	committed, err := s.profiles.EnterDraw(ctx, userID, drawID, amount)
	if err != nil {
		session.profile.Tokens = previousTokens
		session.profile.EnteredDraws = session.profile.EnteredDraws[:previousDraws]
		s.logger.Error("debit rolled back",
			zap.String("user_id", userID),
			zap.String("draw_id", drawID),
			zap.Int("amount", amount),
			zap.Error(err))
		return domain.ProfileSnapshot{}, apperrors.NewPersistenceError("Failed to save draw entry", err)
	}

	if !committed {
		// The remote guard rejected the write: our snapshot was stale.
		// Reload the authoritative state and reclassify the failure.
		session.profile.Tokens = previousTokens
		session.profile.EnteredDraws = session.profile.EnteredDraws[:previousDraws]

		fresh, loadErr := s.profiles.GetByUserID(ctx, userID)
		if loadErr == nil && fresh != nil {
			session.profile = fresh.Clone()
			session.broadcastLocked(session.profile.Snapshot())
		}

		if session.profile.HasEntered(drawID) {
			return session.profile.Snapshot(), domain.ErrAlreadyEntered
		}
		return session.profile.Snapshot(), domain.ErrInsufficientTokens
	}

	session.profile.UpdatedAt = time.Now()

	snap := session.profile.Snapshot()
	session.broadcastLocked(snap)
	s.cacheProfile(&session.profile)

	s.logger.Info("draw entered",
		zap.String("user_id", userID),
		zap.String("draw_id", drawID),
		zap.Int("cost", amount),
		zap.Int("balance", snap.Tokens))

	return snap, nil
}

// Snapshot returns the current render-ready ledger state for a user.
func (s *LedgerService) Snapshot(userID string) (domain.ProfileSnapshot, error) {
	session, ok := s.session(userID)
	if !ok {
		return domain.ProfileSnapshot{}, domain.ErrNotSignedIn
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.profile.Snapshot(), nil
}

// Subscribe returns a channel that receives a snapshot after every state
// change. The caller must invoke the returned cancel function.
func (s *LedgerService) Subscribe(userID string) (<-chan domain.ProfileSnapshot, func(), error) {
	session, ok := s.session(userID)
	if !ok {
		return nil, nil, domain.ErrNotSignedIn
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	ch := make(chan domain.ProfileSnapshot, 8)
	session.subscribers[ch] = struct{}{}

	cancel := func() {
		session.mu.Lock()
		defer session.mu.Unlock()
		if _, ok := session.subscribers[ch]; ok {
			delete(session.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel, nil
}

func (s *LedgerService) session(userID string) (*ledgerSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	return session, ok
}

func (s *LedgerService) cacheProfile(profile *domain.Profile) {
	if s.cache == nil {
		return
	}
	if err := s.cache.CacheProfile(profile); err != nil {
		s.logger.Warn("failed to cache profile",
			zap.String("user_id", profile.UserID),
			zap.Error(err))
	}
}

// broadcastLocked notifies subscribers without blocking the mutation
// path; a slow subscriber misses intermediate snapshots, never the lock.
func (ls *ledgerSession) broadcastLocked(snap domain.ProfileSnapshot) {
	for ch := range ls.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}
