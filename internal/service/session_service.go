package service

import (
	"context"
	"errors"

	"luckydraw-api/internal/domain"

	"go.uber.org/zap"
)

// SessionService mirrors identity changes into per-user state: sign-in
// loads or creates the profile and resets all transient state, sign-out
// tears it down and leaves the ledger inert.
type SessionService struct {
	ledger      *LedgerService
	quiz        *QuizService
	reward      *RewardService
	cache       *CacheService
	logger      *zap.Logger
	signupBonus int
}

func NewSessionService(ledger *LedgerService, quiz *QuizService, reward *RewardService, cache *CacheService, signupBonus int, logger *zap.Logger) *SessionService {
	return &SessionService{
		ledger:      ledger,
		quiz:        quiz,
		reward:      reward,
		cache:       cache,
		logger:      logger,
		signupBonus: signupBonus,
	}
}

// SignIn handles an identity appearing: load-or-create the profile,
// seed the ledger, and reset quiz and ad-reward transient state.
func (s *SessionService) SignIn(ctx context.Context, identity domain.Identity) (domain.ProfileSnapshot, error) {
	snap, err := s.ledger.Open(ctx, identity, s.signupBonus)
	if err != nil {
		return domain.ProfileSnapshot{}, err
	}

	s.quiz.Reset(identity.UserID)
	s.reward.Reset(identity.UserID)
	s.reward.Hydrate(ctx, identity.UserID)

	s.logger.Info("session opened",
		zap.String("user_id", identity.UserID),
		zap.Int("tokens", snap.Tokens))

	return snap, nil
}

// SignOut handles identity loss: all per-session transient state is
// cleared and further ledger operations fail until the next sign-in.
func (s *SessionService) SignOut(ctx context.Context, userID string) {
	s.ledger.Close(userID)
	s.quiz.Reset(userID)
	s.reward.Reset(userID)

	if s.cache != nil {
		if err := s.cache.InvalidateProfile(ctx, userID); err != nil {
			s.logger.Warn("failed to invalidate cached profile",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}

	s.logger.Info("session closed", zap.String("user_id", userID))
}

// EnsureOpen returns the ledger snapshot for the identity, opening a
// session on first sighting. Bearer-token requests may arrive without a
// prior explicit sign-in call.
func (s *SessionService) EnsureOpen(ctx context.Context, identity domain.Identity) (domain.ProfileSnapshot, error) {
	snap, err := s.ledger.Snapshot(identity.UserID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, domain.ErrNotSignedIn) {
		return domain.ProfileSnapshot{}, err
	}
	return s.SignIn(ctx, identity)
}
