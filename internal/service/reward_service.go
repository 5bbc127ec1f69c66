package service

import (
	"context"
	"sync"
	"time"

	"luckydraw-api/internal/domain"
	redispkg "luckydraw-api/pkg/redis"

	"go.uber.org/zap"
)

// RewardService gates the watch-ad credit behind a fixed cooldown:
// Available -> Cooldown(remaining) -> Available. The handler disables
// the button, but the service is the real guard against stale clicks; a
// Redis SETNX key with the cooldown as TTL extends that guard across
// instances and restarts.
type RewardService struct {
	ledger       *LedgerService
	redis        *redispkg.Client
	logger       *zap.Logger
	rewardTokens int
	cooldown     time.Duration
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*rewardSession
}

type rewardSession struct {
	mu          sync.Mutex
	availableAt time.Time
	subscribers map[chan domain.AdRewardSnapshot]struct{}
	tickStop    chan struct{}
}

func NewRewardService(ledger *LedgerService, redisClient *redispkg.Client, rewardTokens int, cooldown time.Duration, logger *zap.Logger) *RewardService {
	return &RewardService{
		ledger:       ledger,
		redis:        redisClient,
		logger:       logger,
		rewardTokens: rewardTokens,
		cooldown:     cooldown,
		now:          time.Now,
		sessions:     make(map[string]*rewardSession),
	}
}

// NewRewardServiceWithClock is test-only for deterministic time.
func NewRewardServiceWithClock(ledger *LedgerService, redisClient *redispkg.Client, rewardTokens int, cooldown time.Duration, logger *zap.Logger, now func() time.Time) *RewardService {
	s := NewRewardService(ledger, redisClient, rewardTokens, cooldown, logger)
	s.now = now
	return s
}

// Watch credits the ad reward and starts the cooldown. While the
// cooldown runs it is a no-op outcome: no credit, no state change,
// regardless of click count.
func (s *RewardService) Watch(ctx context.Context, userID string) (domain.AdRewardSnapshot, error) {
	session := s.getOrCreate(userID)

	session.mu.Lock()
	defer session.mu.Unlock()

	now := s.now()
	if now.Before(session.availableAt) {
		return s.snapshotLocked(session, now), domain.ErrCooldownActive
	}

	// Cross-instance stale-click guard.
	if s.redis != nil {
		key := s.redis.KeyBuilder.KeyAdCooldown(userID)
		acquired, err := s.redis.SetNX(ctx, key, "1", s.cooldown)
		if err != nil {
			s.logger.Warn("cooldown guard unavailable, relying on local state",
				zap.String("user_id", userID),
				zap.Error(err))
		} else if !acquired {
			// Another instance already started the cooldown; adopt its
			// remaining time.
			if ttl, ttlErr := s.redis.TTL(ctx, key); ttlErr == nil && ttl > 0 {
				session.availableAt = now.Add(ttl)
			} else {
				session.availableAt = now.Add(s.cooldown)
			}
			return s.snapshotLocked(session, now), domain.ErrCooldownActive
		}
	}

	if _, err := s.ledger.Credit(ctx, userID, s.rewardTokens); err != nil {
		// Release the guard so the reward can be retried.
		if s.redis != nil {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if delErr := s.redis.Delete(releaseCtx, s.redis.KeyBuilder.KeyAdCooldown(userID)); delErr != nil {
				s.logger.Warn("failed to release cooldown guard",
					zap.String("user_id", userID),
					zap.Error(delErr))
			}
			cancel()
		}
		return s.snapshotLocked(session, now), err
	}

	session.availableAt = now.Add(s.cooldown)
	s.startTickerLocked(session)

	snap := s.snapshotLocked(session, now)
	session.broadcastLocked(snap)

	s.logger.Info("ad reward credited",
		zap.String("user_id", userID),
		zap.Int("tokens", s.rewardTokens),
		zap.Duration("cooldown", s.cooldown))

	return snap, nil
}

// Snapshot returns the current cooldown state for a user.
func (s *RewardService) Snapshot(userID string) domain.AdRewardSnapshot {
	session := s.getOrCreate(userID)

	session.mu.Lock()
	defer session.mu.Unlock()
	return s.snapshotLocked(session, s.now())
}

// Subscribe returns a channel receiving a snapshot on every countdown
// tick and state change. The caller must invoke the cancel function.
func (s *RewardService) Subscribe(userID string) (<-chan domain.AdRewardSnapshot, func()) {
	session := s.getOrCreate(userID)

	session.mu.Lock()
	defer session.mu.Unlock()

	ch := make(chan domain.AdRewardSnapshot, 8)
	session.subscribers[ch] = struct{}{}

	cancel := func() {
		session.mu.Lock()
		defer session.mu.Unlock()
		if _, ok := session.subscribers[ch]; ok {
			delete(session.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// Hydrate seeds the cooldown from the Redis guard's remaining TTL, so a
// restarted instance does not re-open an active cooldown. Called on
// sign-in.
func (s *RewardService) Hydrate(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}

	ttl, err := s.redis.TTL(ctx, s.redis.KeyBuilder.KeyAdCooldown(userID))
	if err != nil || ttl <= 0 {
		return
	}

	session := s.getOrCreate(userID)
	session.mu.Lock()
	defer session.mu.Unlock()

	session.availableAt = s.now().Add(ttl)
	s.startTickerLocked(session)
}

// Reset drops the transient cooldown state for a user (sign-out). The
// Redis guard keeps its TTL so signing back in cannot skip the cooldown.
func (s *RewardService) Reset(userID string) {
	s.mu.Lock()
	session, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if !ok {
		return
	}

	session.mu.Lock()
	if session.tickStop != nil {
		close(session.tickStop)
		session.tickStop = nil
	}
	for ch := range session.subscribers {
		close(ch)
	}
	session.subscribers = make(map[chan domain.AdRewardSnapshot]struct{})
	session.mu.Unlock()
}

func (s *RewardService) getOrCreate(userID string) *rewardSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok {
		session = &rewardSession{
			subscribers: make(map[chan domain.AdRewardSnapshot]struct{}),
		}
		s.sessions[userID] = session
	}
	return session
}

func (s *RewardService) snapshotLocked(session *rewardSession, now time.Time) domain.AdRewardSnapshot {
	remaining := session.availableAt.Sub(now)
	if remaining <= 0 {
		return domain.AdRewardSnapshot{
			Available:    true,
			RewardTokens: s.rewardTokens,
		}
	}
	seconds := int((remaining + time.Second - 1) / time.Second)
	return domain.AdRewardSnapshot{
		Available:        false,
		RemainingSeconds: seconds,
		RewardTokens:     s.rewardTokens,
	}
}

// startTickerLocked runs the one-second countdown broadcast until the
// cooldown expires. At most one ticker per session.
func (s *RewardService) startTickerLocked(session *rewardSession) {
	if session.tickStop != nil {
		return
	}
	stop := make(chan struct{})
	session.tickStop = stop

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				session.mu.Lock()
				now := s.now()
				snap := s.snapshotLocked(session, now)
				session.broadcastLocked(snap)
				done := snap.Available
				if done && session.tickStop == stop {
					session.tickStop = nil
				}
				session.mu.Unlock()
				if done {
					return
				}
			}
		}
	}()
}

func (rs *rewardSession) broadcastLocked(snap domain.AdRewardSnapshot) {
	for ch := range rs.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}
