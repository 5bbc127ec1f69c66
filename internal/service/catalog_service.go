package service

import (
	"context"
	"sync"
	"time"

	"luckydraw-api/internal/domain"
	"luckydraw-api/internal/repository"
	redispkg "luckydraw-api/pkg/redis"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CatalogService mirrors the shared draw catalog. It loads the active
// list once at startup, then follows broadcasts on the catalog pub/sub
// channel. The mirror is read-only for this service's callers; a
// malformed broadcast degrades to an empty list and is never surfaced
// as an error.
type CatalogService struct {
	draws  repository.DrawRepository
	redis  *redispkg.Client
	cache  *CacheService
	logger *zap.Logger

	mu          sync.RWMutex
	current     []domain.Draw
	updatedAt   time.Time
	subscribers map[chan domain.CatalogSnapshot]struct{}

	pubsub *goredis.PubSub
	done   chan struct{}
}

func NewCatalogService(draws repository.DrawRepository, redisClient *redispkg.Client, cache *CacheService, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		draws:       draws,
		redis:       redisClient,
		cache:       cache,
		logger:      logger,
		current:     []domain.Draw{},
		subscribers: make(map[chan domain.CatalogSnapshot]struct{}),
	}
}

// Start performs the initial load and begins following catalog
// broadcasts. A failed initial load leaves the mirror empty; broadcasts
// will still repopulate it.
func (s *CatalogService) Start(ctx context.Context) error {
	list := s.initialLoad(ctx)
	s.setDraws(list)

	if s.redis == nil {
		s.logger.Info("catalog listener running without pub/sub, serving initial load only")
		return nil
	}

	s.pubsub = s.redis.Subscribe(ctx, s.redis.KeyBuilder.ChannelCatalog())
	// Confirm the subscription before declaring the listener started.
	if _, err := s.pubsub.Receive(ctx); err != nil {
		s.logger.Warn("catalog subscription failed, serving initial load only",
			zap.Error(err))
		_ = s.pubsub.Close()
		s.pubsub = nil
		return nil
	}

	s.done = make(chan struct{})
	go s.listen()

	s.logger.Info("catalog listener started", zap.Int("draws", len(list)))
	return nil
}

// Stop unsubscribes from catalog broadcasts. Snapshots keep serving the
// last mirrored list.
func (s *CatalogService) Stop() {
	if s.pubsub != nil {
		_ = s.pubsub.Close()
		s.pubsub = nil
	}
	if s.done != nil {
		<-s.done
		s.done = nil
	}

	s.mu.Lock()
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan domain.CatalogSnapshot]struct{})
	s.mu.Unlock()
}

// Snapshot returns the currently mirrored draw list.
func (s *CatalogService) Snapshot() domain.CatalogSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draws := make([]domain.Draw, len(s.current))
	copy(draws, s.current)
	return domain.CatalogSnapshot{Draws: draws, UpdatedAt: s.updatedAt}
}

// Draw looks up a draw by id in the mirrored list.
func (s *CatalogService) Draw(drawID string) (domain.Draw, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.current {
		if d.ID == drawID {
			return d, nil
		}
	}
	return domain.Draw{}, domain.ErrDrawNotFound
}

// Subscribe returns a channel receiving a snapshot after every catalog
// change. The caller must invoke the cancel function.
func (s *CatalogService) Subscribe() (<-chan domain.CatalogSnapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan domain.CatalogSnapshot, 8)
	s.subscribers[ch] = struct{}{}

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *CatalogService) initialLoad(ctx context.Context) []domain.Draw {
	if s.cache != nil {
		if cached := s.cache.GetCachedCatalog(ctx); cached != nil {
			s.logger.Debug("catalog loaded from cache", zap.Int("draws", len(cached)))
			return cached
		}
	}

	if s.draws == nil {
		return []domain.Draw{}
	}

	list, err := s.draws.ListActive(ctx)
	if err != nil {
		s.logger.Warn("catalog initial load failed, starting empty", zap.Error(err))
		return []domain.Draw{}
	}

	if s.cache != nil {
		if err := s.cache.CacheCatalog(ctx, list); err != nil {
			s.logger.Warn("failed to cache catalog", zap.Error(err))
		}
	}
	return list
}

func (s *CatalogService) listen() {
	defer close(s.done)

	for msg := range s.pubsub.Channel() {
		list := domain.ParseCatalogPayload([]byte(msg.Payload))
		if len(list) == 0 && len(msg.Payload) > 0 {
			s.logger.Warn("malformed catalog payload, mirroring empty list",
				zap.Int("payload_bytes", len(msg.Payload)))
		}
		s.setDraws(list)

		if s.cache != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.cache.CacheCatalog(ctx, list); err != nil {
				s.logger.Warn("failed to cache catalog", zap.Error(err))
			}
			cancel()
		}
	}
}

func (s *CatalogService) setDraws(list []domain.Draw) {
	s.mu.Lock()
	s.current = list
	s.updatedAt = time.Now()
	snap := domain.CatalogSnapshot{Draws: append([]domain.Draw(nil), list...), UpdatedAt: s.updatedAt}
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
	s.mu.Unlock()
}
