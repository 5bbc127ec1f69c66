package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"luckydraw-api/internal/domain"
	"luckydraw-api/pkg/redis"

	"go.uber.org/zap"
)

// CacheService provides the cache-aside layer over Redis. Every method
// tolerates a missing or failing Redis: caching is an accelerator, never
// a correctness dependency.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// CacheProfile stores the latest profile snapshot asynchronously
// (fire and forget; a cache write failure never fails the mutation).
func (c *CacheService) CacheProfile(profile *domain.Profile) error {
	if c.redis == nil {
		return nil
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		key := c.redis.KeyBuilder.KeyProfile(profile.UserID)
		if err := c.redis.Set(ctx, key, string(data), redis.TTLProfile); err != nil {
			c.logger.Warn("Profile cache write failed",
				zap.String("user_id", profile.UserID),
				zap.Error(err))
		}
	}()

	return nil
}

// GetCachedProfile returns the cached profile or nil on miss/corruption.
func (c *CacheService) GetCachedProfile(ctx context.Context, userID string) *domain.Profile {
	if c.redis == nil {
		return nil
	}

	key := c.redis.KeyBuilder.KeyProfile(userID)
	data, err := c.redis.Get(ctx, key)
	if err != nil || data == "" {
		return nil
	}

	var profile domain.Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		c.logger.Warn("Profile cache corrupted, ignoring",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil
	}
	return &profile
}

// InvalidateProfile drops the cached profile after sign-out.
func (c *CacheService) InvalidateProfile(ctx context.Context, userID string) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Delete(ctx, c.redis.KeyBuilder.KeyProfile(userID))
}

// CacheCatalog stores the mirrored draw list.
func (c *CacheService) CacheCatalog(ctx context.Context, draws []domain.Draw) error {
	if c.redis == nil {
		return nil
	}

	data, err := json.Marshal(domain.CatalogPayload{List: draws})
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return c.redis.Set(ctx, c.redis.KeyBuilder.KeyCatalog(), string(data), redis.TTLCatalog)
}

// GetCachedCatalog returns the cached draw list, or nil on miss. A
// corrupted payload degrades to nil the same way a malformed broadcast
// degrades to an empty list.
func (c *CacheService) GetCachedCatalog(ctx context.Context) []domain.Draw {
	if c.redis == nil {
		return nil
	}

	data, err := c.redis.Get(ctx, c.redis.KeyBuilder.KeyCatalog())
	if err != nil || data == "" {
		return nil
	}

	draws := domain.ParseCatalogPayload([]byte(data))
	if len(draws) == 0 {
		return nil
	}
	return draws
}
