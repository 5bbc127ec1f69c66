package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"luckydraw-api/internal/domain"
	"luckydraw-api/internal/repository"
	redispkg "luckydraw-api/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testClock is a manually advanced clock for deterministic cooldowns.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{
		now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestReward(t *testing.T, redisClient *redispkg.Client) (*RewardService, *LedgerService, *repository.MemoryProfileRepository, *testClock) {
	t.Helper()
	ledger, repo := newTestLedger(t)
	clock := newTestClock()
	reward := NewRewardServiceWithClock(ledger, redisClient, 5, 1800*time.Second, zap.NewNop(), clock.Now)
	t.Cleanup(func() { reward.Reset("u-1") })
	return reward, ledger, repo, clock
}

func newTestRedis(t *testing.T) (*redispkg.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := redispkg.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRewardWatchCreditsTokens(t *testing.T) {
	reward, ledger, _, _ := newTestReward(t, nil)
	ctx := context.Background()

	_, err := ledger.Open(ctx, testIdentity("u-1"), 0)
	require.NoError(t, err)

	snap, err := reward.Watch(ctx, "u-1")
	require.NoError(t, err)

	assert.False(t, snap.Available)
	assert.Equal(t, 1800, snap.RemainingSeconds)
	assert.Equal(t, 5, snap.RewardTokens)

	balance, err := ledger.Snapshot("u-1")
	require.NoError(t, err)
	assert.Equal(t, 5, balance.Tokens)
}

func TestRewardWatchDuringCooldown(t *testing.T) {
	reward, ledger, _, clock := newTestReward(t, nil)
	ctx := context.Background()

	_, err := ledger.Open(ctx, testIdentity("u-1"), 0)
	require.NoError(t, err)

	_, err = reward.Watch(ctx, "u-1")
	require.NoError(t, err)

	clock.Advance(10 * time.Second)

	// Stale clicks are rejected without a second credit.
	snap, err := reward.Watch(ctx, "u-1")
	assert.ErrorIs(t, err, domain.ErrCooldownActive)
	assert.False(t, snap.Available)
	assert.Equal(t, 1790, snap.RemainingSeconds)

	balance, err := ledger.Snapshot("u-1")
	require.NoError(t, err)
	assert.Equal(t, 5, balance.Tokens)
}

func TestRewardAvailableAfterCooldown(t *testing.T) {
	reward, ledger, _, clock := newTestReward(t, nil)
	ctx := context.Background()

	_, err := ledger.Open(ctx, testIdentity("u-1"), 0)
	require.NoError(t, err)

	_, err = reward.Watch(ctx, "u-1")
	require.NoError(t, err)

	clock.Advance(1800 * time.Second)

	snap := reward.Snapshot("u-1")
	assert.True(t, snap.Available)
	assert.Equal(t, 0, snap.RemainingSeconds)

	_, err = reward.Watch(ctx, "u-1")
	require.NoError(t, err)

	balance, err := ledger.Snapshot("u-1")
	require.NoError(t, err)
	assert.Equal(t, 10, balance.Tokens)
}

func TestRewardCreditFailureReleasesGuard(t *testing.T) {
	client, mr := newTestRedis(t)
	reward, ledger, repo, _ := newTestReward(t, client)
	ctx := context.Background()

	_, err := ledger.Open(ctx, testIdentity("u-1"), 0)
	require.NoError(t, err)

	repo.FailNextWrite(errors.New("connection reset"))

	_, err = reward.Watch(ctx, "u-1")
	require.Error(t, err)

	// The guard key was released so the reward can be retried.
	assert.False(t, mr.Exists("staging:reward:user:u-1:ad"))

	snap, err := reward.Watch(ctx, "u-1")
	require.NoError(t, err)
	assert.False(t, snap.Available)

	balance, err := ledger.Snapshot("u-1")
	require.NoError(t, err)
	assert.Equal(t, 5, balance.Tokens)
}

func TestRewardGuardSharedAcrossInstances(t *testing.T) {
	client, _ := newTestRedis(t)
	ctx := context.Background()

	rewardA, ledgerA, _, _ := newTestReward(t, client)
	_, err := ledgerA.Open(ctx, testIdentity("u-1"), 0)
	require.NoError(t, err)

	_, err = rewardA.Watch(ctx, "u-1")
	require.NoError(t, err)

	// A second instance sharing the Redis guard adopts the cooldown.
	rewardB, ledgerB, _, _ := newTestReward(t, client)
	_, err = ledgerB.Open(ctx, testIdentity("u-1"), 0)
	require.NoError(t, err)

	snap, err := rewardB.Watch(ctx, "u-1")
	assert.ErrorIs(t, err, domain.ErrCooldownActive)
	assert.False(t, snap.Available)
	assert.Greater(t, snap.RemainingSeconds, 0)

	balance, err := ledgerB.Snapshot("u-1")
	require.NoError(t, err)
	assert.Equal(t, 0, balance.Tokens)
}

func TestRewardHydrateFromGuardTTL(t *testing.T) {
	client, mr := newTestRedis(t)
	reward, _, _, _ := newTestReward(t, client)
	ctx := context.Background()

	require.NoError(t, mr.Set("staging:reward:user:u-1:ad", "1"))
	mr.SetTTL("staging:reward:user:u-1:ad", 600*time.Second)

	reward.Hydrate(ctx, "u-1")

	snap := reward.Snapshot("u-1")
	assert.False(t, snap.Available)
	assert.Equal(t, 600, snap.RemainingSeconds)
}

func TestRewardInitialSnapshotAvailable(t *testing.T) {
	reward, _, _, _ := newTestReward(t, nil)

	snap := reward.Snapshot("u-1")
	assert.True(t, snap.Available)
	assert.Equal(t, 0, snap.RemainingSeconds)
	assert.Equal(t, 5, snap.RewardTokens)
}
