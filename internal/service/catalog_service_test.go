package service

import (
	"context"
	"testing"
	"time"

	"luckydraw-api/internal/domain"
	"luckydraw-api/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testDraws() []domain.Draw {
	return []domain.Draw{
		{ID: "draw-a", Prize: "Smartphone", TokenCost: 10},
		{ID: "draw-b", Prize: "Coffee Voucher", TokenCost: 1},
	}
}

func newTestCatalog(t *testing.T, draws repository.DrawRepository) *CatalogService {
	t.Helper()
	catalog := NewCatalogService(draws, nil, nil, zap.NewNop())
	t.Cleanup(catalog.Stop)
	return catalog
}

// waitForDraws polls the mirror until the expected list size shows up.
func waitForDraws(t *testing.T, catalog *CatalogService, want int) domain.CatalogSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := catalog.Snapshot()
		if len(snap.Draws) == want {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	snap := catalog.Snapshot()
	require.Len(t, snap.Draws, want, "catalog never reached the expected size")
	return snap
}

func TestCatalogInitialLoad(t *testing.T) {
	repo := repository.NewMemoryDrawRepository(testDraws())
	catalog := newTestCatalog(t, repo)

	require.NoError(t, catalog.Start(context.Background()))

	snap := catalog.Snapshot()
	require.Len(t, snap.Draws, 2)
	assert.Equal(t, "draw-a", snap.Draws[0].ID)
	assert.Equal(t, "Smartphone", snap.Draws[0].Prize)
	assert.Equal(t, 10, snap.Draws[0].TokenCost)
}

func TestCatalogDrawLookup(t *testing.T) {
	repo := repository.NewMemoryDrawRepository(testDraws())
	catalog := newTestCatalog(t, repo)
	require.NoError(t, catalog.Start(context.Background()))

	draw, err := catalog.Draw("draw-b")
	require.NoError(t, err)
	assert.Equal(t, "Coffee Voucher", draw.Prize)

	_, err = catalog.Draw("draw-z")
	assert.ErrorIs(t, err, domain.ErrDrawNotFound)
}

func TestCatalogStartsEmptyWithoutRepository(t *testing.T) {
	catalog := newTestCatalog(t, nil)
	require.NoError(t, catalog.Start(context.Background()))

	snap := catalog.Snapshot()
	assert.Empty(t, snap.Draws)
}

func TestCatalogFollowsBroadcasts(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := repository.NewMemoryDrawRepository(nil)

	catalog := NewCatalogService(repo, client, nil, zap.NewNop())
	t.Cleanup(catalog.Stop)

	ctx := context.Background()
	require.NoError(t, catalog.Start(ctx))
	require.Empty(t, catalog.Snapshot().Draws)

	payload := `{"list":[{"id":"draw-a","prize":"Smartphone","tokenCost":10},{"id":"draw-b","prize":"Coffee Voucher","tokenCost":1}]}`
	require.NoError(t, client.Publish(ctx, client.KeyBuilder.ChannelCatalog(), payload))

	snap := waitForDraws(t, catalog, 2)
	assert.Equal(t, "draw-a", snap.Draws[0].ID)
}

func TestCatalogMalformedBroadcastDegradesToEmpty(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := repository.NewMemoryDrawRepository(testDraws())

	catalog := NewCatalogService(repo, client, nil, zap.NewNop())
	t.Cleanup(catalog.Stop)

	ctx := context.Background()
	require.NoError(t, catalog.Start(ctx))
	require.Len(t, catalog.Snapshot().Draws, 2)

	require.NoError(t, client.Publish(ctx, client.KeyBuilder.ChannelCatalog(), `{"list": "garbage"`))

	snap := waitForDraws(t, catalog, 0)
	assert.Empty(t, snap.Draws)
}

func TestCatalogBroadcastDropsInvalidEntries(t *testing.T) {
	client, _ := newTestRedis(t)
	catalog := NewCatalogService(repository.NewMemoryDrawRepository(nil), client, nil, zap.NewNop())
	t.Cleanup(catalog.Stop)

	ctx := context.Background()
	require.NoError(t, catalog.Start(ctx))

	// Entries with an empty id or non-positive cost are dropped.
	payload := `{"list":[{"id":"","prize":"Bad","tokenCost":3},{"id":"draw-a","prize":"Free","tokenCost":0},{"id":"draw-b","prize":"Good","tokenCost":2}]}`
	require.NoError(t, client.Publish(ctx, client.KeyBuilder.ChannelCatalog(), payload))

	snap := waitForDraws(t, catalog, 1)
	assert.Equal(t, "draw-b", snap.Draws[0].ID)
}

func TestCatalogSubscribeReceivesChanges(t *testing.T) {
	client, _ := newTestRedis(t)
	catalog := NewCatalogService(repository.NewMemoryDrawRepository(nil), client, nil, zap.NewNop())
	t.Cleanup(catalog.Stop)

	ctx := context.Background()
	require.NoError(t, catalog.Start(ctx))

	updates, cancel := catalog.Subscribe()
	defer cancel()

	payload := `{"list":[{"id":"draw-a","prize":"Smartphone","tokenCost":10}]}`
	require.NoError(t, client.Publish(ctx, client.KeyBuilder.ChannelCatalog(), payload))

	select {
	case snap := <-updates:
		require.Len(t, snap.Draws, 1)
		assert.Equal(t, "draw-a", snap.Draws[0].ID)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a catalog broadcast")
	}
}

func TestParseCatalogPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{
			name:    "valid list",
			payload: `{"list":[{"id":"a","prize":"x","tokenCost":1},{"id":"b","prize":"y","tokenCost":2}]}`,
			want:    2,
		},
		{
			name:    "invalid json",
			payload: `{invalid`,
			want:    0,
		},
		{
			name:    "missing list",
			payload: `{"other":true}`,
			want:    0,
		},
		{
			name:    "list not an array",
			payload: `{"list":"oops"}`,
			want:    0,
		},
		{
			name:    "empty payload",
			payload: ``,
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draws := domain.ParseCatalogPayload([]byte(tt.payload))
			assert.Len(t, draws, tt.want)
		})
	}
}
