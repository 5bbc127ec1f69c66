package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	// Create a miniredis server
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Create client with test redis
	client, err := NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)

	return mr, client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		expectError bool
	}{
		{
			name:        "Invalid URL",
			url:         "invalid://url",
			expectError: true,
		},
		{
			name:        "Empty URL",
			url:         "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", zap.NewNop())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, client)
			}
		})
	}
}

func TestClient_GetSet(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:key1", "value1", time.Minute))

	val, err := client.Get(ctx, "test:key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", val)

	// Missing key returns an error
	_, err = client.Get(ctx, "test:missing")
	assert.Error(t, err)
}

func TestClient_SetNX(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	ok, err := client.SetNX(ctx, "guard:key", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "first SetNX should acquire the key")

	ok, err = client.SetNX(ctx, "guard:key", "1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second SetNX should see the existing key")

	// After the TTL the key can be acquired again
	mr.FastForward(2 * time.Minute)

	ok, err = client.SetNX(ctx, "guard:key", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_Delete(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	mr.Set("test:key1", "value1")

	require.NoError(t, client.Delete(ctx, "test:key1"))

	n, err := client.Exists(ctx, "test:key1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestClient_TTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "test:expiring", "v", 30*time.Minute))

	ttl, err := client.TTL(ctx, "test:expiring")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, ttl)
}

func TestClient_PublishSubscribe(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	ctx := context.Background()

	sub := client.Subscribe(ctx, "test:channel")
	defer sub.Close()

	// Wait for the subscription to be established
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, client.Publish(ctx, "test:channel", `{"hello":"world"}`))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "test:channel", msg.Channel)
		assert.Equal(t, `{"hello":"world"}`, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestClient_Health(t *testing.T) {
	mr, client := setupTestRedis(t)
	defer mr.Close()

	assert.NoError(t, client.Health(context.Background()))
}
