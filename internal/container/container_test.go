package container

import (
	"context"
	"testing"

	"luckydraw-api/internal/config"
	"luckydraw-api/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name        string
		config      *config.Config
		expectRedis bool
		expectError bool
	}{
		{
			name: "Container with Redis configured",
			config: &config.Config{
				Environment:    "test",
				RedisURL:       "redis://" + mr.Addr(),
				GoogleClientID: "test-client-id",
				JWTSecret:      "test-secret",
			},
			expectRedis: true,
			expectError: false,
		},
		{
			name: "Container without Redis configured",
			config: &config.Config{
				Environment:    "test",
				RedisURL:       "",
				GoogleClientID: "test-client-id",
				JWTSecret:      "test-secret",
			},
			expectRedis: false,
			expectError: false,
		},
		{
			name: "Container with invalid Redis URL",
			config: &config.Config{
				Environment:    "test",
				RedisURL:       "invalid://redis-url",
				GoogleClientID: "test-client-id",
				JWTSecret:      "test-secret",
			},
			expectRedis: false, // Redis client initialization fails but container creation succeeds
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := logger.New("error")
			require.NoError(t, err)

			c, err := New(context.Background(), tt.config, log)

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, c)

			assert.Equal(t, tt.expectRedis, c.HasRedis())
			assert.NotNil(t, c.GetAuthService())
			assert.NotNil(t, c.Session)
			assert.NotNil(t, c.Ledger)
			assert.NotNil(t, c.Quiz)
			assert.NotNil(t, c.Reward)
			assert.NotNil(t, c.Catalog)
			assert.Same(t, tt.config, c.GetConfig())

			c.Close()
		})
	}
}
