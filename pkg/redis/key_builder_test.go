package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKeyBuilder(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Test environment",
			environment:    "test",
			expectedPrefix: "staging",
		},
		{
			name:           "Unknown environment defaults to prod",
			environment:    "something-else",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			assert.Equal(t, tt.expectedPrefix, kb.GetPrefix())
		})
	}
}

func TestKeyBuilder_Keys(t *testing.T) {
	kb := NewKeyBuilder("production")

	assert.Equal(t, "prod:profile:user:u-123", kb.KeyProfile("u-123"))
	assert.Equal(t, "prod:catalog:draws", kb.KeyCatalog())
	assert.Equal(t, "prod:catalog:version", kb.KeyCatalogVersion())
	assert.Equal(t, "prod:catalog:updates", kb.ChannelCatalog())
	assert.Equal(t, "prod:reward:user:u-123:ad", kb.KeyAdCooldown("u-123"))
}

func TestKeyBuilder_EnvironmentIsolation(t *testing.T) {
	prodKB := NewKeyBuilder("production")
	stagingKB := NewKeyBuilder("staging")

	// The same logical key must never collide across environments
	assert.NotEqual(t, prodKB.KeyCatalog(), stagingKB.KeyCatalog())
	assert.NotEqual(t, prodKB.KeyProfile("u"), stagingKB.KeyProfile("u"))
}

func TestKeyBuilder_KeyCustom(t *testing.T) {
	kb := NewKeyBuilder("staging")
	assert.Equal(t, "staging:idem:abc", kb.KeyCustom("idem:%s", "abc"))
}
