package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	// Set key prefix based on environment
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// Profile key builders
func (kb *KeyBuilder) KeyProfile(userID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyProfile, userID))
}

// Catalog key builders
func (kb *KeyBuilder) KeyCatalog() string {
	return kb.BuildKey(KeyCatalog)
}

func (kb *KeyBuilder) KeyCatalogVersion() string {
	return kb.BuildKey(KeyCatalogVersion)
}

func (kb *KeyBuilder) ChannelCatalog() string {
	return kb.BuildKey(ChannelCatalog)
}

// Ad reward key builders
func (kb *KeyBuilder) KeyAdCooldown(userID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyAdCooldown, userID))
}

// Generic key builders for custom patterns
func (kb *KeyBuilder) KeyCustom(pattern string, args ...interface{}) string {
	key := fmt.Sprintf(pattern, args...)
	return kb.BuildKey(key)
}
