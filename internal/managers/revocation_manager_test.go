package managers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graveyard-manager/internal/config"
)

func TestNewRevocationManagerWithoutRedis(t *testing.T) {
	rm := NewRevocationManager(config.RedisConfig{})
	assert.IsType(t, NoopRevocationManager{}, rm)

	for i := 0; i < 2; i++ {
		first, err := rm.Consume(context.Background(), "token-id", time.Hour)
		require.NoError(t, err)
		assert.True(t, first)
	}
	assert.NoError(t, rm.Release(context.Background(), "token-id"))
}

func TestNewRevocationManagerWithRedis(t *testing.T) {
	rm := NewRevocationManager(config.RedisConfig{Addr: "localhost:6379"})
	assert.IsType(t, &RedisRevocationManager{}, rm)
}
