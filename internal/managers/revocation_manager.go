package managers

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"graveyard-manager/internal/config"
)

const revokedTokenPrefix = "revoked-token:"

// RevocationMgr marks token ids as used so a link can be redeemed only once.
type RevocationMgr interface {
	// Consume reports whether tokenID is used for the first time and remembers it for ttl.
	Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
	// Release forgets tokenID again so a redemption that failed half way can be retried.
	Release(ctx context.Context, tokenID string) error
}

// RedisRevocationManager keeps used token ids in Redis until the token would have expired anyway.
type RedisRevocationManager struct {
	client *redis.Client
}

func (rm *RedisRevocationManager) Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	return rm.client.SetNX(ctx, revokedTokenPrefix+tokenID, 1, ttl).Result()
}

func (rm *RedisRevocationManager) Release(ctx context.Context, tokenID string) error {
	return rm.client.Del(ctx, revokedTokenPrefix+tokenID).Err()
}

// NoopRevocationManager accepts every token id. It is used when no Redis is configured.
type NoopRevocationManager struct{}

func (NoopRevocationManager) Consume(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

func (NoopRevocationManager) Release(context.Context, string) error {
	return nil
}

// NewRevocationManager connects to Redis if an address is configured and falls back to the no-op manager otherwise.
func NewRevocationManager(cfg config.RedisConfig) RevocationMgr {
	if cfg.Addr == "" {
		log.Info("No Redis configured, recovery links stay valid until they expire")
		return NoopRevocationManager{}
	}

	log.Info("Initializing revocation manager")
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisRevocationManager{client: client}
}
