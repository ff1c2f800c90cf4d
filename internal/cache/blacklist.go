package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "rosterauth:revoked:"

// TokenBlacklist stores revoked token ids in Redis until the token would have expired.
type TokenBlacklist struct {
	redis *redis.Client
	now   func() time.Time
}

func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{redis: client, now: time.Now}
}

// RevokeToken blacklists jti for the rest of its lifetime. Tokens already expired are ignored.
func (b *TokenBlacklist) RevokeToken(ctx context.Context, jti, accountID string, expiresAt time.Time, reason string) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}

	if err := b.redis.Set(ctx, blacklistPrefix+jti, accountID+":"+reason, ttl).Err(); err != nil {
		return fmt.Errorf("failed to add token to blacklist: %w", err)
	}
	return nil
}

func (b *TokenBlacklist) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := b.redis.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists > 0, nil
}

// CleanupExpiredTokens is a no-op; Redis expires entries on its own.
func (b *TokenBlacklist) CleanupExpiredTokens(context.Context) (int64, error) {
	return 0, nil
}

func (b *TokenBlacklist) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := b.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}
