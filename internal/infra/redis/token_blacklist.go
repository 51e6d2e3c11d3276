package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist stores revoked refresh token ids as keys that expire with
// the token, so every instance sees a logout.
type TokenBlacklist struct {
	client *redis.Client
	now    func() time.Time
}

func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client, now: time.Now}
}

func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, b.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.client.Exists(ctx, b.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}

func (b *TokenBlacklist) key(tokenID string) string {
	return "auth:revoked:" + tokenID
}
