package memory

import (
	"context"
	"sync"
	"time"
)

// TokenBlacklist keeps revoked token ids until their expiry passes.
type TokenBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (b *TokenBlacklist) Revoke(_ context.Context, tokenID string, until time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.revoked[tokenID] = until
	b.sweepLocked()
	return nil
}

func (b *TokenBlacklist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	until, ok := b.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !b.now().Before(until) {
		delete(b.revoked, tokenID)
		return false, nil
	}
	return true, nil
}

func (b *TokenBlacklist) sweepLocked() {
	now := b.now()
	for id, until := range b.revoked {
		if !now.Before(until) {
			delete(b.revoked, id)
		}
	}
}
