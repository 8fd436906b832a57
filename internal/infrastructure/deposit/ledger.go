// Package deposit reads the storage deposit ledger kept by the accounting
// side of the market. The market only ever reads it.
package deposit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"nft_market/internal/domain/value"
)

const DefaultKey = "market:storage_deposits"

// RedisLedger checks membership in a Redis set. Positive answers are
// memoized for ttl; negative answers are not, so a fresh deposit is seen
// immediately.
type RedisLedger struct {
	client *redis.Client
	key    string
	memo   *cache.Cache
}

func NewRedisLedger(client *redis.Client, key string, ttl time.Duration) *RedisLedger {
	if key == "" {
		key = DefaultKey
	}

	return &RedisLedger{
		client: client,
		key:    key,
		memo:   cache.New(ttl, 2*ttl),
	}
}

func (l *RedisLedger) HasStorageDeposit(ctx context.Context, account value.AccountID) (bool, error) {
	if _, found := l.memo.Get(account.String()); found {
		return true, nil
	}

	ok, err := l.client.SIsMember(ctx, l.key, account.String()).Result()
	if err != nil {
		return false, fmt.Errorf("client.SIsMember: %w", err)
	}

	if ok {
		l.memo.SetDefault(account.String(), struct{}{})
	}

	return ok, nil
}

// MemoryLedger is a fixed ledger for the memory storage driver. With no
// accounts it treats every account as having paid.
type MemoryLedger struct {
	mu       sync.RWMutex
	accounts map[value.AccountID]struct{}
}

func NewMemoryLedger(accounts ...value.AccountID) *MemoryLedger {
	l := &MemoryLedger{accounts: make(map[value.AccountID]struct{}, len(accounts))}

	for _, account := range accounts {
		l.accounts[account] = struct{}{}
	}

	return l
}

func (l *MemoryLedger) Add(account value.AccountID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts[account] = struct{}{}
}

func (l *MemoryLedger) HasStorageDeposit(_ context.Context, account value.AccountID) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.accounts) == 0 {
		return true, nil
	}

	_, ok := l.accounts[account]

	return ok, nil
}
