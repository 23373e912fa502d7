package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Nakshatra-thange/smooth/internal/domain"
)

const DefaultBalanceTTL = 30 * time.Second

// BalanceCache guarda snapshots de balance por direccion con TTL acotado.
// Es el unico estado mutable compartido del proceso; las entradas se
// reemplazan o borran de forma atomica, nunca se mutan parcialmente.
type BalanceCache interface {
	Get(ctx context.Context, address string) (domain.WalletBalance, bool)
	Set(ctx context.Context, address string, balance domain.WalletBalance)
	Invalidate(ctx context.Context, address string)
}

type memoryEntry struct {
	balance   domain.WalletBalance
	expiresAt time.Time
}

type memoryBalanceCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]memoryEntry
}

func NewMemoryBalanceCache(ttl time.Duration) BalanceCache {
	if ttl <= 0 {
		ttl = DefaultBalanceTTL
	}
	return &memoryBalanceCache{
		ttl:   ttl,
		items: make(map[string]memoryEntry),
	}
}

func (c *memoryBalanceCache) Get(_ context.Context, address string) (domain.WalletBalance, bool) {
	c.mu.RLock()
	entry, ok := c.items[address]
	c.mu.RUnlock()
	if !ok || time.Now().UTC().After(entry.expiresAt) {
		return domain.WalletBalance{}, false
	}
	return entry.balance, true
}

func (c *memoryBalanceCache) Set(_ context.Context, address string, balance domain.WalletBalance) {
	if strings.TrimSpace(address) == "" {
		return
	}
	c.mu.Lock()
	c.items[address] = memoryEntry{
		balance:   balance,
		expiresAt: time.Now().UTC().Add(c.ttl),
	}
	c.mu.Unlock()
}

func (c *memoryBalanceCache) Invalidate(_ context.Context, address string) {
	c.mu.Lock()
	delete(c.items, address)
	c.mu.Unlock()
}

type redisBalanceCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisBalanceCache comparte el cache entre instancias del servicio; cada
// entrada expira sola en redis ademas de la invalidacion explicita.
func NewRedisBalanceCache(client *redis.Client, ttl time.Duration) BalanceCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultBalanceTTL
	}
	return &redisBalanceCache{
		client: client,
		ttl:    ttl,
		prefix: "wallet:balance:",
	}
}

func (c *redisBalanceCache) Get(ctx context.Context, address string) (domain.WalletBalance, bool) {
	raw, err := c.client.Get(ctx, c.prefix+address).Bytes()
	if err != nil {
		return domain.WalletBalance{}, false
	}
	var balance domain.WalletBalance
	if err := json.Unmarshal(raw, &balance); err != nil {
		return domain.WalletBalance{}, false
	}
	return balance, true
}

func (c *redisBalanceCache) Set(ctx context.Context, address string, balance domain.WalletBalance) {
	if strings.TrimSpace(address) == "" {
		return
	}
	raw, err := json.Marshal(balance)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefix+address, raw, c.ttl)
}

func (c *redisBalanceCache) Invalidate(ctx context.Context, address string) {
	c.client.Del(ctx, c.prefix+address)
}
