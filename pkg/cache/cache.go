package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 5 * time.Minute

// Cache is the small TTL cache used for entitlement lookups. Values are
// strings so the same contract serves both the in-process and the redis
// backend.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, value string)
	SetWithTTL(key, value string, ttl time.Duration)
	Delete(key string)
}

// Local is an in-process cache, the default for single-instance deployments.
type Local struct {
	store *gocache.Cache
}

// NewLocal creates a local cache with the given default expiration.
func NewLocal(defaultExpiration time.Duration) *Local {
	if defaultExpiration <= 0 {
		defaultExpiration = defaultTTL
	}
	return &Local{
		store: gocache.New(defaultExpiration, 2*defaultExpiration),
	}
}

func (c *Local) Get(key string) (string, bool) {
	v, ok := c.store.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (c *Local) Set(key, value string) {
	c.store.SetDefault(key, value)
}

func (c *Local) SetWithTTL(key, value string, ttl time.Duration) {
	c.store.Set(key, value, ttl)
}

func (c *Local) Delete(key string) {
	c.store.Delete(key)
}

// Redis is a redis-backed cache for multi-instance deployments, where each
// instance must observe the same entitlement state.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a redis cache. The connection is lazy; a failed Get is
// treated as a miss so redis downtime degrades to database lookups.
func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

func (c *Redis) Get(key string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	v, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (c *Redis) Set(key, value string) {
	c.SetWithTTL(key, value, c.ttl)
}

func (c *Redis) SetWithTTL(key, value string, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.client.Set(ctx, key, value, ttl)
}

func (c *Redis) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.client.Del(ctx, key)
}

var (
	globalMu sync.RWMutex
	global   Cache
)

// Setup selects the process-wide cache backend from config. Unknown backend
// names fall back to the in-process cache.
func Setup(backend, redisAddr, redisPassword string, redisDB int, ttl time.Duration) {
	globalMu.Lock()
	defer globalMu.Unlock()
	switch backend {
	case "redis":
		global = NewRedis(redisAddr, redisPassword, redisDB, ttl)
	default:
		global = NewLocal(ttl)
	}
}

// Global returns the process-wide cache. When Setup was not called it
// defaults to an in-process cache.
func Global() Cache {
	globalMu.RLock()
	g := global
	globalMu.RUnlock()
	if g != nil {
		return g
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = NewLocal(defaultTTL)
	}
	return global
}
