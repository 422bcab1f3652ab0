package cache

import (
	"context"
	"time"

	"github.com/qolzam/metamorph/internal/platform/config"
)

// New builds the backend selected in cfg. Keys are namespaced with cfg.Prefix.
func New(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	var backend Cache
	switch cfg.Backend {
	case config.CacheBackendRedis:
		rc, err := NewRedisCache(ctx, RedisOptions{
			Address:      cfg.Redis.Address,
			Password:     cfg.Redis.Password,
			Database:     cfg.Redis.Database,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		if err != nil {
			return nil, err
		}
		backend = rc
	default:
		backend = NewMemoryCache()
	}

	if cfg.Prefix == "" {
		return backend, nil
	}
	return WithPrefix(backend, cfg.Prefix), nil
}

// WithPrefix namespaces every key of c
func WithPrefix(c Cache, prefix string) Cache {
	return &prefixed{Cache: c, prefix: prefix}
}

type prefixed struct {
	Cache
	prefix string
}

func (p *prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.Cache.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.Cache.Set(ctx, p.prefix+key, value, ttl)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.Cache.Delete(ctx, p.prefix+key)
}

func (p *prefixed) Exists(ctx context.Context, key string) (bool, error) {
	return p.Cache.Exists(ctx, p.prefix+key)
}
