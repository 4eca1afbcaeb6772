package main

import (
	"context"
	"log/slog"

	"dividend-backend/services/finance"
)

// InitCache builds the configured dividend cache, the returned function
// releases it.
func InitCache(ctx context.Context, cfg CacheConfig) (finance.Cache, func(), error) {
	if cfg.Kind == "redis" {
		opts := cfg.Redis
		opts.TTL = cfg.ttl()
		cache := finance.NewRedisCache(opts)
		err := cache.Ping(ctx)
		if err != nil {
			cache.Close()
			return nil, nil, err
		}
		slog.InfoContext(ctx, "using redis dividend cache", "addr", opts.Addr)
		return cache, func() { cache.Close() }, nil
	}

	size := cfg.Size
	if size <= 0 {
		size = 1024
	}
	slog.InfoContext(ctx, "using in-memory dividend cache", "size", size, "ttl", cfg.ttl())
	return finance.NewLRUCache(size, cfg.ttl()), func() {}, nil
}
