package main

import (
	"context"
	"fmt"

	"github.com/aretw0/branchwise/internal/config"
	"github.com/aretw0/branchwise/pkg/adapters/file"
	"github.com/aretw0/branchwise/pkg/adapters/memory"
	"github.com/aretw0/branchwise/pkg/adapters/redis"
	"github.com/aretw0/branchwise/pkg/persistence/middleware"
	"github.com/aretw0/branchwise/pkg/ports"
)

// backend is the configured session storage.
type backend struct {
	store  ports.StateStore
	locker ports.DistributedLocker
	close  func() error
}

func openBackend(ctx context.Context, c *config.Config) (*backend, error) {
	be, err := openDriver(ctx, c)
	if err != nil {
		return nil, err
	}
	if c.Store.EncryptionKey == "" {
		return be, nil
	}

	mw, err := encryption(c.Store)
	if err != nil {
		_ = be.close()
		return nil, err
	}
	be.store = middleware.Chain(be.store, mw)
	logger.Debug("session states are encrypted at rest", "fallback_keys", len(c.Store.FallbackKeys))
	return be, nil
}

func encryption(c config.StoreConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	var fallback [][]byte
	for i, k := range c.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
}

func openDriver(ctx context.Context, c *config.Config) (*backend, error) {
	switch c.Store.Driver {
	case config.StoreFile:
		logger.Debug("using file store", "path", c.Store.Path)
		return &backend{store: file.NewStore(c.Store.Path), close: func() error { return nil }}, nil

	case config.StoreRedis:
		s := redis.New(c.Redis.Addr, c.Redis.Password, c.Redis.DB,
			redis.WithPrefix(c.Redis.Prefix),
			redis.WithTTL(c.Redis.TTL),
		)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", c.Redis.Addr, err)
		}
		logger.Debug("using redis store", "addr", c.Redis.Addr, "prefix", s.Prefix())
		return &backend{
			store:  s,
			locker: redis.NewLocker(s.Client(), s.Prefix()),
			close:  s.Close,
		}, nil

	default:
		return &backend{store: memory.NewStore(), close: func() error { return nil }}, nil
	}
}
