package app

import (
	"context"
	"fmt"
	"io"

	"github.com/MrSnakeDoc/tokendock/internal/config"
	"github.com/MrSnakeDoc/tokendock/internal/favorites"
	"github.com/MrSnakeDoc/tokendock/internal/logger"
	"github.com/MrSnakeDoc/tokendock/internal/redis"
	"github.com/MrSnakeDoc/tokendock/internal/store"
	"github.com/MrSnakeDoc/tokendock/internal/store/file"
	"github.com/MrSnakeDoc/tokendock/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/tokendock/internal/store/redis"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore builds the configured store driver. The closer releases
// driver resources (the Redis pool) and is never nil.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, io.Closer, error) {
	switch cfg.StoreDriver {
	case store.DriverRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Connect(ctx, redis.Options{
			Addr:           cfg.RedisAddr,
			Username:       cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("Redis initialized successfully")
		return redisstore.NewStore(client), client, nil

	case store.DriverFile:
		st, err := file.New(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open file store: %w", err)
		}
		log.Info("file store ready", logger.String("dir", st.Dir()))
		return st, nopCloser{}, nil

	case store.DriverMemory:
		log.Warn("memory store selected, favorites will not survive a restart")
		return memory.New(), nopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// OpenRegistry opens the store and loads the favorites registry from it.
func OpenRegistry(ctx context.Context, cfg *config.Config, log logger.Logger, rec favorites.Recorder) (*favorites.Registry, store.Store, io.Closer, error) {
	st, closer, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	opts := []favorites.Option{
		favorites.WithKey(cfg.FavoritesKey),
		favorites.WithLogger(log),
	}
	if rec != nil {
		opts = append(opts, favorites.WithRecorder(rec))
	}
	reg := favorites.New(st, opts...)

	if err := reg.Load(ctx); err != nil {
		_ = closer.Close()
		return nil, nil, nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	return reg, st, closer, nil
}
