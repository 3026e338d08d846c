package db

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/spk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var RedisModule = fx.Module("redis",
	fx.Provide(OpenRedis),
)

// OpenRedis returns a nil client when REDIS_ADDR is unset. Callers treat a
// nil client as "no distributed lock and no rate limit".
func OpenRedis(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (redis.UniversalClient, error) {
	if cfg.RedisAddr == "" {
		log.Info("redis disabled")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis ping failed", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	log.Info("redis configured", zap.String("addr", cfg.RedisAddr))
	return client, nil
}
