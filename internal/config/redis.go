package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ConnectRedis returns a client for cfg.RedisAddr, or nil when redis is not
// configured or unreachable. Callers treat a nil client as "no cache".
func ConnectRedis(cfg *Config) *redis.Client {
	if cfg.RedisAddr == "" {
		logrus.Info("REDIS_ADDR not set – geocode cache disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to connect to Redis – geocode cache disabled")
		_ = rdb.Close()
		return nil
	}

	logrus.WithField("addr", cfg.RedisAddr).Info("Redis connection successfully opened.")
	return rdb
}
