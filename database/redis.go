package database

import (
	"context"
	"time"
	"tripsplit-backend/utils"

	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

// ConnectRedis is optional: on failure the API runs without caches.
func ConnectRedis(redisURL string) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	Redis = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := Redis.Ping(ctx).Result(); err != nil {
		utils.Logger.WithError(err).Warn("Redis not available, running without cache")
		Redis = nil
		return
	}

	utils.Logger.Info("Redis connected")
}
