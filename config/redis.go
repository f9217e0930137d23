package config

import (
	"context"
	"strconv"
	"time"

	"hotel-pms/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient connects to Redis when REDIS_ADDR or REDIS_HOST is set.
// It returns nil when Redis is not configured or not reachable; callers fall
// back to in-process locking.
func NewRedisClient(log *zap.Logger) *redis.Client {
	addr := utils.EnvOrDefault("REDIS_ADDR", "")
	if host := utils.EnvOrDefault("REDIS_HOST", ""); host != "" {
		addr = host + ":" + utils.EnvOrDefault("REDIS_PORT", "6379")
	}
	if addr == "" {
		return nil
	}
	db, _ := strconv.Atoi(utils.EnvOrDefault("REDIS_DB", "0"))
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: utils.EnvOrDefault("REDIS_PASSWORD", ""),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, using in-process locks", zap.String("addr", addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	log.Info("redis connected", zap.String("addr", addr))
	return client
}
