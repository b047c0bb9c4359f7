package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"hackhub/internal/config"
	"hackhub/internal/db"
	"hackhub/internal/storage"
)

func openStorage(cfg config.Config, redisClient *redis.Client, database *db.Database) (storage.KV, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemoryKV(), nil
	case config.StorageFile:
		return storage.NewFileKV(cfg.StoragePath), nil
	case config.StorageRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("STORAGE=redis needs REDIS_ADDR")
		}
		return storage.NewRedisKV(redisClient, cfg.RedisPrefix), nil
	case config.StoragePostgres:
		if database == nil {
			return nil, fmt.Errorf("STORAGE=postgres needs DB_DSN")
		}
		return storage.NewPostgresKV(database.Conn), nil
	}
	return nil, fmt.Errorf("unknown STORAGE %q", cfg.Storage)
}
