package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Storage backends accepted by STORAGE.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

type Config struct {
	HTTPAddr      string
	Storage       string
	StoragePath   string
	DatabaseURL   string
	RedisAddr     string
	RedisPrefix   string
	NotifyChannel string
	JWTSecret     string
	TokenTTL      time.Duration
	AuthDelay     time.Duration
	ReplyDelay    time.Duration
	BcryptCost    int
	LogFormat     string
	LogLevel      slog.Level
}

func Load() Config {
	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		Storage:       strings.ToLower(getenv("STORAGE", StorageFile)),
		StoragePath:   getenv("STORAGE_PATH", defaultStoragePath()),
		DatabaseURL:   getenv("DB_DSN", ""),
		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPrefix:   getenv("REDIS_PREFIX", "hackhub:"),
		NotifyChannel: getenv("NOTIFY_CHANNEL", "hackhub-notifications"),
		JWTSecret:     getenv("JWT_SECRET", ""),
		TokenTTL:      getenvDuration("TOKEN_TTL", 24*time.Hour),
		AuthDelay:     getenvDuration("AUTH_DELAY", 750*time.Millisecond),
		ReplyDelay:    getenvDuration("REPLY_DELAY", 800*time.Millisecond),
		BcryptCost:    getenvInt("BCRYPT_COST", 0),
		LogFormat:     strings.ToLower(getenv("LOG_FORMAT", "text")),
		LogLevel:      getenvLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// Logger builds the process logger described by LogFormat and LogLevel.
func (c Config) Logger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func defaultStoragePath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "hackhub.json"
	}
	return filepath.Join(dir, ".hackhub", "storage.json")
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_MS"); val != "" {
		if ms, err := strconv.Atoi(val); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func getenvLevel(key string, fallback slog.Level) slog.Level {
	if val := os.Getenv(key); val != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(val)); err == nil {
			return lvl
		}
	}
	return fallback
}
