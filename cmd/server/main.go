package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"hackhub/internal/auth"
	"hackhub/internal/chat"
	"hackhub/internal/config"
	"hackhub/internal/db"
	"hackhub/internal/notify"
	"hackhub/internal/user"
)

func main() {
	cfg := config.Load()
	addr := flag.String("addr", cfg.HTTPAddr, "http service address")
	flag.Parse()

	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET is not set")
	}

	logger := cfg.Logger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Platform: Redis and Postgres are optional, depending on STORAGE and REDIS_ADDR.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("✅ Connected to Redis")
	}

	var database *db.Database
	if cfg.DatabaseURL != "" {
		var err error
		database, err = db.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to DB: %v", err)
		}
		defer database.Close()
		if err := database.AutoMigrate(); err != nil {
			log.Fatalf("❌ Migration failed: %v", err)
		}
		log.Println("✅ Connected to PostgreSQL")
	}

	kv, err := openStorage(cfg, redisClient, database)
	if err != nil {
		log.Fatalf("❌ Storage: %v", err)
	}
	log.Printf("✅ Durable storage: %s", cfg.Storage)

	// 2. Notifications: websocket hub, fed through Redis when available so
	// every instance sees them.
	hub := notify.NewHub(logger)
	go hub.Run(ctx)

	sinks := notify.Multi{notify.LogSink{Logger: logger}}
	if redisClient != nil {
		sinks = append(sinks, notify.RedisSink{Client: redisClient, Channel: cfg.NotifyChannel, Logger: logger})
		go hub.SubscribeToRedis(ctx, redisClient, cfg.NotifyChannel)
	} else {
		sinks = append(sinks, hub)
	}

	// 3. Session store
	sessions := user.NewStore(kv,
		user.WithNotifier(sinks),
		user.WithLogger(logger),
		user.WithDelay(cfg.AuthDelay),
		user.WithBcryptCost(cfg.BcryptCost),
	)
	if err := sessions.Init(ctx); err != nil {
		logger.Warn("session restore failed, starting logged out", "err", err)
	}
	defer sessions.Close()
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	// 4. Conversation store
	var seed chat.SeedProvider = chat.StaticSeed{}
	if database != nil {
		seed = chat.NewRepository(database.Conn, chat.StaticSeed{})
	}
	inbox := chat.NewStore(seed,
		chat.WithNotifier(sinks),
		chat.WithLogger(logger),
		chat.WithReplyDelay(cfg.ReplyDelay),
	)
	defer inbox.Close()

	// 5. Routes
	r := newRouter(sessions, inbox, tokens, hub)

	srv := &http.Server{Addr: *addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("🚀 Server starting on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
