package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/feedsync/internal/bootstrap"
	"anoa.com/feedsync/internal/config"
	"anoa.com/feedsync/internal/server"
	"anoa.com/feedsync/pkg/database"
	"anoa.com/feedsync/pkg/realtime"
	"anoa.com/feedsync/pkg/storage"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedDemo(db); err != nil {
			log.Fatalf("failed to seed demo data: %v", err)
		}
	}

	infra := server.Infra{DB: db}

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		infra.RedisClient = redis.NewClient(opt)
		if err := infra.RedisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		infra.Broker = realtime.NewRedisBroker(infra.RedisClient)
		log.Println("✅ Connected to Redis")
	} else {
		// Single instance only: pushes never leave this process.
		infra.Broker = realtime.NewMemoryBroker()
		log.Println("REDIS_URL not set, using in-process push channel and no rate limits")
	}

	infra.Search = meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))

	if imageStorage, err := storage.NewCloudinaryStorage(cfg.CloudinaryUploadFolder); err != nil {
		log.Printf("❌ Image uploads disabled: %v", err)
	} else {
		infra.Storage = imageStorage
	}

	srv, err := server.NewServer(cfg, infra)
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv.Start(ctx)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Handler(),
	}

	go func() {
		log.Printf("🚀 Server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server exited with error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Sessions end first so open sockets see a going-away close.
	srv.Stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Forced shutdown: %v", err)
	}
	if infra.RedisClient != nil {
		_ = infra.RedisClient.Close()
	}
}
