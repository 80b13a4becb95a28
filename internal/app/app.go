package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/edgehub/ingestd/internal/config"
	"github.com/edgehub/ingestd/internal/db"
	"github.com/edgehub/ingestd/internal/ratelimit"
	"github.com/edgehub/ingestd/internal/repository"
	"github.com/edgehub/ingestd/internal/service"
	"github.com/edgehub/ingestd/internal/storage"
)

type App struct {
	Cfg           *config.Config
	DB            *sqlx.DB
	Redis         *redis.Client
	Limiter       *ratelimit.Limiter
	IngestService *service.IngestService
	FeedService   *service.FeedService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	uploadRepository := repository.NewUploadRepository(database)
	postRepository := repository.NewPostRepository(database)

	// Storage
	blobStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Counter store: Redis when configured, in-process otherwise
	var redisClient *redis.Client
	var counterStore ratelimit.CounterStore
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		err = redisClient.Ping(context.Background()).Err()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %v", err)
		}
		counterStore = ratelimit.NewRedisStore(redisClient)
		slog.Info("rate limit counter store connected", "addr", cfg.RedisAddr)
	} else {
		counterStore = ratelimit.NewMemoryStore()
		slog.Warn("REDIS_ADDR not set, rate limit windows are process-local")
	}

	limiter := ratelimit.New(counterStore, cfg.RateLimitLimit, cfg.RateLimitWindow)

	// Services
	ingestService := service.NewIngestService(uploadRepository, postRepository, blobStorage)
	feedService := service.NewFeedService(postRepository, uploadRepository)

	return &App{
		Cfg:           cfg,
		DB:            database,
		Redis:         redisClient,
		Limiter:       limiter,
		IngestService: ingestService,
		FeedService:   feedService,
	}, nil
}

func (a *App) Close() error {
	if a.Redis != nil {
		err := a.Redis.Close()
		if err != nil {
			slog.Error("failed to close redis client", "error", err)
		}
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
