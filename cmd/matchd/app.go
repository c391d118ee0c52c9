package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/config"
	"github.com/jonathan/job-matcher/internal/db"
	"github.com/jonathan/job-matcher/internal/embedding"
	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/logger"
	"github.com/jonathan/job-matcher/internal/matching"
	"github.com/jonathan/job-matcher/internal/notify"
	"github.com/jonathan/job-matcher/internal/prefs"
	"github.com/jonathan/job-matcher/internal/queue"
	"github.com/jonathan/job-matcher/internal/recommend"
	"github.com/jonathan/job-matcher/internal/scheduler"
	"github.com/jonathan/job-matcher/internal/types"
)

// app is the assembled dependency graph shared by all subcommands.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	db         *db.DB
	rdb        *redis.Client
	gemini     *llm.GeminiClient
	queue      *queue.Queue
	embeddings *embedding.Service
	recommend  *recommend.Engine
	scheduler  *scheduler.Scheduler
}

// newApp loads configuration and wires every component together.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
	}

	gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	embeddings := embedding.NewService(database, llm.NewExtractor(gemini), log)
	jobVectors := embedding.NewJobVectors(database, gemini, log)
	preferences := prefs.NewService(database)
	matcher := matching.NewEngine(database, log)

	cache := recommend.NewTrendingCache(rdb, log)
	engine := recommend.NewEngine(database, embeddings, jobVectors, preferences, cache, log)

	q := queue.New(database, cfg.QueueMaxAttempts, log)

	var notifier notify.Notifier
	if cfg.AlertWebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.AlertWebhookURL)
	} else {
		notifier = notify.NewLogNotifier(log)
	}
	alerts := notify.NewService(database, notifier, log)

	queue.NewHandlers(database, embeddings, matcher, alerts, log).Register(q)

	sched := scheduler.New(q, embeddings, database, cfg.QueueBatchSize,
		cfg.ClaimTimeout, cfg.ProcessCronSpec, log)

	return &app{
		cfg:        cfg,
		logger:     log,
		db:         database,
		rdb:        rdb,
		gemini:     gemini,
		queue:      q,
		embeddings: embeddings,
		recommend:  engine,
		scheduler:  sched,
	}, nil
}

// Close releases external connections.
func (a *app) Close() {
	if a.gemini != nil {
		_ = a.gemini.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	_ = a.logger.Sync()
}

// adminStore bundles the stores behind the admin endpoints.
type adminStore struct {
	db         *db.DB
	embeddings *embedding.Service
}

func (s adminStore) UsersNeedingProcessing(ctx context.Context, limit int) ([]uuid.UUID, error) {
	return s.embeddings.UsersNeedingProcessing(ctx, limit)
}

func (s adminStore) ListFeaturedActiveJobs(ctx context.Context) ([]types.Job, error) {
	return s.db.ListFeaturedActiveJobs(ctx)
}

func (s adminStore) CountMatchesSince(ctx context.Context, since time.Time) (int, error) {
	return s.db.CountMatchesSince(ctx, since)
}
