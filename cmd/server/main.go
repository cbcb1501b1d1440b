package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"peerprep/interview/internal/auth"
	"peerprep/interview/internal/config"
	"peerprep/interview/internal/events"
	"peerprep/interview/internal/generator"
	_ "peerprep/interview/internal/generator/gemini"
	"peerprep/interview/internal/handlers"
	"peerprep/interview/internal/interview"
	"peerprep/interview/internal/jobs"
	"peerprep/interview/internal/locks"
	"peerprep/interview/internal/mentor"
	"peerprep/interview/internal/metrics"
	"peerprep/interview/internal/repositories"
	mongorepo "peerprep/interview/internal/repositories/mongo"
	"peerprep/interview/internal/repositories/sqlstore"
	"peerprep/interview/internal/routers"
	"peerprep/interview/internal/storage"
	"peerprep/interview/internal/utils"
)

const lockPrefix = "mentor_dispatch:"

// openStore connects the interview store selected by STORE_DRIVER
func openStore(ctx context.Context, cfg *config.Config) (repositories.InterviewRepository, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := mongorepo.NewClient(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		repo, err := mongorepo.NewInterviewRepo(ctx, client, cfg.MongoCollection)
		if err != nil {
			client.Disconnect(ctx)
			return nil, fmt.Errorf("failed to prepare interview collection: %w", err)
		}
		return repo, nil
	case config.StorePostgres, config.StoreSQLite:
		dsn := cfg.PostgresDSN
		if cfg.StoreDriver == config.StoreSQLite {
			dsn = cfg.SQLitePath
		}
		db, err := sqlstore.Open(cfg.StoreDriver, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return sqlstore.New(db)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
}

// connectRedis returns the dispatch locker and review notifier. Without
// REDIS_ADDR both fall back to in-process no-ops.
func connectRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (locks.Locker, events.Notifier, func() error, error) {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set: mentor dispatch lock and review notifications disabled")
		return locks.NoopLocker{}, events.NoopNotifier{}, func() error { return nil }, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return locks.NewRedisLocker(rdb, lockPrefix), events.NewRedisNotifier(rdb, logger), rdb.Close, nil
}

type routeHandlers struct {
	interview *handlers.InterviewHandler
	mentor    *handlers.MentorHandler
	health    *handlers.HealthHandler
}

func buildRouter(cfg *config.Config, h routeHandlers, logger *zap.Logger) *chi.Mux {
	resolver := auth.NewResolver(cfg.JWTSecret)

	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	router.Use(metrics.Middleware("interview"))

	routers.HealthRoutes(router, h.health)
	routers.MetricsRoutes(router)
	routers.MentorStreamRoutes(router, h.mentor, auth.QueryTokenMiddleware(resolver, logger))

	// question generation can take as long as the workflow timeout
	router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.WorkflowTimeout + 30*time.Second))
		routers.InterviewRoutes(r, h.interview, auth.Middleware(resolver, logger))
		routers.MentorRoutes(r, h.mentor, auth.Middleware(resolver, logger))
	})

	return router
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("store", cfg.StoreDriver),
		zap.String("question_source", cfg.QuestionSource))

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	repo, err := openStore(startupCtx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize interview store", zap.Error(err))
	}

	locker, notifier, closeRedis, err := connectRedis(startupCtx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize redis", zap.Error(err))
	}

	source, err := generator.New(cfg.QuestionSource, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize question source",
			zap.Error(err),
			zap.Strings("registered", generator.Registered()))
	}

	if !cfg.ImageKit.Configured() {
		logger.Warn("ImageKit credentials missing: interview creation will fail with storage_unavailable")
	}
	uploader := storage.NewImageKitUploader(cfg.ImageKit, logger)
	mentorClient := mentor.NewClient(cfg.MentorWorkflowURL, cfg.MentorCallbackURL, cfg.WorkflowTimeout, logger)

	service := interview.NewService(repo, uploader, source, logger)
	gate := interview.NewMentorGate(repo, mentorClient, locker, cfg.MentorLockTTL, notifier, logger)
	reports := interview.NewReports(repo, notifier, logger)

	backlogJob := jobs.NewMentorBacklogJob(repo, cfg.BacklogSchedule, logger)
	if err := backlogJob.Start(); err != nil {
		logger.Error("Failed to start mentor backlog job", zap.Error(err))
	}

	router := buildRouter(cfg, routeHandlers{
		interview: handlers.NewInterviewHandler(service, cfg.MaxUploadBytes, cfg.IsProduction(), logger),
		mentor: handlers.NewMentorHandler(gate, reports, cfg.MentorCallbackSecret, handlers.StreamConfig{
			PollInterval:      cfg.StreamPollInterval,
			KeepAliveInterval: cfg.StreamKeepAliveInterval,
		}, cfg.IsProduction(), logger),
		health: handlers.NewHealthHandler(repo, source, cfg),
	}, logger)

	serverAddr := ":" + cfg.Port

	// no write timeout: the report stream holds its response open
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Interview service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Interview service shutting down...")

	backlogJob.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	if err := closeRedis(); err != nil {
		logger.Warn("failed to close redis client", zap.Error(err))
	}
	if err := repo.Close(ctx); err != nil {
		logger.Warn("failed to close interview store", zap.Error(err))
	}

	logger.Info("Interview service exited")
}
