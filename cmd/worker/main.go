// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/gestor-be/internal/adapters/db"
	redis_a "github.com/ammerola/gestor-be/internal/adapters/redis_adapter"
	"github.com/ammerola/gestor-be/internal/adapters/storage"
	"github.com/ammerola/gestor-be/internal/core/ports"
	"github.com/ammerola/gestor-be/internal/core/services"
	"github.com/ammerola/gestor-be/internal/pkg/config"
	"github.com/ammerola/gestor-be/internal/pkg/logger"
	"github.com/ammerola/gestor-be/internal/workers"
)

const cleanupCron = "@every 1h"

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.NewLogger(&logger.LogConfig{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		Environment: cfg.App.Environment,
		ServiceName: "gestor-worker",
	})
	slog.SetDefault(slogger)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	ctx := context.Background()

	database, err := initDatabase(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddress(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	var cache ports.CacheRepository
	if cfg.Redis.Enabled {
		cache = redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)
	}
	exportJobs := redis_a.NewExportJobStore(redisClient, cfg.Export.JobTTL, slogger)

	objectStorage, err := storage.New(ctx, cfg, slogger)
	if err != nil {
		slogger.Error("failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store := db.NewStore(database, slogger)
	ledger := services.NewLedgerService(store, cache, slogger)
	catalog := services.NewCatalogService(store, ledger, cache, slogger)

	reconcile := workers.NewReconcileProcessor(ledger, slogger)
	export := workers.NewExportProcessor(ledger, catalog, objectStorage, exportJobs, workers.ExportConfig{
		MaxRows:   cfg.Export.MaxRows,
		URLExpiry: cfg.Export.URLExpiry,
	}, slogger)

	var cleanup *workers.CleanupProcessor
	if cfg.Storage.Driver == "local" || cfg.Storage.Driver == "" {
		cleanup = workers.NewCleanupProcessor(cfg.Storage.LocalDir, cfg.Export.JobTTL, slogger)
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Asynq.Concurrency,
		Queues:          cfg.Asynq.Queues,
		StrictPriority:  cfg.Asynq.StrictPriority,
		ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
		RetryDelayFunc:  exponentialBackoff,
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc: healthCheck,
		Logger:          newAsynqLogger(slogger),
	})

	mux := workers.NewServeMux(reconcile, export, cleanup)
	mux.Use(taskLogging(slogger), taskTimeout(workers.TypeExportMovements, cfg.Export.Timeout))

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger:   newAsynqLogger(slogger),
		Location: time.UTC,
	})
	if cfg.Ledger.ReconcileEnabled {
		if _, err := scheduler.Register(cfg.Ledger.ReconcileCron, workers.NewReconcileTask()); err != nil {
			slogger.Error("failed to schedule reconciliation", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if cleanup != nil {
		if _, err := scheduler.Register(cleanupCron, workers.NewCleanupExportsTask()); err != nil {
			slogger.Error("failed to schedule export cleanup", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if err := srv.Start(mux); err != nil {
		slogger.Error("failed to start worker server", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		slogger.Error("failed to start scheduler", slog.String("error", err.Error()))
		srv.Shutdown()
		os.Exit(1)
	}

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues),
		slog.String("reconcile_cron", cfg.Ledger.ReconcileCron))

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	return db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     10,
		MinConnections:     2,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
		EnableQueryLogging: cfg.Database.EnableQueryLogging,
	}, logger)
}

// taskLogging adds task identifiers to the context and logs each run
func taskLogging(l *slog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			taskID, _ := asynq.GetTaskID(ctx)
			ctx = logger.WithTask(ctx, taskID, t.Type())

			start := time.Now()
			err := next.ProcessTask(ctx, t)
			if err == nil {
				l.InfoContext(ctx, "task processed", slog.Duration("duration", time.Since(start)))
			}
			return err
		})
	}
}

// taskTimeout bounds tasks of one type
func taskTimeout(taskType string, timeout time.Duration) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			if t.Type() != taskType || timeout <= 0 {
				return next.ProcessTask(ctx, t)
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next.ProcessTask(ctx, t)
		})
	}
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.Int("retried", retried),
		slog.Int("max_retry", maxRetry),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...interface{}) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...interface{}) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...interface{}) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...interface{}) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
