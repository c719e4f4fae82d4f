package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/fernbooks/fernbooks/internal/app"
	"github.com/fernbooks/fernbooks/internal/contacts"
	"github.com/fernbooks/fernbooks/internal/documents"
	jobmetrics "github.com/fernbooks/fernbooks/internal/jobs"
	"github.com/fernbooks/fernbooks/internal/platform/db"
	"github.com/fernbooks/fernbooks/internal/recurring"
	"github.com/fernbooks/fernbooks/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	contactsService := contacts.NewService(contacts.NewPostgresRepository(pool), logger)
	documentsService := documents.NewService(documents.NewRepository(pool), contactsService, logger)
	recurringService := recurring.NewService(recurring.NewRepository(pool), documentsService, logger)

	metrics := jobmetrics.NewMetrics(nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskRecurringGenerate, Handler: jobs.NewRecurringGenerateHandler(recurringService, metrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.RecurringCron, Task: jobs.NewRecurringGenerateTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
