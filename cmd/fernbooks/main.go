package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/fernbooks/fernbooks/internal/app"
	"github.com/fernbooks/fernbooks/internal/banking"
	"github.com/fernbooks/fernbooks/internal/contacts"
	"github.com/fernbooks/fernbooks/internal/documents"
	"github.com/fernbooks/fernbooks/internal/journals"
	"github.com/fernbooks/fernbooks/internal/observability"
	"github.com/fernbooks/fernbooks/internal/payments"
	"github.com/fernbooks/fernbooks/internal/platform/cache"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()

	contactsRepo := contacts.NewPostgresRepository(dbpool)
	contactsService := contacts.NewService(contactsRepo, logger)
	contactsHandler := contacts.NewHandler(logger, contactsService)

	documentsRepo := documents.NewRepository(dbpool)
	documentsService := documents.NewService(documentsRepo, contactsService, logger)
	documentsHandler := documents.NewHandler(logger, documentsService, metrics)

	paymentsRepo := payments.NewRepository(dbpool)
	paymentsService := payments.NewService(paymentsRepo, logger)
	paymentsHandler := payments.NewHandler(logger, paymentsService, metrics)

	bankingRepo := banking.NewRepository(dbpool)
	bankingService := banking.NewService(bankingRepo, redisClient, logger)
	bankingHandler := banking.NewHandler(logger, bankingService)

	journalsRepo := journals.NewRepository(dbpool)
	journalsService := journals.NewService(journalsRepo, logger)
	journalsHandler := journals.NewHandler(logger, journalsService)

	recurringRepo := recurring.NewRepository(dbpool)
	recurringService := recurring.NewService(recurringRepo, documentsService, logger)
	recurringHandler := recurring.NewHandler(logger, recurringService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewJobsHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		DocumentsHandler: documentsHandler,
		ContactsHandler:  contactsHandler,
		PaymentsHandler:  paymentsHandler,
		BankingHandler:   bankingHandler,
		JournalsHandler:  journalsHandler,
		RecurringHandler: recurringHandler,
		JobsHandler:      jobsHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("http server", slog.Any("error", err))
		os.Exit(1)
	}
}
