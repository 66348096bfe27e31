package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/prospector/internal/app"
	"github.com/odyssey-erp/prospector/internal/dataset"
	"github.com/odyssey-erp/prospector/internal/observability"
	"github.com/odyssey-erp/prospector/internal/platform/cache"
	"github.com/odyssey-erp/prospector/internal/report"
	"github.com/odyssey-erp/prospector/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient := cache.Open(ctx, cfg.RedisAddr, logger)
	defer cache.Close(redisClient, logger)

	metrics := observability.NewMetrics()
	stack, err := app.NewReportStack(cfg, logger, metrics)
	if err != nil {
		logger.Error("init report pipeline", slog.Any("error", err))
		os.Exit(1)
	}
	if err := stack.Converter.Ping(ctx); err != nil {
		logger.Warn("gotenberg ping", slog.Any("error", err))
	}

	reportJob := report.NewJob(report.JobConfig{
		Service:  stack.Service,
		Datasets: dataset.NewStore(redisClient, cfg.SessionTTL),
		Results:  report.NewResultStore(redisClient, cfg.ReportTTL),
		Metrics:  metrics.Jobs(),
		Logger:   logger,
	})

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReportRender, Handler: reportJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting worker metrics", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("worker metrics shutdown", slog.Any("error", err))
		}
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
