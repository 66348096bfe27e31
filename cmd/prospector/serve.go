package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/prospector/internal/app"
	dashboardhttp "github.com/odyssey-erp/prospector/internal/dashboard/http"
	"github.com/odyssey-erp/prospector/internal/dataset"
	"github.com/odyssey-erp/prospector/internal/leads"
	"github.com/odyssey-erp/prospector/internal/observability"
	"github.com/odyssey-erp/prospector/internal/platform/cache"
	"github.com/odyssey-erp/prospector/internal/report"
	"github.com/odyssey-erp/prospector/internal/shared"
	"github.com/odyssey-erp/prospector/internal/view"
	"github.com/odyssey-erp/prospector/jobs"
)

func runServe(ctx context.Context) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := app.NewLogger(cfg)

	redisClient := cache.Open(ctx, cfg.RedisAddr, logger)
	defer cache.Close(redisClient, logger)

	sessionManager := shared.NewSessionManager(redisClient, "prospector_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	targets, err := cfg.LoadTargets()
	if err != nil {
		return fmt.Errorf("load target codes: %w", err)
	}
	logger.Info("target table loaded", slog.Int("codes", targets.Len()))

	metrics := observability.NewMetrics()

	stack, err := app.NewReportStack(cfg, logger, metrics)
	if err != nil {
		return err
	}
	if err := stack.Converter.Ping(ctx); err != nil {
		logger.Warn("gotenberg ping", slog.Any("error", err))
	}

	handlerCfg := dashboardhttp.Config{
		Logger:    logger,
		Templates: templates,
		Engine:    leads.NewEngine(targets),
		Datasets:  dataset.NewStore(redisClient, cfg.SessionTTL),
		Reports:   stack.Service,
		Observer:  metrics,
		CSRF:      csrfManager,
		MaxUpload: cfg.UploadMaxBytes,
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	if cfg.AsyncReports {
		queue, err := jobs.NewClient(redisOpts)
		if err != nil {
			return fmt.Errorf("init job client: %w", err)
		}
		defer func() {
			if err := queue.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		handlerCfg.Queue = queue
		handlerCfg.Results = report.NewResultStore(redisClient, cfg.ReportTTL)
	}
	leadsHandler := dashboardhttp.NewHandler(handlerCfg)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		LeadsHandler:   leadsHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Bool("async_reports", cfg.AsyncReports))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
