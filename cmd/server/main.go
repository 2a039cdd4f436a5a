package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/erp-tools/subvariance/internal/config"
	"github.com/erp-tools/subvariance/internal/observability/metrics"
	"github.com/erp-tools/subvariance/internal/repository/mongodb"
	"github.com/erp-tools/subvariance/internal/repository/seed"
	"github.com/erp-tools/subvariance/internal/repository/sheets"
	"github.com/erp-tools/subvariance/internal/scheduler"
	"github.com/erp-tools/subvariance/internal/server/handlers"
	"github.com/erp-tools/subvariance/internal/server/router"
	"github.com/erp-tools/subvariance/internal/service/dashboard"
	reportingsvc "github.com/erp-tools/subvariance/internal/service/reporting"
	"github.com/erp-tools/subvariance/pkg/clients/webhook"
	"github.com/erp-tools/subvariance/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Development()))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	source, err := newRecordSource(startupCtx, cfg, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init record source", zap.Error(err))
	}

	ctrl, err := dashboard.Load(startupCtx, source, dashboard.WithLogger(baseLogger.Named("svc.dashboard")))
	if err != nil {
		baseLogger.Fatal("failed to load records", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)
	appMetrics.ObserveStatistics(ctrl.Statistics())
	ctrl.Subscribe(appMetrics.ObserveStatistics)

	reportingSvc := reportingsvc.NewService(ctrl, baseLogger.Named("svc.reporting"))

	deps := scheduler.Deps{Stats: ctrl, Summarizer: reportingSvc, Metrics: appMetrics}
	var snapshots handlers.SnapshotReader

	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		deps.Store = mongoRepo
		snapshots = mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, statistics snapshots disabled")
	}

	if cfg.Notify.WebhookURL != "" {
		deps.Notifier = webhook.NewClient(cfg.Notify.WebhookURL, cfg.Notify.Timeout)
		baseLogger.Info("webhook notifications enabled")
	} else {
		baseLogger.Warn("webhook url missing, daily summary notifications disabled")
	}

	sched, err := scheduler.NewScheduler(cfg.Reporting, deps, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	apiHandler := handlers.NewDashboardHandler(ctrl, reportingSvc, snapshots, appMetrics, baseLogger.Named("handlers.api"))
	pageHandler := handlers.NewPageHandler(ctrl, reportingSvc, appMetrics, baseLogger.Named("handlers.page"))
	engine, err := router.New(apiHandler, pageHandler, registry, baseLogger.Named("router"))
	if err != nil {
		baseLogger.Fatal("failed to init router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newRecordSource(ctx context.Context, cfg *config.Config, baseLogger *zap.Logger) (dashboard.RecordSource, error) {
	if cfg.Source.Kind != config.SourceSheets {
		baseLogger.Info("using built-in seed records")
		return seed.NewSource(), nil
	}

	sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
	if err != nil {
		return nil, err
	}
	return sheets.NewRecordSource(sheetsRepo, cfg.Sheets.RecordsRange, baseLogger.Named("repo.sheets")), nil
}
