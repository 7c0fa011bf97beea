package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/briquette/internal/config"
	"github.com/mamadbah2/briquette/internal/metrics"
	"github.com/mamadbah2/briquette/internal/repository/mongodb"
	"github.com/mamadbah2/briquette/internal/scheduler"
	"github.com/mamadbah2/briquette/internal/server/handlers"
	"github.com/mamadbah2/briquette/internal/server/router"
	kpisvc "github.com/mamadbah2/briquette/internal/service/kpi"
	recordsvc "github.com/mamadbah2/briquette/internal/service/records"
	"github.com/mamadbah2/briquette/pkg/clients/notify"
	"github.com/mamadbah2/briquette/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	// One store client for the whole process; an unusable connection string
	// leaves it unavailable instead of aborting startup.
	mongoRepo := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB, logger.Named(baseLogger, "repo.mongodb"))
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	appMetrics := metrics.New()

	recordsSvc := recordsvc.NewService(mongoRepo, appMetrics, logger.Named(baseLogger, "svc.records"))
	kpiSvc := kpisvc.NewService(mongoRepo, logger.Named(baseLogger, "svc.kpi"))

	var notifier notify.Client
	if client := notify.NewClient(cfg.Notify); client != nil {
		notifier = client
		baseLogger.Info("kpi snapshot webhook enabled")
	}

	sched, err := scheduler.NewScheduler(cfg.Snapshot, kpiSvc, notifier, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	engine := router.New(router.Handlers{
		Records:     handlers.NewRecordsHandler(recordsSvc, logger.Named(baseLogger, "handlers.records")),
		KPI:         handlers.NewKPIHandler(kpiSvc, logger.Named(baseLogger, "handlers.kpi")),
		Diagnostics: handlers.NewDiagnosticsHandler(mongoRepo, logger.Named(baseLogger, "handlers.diagnostics")),
	}, appMetrics, logger.Named(baseLogger, "router"))

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
