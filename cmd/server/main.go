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

	"github.com/mamadbah2/relief/internal/config"
	"github.com/mamadbah2/relief/internal/repository"
	"github.com/mamadbah2/relief/internal/repository/memory"
	"github.com/mamadbah2/relief/internal/repository/mongodb"
	"github.com/mamadbah2/relief/internal/repository/sheets"
	"github.com/mamadbah2/relief/internal/scheduler"
	"github.com/mamadbah2/relief/internal/server/handlers"
	"github.com/mamadbah2/relief/internal/server/router"
	centersvc "github.com/mamadbah2/relief/internal/service/centers"
	exchangesvc "github.com/mamadbah2/relief/internal/service/exchange"
	"github.com/mamadbah2/relief/internal/service/notification"
	reportingsvc "github.com/mamadbah2/relief/internal/service/reporting"
	"github.com/mamadbah2/relief/pkg/clients/webhook"
	"github.com/mamadbah2/relief/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	store, err := openStore(cfg, baseLogger.Named("repo"))
	if err != nil {
		baseLogger.Fatal("failed to init store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	notifiers := notification.Multi{notification.NewLogNotifier(baseLogger.Named("notify.log"))}
	var publisher webhook.Client
	if cfg.Notify.Enabled() {
		client := webhook.NewClient(cfg.Notify.WebhookURL, cfg.Notify.WebhookToken, cfg.Notify.Timeout)
		publisher = client
		notifiers = append(notifiers, notification.NewWebhookNotifier(client, cfg.Notify.Timeout))
		baseLogger.Info("webhook notifications enabled")
	} else {
		baseLogger.Warn("NOTIFY_WEBHOOK_URL missing, capacity alerts are only logged")
	}

	var exporter sheets.Exporter
	if cfg.Sheets.Enabled() {
		sheetExporter, err := sheets.NewGoogleSheetExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
		exporter = sheetExporter
	}

	centerSvc := centersvc.NewService(store, cfg.Exchange.Points, notifiers, baseLogger.Named("svc.centers"))
	exchangeSvc := exchangesvc.NewService(store, cfg.Exchange.Points, baseLogger.Named("svc.exchange"))
	reportingSvc := reportingsvc.NewService(store, baseLogger.Named("svc.reporting"))

	centerHandler := handlers.NewCenterHandler(centerSvc, exchangeSvc, baseLogger.Named("handlers.centers"))
	reportHandler := handlers.NewReportHandler(reportingSvc, baseLogger.Named("handlers.reports"))
	engine := router.New(centerHandler, reportHandler, store, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, exporter, publisher, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

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
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("points", cfg.Exchange.Points.String()))
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
	centerSvc.Wait()
}

func openStore(cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	if cfg.Store.Driver == config.DriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, err := mongodb.NewStore(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, logger.Named("mongodb"))
	if err != nil {
		return nil, err
	}
	return store, nil
}
