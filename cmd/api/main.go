package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/globelconnect/esim-backend/api/routes"
	"github.com/globelconnect/esim-backend/internal/cron"
	"github.com/globelconnect/esim-backend/internal/esimaccess"
	"github.com/globelconnect/esim-backend/internal/orders"
	"github.com/globelconnect/esim-backend/internal/plans"
	"github.com/globelconnect/esim-backend/pkg/config"
	"github.com/globelconnect/esim-backend/pkg/instance"
	"github.com/globelconnect/esim-backend/pkg/logger"
	"github.com/globelconnect/esim-backend/pkg/metrics"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      logFormat(cfg),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var vendor *esimaccess.Client
	if cfg.Vendor.AccessCode != "" {
		vendor, err = esimaccess.NewClient(cfg.Vendor.AccessCode,
			esimaccess.WithBaseURL(cfg.Vendor.BaseURL),
			esimaccess.WithSecret(cfg.Vendor.Secret),
			esimaccess.WithTimeout(cfg.Vendor.Timeout),
		)
		if err != nil {
			logg.Error(ctx, "failed to create vendor client", err)
			os.Exit(1)
		}
	} else if !cfg.Sync.UsesCSV() {
		logg.Error(ctx, "failed to configure plan source", errors.New("ESIM_ACCESS_CODE is required when PLANS_CSV_URL is empty"))
		os.Exit(1)
	} else {
		logg.Warn(ctx, "ESIM_ACCESS_CODE not set; order endpoints are disabled")
	}

	catalog := plans.NewStore()

	syncParams := cron.PlanSyncJobParams{
		Logger:  logg,
		Store:   catalog,
		Feed:    plans.NewFeedFetcher(plans.WithFeedTimeout(cfg.Sync.CSVTimeout)),
		CSVURL:  cfg.Sync.CSVURL,
		Metrics: metrics.NewCatalogMetrics(prometheus.DefaultRegisterer),
	}
	if vendor != nil {
		syncParams.Vendor = vendor
	}
	syncJob, err := cron.NewPlanSyncJob(syncParams)
	if err != nil {
		logg.Error(ctx, "failed to create plan sync job", err)
		os.Exit(1)
	}

	scheduler, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(syncJob),
		Lock:     cron.NewMutexLock(),
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Schedule: cfg.Sync.Cron,
	})
	if err != nil {
		logg.Error(ctx, "failed to create sync scheduler", err)
		os.Exit(1)
	}

	var ordersSvc orders.Service
	if vendor != nil {
		ordersSvc, err = orders.NewService(orders.ServiceParams{
			Vendor:  vendor,
			Logger:  logg,
			Metrics: metrics.NewOrderMetrics(prometheus.DefaultRegisterer),
		})
		if err != nil {
			logg.Error(ctx, "failed to create orders service", err)
			os.Exit(1)
		}
	}

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	ctx = logg.WithPlanSource(ctx, syncJob.Source().String())

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "plan sync scheduler stopped unexpectedly", err)
		}
	}()

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			Catalog:  catalog,
			Orders:   ordersSvc,
			Gatherer: prometheus.DefaultGatherer,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			stop()
			<-schedulerDone
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
	}
	<-schedulerDone
	logg.Info(ctx, "api shutting down gracefully")
}

// logFormat keeps json everywhere except local development.
func logFormat(cfg *config.Config) string {
	if cfg.App.IsDev() {
		return logger.FormatConsole
	}
	return logger.FormatJSON
}
