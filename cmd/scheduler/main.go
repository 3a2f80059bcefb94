package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/trainer-scheduler/internal/analytics"
	"github.com/example/trainer-scheduler/internal/application"
	"github.com/example/trainer-scheduler/internal/config"
	"github.com/example/trainer-scheduler/internal/events"
	httptransport "github.com/example/trainer-scheduler/internal/http"
	"github.com/example/trainer-scheduler/internal/logging"
	"github.com/example/trainer-scheduler/internal/persistence/sqlstore"
	"github.com/example/trainer-scheduler/internal/repository"
	"github.com/example/trainer-scheduler/internal/scheduler"
	"github.com/example/trainer-scheduler/internal/tracing"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("scheduler stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.store.Refresh(ctx); err != nil {
		logger.Warn("initial refresh failed, serving an empty schedule", "error", err, "error_kind", application.ErrorKind(err))
	}

	refresher, err := application.NewRefresher(app.store, cfg.RefreshSchedule, cfg.RefreshTimeout, logger)
	if err != nil {
		return err
	}
	refresher.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.RefreshTimeout)
		defer cancel()
		if err := refresher.Stop(stopCtx); err != nil {
			logger.Warn("refresher did not stop cleanly", "error", err)
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("scheduler API listening", "addr", server.Addr, "conflict_policy", cfg.ConflictPolicy, "repository", repositoryMode(cfg))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// app is the wired service without its listener.
type app struct {
	db      *sqlstore.DB
	store   *application.Store
	handler http.Handler
	closers []func()
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	db, err := sqlstore.Open(ctx, sqlstore.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a := &app{db: db}
	a.closers = append(a.closers, func() {
		if cerr := db.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	})

	if err := db.Migrate(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	logger.Info("database migrated", "driver", cfg.DBDriver)

	backend := repository.NewBackend(db.Events(), db.Trainers())

	var transport repository.Transport = repository.NewLocalTransport(backend)
	if cfg.RepositoryURL != "" {
		transport = repository.NewHTTPTransport(cfg.RepositoryURL, &http.Client{Timeout: cfg.RepositoryTimeout})
	}
	client := repository.NewClient(transport, repository.WithLogger(logger))

	hub := events.NewHub(logger)
	if cfg.NATSURL != "" {
		publisher, conn, err := events.ConnectNATS(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		hub.Subscribe(publisher.Listener())
		a.closers = append(a.closers, func() {
			if err := conn.Drain(); err != nil {
				logger.Warn("failed to drain nats connection", "error", err)
			}
		})
		logger.Info("publishing schedule updates to nats", "subject", cfg.NATSSubject)
	}

	policy, _ := application.ParseConflictPolicy(cfg.ConflictPolicy)
	a.store = application.NewStore(client,
		application.WithHub(hub),
		application.WithConflictPolicy(policy),
		application.WithSlotPolicy(scheduler.Policy{
			HorizonDays:     cfg.SlotHorizonDays,
			Step:            cfg.SlotStep,
			DefaultDuration: cfg.SlotDefaultDuration,
		}),
		application.WithAnalyticsConfig(analytics.Config{
			BaselineWeeklyHours: cfg.BaselineWeeklyHours,
			RevenuePerEvent:     cfg.RevenuePerEvent,
		}),
		application.WithLocation(cfg.Location()),
		application.WithReportCacheTTL(cfg.AnalyticsCacheTTL),
		application.WithStoreLogger(logger),
	)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Repository: httptransport.NewRepositoryHandler(backend, logger),
		Schedule:   httptransport.NewScheduleHandler(a.store, logger),
		Updates:    httptransport.NewUpdatesHandler(a.store, logger),
		Health:     httptransport.NewHealthHandler(db, logger),
		Metrics:    promhttp.Handler(),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.Recover(logger),
			httptransport.Metrics(),
		},
	})
	a.handler = router
	return a, nil
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func repositoryMode(cfg config.Config) string {
	if cfg.RepositoryURL != "" {
		return cfg.RepositoryURL
	}
	return "local"
}
