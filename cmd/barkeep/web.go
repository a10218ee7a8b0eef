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

	"barkeep/internal/admin"
	"barkeep/internal/auth"
	"barkeep/internal/barcode"
	"barkeep/internal/bartender"
	"barkeep/internal/cache"
	"barkeep/internal/config"
	"barkeep/internal/history"
	"barkeep/internal/inventory"
	"barkeep/internal/logsink"
	"barkeep/internal/mail"
	"barkeep/internal/recipes"
	"barkeep/internal/telemetry"
	"barkeep/internal/users"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func runServer(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	ctx := context.Background()

	closeLogging, err := setupLogging(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLogging(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush logs: %v\n", err)
		}
	}()

	store, err := cache.MakeCache(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}

	handler, err := newHandler(ctx, cfg, store)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("Serving Barkeep", "address", cfg.Server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		slog.Info("Shutdown signal received", "signal", sig)
		return gracefulShutdown(server, cfg.Server)
	}
}

// newHandler wires every package onto one mux behind the auth and metrics
// middleware. The catalog is seeded without overwriting existing entries.
func newHandler(ctx context.Context, cfg *config.Config, store cache.ListCache) (http.Handler, error) {
	userStorage := users.NewStorage(store)
	authClient, err := auth.NewFromConfig(cfg, userStorage)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}

	catalog := recipes.IO(store)
	if written, err := catalog.Seed(ctx, false); err != nil {
		// not fatal: /ready stays unhealthy until the catalog has recipes
		slog.ErrorContext(ctx, "failed to seed catalog", "error", err)
	} else {
		slog.InfoContext(ctx, "seeded catalog", "written", written)
	}

	bar := inventory.NewStorage(store, catalog)
	sessions := bartender.NewMemoryStore()

	mux := http.NewServeMux()
	users.NewHandler(userStorage).Register(mux)
	recipes.NewHandler(store, bar, userStorage, mail.New(cfg.Mail)).Register(mux)
	inventory.NewHandler(bar, barcode.NewClient(cfg.Barcode)).Register(mux)
	history.NewHandler(history.NewHistoryStorage(store, cfg.History.RetentionDays), catalog).Register(mux)
	bartender.NewHandler(catalog, sessions, bartender.NewCacheRecentStore(store)).Register(mux)

	var logReader admin.LogReader
	if cfg.LogSink.IsEnabled() {
		client, err := cache.NewBlobClient(cfg.Storage.AccountName, cfg.Storage.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create log reader client: %w", err)
		}
		logReader = logsink.NewReader(client, sinkConfig(cfg))
	}

	adminMux := http.NewServeMux()
	admin.NewHandler(catalog, userStorage, sessions, logReader).Register(adminMux)
	mux.Handle("/admin/", admin.New(cfg, authClient).Enforce(adminMux))

	ro := &readyOnce{}
	ro.Add(catalog)
	mux.Handle("GET /ready", ro)
	mux.Handle("GET /metrics", promhttp.Handler())

	return authClient.WithAuthHTTP(WithMiddleware(mux)), nil
}

// setupLogging installs a JSON stdout logger fanned out to the append blob
// sink and the OTLP bridge when those are configured. The returned func
// flushes both.
func setupLogging(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	handlers := []slog.Handler{slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})}
	var sink *logsink.Handler

	if cfg.LogSink.IsEnabled() {
		client, err := cache.NewBlobClient(cfg.Storage.AccountName, cfg.Storage.AccountKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create log sink client: %w", err)
		}
		sink = logsink.New(client, sinkConfig(cfg))
		handlers = append(handlers, sink)
	}

	providers, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		if sink != nil {
			_ = sink.Close()
		}
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	if providers.Handler != nil {
		handlers = append(handlers, providers.Handler)
	}

	slog.SetDefault(slog.New(slog.NewMultiHandler(handlers...)))
	slog.InfoContext(ctx, "logging configured", "log_sink", sink != nil, "telemetry", providers.Enabled())

	return func(ctx context.Context) error {
		var errs []error
		if sink != nil {
			errs = append(errs, sink.Close())
		}
		errs = append(errs, providers.Shutdown(ctx))
		return errors.Join(errs...)
	}, nil
}

func sinkConfig(cfg *config.Config) logsink.Config {
	return logsink.Config{Container: cfg.LogSink.Container, Prefix: cfg.Telemetry.ServiceName}
}

func gracefulShutdown(svr *http.Server, cfg config.ServerConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		// Force close after timeout
		if closeErr := svr.Close(); closeErr != nil {
			slog.Error("Server close error", "error", closeErr)
		}
		return err
	}
	slog.Info("Server stopped")
	return nil
}
