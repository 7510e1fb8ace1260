package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/s1natex/todo-api-GO/internal/config"
	"github.com/s1natex/todo-api-GO/internal/middleware"
	"github.com/s1natex/todo-api-GO/internal/mongostore"
	"github.com/s1natex/todo-api-GO/internal/telemetry"
	"github.com/s1natex/todo-api-GO/internal/todos"
)

func main() {
	cfg, err := config.Read()
	if err != nil {
		slog.Error("config_error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger) // for third-party packages that use slog

	if err := run(cfg, logger); err != nil {
		logger.Error("server_error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Tracing.Exporter, cfg.ServiceName, os.Stdout)
	if err != nil {
		return err
	}

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return errors.Join(err, shutdownTracing(context.Background()))
	}

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: newRouter(repo, logger, cfg),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server_listen",
			slog.String("addr", srv.Addr),
			slog.String("storage", cfg.StorageDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err = <-serveErr:
	case <-ctx.Done():
		logger.Info("server_shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return errors.Join(
		err,
		srv.Shutdown(shutdownCtx),
		closeRepo(shutdownCtx),
		shutdownTracing(shutdownCtx),
	)
}

// openRepository builds the configured backend and returns a closer that
// releases it on shutdown.
func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (todos.Repository, func(context.Context) error, error) {
	switch cfg.StorageDriver {
	case config.StorageMongo:
		client, err := mongostore.Connect(ctx, mongostore.Options{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
			PingTimeout:    cfg.Mongo.PingTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return todos.NewMongoRepo(client.Collection(cfg.Mongo.Collection)), client.Close, nil

	case config.StorageSQLite:
		dsn, err := todos.SQLiteFileDSN(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite dsn: %w", err)
		}
		repo, err := todos.NewSQLiteRepo(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := repo.ApplyMigrations(ctx); err != nil {
			_ = repo.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		logger.Info("sqlite_opened", slog.String("path", cfg.SQLite.Path))
		return repo, func(context.Context) error { return repo.Close() }, nil

	case config.StorageMemory:
		logger.Warn("storage_in_memory", slog.String("note", "todos are lost on restart"))
		return todos.NewInMemoryRepo(), func(context.Context) error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// newRouter wires the health and metrics endpoints, todo routes, and middleware stack
func newRouter(repo todos.Repository, logger *slog.Logger, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// ---- Middleware stack (order matters a bit) ----
	// RequestID first so downstream can include it (logger, errors, etc.)
	r.Use(chimw.RequestID)

	// CORS ahead of the rate limiter: preflights never spend tokens and
	// 429s still carry Access-Control-Allow-Origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Trace-Id"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	// Outside Recoverer so recovered panics are logged with their 500.
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.TracingMiddleware)

	// Panic recovery: never crash the server; returns 500 on panics
	r.Use(chimw.Recoverer)

	r.Use(middleware.RateLimitMiddleware(
		middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		"/health", "/metrics",
	))

	// Timeouts: cancel handlers that exceed this duration
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	// Body parsing: cap request bodies
	r.Use(chimw.RequestSize(cfg.HTTP.MaxBodyBytes))

	// ---- Routes ----

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Method(http.MethodGet, "/metrics", middleware.MetricsHandler())

	// todo routes under /api
	r.Route("/api", func(r chi.Router) {
		todos.RegisterRoutes(r, repo, logger)
	})

	return r
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: l,
	})
	return slog.New(handler)
}
