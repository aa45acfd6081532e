// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/slipbox/internal/api"
	"github.com/starford/slipbox/internal/index"
	"github.com/starford/slipbox/internal/mcpserver"
	"github.com/starford/slipbox/internal/sse"
)

// Version is reported by the MCP server and the CLI.
var Version = "dev"

// Run opens the repository and serves the HTTP API until ctx is cancelled
// or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := New(opts...)
	if err != nil {
		return err
	}
	return app.Serve(ctx)
}

// Handler builds the HTTP handler: health endpoints, the API under /api,
// attachments and rendered pages.
func (a *App) Handler(broker *sse.Broker) http.Handler {
	cfg := a.config
	attachments := api.NewAttachmentHandler(a.store, cfg.AttachmentsPath)
	var events http.Handler
	if broker != nil {
		events = broker
	}
	apiRouter := api.NewRouter(a.svc, attachments, cfg.Auth.AuthEnabled(), cfg.Auth.Token, events)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ok, err := a.store.Exists(cfg.NotesPath); err != nil || !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"notes directory missing"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)
	r.Get("/attachments/{filename}", attachments.ServeFile)
	if dir, err := a.store.Abs(cfg.HTMLPath); err == nil {
		r.Handle("/html/*", http.StripPrefix("/html/", http.FileServer(http.Dir(dir))))
	}
	return r
}

// Serve runs the HTTP API with live note events until ctx is cancelled or
// a shutdown signal arrives.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.config
	logger := a.logger

	logger.Info("Configuration loaded",
		slog.String("root", a.root),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("notes_path", cfg.NotesPath),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := a.store.MkdirAll(cfg.NotesPath); err != nil {
		return fmt.Errorf("create notes dir: %w", err)
	}
	notesDir, err := a.store.Abs(cfg.NotesPath)
	if err != nil {
		return err
	}

	res, err := a.repo.ScanAll(ctx)
	if err != nil {
		return fmt.Errorf("initial scan: %w", err)
	}
	for _, f := range res.Failures {
		logger.Warn("scan: skipped note", slog.String("file", f.File), slog.String("error", f.Err.Error()))
	}
	logger.Info("Repository scanned", slog.Int("notes", len(res.Notes)), slog.Int("failures", len(res.Failures)))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           a.Handler(broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher with SSE callback.
	g.Go(func() error {
		return index.Watch(gCtx, notesDir, index.DefaultDebounce, logger, broker.PublishNoteEvent)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown stops the errgroup's other members once the server is down.
var errShutdown = errors.New("shutdown")

// ServeMCP serves the MCP tools on stdin/stdout until the client disconnects.
func (a *App) ServeMCP(_ context.Context) error {
	srv := mcpserver.New(a.svc, Version, mcpserver.WithAttachments(a.store, a.config.AttachmentsPath))
	a.logger.Info("MCP server starting on stdio", slog.String("root", a.root))
	return srv.ServeStdio()
}
