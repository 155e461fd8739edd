// Package internal wires configuration, logging and the knowledge base
// services into a runnable application.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/starford/localshelf/internal/inbox"
	"github.com/starford/localshelf/internal/index"
	"github.com/starford/localshelf/internal/mcpserver"
	"github.com/starford/localshelf/internal/models"
	"github.com/starford/localshelf/internal/shelf"
)

// App holds the services built from one configuration.
type App struct {
	Config *Config
	Logger *slog.Logger
	Shelf  *shelf.Service

	db *index.DB
}

// Open builds the logger, opens the index and prepares the shelf service.
func Open(opts ...Option) (*App, error) {
	a := &application{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(a)
	}
	if a.config == nil {
		return nil, errors.New("config is required")
	}
	cfg := a.config

	logger := NewLogger(cfg.App, a.logOutput)
	slog.SetDefault(logger)

	root, err := cfg.Shelf.KnowledgeBase()
	if err != nil {
		return nil, err
	}
	dbPath, err := cfg.SQLite.Resolve()
	if err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded",
		slog.String("knowledge_base", root),
		slog.String("inbox", cfg.Shelf.InboxPath),
		slog.String("sqlite_path", dbPath),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := index.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	svc, err := shelf.New(root, shelf.WithIndex(db), shelf.WithLogger(logger))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init shelf: %w", err)
	}
	if err := svc.Reindex(); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return &App{Config: cfg, Logger: logger, Shelf: svc, db: db}, nil
}

// Close releases the index.
func (a *App) Close() error {
	return a.db.Close()
}

// Watch stows the Markdown files already in dir, then keeps stowing new
// ones as they arrive until ctx is cancelled or a shutdown signal is
// received. report is called after every batch.
func (a *App) Watch(ctx context.Context, dir string, report func(*models.StowReport, error)) error {
	return a.runUntilSignal(ctx, func(ctx context.Context) error {
		return inbox.Watch(ctx, dir, a.Logger, func(ctx context.Context, paths []string) {
			report(a.Shelf.Stow(ctx, paths))
		})
	})
}

// ServeMCP serves the MCP tools over stdin/stdout.
func (a *App) ServeMCP(ctx context.Context, version string, in io.Reader, out io.Writer) error {
	srv := mcpserver.New(a.Shelf, version)
	a.Logger.Info("MCP server starting", slog.String("transport", "stdio"))
	return a.runUntilSignal(ctx, func(ctx context.Context) error {
		err := srv.Serve(ctx, in, out, a.Logger)
		if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
			return nil
		}
		return err
	})
}

// runUntilSignal runs fn until it returns, ctx is cancelled, or SIGINT or
// SIGTERM arrives.
func (a *App) runUntilSignal(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return fn(gCtx)
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.Logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		a.Logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
