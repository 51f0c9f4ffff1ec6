package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/vyrodovalexey/pathhint/internal/config"
	"github.com/vyrodovalexey/pathhint/internal/observability"
	"github.com/vyrodovalexey/pathhint/internal/server"
	"github.com/vyrodovalexey/pathhint/internal/util"
)

// run binds, serves and blocks until ctx is cancelled, then drains for up
// to server.DefaultShutdownTimeout. A bind failure is returned as is.
func run(ctx context.Context, app *application, flags cliFlags, logger observability.Logger) error {
	if err := app.server.Listen(ctx); err != nil {
		return err
	}

	if app.admin != nil {
		if err := app.admin.Listen(ctx); err != nil {
			_ = app.server.Stop(context.Background())
			return err
		}
	}

	var watcher *config.Watcher
	if flags.watchConfig && flags.configPath != "" {
		watcher = startConfigWatcher(ctx, flags.configPath, logger)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.server.Serve(); !errors.Is(err, util.ErrServerClosed) {
			return err
		}
		return nil
	})

	if app.admin != nil {
		g.Go(app.admin.Serve)
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down",
			observability.Int("active_connections", app.server.ActiveConnections()),
		)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		app.shutdown(shutdownCtx, watcher, logger)
		return nil
	})

	return g.Wait()
}

// startConfigWatcher reports edits to the configuration file. The route
// table cannot change at runtime, so edits only produce a log entry.
func startConfigWatcher(ctx context.Context, configPath string, logger observability.Logger) *config.Watcher {
	watcher, err := config.NewWatcher(configPath, func(previous, current *config.ServerConfig) {
		diff := config.DiffRoutes(previous, current)
		logger.Warn("configuration file changed, restart required to apply",
			observability.String("path", configPath),
			observability.Any("routes_added", diff.Added),
			observability.Any("routes_removed", diff.Removed),
		)
	}, config.WithLogger(logger))
	if err != nil {
		logger.Warn("failed to create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(ctx); err != nil {
		logger.Warn("failed to start config watcher", observability.Error(err))
		_ = watcher.Stop()
		return nil
	}

	return watcher
}

// waitForSignal cancels on SIGINT or SIGTERM.
func waitForSignal(cancel context.CancelFunc, logger observability.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	logger.Info("received shutdown signal", observability.String("signal", sig.String()))
	cancel()
}
