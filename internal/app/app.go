// Package app wires the document store, the search index, the scheduled
// synchronization jobs and the operations server into one application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/wiki-index-sync/internal/config"
)

// IndexSyncApp runs the sync coordinator next to the operations HTTP server
type IndexSyncApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server
	cleanup    func()
}

// Run starts the coordinator and the HTTP server and blocks until ctx is
// cancelled or either of them fails. Both are then stopped, the HTTP server
// within shutdownTimeout, and the owned backends are closed.
func (app *IndexSyncApp) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	defer app.cleanup()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.components.Coordinator.Start(gctx); err != nil {
			return fmt.Errorf("sync coordinator failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("Server listening", "address", app.httpServer.Addr)
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server...")

		if err := app.components.Coordinator.Stop(); err != nil {
			slog.Error("Failed to stop sync coordinator", "error", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		slog.Info("Server shutdown complete")
		return nil
	})

	return g.Wait()
}

// GetConfig returns the application configuration
func (app *IndexSyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server
func (app *IndexSyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the wired components
func (app *IndexSyncApp) Components() *AppComponents {
	return app.components
}
