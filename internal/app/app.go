// Package app provides application lifecycle management for the bundle sync service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/stacklok/toolhive-bundle-sync/internal/config"
)

// App encapsulates all components needed to run the bundle sync service.
// It provides lifecycle management and graceful shutdown capabilities.
type App struct {
	config     *config.Config
	components *Components
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
	closeErr   error
}

// Start starts the background workers and the HTTP server.
// This method blocks until the HTTP server stops or encounters an error.
func (app *App) Start() error {
	c := app.components

	if c.Prefs != nil {
		go func() {
			if err := c.Prefs.Watch(app.ctx); err != nil {
				slog.Error("Preference watcher failed", "error", err)
			}
		}()
	}

	if c.Coordinator != nil {
		go func() {
			if err := c.Coordinator.Start(app.ctx); err != nil {
				slog.Error("Update check coordinator failed", "error", err)
			}
		}()
	}

	if c.Push != nil {
		go func() {
			if err := c.Push.Start(app.ctx); err != nil {
				slog.Error("Push subscription failed", "error", err)
			}
		}()
	}

	// Start HTTP server (blocks until stopped)
	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout.
// Background workers stop first, then the HTTP server, then storage and telemetry.
func (app *App) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")
	c := app.components

	if c.Coordinator != nil {
		if err := c.Coordinator.Stop(); err != nil {
			slog.Error("Failed to stop update check coordinator", "error", err)
		}
	}
	if c.Push != nil {
		if err := c.Push.Stop(); err != nil {
			slog.Error("Failed to stop push subscription", "error", err)
		}
	}

	// Cancel the application context
	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	// Graceful HTTP server shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	app.closeOnce.Do(func() {
		app.closeErr = c.Close(shutdownCtx)
	})
	if app.closeErr != nil {
		return fmt.Errorf("failed to release components: %w", app.closeErr)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *App) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *App) GetHTTPServer() *http.Server {
	return app.httpServer
}

// Components returns the running components
func (app *App) Components() *Components {
	return app.components
}
