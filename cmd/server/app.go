package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/atxp-dev/atxp-image-demo/internal/config"
	"github.com/atxp-dev/atxp-image-demo/internal/events"
	"github.com/atxp-dev/atxp-image-demo/internal/platform/imagejob"
	"github.com/atxp-dev/atxp-image-demo/internal/poller"
	"github.com/atxp-dev/atxp-image-demo/internal/service"
	"github.com/atxp-dev/atxp-image-demo/internal/store"
)

// application holds all shared dependencies so wiring and cleanup live in
// one place. Everything is constructed once at startup and injected; there
// are no ambient globals.
type application struct {
	config *config.Config
	logger *slog.Logger

	taskStore      *store.TaskStore
	hub            *events.Hub
	pollerRegistry *poller.Registry
	jobClient      imagejob.JobClient
	credResolver   imagejob.CredentialResolver
	submissions    *service.SubmissionService
}

// newApplication wires the application's dependencies.
func newApplication(cfg *config.Config, logger *slog.Logger) *application {
	app := &application{
		config: cfg,
		logger: logger,
	}

	app.taskStore = store.NewTaskStore(logger)
	app.hub = events.NewHub(cfg.Hub.SubscriberBuffer, logger)
	app.pollerRegistry = poller.NewRegistry(logger)
	app.credResolver = imagejob.NewHeaderCredentialResolver()

	app.jobClient = imagejob.NewHTTPClient(imagejob.HTTPClientConfig{
		BaseURL:        cfg.ImageJob.BaseURL,
		RequestTimeout: time.Duration(cfg.ImageJob.RequestTimeoutSeconds) * time.Second,
	}, logger)

	app.submissions = service.NewSubmissionService(
		app.taskStore,
		app.jobClient,
		app.hub,
		app.pollerRegistry,
		poller.Config{
			Interval:      time.Duration(cfg.Poller.IntervalSeconds) * time.Second,
			MaxAttempts:   cfg.Poller.MaxAttempts,
			ProgressEvery: cfg.Poller.ProgressEvery,
		},
		logger,
	)

	logger.Info("application initialized")
	return app
}

// Run starts the HTTP server and blocks until shutdown completes.
func (app *application) Run(ctx context.Context) error {
	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup drains background work during graceful shutdown: cancel and await
// in-flight pollers, then detach all stream subscribers.
func (app *application) cleanup(ctx context.Context) {
	if err := app.pollerRegistry.Shutdown(ctx); err != nil {
		app.logger.Warn("poller drain incomplete", "error", err)
	}
	app.hub.Close()
	app.logger.Info("application shutdown completed")
}
