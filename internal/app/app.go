// Package app initializes and orchestrates the main components of the
// PatchPilot application. It wires together the configuration, server, and
// background job dispatcher.
package app

import (
	"context"
	"log/slog"

	"github.com/patchpilot/patchpilot/internal/config"
	"github.com/patchpilot/patchpilot/internal/core"
	"github.com/patchpilot/patchpilot/internal/gitutil"
	"github.com/patchpilot/patchpilot/internal/jobs"
	"github.com/patchpilot/patchpilot/internal/server"
	"github.com/patchpilot/patchpilot/internal/storage"
)

// App holds the main application components. Fields are exported so the CLI
// can drive individual services without going through the webhook server.
type App struct {
	Cfg        *config.Config
	Server     *server.Server
	Logger     *slog.Logger
	Dispatcher core.JobDispatcher
	Store      storage.Store
	Reviewer   jobs.Reviewer
	GitClient  *gitutil.Client

	ctx context.Context
}

// NewApp assembles the application from its already-constructed parts.
func NewApp(
	ctx context.Context,
	cfg *config.Config,
	srv *server.Server,
	dispatcher core.JobDispatcher,
	store storage.Store,
	reviewer jobs.Reviewer,
	gitClient *gitutil.Client,
	logger *slog.Logger,
) *App {
	return &App{
		Cfg:        cfg,
		Server:     srv,
		Logger:     logger,
		Dispatcher: dispatcher,
		Store:      store,
		Reviewer:   reviewer,
		GitClient:  gitClient,
		ctx:        ctx,
	}
}

// Start runs the HTTP server.
func (a *App) Start() error {
	a.Logger.Info("starting PatchPilot",
		"server_port", a.Cfg.Server.Port,
		"llm_provider", a.Cfg.LLM.Provider,
		"max_workers", a.Cfg.MaxWorkers)

	if err := a.Server.Start(); err != nil {
		a.Logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.Logger.Info("shutting down PatchPilot services")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.Server.Stop()
	if serverErr != nil {
		a.Logger.Error("error during HTTP server shutdown", "error", serverErr)
		// Continue to stop other components even if the server failed.
	}

	// Stop the job dispatcher, allowing in-flight jobs to finish.
	a.Dispatcher.Stop()

	if serverErr != nil {
		a.Logger.Error("PatchPilot stopped with errors", "error", serverErr)
		return serverErr
	}

	a.Logger.Info("PatchPilot stopped successfully")
	return nil
}
