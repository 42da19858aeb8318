// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"context"
	"fmt"

	"github.com/patchpilot/patchpilot/internal/app"
	"github.com/patchpilot/patchpilot/internal/config"
	"github.com/patchpilot/patchpilot/internal/db"
	"github.com/patchpilot/patchpilot/internal/gitutil"
	"github.com/patchpilot/patchpilot/internal/jobs"
	"github.com/patchpilot/patchpilot/internal/llm"
	"github.com/patchpilot/patchpilot/internal/server"
)

// InitializeApp creates and wires all application dependencies.
func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	slogLogger := provideLogger(cfg)

	model, err := llm.NewModel(ctx, cfg.LLM, slogLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create model: %w", err)
	}

	promptMgr, err := llm.NewPromptManager()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create prompt manager: %w", err)
	}
	reviewer := provideReviewer(model, promptMgr, cfg, slogLogger)

	dbConn, dbCleanup, err := db.NewDatabase(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	store := provideStore(dbConn)

	gitClient := gitutil.NewClient(slogLogger)

	reviewJob := jobs.NewReviewJob(cfg, reviewer, gitClient, store, slogLogger)
	dispatcher := provideDispatcher(reviewJob, cfg, slogLogger)
	srv := server.NewServer(ctx, cfg, dispatcher, slogLogger)

	application := app.NewApp(ctx, cfg, srv, dispatcher, store, reviewer, gitClient, slogLogger)

	cleanup := func() {
		dbCleanup()
	}

	return application, cleanup, nil
}
