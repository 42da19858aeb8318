package wire

import (
	"log/slog"
	"os"

	"github.com/google/wire"
	"github.com/sevigo/goframe/llms"

	"github.com/patchpilot/patchpilot/internal/app"
	"github.com/patchpilot/patchpilot/internal/config"
	"github.com/patchpilot/patchpilot/internal/core"
	"github.com/patchpilot/patchpilot/internal/db"
	"github.com/patchpilot/patchpilot/internal/gitutil"
	"github.com/patchpilot/patchpilot/internal/jobs"
	"github.com/patchpilot/patchpilot/internal/llm"
	"github.com/patchpilot/patchpilot/internal/logger"
	"github.com/patchpilot/patchpilot/internal/server"
	"github.com/patchpilot/patchpilot/internal/storage"
)

var AppSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	config.LoadConfig,
	db.NewDatabase,
	gitutil.NewClient,
	jobs.NewReviewJob,
	llm.NewPromptManager,
	llm.NewModel,
	provideLLMConfig,
	provideDBConfig,
	provideReviewer,
	provideDispatcher,
	provideStore,
	provideLogger,
)

func provideLogger(cfg *config.Config) *slog.Logger {
	return logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
}

func provideLLMConfig(cfg *config.Config) config.LLMConfig {
	return cfg.LLM
}

func provideDBConfig(cfg *config.Config) config.DBConfig {
	return cfg.Database
}

func provideStore(conn *db.DB) storage.Store {
	return storage.NewStore(conn.DB)
}

func provideReviewer(model llms.Model, prompts *llm.PromptManager, cfg *config.Config, log *slog.Logger) jobs.Reviewer {
	return llm.NewReviewer(model, prompts, cfg.LLM.Provider, cfg.LLM.Timeout, log)
}

func provideDispatcher(reviewJob core.Job, cfg *config.Config, log *slog.Logger) core.JobDispatcher {
	return jobs.NewDispatcher(reviewJob, cfg.MaxWorkers, log)
}
