package main

import (
	"github.com/patchpilot/patchpilot/internal/app"
	"github.com/patchpilot/patchpilot/internal/core"
	"github.com/patchpilot/patchpilot/internal/review"
)

// Indicates that the core application services have been initialized.
type appInitializedMsg struct {
	app *app.App
	err error
}

// Carries the result of a completed pull request review.
type reviewCompleteMsg struct {
	prTitle  string
	rendered string
	comments []review.PlacedComment
	posted   bool
	err      error
}

// Carries the stored review history for a pull request.
type historyLoadedMsg struct {
	records []core.ReviewRecord
	err     error
}

// A generic error message for reporting failures from commands.
type errorMsg struct{ err error }

func (e errorMsg) Error() string {
	return e.err.Error()
}
