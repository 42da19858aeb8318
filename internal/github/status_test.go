package github_test

import (
	"context"
	"errors"
	"testing"

	gh "github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/patchpilot/patchpilot/internal/core"
	"github.com/patchpilot/patchpilot/internal/github"
	"github.com/patchpilot/patchpilot/mocks"
)

func testEvent() *core.GitHubEvent {
	return &core.GitHubEvent{
		RepoOwner: "acme",
		RepoName:  "widgets",
		PRNumber:  7,
		HeadSHA:   "abc123",
	}
}

func TestStatusUpdaterInProgress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().
		CreateCheckRun(gomock.Any(), "acme", "widgets", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, opts gh.CreateCheckRunOptions) (*gh.CheckRun, error) {
			assert.Equal(t, "PatchPilot Review", opts.Name)
			assert.Equal(t, "abc123", opts.HeadSHA)
			assert.Equal(t, "in_progress", opts.GetStatus())
			return &gh.CheckRun{ID: gh.Ptr(int64(42))}, nil
		})

	updater := github.NewStatusUpdater(client)
	id, err := updater.InProgress(context.Background(), testEvent(), "Reviewing", "Review in progress")

	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestStatusUpdaterInProgressError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().
		CreateCheckRun(gomock.Any(), "acme", "widgets", gomock.Any()).
		Return(nil, errors.New("boom"))

	updater := github.NewStatusUpdater(client)
	_, err := updater.InProgress(context.Background(), testEvent(), "t", "s")

	assert.Error(t, err)
}

func TestStatusUpdaterCompleted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().
		UpdateCheckRun(gomock.Any(), "acme", "widgets", int64(42), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int64, opts gh.UpdateCheckRunOptions) (*gh.CheckRun, error) {
			assert.Equal(t, "completed", opts.GetStatus())
			assert.Equal(t, "success", opts.GetConclusion())
			require.NotNil(t, opts.CompletedAt)
			return &gh.CheckRun{}, nil
		})

	updater := github.NewStatusUpdater(client)
	err := updater.Completed(context.Background(), testEvent(), 42, "success", "Done", "Review posted")

	assert.NoError(t, err)
}

func TestStatusUpdaterPostSimpleComment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	client.EXPECT().
		CreateComment(gomock.Any(), "acme", "widgets", 7, "hello").
		Return(nil)

	updater := github.NewStatusUpdater(client)
	err := updater.PostSimpleComment(context.Background(), testEvent(), "hello")

	assert.NoError(t, err)
}
