package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchpilot/patchpilot/internal/config"
	"github.com/patchpilot/patchpilot/internal/core"
)

const webhookSecret = "test-secret"

type recordingDispatcher struct {
	events []*core.GitHubEvent
	err    error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, event *core.GitHubEvent) error {
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Stop() {}

func signPayload(t *testing.T, payload []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	_, err := mac.Write(payload)
	require.NoError(t, err)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func newWebhookRequest(t *testing.T, eventType string, payload []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhook/github", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", eventType)
	req.Header.Set("X-Hub-Signature-256", signPayload(t, payload))
	return req
}

func newTestHandler(dispatcher core.JobDispatcher) *WebhookHandler {
	cfg := &config.Config{GitHub: config.GitHubConfig{WebhookSecret: webhookSecret}}
	return NewWebhookHandler(cfg, dispatcher, slog.Default())
}

const reviewCommentPayload = `{
	"action": "created",
	"issue": {
		"number": 7,
		"title": "Add rate limiting",
		"pull_request": {"url": "https://api.github.com/repos/acme/widgets/pulls/7"}
	},
	"comment": {"body": "/review", "user": {"login": "alice"}},
	"repository": {
		"name": "widgets",
		"full_name": "acme/widgets",
		"clone_url": "https://github.com/acme/widgets.git",
		"owner": {"login": "acme"}
	},
	"installation": {"id": 99}
}`

const prOpenedPayload = `{
	"action": "opened",
	"pull_request": {
		"number": 12,
		"title": "Fix uploader retries",
		"head": {"sha": "abc123"}
	},
	"repository": {
		"name": "widgets",
		"full_name": "acme/widgets",
		"clone_url": "https://github.com/acme/widgets.git",
		"owner": {"login": "acme"}
	},
	"installation": {"id": 99}
}`

func TestWebhookHandlerReviewCommand(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	h := newTestHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, newWebhookRequest(t, "issue_comment", []byte(reviewCommentPayload)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, "acme/widgets", dispatcher.events[0].RepoFullName)
	assert.Equal(t, 7, dispatcher.events[0].PRNumber)
	assert.Equal(t, "alice", dispatcher.events[0].Commenter)
}

func TestWebhookHandlerPullRequestOpened(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	h := newTestHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, newWebhookRequest(t, "pull_request", []byte(prOpenedPayload)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, 12, dispatcher.events[0].PRNumber)
	assert.Equal(t, "abc123", dispatcher.events[0].HeadSHA)
}

func TestWebhookHandlerRejectsBadSignature(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	h := newTestHandler(dispatcher)

	req := newWebhookRequest(t, "issue_comment", []byte(reviewCommentPayload))
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")

	rec := httptest.NewRecorder()
	h.Handle(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, dispatcher.events)
}

func TestWebhookHandlerIgnoresNonReviewComment(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	h := newTestHandler(dispatcher)

	payload := []byte(`{
		"action": "created",
		"issue": {"number": 7, "pull_request": {"url": "u"}},
		"comment": {"body": "nice work!", "user": {"login": "alice"}},
		"repository": {"name": "widgets", "full_name": "acme/widgets", "owner": {"login": "acme"}},
		"installation": {"id": 99}
	}`)

	rec := httptest.NewRecorder()
	h.Handle(rec, newWebhookRequest(t, "issue_comment", payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dispatcher.events)
}

func TestWebhookHandlerIgnoresClosedPullRequest(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	h := newTestHandler(dispatcher)

	payload := []byte(`{
		"action": "closed",
		"pull_request": {"number": 12, "head": {"sha": "abc"}},
		"repository": {"name": "widgets", "full_name": "acme/widgets", "owner": {"login": "acme"}},
		"installation": {"id": 99}
	}`)

	rec := httptest.NewRecorder()
	h.Handle(rec, newWebhookRequest(t, "pull_request", payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, dispatcher.events)
}

func TestWebhookHandlerQueueFull(t *testing.T) {
	dispatcher := &recordingDispatcher{err: errors.New("job queue is full")}
	h := newTestHandler(dispatcher)

	rec := httptest.NewRecorder()
	h.Handle(rec, newWebhookRequest(t, "issue_comment", []byte(reviewCommentPayload)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
