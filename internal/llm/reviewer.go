package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevigo/goframe/llms"

	"github.com/patchpilot/patchpilot/internal/core"
)

// ReviewRequest carries everything the model needs to review one pull
// request.
type ReviewRequest struct {
	RepoFullName       string
	PRNumber           int
	Title              string
	Description        string
	Diff               string
	CodeContext        string
	CustomInstructions string
	// PriorReview is the body of our most recent review on this PR, empty
	// on the first run. When set, the re-review prompt is used.
	PriorReview string
}

// Reviewer turns a ReviewRequest into structured review data by prompting
// the configured model and parsing its answer.
type Reviewer struct {
	model    llms.Model
	prompts  *PromptManager
	provider ModelProvider
	timeout  time.Duration
	logger   *slog.Logger
}

func NewReviewer(model llms.Model, prompts *PromptManager, provider string, timeout time.Duration, logger *slog.Logger) *Reviewer {
	return &Reviewer{
		model:    model,
		prompts:  prompts,
		provider: ModelProvider(provider),
		timeout:  timeout,
		logger:   logger,
	}
}

// GenerateReview prompts the model and parses its response. A response that
// cannot be parsed is not an error: the pipeline still posts a review, just
// a degraded one, so the author learns the run happened.
func (r *Reviewer) GenerateReview(ctx context.Context, req ReviewRequest) (*core.ReviewData, error) {
	key := CodeReviewPrompt
	if req.PriorReview != "" {
		key = ReReviewPrompt
	}

	prompt, err := r.prompts.Render(key, r.provider, req)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s prompt: %w", key, err)
	}

	r.logger.Info("requesting model review",
		"repo", req.RepoFullName,
		"pr", req.PRNumber,
		"prompt_key", string(key),
		"prompt_chars", len(prompt))

	start := time.Now()
	response, err := r.generateWithTimeout(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("model generation failed: %w", err)
	}
	r.logger.Info("model responded",
		"repo", req.RepoFullName,
		"pr", req.PRNumber,
		"duration", time.Since(start).Round(time.Millisecond),
		"response_chars", len(response))

	data, err := parseReviewJSON(response)
	if err != nil {
		r.logger.Warn("model response was not parseable, using fallback review",
			"repo", req.RepoFullName,
			"pr", req.PRNumber,
			"error", err)
		fallback := core.FallbackReviewData()
		return &fallback, nil
	}

	return data, nil
}

// generateWithTimeout wraps model generation with a hard timeout.
func (r *Reviewer) generateWithTimeout(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		resp string
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		resp, err := r.model.Call(ctx, prompt)
		select {
		case resultCh <- result{resp, err}:
		case <-ctx.Done():
		}
	}()

	select {
	case res := <-resultCh:
		return res.resp, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
