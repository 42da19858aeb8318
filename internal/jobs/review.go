// Package jobs defines background tasks such as code reviews.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/patchpilot/patchpilot/internal/config"
	"github.com/patchpilot/patchpilot/internal/core"
	"github.com/patchpilot/patchpilot/internal/diffpos"
	"github.com/patchpilot/patchpilot/internal/github"
	"github.com/patchpilot/patchpilot/internal/gitutil"
	"github.com/patchpilot/patchpilot/internal/llm"
	"github.com/patchpilot/patchpilot/internal/review"
	"github.com/patchpilot/patchpilot/internal/storage"
)

// repoConfigPath is where a repository can override review defaults.
const repoConfigPath = ".patchpilot.yml"

// clientFactory lets tests substitute the GitHub App authentication flow.
type clientFactory func(ctx context.Context, cfg *config.Config, installationID int64, logger *slog.Logger) (github.Client, string, error)

// Reviewer generates structured review data for a pull request.
// *llm.Reviewer is the production implementation.
type Reviewer interface {
	GenerateReview(ctx context.Context, req llm.ReviewRequest) (*core.ReviewData, error)
}

// ReviewJob is a background job that performs model-assisted code reviews.
type ReviewJob struct {
	cfg       *config.Config
	reviewer  Reviewer
	gitClient *gitutil.Client
	store     storage.Store
	logger    *slog.Logger
	newClient clientFactory
}

// NewReviewJob creates a new ReviewJob. The store may be nil when review
// history persistence is disabled.
func NewReviewJob(cfg *config.Config, reviewer Reviewer, gitClient *gitutil.Client, store storage.Store, logger *slog.Logger) core.Job {
	if cfg == nil {
		panic("config cannot be nil")
	}
	if reviewer == nil {
		panic("reviewer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ReviewJob{
		cfg:       cfg,
		reviewer:  reviewer,
		gitClient: gitClient,
		store:     store,
		logger:    logger,
		newClient: github.CreateInstallationClient,
	}
}

// Run executes the code review job for a given GitHub event.
func (j *ReviewJob) Run(ctx context.Context, event *core.GitHubEvent) error {
	if err := validateEvent(ctx, event); err != nil {
		j.logger.Error("input validation failed", "error", err)
		return fmt.Errorf("input validation failed: %w", err)
	}

	j.logger.Info("starting review job", "repo", event.RepoFullName, "pr", event.PRNumber)

	ghClient, token, err := j.newClient(ctx, j.cfg, event.InstallationID, j.logger)
	if err != nil {
		j.logger.Error("failed to create GitHub client", "error", err)
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	pr, err := ghClient.GetPullRequest(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to get PR details: %w", err)
	}
	if pr.GetHead() == nil || pr.GetHead().GetSHA() == "" {
		return fmt.Errorf("PR %d has no valid head SHA", event.PRNumber)
	}
	event.HeadSHA = pr.GetHead().GetSHA()
	if event.PRTitle == "" {
		event.PRTitle = pr.GetTitle()
	}
	if event.PRBody == "" {
		event.PRBody = pr.GetBody()
	}

	statusUpdater := github.NewStatusUpdater(ghClient)
	checkRunID, err := statusUpdater.InProgress(ctx, event, "Code Review", "Model analysis in progress...")
	if err != nil {
		return fmt.Errorf("failed to set in-progress status: %w", err)
	}

	// Diff, changed files, and prior reviews are independent API calls.
	var diff string
	var changedFiles []string
	var priors []github.PriorReview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		diff, err = ghClient.GetPullRequestDiff(gctx, event.RepoOwner, event.RepoName, event.PRNumber)
		return err
	})
	g.Go(func() error {
		var err error
		changedFiles, err = ghClient.ListChangedFiles(gctx, event.RepoOwner, event.RepoName, event.PRNumber)
		return err
	})
	g.Go(func() error {
		var err error
		priors, err = ghClient.ListReviews(gctx, event.RepoOwner, event.RepoName, event.PRNumber)
		return err
	})
	if err := g.Wait(); err != nil {
		j.failCheckRun(ctx, statusUpdater, event, checkRunID, "Failed to fetch pull request data")
		return fmt.Errorf("failed to fetch pull request data: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		j.failCheckRun(ctx, statusUpdater, event, checkRunID, "Pull request has an empty diff")
		return fmt.Errorf("pull request %d has an empty diff", event.PRNumber)
	}

	settings := j.loadSettings(ctx, ghClient, event)
	positions := diffpos.Index(diff)

	codeContext := j.collectCodeContext(ctx, event, token, changedFiles, settings)

	ownPriors := markerReviews(priors, settings.marker)
	data, err := j.reviewer.GenerateReview(ctx, llm.ReviewRequest{
		RepoFullName:       event.RepoFullName,
		PRNumber:           event.PRNumber,
		Title:              event.PRTitle,
		Description:        event.PRBody,
		Diff:               diff,
		CodeContext:        codeContext,
		CustomInstructions: strings.Join(settings.customInstructions, "\n"),
		PriorReview:        latestBody(ownPriors),
	})
	if err != nil {
		j.failCheckRun(ctx, statusUpdater, event, checkRunID, "Failed to generate review")
		return fmt.Errorf("failed to generate review: %w", err)
	}

	placed := review.Place(data.Issues, positions, settings.minSeverity)
	if settings.maxComments > 0 && len(placed) > settings.maxComments {
		j.logger.Info("capping inline comments",
			"repo", event.RepoFullName,
			"pr", event.PRNumber,
			"placed", len(placed),
			"cap", settings.maxComments)
		placed = placed[:settings.maxComments]
	}

	checked := review.ExtractChecked(priorBodies(ownPriors), settings.marker)
	body := review.Compose(*data, checked, review.ComposeOptions{
		Marker: settings.marker,
		Layout: settings.layout,
		Match:  review.DefaultMatchOptions(),
	})

	// Old marker reviews are dismissed so the PR shows one live review.
	// Failures here are logged and ignored; a duplicate review is better
	// than no review.
	for _, prior := range ownPriors {
		if err := ghClient.DismissReview(ctx, event.RepoOwner, event.RepoName, event.PRNumber, prior.ID, "Superseded by a newer automated review."); err != nil {
			j.logger.Warn("could not dismiss prior review", "review_id", prior.ID, "error", err)
		}
	}

	comments := make([]github.DraftReviewComment, 0, len(placed))
	for _, c := range placed {
		comments = append(comments, github.DraftReviewComment{
			Path:     c.Path,
			Position: c.Position,
			Body:     c.Body,
		})
	}
	if err := ghClient.CreateReview(ctx, event.RepoOwner, event.RepoName, event.PRNumber, body, comments); err != nil {
		j.failCheckRun(ctx, statusUpdater, event, checkRunID, "Failed to post review")
		return fmt.Errorf("failed to post review: %w", err)
	}

	j.saveReview(ctx, event, data.Verdict, body, len(comments))

	summary := fmt.Sprintf("Posted review with %d inline comment(s).", len(comments))
	if err := statusUpdater.Completed(ctx, event, checkRunID, "success", "Review Complete", summary); err != nil {
		j.logger.Error("failed to update completion status", "error", err)
		return fmt.Errorf("failed to update completion status: %w", err)
	}

	j.logger.Info("review job completed", "repo", event.RepoFullName, "pr", event.PRNumber, "inline_comments", len(comments))
	return nil
}

// reviewSettings is the effective per-run configuration: server defaults
// overridden by the repository's own config file.
type reviewSettings struct {
	marker             string
	minSeverity        core.Severity
	layout             review.Layout
	maxComments        int
	customInstructions []string
	excludeDirs        []string
	excludeExts        []string
}

// loadSettings merges the server defaults with the repository's
// .patchpilot.yml, if present. A missing or invalid file falls back to the
// defaults; a review should never fail because of a config typo.
func (j *ReviewJob) loadSettings(ctx context.Context, ghClient github.Client, event *core.GitHubEvent) reviewSettings {
	settings := reviewSettings{
		marker:      j.cfg.Review.Marker,
		minSeverity: core.Severity(j.cfg.Review.MinSeverity),
		layout:      review.Layout(j.cfg.Review.Layout),
		maxComments: j.cfg.Review.MaxComments,
	}
	if settings.minSeverity.Rank() < 0 {
		settings.minSeverity = core.SeveritySuggestion
	}
	if settings.layout != review.LayoutCompact && settings.layout != review.LayoutDetailed {
		settings.layout = review.LayoutDetailed
	}

	content, err := ghClient.GetFileContent(ctx, event.RepoOwner, event.RepoName, repoConfigPath, event.HeadSHA)
	if err != nil {
		j.logger.Debug("no repo config found, using defaults", "repo", event.RepoFullName, "error", err)
		return settings
	}

	repoCfg, err := core.ParseRepoConfig([]byte(content))
	if err != nil {
		j.logger.Warn("ignoring invalid repo config", "repo", event.RepoFullName, "error", err)
		return settings
	}

	if repoCfg.MinSeverity != "" {
		if sev, ok := core.ParseSeverity(repoCfg.MinSeverity); ok {
			settings.minSeverity = sev
		}
	}
	if repoCfg.Layout != "" {
		settings.layout = review.Layout(repoCfg.Layout)
	}
	if repoCfg.MaxComments > 0 {
		settings.maxComments = repoCfg.MaxComments
	}
	settings.customInstructions = repoCfg.CustomInstructions
	settings.excludeDirs = repoCfg.ExcludeDirs
	settings.excludeExts = repoCfg.ExcludeExts
	return settings
}

// collectCodeContext clones the repository at the PR head and gathers the
// full content of the files touched by the diff. Any failure degrades to a
// diff-only review.
func (j *ReviewJob) collectCodeContext(ctx context.Context, event *core.GitHubEvent, token string, files []string, settings reviewSettings) string {
	if !j.cfg.Review.CloneForContext || j.gitClient == nil || len(files) == 0 {
		return ""
	}

	cloneCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	repoPath, cleanup, err := j.gitClient.CloneAndCheckoutTemp(cloneCtx, event.RepoCloneURL, event.HeadSHA, token)
	if err != nil {
		j.logger.Warn("could not clone repository for context, reviewing diff only",
			"repo", event.RepoFullName,
			"error", err)
		return ""
	}
	defer cleanup()

	opts := gitutil.DefaultContextOptions()
	opts.ExcludeDirs = settings.excludeDirs
	opts.ExcludeExts = settings.excludeExts
	return gitutil.CollectContext(repoPath, files, opts)
}

// saveReview persists the posted review for history. Persistence is best
// effort; the review is already on GitHub.
func (j *ReviewJob) saveReview(ctx context.Context, event *core.GitHubEvent, verdict, body string, inlineComments int) {
	if j.store == nil {
		return
	}
	record := &core.ReviewRecord{
		RepoFullName:   event.RepoFullName,
		PRNumber:       event.PRNumber,
		HeadSHA:        event.HeadSHA,
		Verdict:        verdict,
		Body:           body,
		InlineComments: inlineComments,
	}
	if err := j.store.SaveReview(ctx, record); err != nil {
		j.logger.Warn("failed to persist review record", "repo", event.RepoFullName, "pr", event.PRNumber, "error", err)
	}
}

// failCheckRun sends a failure status to GitHub Check Runs.
func (j *ReviewJob) failCheckRun(ctx context.Context, statusUpdater github.StatusUpdater, event *core.GitHubEvent, checkRunID int64, message string) {
	if err := statusUpdater.Completed(ctx, event, checkRunID, "failure", "Review Failed", message); err != nil {
		j.logger.Error("failed to update failure status", "error", err)
	}
}

// markerReviews filters prior reviews down to the ones this app posted.
func markerReviews(priors []github.PriorReview, marker string) []github.PriorReview {
	var own []github.PriorReview
	for _, prior := range priors {
		if strings.Contains(prior.Body, marker) {
			own = append(own, prior)
		}
	}
	return own
}

func priorBodies(priors []github.PriorReview) []string {
	bodies := make([]string, 0, len(priors))
	for _, prior := range priors {
		bodies = append(bodies, prior.Body)
	}
	return bodies
}

// latestBody returns the body of the most recent prior review. Reviews come
// back from the API in chronological order.
func latestBody(priors []github.PriorReview) string {
	if len(priors) == 0 {
		return ""
	}
	return priors[len(priors)-1].Body
}
