package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/patchpilot/patchpilot/internal/app"
	"github.com/patchpilot/patchpilot/internal/core"
	"github.com/patchpilot/patchpilot/internal/diffpos"
	"github.com/patchpilot/patchpilot/internal/github"
	"github.com/patchpilot/patchpilot/internal/gitutil"
	"github.com/patchpilot/patchpilot/internal/llm"
	"github.com/patchpilot/patchpilot/internal/review"
	"github.com/patchpilot/patchpilot/internal/wire"
)

const reviewTimeout = 10 * time.Minute

func initializeAppCmd() tea.Cmd {
	return func() tea.Msg {
		app, cleanup, err := wire.InitializeApp(context.Background())
		if err != nil {
			return appInitializedMsg{err: err}
		}
		if app.Cfg.GitHub.Token == "" {
			cleanup()
			return appInitializedMsg{err: fmt.Errorf("GITHUB_TOKEN is not set, the terminal needs a personal access token")}
		}
		return appInitializedMsg{app: app}
	}
}

// runReviewCmd fetches the pull request, generates a review from the diff,
// and either renders it or posts it to GitHub. The terminal path reviews the
// diff only; repository cloning for extra context stays on the server path.
func runReviewCmd(a *app.App, prURL string, post bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reviewTimeout)
		defer cancel()

		owner, repoName, prNumber, err := gitutil.ParsePullRequestURL(prURL)
		if err != nil {
			return errorMsg{fmt.Errorf("invalid PR URL: %w", err)}
		}

		ghClient := github.NewPATClient(ctx, a.Cfg.GitHub.Token, a.Logger)

		pr, err := ghClient.GetPullRequest(ctx, owner, repoName, prNumber)
		if err != nil {
			return errorMsg{fmt.Errorf("failed to fetch PR: %w", err)}
		}

		diff, err := ghClient.GetPullRequestDiff(ctx, owner, repoName, prNumber)
		if err != nil {
			return errorMsg{fmt.Errorf("failed to fetch diff: %w", err)}
		}
		if strings.TrimSpace(diff) == "" {
			return errorMsg{fmt.Errorf("pull request diff is empty, nothing to review")}
		}

		priors, err := ghClient.ListReviews(ctx, owner, repoName, prNumber)
		if err != nil {
			priors = nil
		}

		marker := a.Cfg.Review.Marker
		ownPriors := filterMarkerReviews(priors, marker)

		positions := diffpos.Index(diff)

		data, err := a.Reviewer.GenerateReview(ctx, llm.ReviewRequest{
			RepoFullName: fmt.Sprintf("%s/%s", owner, repoName),
			PRNumber:     prNumber,
			Title:        pr.GetTitle(),
			Description:  pr.GetBody(),
			Diff:         diff,
			PriorReview:  lastReviewBody(ownPriors),
		})
		if err != nil {
			return errorMsg{fmt.Errorf("failed to generate review: %w", err)}
		}

		minSeverity, ok := core.ParseSeverity(a.Cfg.Review.MinSeverity)
		if !ok {
			minSeverity = core.SeveritySuggestion
		}
		placed := review.Place(data.Issues, positions, minSeverity)
		if max := a.Cfg.Review.MaxComments; max > 0 && len(placed) > max {
			placed = placed[:max]
		}

		var bodies []string
		for _, p := range ownPriors {
			bodies = append(bodies, p.Body)
		}
		checked := review.ExtractChecked(bodies, marker)

		body := review.Compose(*data, checked, review.ComposeOptions{
			Marker: marker,
			Layout: review.Layout(a.Cfg.Review.Layout),
			Match:  review.DefaultMatchOptions(),
		})

		if post {
			comments := make([]github.DraftReviewComment, 0, len(placed))
			for _, p := range placed {
				comments = append(comments, github.DraftReviewComment{
					Path:     p.Path,
					Position: p.Position,
					Body:     p.Body,
				})
			}
			if err := ghClient.CreateReview(ctx, owner, repoName, prNumber, body, comments); err != nil {
				return errorMsg{fmt.Errorf("failed to post review: %w", err)}
			}
		}

		rendered, err := glamour.Render(body, "dark")
		if err != nil {
			rendered = body
		}

		return reviewCompleteMsg{
			prTitle:  pr.GetTitle(),
			rendered: rendered,
			comments: placed,
			posted:   post,
		}
	}
}

func loadHistoryCmd(a *app.App, prURL string) tea.Cmd {
	return func() tea.Msg {
		owner, repoName, prNumber, err := gitutil.ParsePullRequestURL(prURL)
		if err != nil {
			return errorMsg{fmt.Errorf("invalid PR URL: %w", err)}
		}
		records, err := a.Store.ListReviewsForPR(context.Background(),
			fmt.Sprintf("%s/%s", owner, repoName), prNumber)
		return historyLoadedMsg{records: records, err: err}
	}
}

func filterMarkerReviews(priors []github.PriorReview, marker string) []github.PriorReview {
	var own []github.PriorReview
	for _, p := range priors {
		if strings.Contains(p.Body, marker) {
			own = append(own, p)
		}
	}
	return own
}

func lastReviewBody(priors []github.PriorReview) string {
	if len(priors) == 0 {
		return ""
	}
	return priors[len(priors)-1].Body
}
