package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/patchpilot/patchpilot/internal/core"
	"github.com/patchpilot/patchpilot/internal/diffpos"
	"github.com/patchpilot/patchpilot/internal/github"
	"github.com/patchpilot/patchpilot/internal/gitutil"
	"github.com/patchpilot/patchpilot/internal/llm"
	"github.com/patchpilot/patchpilot/internal/review"
	"github.com/patchpilot/patchpilot/internal/wire"
)

var (
	verbose    bool
	postReview bool
)

// Color definitions
var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	infoColor    = color.New(color.FgWhite)
	dimColor     = color.New(color.FgHiBlack)
	boldColor    = color.New(color.Bold)
)

var reviewCmd = &cobra.Command{
	Use:   "review [pr-url]",
	Short: "Run an LLM code review for a GitHub Pull Request",
	Long: `Run an LLM code review for a GitHub Pull Request.

The review command fetches the PR diff, optionally clones the repository for
source context, and uses an LLM to generate a structured review. By default
the result is rendered in the terminal; pass --post to submit it to GitHub
as a review with inline comments.

Examples:
  patchpilot-cli review https://github.com/owner/repo/pull/123
  patchpilot-cli review --post https://github.com/owner/repo/pull/123`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with timing information")
	reviewCmd.Flags().BoolVar(&postReview, "post", false, "Submit the review to GitHub instead of printing it")
	rootCmd.AddCommand(reviewCmd)
}

// stepTimer tracks timing for verbose output
type stepTimer struct {
	stepNum    int
	totalSteps int
	start      time.Time
	verbose    bool
}

func newStepTimer(totalSteps int, verbose bool) *stepTimer {
	return &stepTimer{
		stepNum:    0,
		totalSteps: totalSteps,
		verbose:    verbose,
	}
}

func (t *stepTimer) step(name string) {
	t.stepNum++
	t.start = time.Now()
	if t.verbose {
		titleColor.Printf("\n🔧 Step %d/%d: %s...\n", t.stepNum, t.totalSteps, name)
	} else {
		fmt.Printf("%s...\n", name)
	}
}

func (t *stepTimer) done(details ...string) {
	if t.verbose {
		elapsed := time.Since(t.start).Round(time.Millisecond)
		successColor.Printf("   ✓ Done (%s)\n", elapsed)
		for _, d := range details {
			dimColor.Printf("   └── %s\n", d)
		}
	}
}

func (t *stepTimer) info(format string, args ...any) {
	if t.verbose {
		dimColor.Printf("   ├── "+format+"\n", args...)
	}
}

func runReview(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	prURL := args[0]

	timer := newStepTimer(5, verbose)
	overallStart := time.Now()

	titleColor.Println("🚀 PatchPilot - PR Review")
	dimColor.Printf("   Target: %s\n\n", prURL)

	// 1. Initialize Application
	timer.step("Initializing application")
	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w\n\nTip: Check that your .env exists and is valid", err)
	}
	defer cleanup()
	timer.done()

	// 2. Parse URL and fetch PR metadata
	timer.step("Fetching PR metadata")
	owner, repoName, prNumber, err := gitutil.ParsePullRequestURL(prURL)
	if err != nil {
		return fmt.Errorf("invalid PR URL: %w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
	}

	token := viper.GetString("GITHUB_TOKEN")
	if token == "" {
		token = appInstance.Cfg.GitHub.Token
	}
	if token == "" {
		return fmt.Errorf("GITHUB_TOKEN is not set\n\nTip: Set PP_GITHUB_TOKEN or pass --github-token")
	}
	ghClient := github.NewPATClient(ctx, token, appInstance.Logger)

	pr, err := ghClient.GetPullRequest(ctx, owner, repoName, prNumber)
	if err != nil {
		return fmt.Errorf("failed to fetch PR: %w\n\nTip: Check that the PR exists and your token has access", err)
	}

	timer.info("PR #%d: %s", pr.GetNumber(), pr.GetTitle())
	timer.info("Head SHA: %s", truncateSHA(pr.GetHead().GetSHA()))
	timer.done()

	// 3. Fetch diff and prior reviews
	timer.step("Fetching diff")
	diff, err := ghClient.GetPullRequestDiff(ctx, owner, repoName, prNumber)
	if err != nil {
		return fmt.Errorf("failed to fetch diff: %w", err)
	}
	if strings.TrimSpace(diff) == "" {
		return fmt.Errorf("pull request diff is empty, nothing to review")
	}

	priors, err := ghClient.ListReviews(ctx, owner, repoName, prNumber)
	if err != nil {
		timer.info("could not list prior reviews: %v", err)
		priors = nil
	}

	positions := diffpos.Index(diff)
	timer.info("Files changed: %d", len(positions))
	timer.done()

	// 4. Collect source context
	timer.step("Collecting source context")
	codeContext := collectContext(ctx, appInstance.GitClient, pr.GetBase().GetRepo().GetCloneURL(),
		pr.GetHead().GetSHA(), token, positions, appInstance.Cfg.Review.CloneForContext, timer)
	timer.done()

	// 5. Generate Review
	timer.step("Generating review")
	marker := appInstance.Cfg.Review.Marker
	ownPriors := markerReviews(priors, marker)

	data, err := appInstance.Reviewer.GenerateReview(ctx, llm.ReviewRequest{
		RepoFullName: fmt.Sprintf("%s/%s", owner, repoName),
		PRNumber:     prNumber,
		Title:        pr.GetTitle(),
		Description:  pr.GetBody(),
		Diff:         diff,
		CodeContext:  codeContext,
		PriorReview:  latestBody(ownPriors),
	})
	if err != nil {
		return fmt.Errorf("failed to generate review: %w\n\nTip: Check that the LLM service is running", err)
	}
	timer.info("Issues: %d", len(data.Issues))

	minSeverity, ok := core.ParseSeverity(appInstance.Cfg.Review.MinSeverity)
	if !ok {
		minSeverity = core.SeveritySuggestion
	}
	placed := review.Place(data.Issues, positions, minSeverity)
	if max := appInstance.Cfg.Review.MaxComments; max > 0 && len(placed) > max {
		placed = placed[:max]
	}

	checked := review.ExtractChecked(reviewBodies(ownPriors), marker)
	body := review.Compose(*data, checked, review.ComposeOptions{
		Marker: marker,
		Layout: review.Layout(appInstance.Cfg.Review.Layout),
		Match:  review.DefaultMatchOptions(),
	})
	timer.done()

	if verbose {
		dimColor.Printf("\n⏱️  Total time: %s\n", time.Since(overallStart).Round(time.Millisecond))
	}

	if postReview {
		comments := make([]github.DraftReviewComment, 0, len(placed))
		for _, p := range placed {
			comments = append(comments, github.DraftReviewComment{
				Path:     p.Path,
				Position: p.Position,
				Body:     p.Body,
			})
		}
		if err := ghClient.CreateReview(ctx, owner, repoName, prNumber, body, comments); err != nil {
			return fmt.Errorf("failed to post review: %w", err)
		}
		successColor.Printf("\n✅ Review posted with %d inline comments\n", len(comments))
		return nil
	}

	printReview(body, placed)
	return nil
}

// collectContext clones the PR's head commit into a temp dir and gathers the
// content of the changed files. Any failure degrades to a diff-only review.
func collectContext(ctx context.Context, gitClient *gitutil.Client, cloneURL, sha, token string,
	positions diffpos.PositionMap, enabled bool, timer *stepTimer,
) string {
	if !enabled || cloneURL == "" {
		timer.info("clone disabled, reviewing diff only")
		return ""
	}

	cloneCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	repoPath, cleanupClone, err := gitClient.CloneAndCheckoutTemp(cloneCtx, cloneURL, sha, token)
	if err != nil {
		timer.info("clone failed, reviewing diff only: %v", err)
		return ""
	}
	defer cleanupClone()

	files := make([]string, 0, len(positions))
	for f := range positions {
		files = append(files, f)
	}
	sort.Strings(files)

	return gitutil.CollectContext(repoPath, files, gitutil.DefaultContextOptions())
}

func markerReviews(priors []github.PriorReview, marker string) []github.PriorReview {
	var own []github.PriorReview
	for _, p := range priors {
		if strings.Contains(p.Body, marker) {
			own = append(own, p)
		}
	}
	return own
}

func reviewBodies(priors []github.PriorReview) []string {
	bodies := make([]string, 0, len(priors))
	for _, p := range priors {
		bodies = append(bodies, p.Body)
	}
	return bodies
}

func latestBody(priors []github.PriorReview) string {
	if len(priors) == 0 {
		return ""
	}
	return priors[len(priors)-1].Body
}

func truncateSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func printReview(body string, placed []review.PlacedComment) {
	separator := strings.Repeat("═", 60)
	thinSeparator := strings.Repeat("─", 60)

	fmt.Println()
	titleColor.Println(separator)
	titleColor.Println("📋 REVIEW")
	titleColor.Println(separator)

	rendered, err := glamour.Render(body, "dark")
	if err != nil {
		infoColor.Println(body)
	} else {
		fmt.Print(rendered)
	}

	if len(placed) == 0 {
		successColor.Println("✅ No inline comments")
		return
	}

	fmt.Println()
	warnColor.Println(thinSeparator)
	warnColor.Printf("💬 INLINE COMMENTS (%d)\n", len(placed))
	warnColor.Println(thinSeparator)

	for i, p := range placed {
		fmt.Println()
		boldColor.Printf("%s", p.Path)
		dimColor.Printf(" (diff position %d)\n", p.Position)
		infoColor.Printf("%s\n", p.Body)

		if i < len(placed)-1 {
			fmt.Println()
			dimColor.Println(strings.Repeat("─", 40))
		}
	}
	fmt.Println()
}
