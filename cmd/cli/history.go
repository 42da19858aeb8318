package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/patchpilot/patchpilot/internal/gitutil"
	"github.com/patchpilot/patchpilot/internal/wire"
)

var outputJSON bool

var historyCmd = &cobra.Command{
	Use:   "history [pr-url]",
	Short: "Shows the stored review history for a pull request",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		owner, repoName, prNumber, err := gitutil.ParsePullRequestURL(args[0])
		if err != nil {
			return fmt.Errorf("invalid PR URL: %w", err)
		}

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()

		records, err := app.Store.ListReviewsForPR(ctx, fmt.Sprintf("%s/%s", owner, repoName), prNumber)
		if err != nil {
			return fmt.Errorf("failed to retrieve review history: %w", err)
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(records)
		}

		if len(records) == 0 {
			slog.Info("No stored reviews for this pull request.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tHEAD SHA\tVERDICT\tINLINE\tCREATED")
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
				r.ID,
				truncateSHA(r.HeadSHA),
				r.Verdict,
				r.InlineComments,
				r.CreatedAt.Format(time.RFC822),
			)
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	historyCmd.Flags().BoolVar(&outputJSON, "json", false, "Output history as JSON")
	rootCmd.AddCommand(historyCmd)
}
