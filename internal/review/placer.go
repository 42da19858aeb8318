package review

import (
	"fmt"
	"strings"

	"github.com/patchpilot/patchpilot/internal/core"
	"github.com/patchpilot/patchpilot/internal/diffpos"
)

// PlacedComment is an inline comment resolved to the diff position GitHub's
// review API expects.
type PlacedComment struct {
	Path     string
	Position int
	Body     string
}

// Place filters issues by severity and anchors the survivors to diff
// positions. Issues below the threshold are excluded; issues whose
// (file, line) pair is not in the position map are dropped without error —
// the line was deleted, outside the diff, or hallucinated by the model.
// Input order is preserved and co-located comments are allowed.
func Place(issues []core.Issue, positions diffpos.PositionMap, minSeverity core.Severity) []PlacedComment {
	var placed []PlacedComment
	for _, issue := range issues {
		if !issue.Severity.AtLeast(minSeverity) {
			continue
		}
		pos, ok := positions.PositionFor(strings.TrimPrefix(issue.FilePath, "./"), issue.Line)
		if !ok {
			continue
		}
		placed = append(placed, PlacedComment{
			Path:     strings.TrimPrefix(issue.FilePath, "./"),
			Position: pos,
			Body:     formatIssueBody(issue),
		})
	}
	return placed
}

// formatIssueBody renders one inline comment with a severity header and the
// comment text wrapped in a GitHub alert of matching weight.
func formatIssueBody(issue core.Issue) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s %s", issue.Severity.Emoji(), strings.ToUpper(string(issue.Severity)[:1])+string(issue.Severity)[1:])
	if issue.Category != "" {
		fmt.Fprintf(&sb, " | %s", issue.Category)
	}
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "> [!%s]\n", issue.Severity.AlertType())
	for _, line := range strings.Split(strings.TrimSpace(issue.Comment), "\n") {
		if line == "" {
			sb.WriteString(">\n")
			continue
		}
		fmt.Fprintf(&sb, "> %s\n", line)
	}

	return sb.String()
}
