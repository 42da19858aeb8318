package review

import (
	"fmt"
	"strings"

	"github.com/patchpilot/patchpilot/internal/core"
)

// Layout selects how the review body is presented. Both layouts render the
// same sections with the same checkbox logic; they differ only in whether
// secondary sections are collapsed.
type Layout string

const (
	LayoutCompact  Layout = "compact"
	LayoutDetailed Layout = "detailed"
)

// ComposeOptions carries the presentation knobs for one composed review.
type ComposeOptions struct {
	// Marker is the fixed header string that identifies a review as ours
	// on later runs. It must be non-empty for reconciliation to work.
	Marker string
	Layout Layout
	Match  MatchOptions
}

// Compose renders the final review body from the structured review data and
// the set of previously checked scenarios. Sections with no data are
// omitted entirely, never rendered empty. The function is a deterministic
// renderer: its only decision is the per-scenario checkbox state, delegated
// to IsCarriedForward.
func Compose(data core.ReviewData, checked map[string]struct{}, opts ComposeOptions) string {
	var sb strings.Builder

	sb.WriteString(opts.Marker)
	sb.WriteString("\n\n")

	if data.Verdict != "" {
		fmt.Fprintf(&sb, "### %s Verdict: %s\n\n", verdictIcon(data.Verdict), data.Verdict)
	}
	if data.Summary != "" {
		sb.WriteString(data.Summary)
		sb.WriteString("\n\n")
	}

	if opts.Layout == LayoutCompact {
		writeStatsLine(&sb, data)
	}

	writeSection(&sb, opts.Layout, "🔍 Analysis", data.Analysis)
	writeSection(&sb, opts.Layout, "🧪 Tests Required", data.TestsRequired)
	writeQAChecklist(&sb, data.QAScenarios, checked, opts.Match)
	writeListSection(&sb, opts.Layout, "❓ Questions", data.Questions)
	writeSection(&sb, opts.Layout, "✨ Code Quality", data.CodeQuality)

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// writeStatsLine emits the one-line issue summary used by the compact
// layout, e.g. "📊 2 errors | 1 warning | 3 suggestions".
func writeStatsLine(sb *strings.Builder, data core.ReviewData) {
	if len(data.Issues) == 0 {
		return
	}

	counts := map[core.Severity]int{}
	for _, issue := range data.Issues {
		counts[issue.Severity]++
	}

	parts := []string{}
	for _, sev := range []core.Severity{core.SeverityError, core.SeverityWarning, core.SeveritySuggestion} {
		if n := counts[sev]; n > 0 {
			label := string(sev)
			if n != 1 {
				label += "s"
			}
			parts = append(parts, fmt.Sprintf("%s %d %s", sev.Emoji(), n, label))
		}
	}
	fmt.Fprintf(sb, "📊 %s\n\n", strings.Join(parts, " | "))
}

// writeQAChecklist renders the scenario checklist. The checklist is never
// collapsed in either layout: checkboxes must stay clickable at a glance,
// and the whole point of the section is that a human ticks them off.
func writeQAChecklist(sb *strings.Builder, scenarios []string, checked map[string]struct{}, opts MatchOptions) {
	if len(scenarios) == 0 {
		return
	}

	sb.WriteString("#### ✅ Manual QA Checklist\n\n")
	for _, scenario := range scenarios {
		box := " "
		if IsCarriedForward(scenario, checked, opts) {
			box = "x"
		}
		fmt.Fprintf(sb, "- [%s] `%s`\n", box, escapeInlineCode(scenario))
	}
	sb.WriteString("\n")
}

func writeSection(sb *strings.Builder, layout Layout, title, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}

	if layout == LayoutCompact {
		fmt.Fprintf(sb, "<details>\n<summary><b>%s</b></summary>\n\n%s\n\n</details>\n\n", title, content)
		return
	}
	fmt.Fprintf(sb, "#### %s\n\n%s\n\n", title, content)
}

func writeListSection(sb *strings.Builder, layout Layout, title string, items []string) {
	if len(items) == 0 {
		return
	}

	var list strings.Builder
	for _, item := range items {
		fmt.Fprintf(&list, "- %s\n", strings.TrimSpace(item))
	}
	writeSection(sb, layout, title, list.String())
}

// verdictIcon returns an icon for the given verdict using normalized exact
// matching.
func verdictIcon(verdict string) string {
	switch strings.ToUpper(strings.TrimSpace(verdict)) {
	case "APPROVE":
		return "✅"
	case "REQUEST_CHANGES", "REQUEST CHANGES":
		return "🚫"
	case "COMMENT":
		return "💬"
	default:
		return "📝"
	}
}

// escapeInlineCode keeps scenario text from breaking out of its `code`
// span in the checklist.
func escapeInlineCode(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", "")
}
