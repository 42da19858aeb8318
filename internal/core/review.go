// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"strings"
	"time"
)

// Severity classifies how serious an issue is. The three levels are ordered:
// suggestion < warning < error.
type Severity string

const (
	SeveritySuggestion Severity = "suggestion"
	SeverityWarning    Severity = "warning"
	SeverityError      Severity = "error"
)

// Rank returns the position of the severity in the fixed ordering.
// Unknown severities rank below suggestion so they are always filtered out
// by any threshold.
func (s Severity) Rank() int {
	switch s {
	case SeveritySuggestion:
		return 0
	case SeverityWarning:
		return 1
	case SeverityError:
		return 2
	default:
		return -1
	}
}

// AtLeast reports whether the severity meets the given threshold.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= 0 && s.Rank() >= min.Rank()
}

// Emoji returns the badge used when rendering the severity in Markdown.
func (s Severity) Emoji() string {
	switch s {
	case SeverityError:
		return "🔴"
	case SeverityWarning:
		return "🟠"
	case SeveritySuggestion:
		return "💡"
	default:
		return "⚪"
	}
}

// AlertType returns the GitHub Markdown alert keyword for the severity.
func (s Severity) AlertType() string {
	switch s {
	case SeverityError:
		return "CAUTION"
	case SeverityWarning:
		return "WARNING"
	default:
		return "NOTE"
	}
}

// ParseSeverity normalizes a model-provided severity string. The second
// return value reports whether the input was one of the known levels.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "suggestion", "info", "nit", "low":
		return SeveritySuggestion, true
	case "warning", "warn", "medium":
		return SeverityWarning, true
	case "error", "critical", "high":
		return SeverityError, true
	default:
		return SeveritySuggestion, false
	}
}

// Issue is a single piece of line-level feedback produced by the model.
type Issue struct {
	FilePath string   `json:"file"`
	Line     int      `json:"line"`
	Severity Severity `json:"severity"`
	Category string   `json:"category,omitempty"`
	Comment  string   `json:"comment"`
}

// ReviewData is the structured result of one model review run. Empty fields
// mean the corresponding section is omitted from the rendered review body.
type ReviewData struct {
	Summary       string   `json:"summary"`
	Verdict       string   `json:"verdict,omitempty"`
	Analysis      string   `json:"analysis,omitempty"`
	TestsRequired string   `json:"tests_required,omitempty"`
	QAScenarios   []string `json:"qa_scenarios,omitempty"`
	Questions     []string `json:"questions,omitempty"`
	CodeQuality   string   `json:"code_quality,omitempty"`
	Issues        []Issue  `json:"issues,omitempty"`
}

// FallbackReviewData is the degraded-mode review used when the provider
// response cannot be parsed. It flows through the rest of the pipeline like
// any other ReviewData; nothing downstream special-cases it.
func FallbackReviewData() ReviewData {
	return ReviewData{
		Summary: "The model response could not be parsed into a structured review. " +
			"No inline findings are available for this run.",
		Verdict: "COMMENT",
	}
}

// ReviewRecord is a posted review persisted for history and auditing.
type ReviewRecord struct {
	ID             int64     `db:"id"`
	RepoFullName   string    `db:"repo_full_name"`
	PRNumber       int       `db:"pr_number"`
	HeadSHA        string    `db:"head_sha"`
	Verdict        string    `db:"verdict"`
	Body           string    `db:"body"`
	InlineComments int       `db:"inline_comments"`
	CreatedAt      time.Time `db:"created_at"`
}
