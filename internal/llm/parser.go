package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/patchpilot/patchpilot/internal/core"
)

// rawIssue mirrors core.Issue but keeps severity as a plain string so a
// sloppy model answer ("High", "nit") can be normalized instead of rejected.
type rawIssue struct {
	FilePath string `json:"file"`
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Category string `json:"category"`
	Comment  string `json:"comment"`
}

type rawReview struct {
	Summary       string     `json:"summary"`
	Verdict       string     `json:"verdict"`
	Analysis      string     `json:"analysis"`
	TestsRequired string     `json:"tests_required"`
	QAScenarios   []string   `json:"qa_scenarios"`
	Questions     []string   `json:"questions"`
	CodeQuality   string     `json:"code_quality"`
	Issues        []rawIssue `json:"issues"`
}

// parseReviewJSON extracts structured review data from the LLM's output.
// It tolerates the common quirks: a ```json code fence around the object,
// prose before or after it, and non-canonical severity labels.
func parseReviewJSON(response string) (*core.ReviewData, error) {
	payload := extractJSONObject(stripJSONFence(response))
	if payload == "" {
		return nil, fmt.Errorf("no JSON object found in model response")
	}

	var raw rawReview
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode review JSON: %w", err)
	}
	if strings.TrimSpace(raw.Summary) == "" {
		return nil, fmt.Errorf("review JSON has no summary")
	}

	data := &core.ReviewData{
		Summary:       strings.TrimSpace(raw.Summary),
		Verdict:       normalizeVerdict(raw.Verdict),
		Analysis:      strings.TrimSpace(raw.Analysis),
		TestsRequired: strings.TrimSpace(raw.TestsRequired),
		QAScenarios:   cleanStrings(raw.QAScenarios),
		Questions:     cleanStrings(raw.Questions),
		CodeQuality:   strings.TrimSpace(raw.CodeQuality),
	}

	for _, issue := range raw.Issues {
		severity, known := core.ParseSeverity(issue.Severity)
		if !known {
			// An unlabeled finding is still worth surfacing, just at the
			// lowest level.
			severity = core.SeveritySuggestion
		}
		comment := strings.TrimSpace(issue.Comment)
		if issue.FilePath == "" || issue.Line <= 0 || comment == "" {
			continue
		}
		data.Issues = append(data.Issues, core.Issue{
			FilePath: strings.TrimSpace(issue.FilePath),
			Line:     issue.Line,
			Severity: severity,
			Category: strings.TrimSpace(issue.Category),
			Comment:  comment,
		})
	}

	return data, nil
}

// stripJSONFence removes a ```json ... ``` wrapper that some models add
// despite being told not to.
func stripJSONFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}

	idx := strings.Index(trimmed, "\n")
	if idx < 0 {
		return s
	}
	inner := trimmed[idx+1:]
	if lastFence := strings.LastIndex(inner, "```"); lastFence >= 0 {
		inner = inner[:lastFence]
	}
	return strings.TrimSpace(inner)
}

// extractJSONObject returns the outermost {...} span in s, discarding any
// prose the model wrapped around it.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func normalizeVerdict(v string) string {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "APPROVE", "APPROVED", "LGTM":
		return "APPROVE"
	case "REQUEST_CHANGES", "REQUEST CHANGES", "CHANGES_REQUESTED":
		return "REQUEST_CHANGES"
	case "":
		return "COMMENT"
	default:
		return "COMMENT"
	}
}

func cleanStrings(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
