package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchpilot/patchpilot/internal/core"
)

func composeOpts(layout Layout) ComposeOptions {
	return ComposeOptions{
		Marker: testMarker,
		Layout: layout,
		Match:  DefaultMatchOptions(),
	}
}

func TestComposeMarkerComesFirst(t *testing.T) {
	body := Compose(core.ReviewData{Summary: "Looks fine."}, nil, composeOpts(LayoutDetailed))

	assert.True(t, strings.HasPrefix(body, testMarker+"\n"))
}

func TestComposeDetailedSections(t *testing.T) {
	data := core.ReviewData{
		Summary:       "Adds rate limiting to the API.",
		Verdict:       "COMMENT",
		Analysis:      "The token bucket is refilled on each request.",
		TestsRequired: "Add a test for burst traffic.",
		QAScenarios:   []string{"test login", "verify rate limit headers"},
		Questions:     []string{"Is the limit per user or per IP?"},
		CodeQuality:   "Consistent with the existing middleware style.",
	}

	body := Compose(data, nil, composeOpts(LayoutDetailed))

	assert.Contains(t, body, "### 💬 Verdict: COMMENT")
	assert.Contains(t, body, "Adds rate limiting to the API.")
	assert.Contains(t, body, "#### 🔍 Analysis")
	assert.Contains(t, body, "#### 🧪 Tests Required")
	assert.Contains(t, body, "#### ✅ Manual QA Checklist")
	assert.Contains(t, body, "#### ❓ Questions")
	assert.Contains(t, body, "- Is the limit per user or per IP?")
	assert.Contains(t, body, "#### ✨ Code Quality")
	assert.NotContains(t, body, "<details>")
}

func TestComposeOmitsEmptySections(t *testing.T) {
	body := Compose(core.ReviewData{Summary: "Short change.", Verdict: "APPROVE"}, nil, composeOpts(LayoutDetailed))

	assert.Contains(t, body, "✅")
	assert.NotContains(t, body, "Analysis")
	assert.NotContains(t, body, "Tests Required")
	assert.NotContains(t, body, "QA Checklist")
	assert.NotContains(t, body, "Questions")
	assert.NotContains(t, body, "Code Quality")
}

func TestComposeChecklistCarriesForward(t *testing.T) {
	data := core.ReviewData{
		Summary:     "s",
		QAScenarios: []string{"Test login with invalid credentials", "check pagination"},
	}
	checked := checkedSet("test login with invalid credentials")

	body := Compose(data, checked, composeOpts(LayoutDetailed))

	assert.Contains(t, body, "- [x] `Test login with invalid credentials`")
	assert.Contains(t, body, "- [ ] `check pagination`")
}

func TestComposeChecklistRoundTrip(t *testing.T) {
	// A composed body fed back through extraction yields the scenarios
	// that were checked in it.
	data := core.ReviewData{QAScenarios: []string{"test login", "check pagination"}}
	first := Compose(data, checkedSet("test login"), composeOpts(LayoutDetailed))

	extracted := ExtractChecked([]string{first}, testMarker)

	require.Len(t, extracted, 1)
	assert.Contains(t, extracted, "test login")
	assert.True(t, IsCarriedForward("Test Login!", extracted, DefaultMatchOptions()))
}

func TestComposeCompactLayout(t *testing.T) {
	data := core.ReviewData{
		Summary:     "s",
		Verdict:     "REQUEST_CHANGES",
		Analysis:    "long analysis",
		QAScenarios: []string{"test login"},
		Issues: []core.Issue{
			{Severity: core.SeverityError},
			{Severity: core.SeverityError},
			{Severity: core.SeveritySuggestion},
		},
	}

	body := Compose(data, nil, composeOpts(LayoutCompact))

	assert.Contains(t, body, "🚫")
	assert.Contains(t, body, "📊 🔴 2 errors | 💡 1 suggestion")
	assert.Contains(t, body, "<details>")
	assert.Contains(t, body, "<summary><b>🔍 Analysis</b></summary>")
	// The checklist is never collapsed.
	assert.Contains(t, body, "- [ ] `test login`")
	assert.NotContains(t, body, "<summary><b>✅ Manual QA Checklist</b></summary>")
}

func TestComposeEscapesBackticksInScenarios(t *testing.T) {
	data := core.ReviewData{QAScenarios: []string{"run `make test` locally"}}

	body := Compose(data, nil, composeOpts(LayoutDetailed))

	assert.Contains(t, body, "- [ ] `run 'make test' locally`")
}

func TestComposeEndsWithSingleNewline(t *testing.T) {
	body := Compose(core.ReviewData{Summary: "done"}, nil, composeOpts(LayoutCompact))

	assert.True(t, strings.HasSuffix(body, "\n"))
	assert.False(t, strings.HasSuffix(body, "\n\n"))
}
