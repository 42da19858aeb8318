package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	gh "github.com/google/go-github/v73/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/patchpilot/patchpilot/internal/config"
	"github.com/patchpilot/patchpilot/internal/core"
	"github.com/patchpilot/patchpilot/internal/github"
	"github.com/patchpilot/patchpilot/internal/llm"
	"github.com/patchpilot/patchpilot/mocks"
)

const testMarker = "<!-- patchpilot:review -->"

const testDiff = `diff --git a/a.py b/a.py
--- a/a.py
+++ b/a.py
@@ -1,2 +1,3 @@
 ctx1
+added
 ctx2
`

type stubReviewer struct {
	data    *core.ReviewData
	err     error
	gotReq  llm.ReviewRequest
	invoked bool
}

func (s *stubReviewer) GenerateReview(_ context.Context, req llm.ReviewRequest) (*core.ReviewData, error) {
	s.invoked = true
	s.gotReq = req
	return s.data, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		Review: config.ReviewConfig{
			Marker:      testMarker,
			MinSeverity: "warning",
			Layout:      "detailed",
			MaxComments: 25,
		},
	}
}

func newTestJob(t *testing.T, client github.Client, reviewer Reviewer) *ReviewJob {
	t.Helper()
	job := NewReviewJob(testConfig(), reviewer, nil, nil, slog.Default()).(*ReviewJob)
	job.newClient = func(context.Context, *config.Config, int64, *slog.Logger) (github.Client, string, error) {
		return client, "token", nil
	}
	return job
}

func expectPRFetch(client *mocks.MockClient) {
	pr := &gh.PullRequest{
		Title: gh.Ptr("Add rate limiting"),
		Body:  gh.Ptr("Adds a token bucket."),
		Head:  &gh.PullRequestBranch{SHA: gh.Ptr("headsha")},
	}
	client.EXPECT().GetPullRequest(gomock.Any(), "acme", "widgets", 7).Return(pr, nil)
	client.EXPECT().CreateCheckRun(gomock.Any(), "acme", "widgets", gomock.Any()).
		Return(&gh.CheckRun{ID: gh.Ptr(int64(11))}, nil)
}

func TestReviewJobRunHappyPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	expectPRFetch(client)

	priorBody := testMarker + "\n\n#### ✅ Manual QA Checklist\n\n- [x] `test login`\n"
	client.EXPECT().GetPullRequestDiff(gomock.Any(), "acme", "widgets", 7).Return(testDiff, nil)
	client.EXPECT().ListChangedFiles(gomock.Any(), "acme", "widgets", 7).Return([]string{"a.py"}, nil)
	client.EXPECT().ListReviews(gomock.Any(), "acme", "widgets", 7).
		Return([]github.PriorReview{{ID: 5, Body: "human review, no marker"}, {ID: 9, Body: priorBody}}, nil)
	client.EXPECT().GetFileContent(gomock.Any(), "acme", "widgets", repoConfigPath, "headsha").
		Return("", errors.New("404 not found"))
	client.EXPECT().DismissReview(gomock.Any(), "acme", "widgets", 7, int64(9), gomock.Any()).Return(nil)

	var gotBody string
	var gotComments []github.DraftReviewComment
	client.EXPECT().CreateReview(gomock.Any(), "acme", "widgets", 7, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int, body string, comments []github.DraftReviewComment) error {
			gotBody = body
			gotComments = comments
			return nil
		})
	client.EXPECT().UpdateCheckRun(gomock.Any(), "acme", "widgets", int64(11), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int64, opts gh.UpdateCheckRunOptions) (*gh.CheckRun, error) {
			assert.Equal(t, "success", opts.GetConclusion())
			return &gh.CheckRun{}, nil
		})

	reviewer := &stubReviewer{data: &core.ReviewData{
		Summary:     "Looks solid overall.",
		Verdict:     "COMMENT",
		QAScenarios: []string{"Test Login!", "check pagination"},
		Issues: []core.Issue{
			{FilePath: "a.py", Line: 2, Severity: core.SeverityError, Category: "Bug", Comment: "off by one"},
			{FilePath: "a.py", Line: 1, Severity: core.SeveritySuggestion, Comment: "style nit"},
			{FilePath: "a.py", Line: 4, Severity: core.SeverityError, Comment: "not in diff"},
		},
	}}

	job := newTestJob(t, client, reviewer)
	err := job.Run(context.Background(), validEvent())

	require.NoError(t, err)
	require.True(t, reviewer.invoked)

	// The reviewer saw the prior marker review but not the human one.
	assert.Equal(t, priorBody, reviewer.gotReq.PriorReview)
	assert.Equal(t, testDiff, reviewer.gotReq.Diff)
	assert.Equal(t, "Add rate limiting", reviewer.gotReq.Title)

	// severity filter drops the suggestion, the off-diff line is dropped,
	// and line 2 resolves to diff position 2.
	require.Len(t, gotComments, 1)
	assert.Equal(t, "a.py", gotComments[0].Path)
	assert.Equal(t, 2, gotComments[0].Position)
	assert.Contains(t, gotComments[0].Body, "off by one")

	// the checked scenario carries forward despite rewording.
	assert.Contains(t, gotBody, testMarker)
	assert.Contains(t, gotBody, "- [x] `Test Login!`")
	assert.Contains(t, gotBody, "- [ ] `check pagination`")
}

func TestReviewJobRunRepoConfigOverrides(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	expectPRFetch(client)

	client.EXPECT().GetPullRequestDiff(gomock.Any(), "acme", "widgets", 7).Return(testDiff, nil)
	client.EXPECT().ListChangedFiles(gomock.Any(), "acme", "widgets", 7).Return([]string{"a.py"}, nil)
	client.EXPECT().ListReviews(gomock.Any(), "acme", "widgets", 7).Return(nil, nil)
	client.EXPECT().GetFileContent(gomock.Any(), "acme", "widgets", repoConfigPath, "headsha").
		Return("min_severity: error\nmax_comments: 1\n", nil)

	var gotComments []github.DraftReviewComment
	client.EXPECT().CreateReview(gomock.Any(), "acme", "widgets", 7, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int, _ string, comments []github.DraftReviewComment) error {
			gotComments = comments
			return nil
		})
	client.EXPECT().UpdateCheckRun(gomock.Any(), "acme", "widgets", int64(11), gomock.Any()).Return(&gh.CheckRun{}, nil)

	reviewer := &stubReviewer{data: &core.ReviewData{
		Summary: "ok",
		Issues: []core.Issue{
			{FilePath: "a.py", Line: 1, Severity: core.SeverityError, Comment: "first"},
			{FilePath: "a.py", Line: 2, Severity: core.SeverityError, Comment: "second"},
			{FilePath: "a.py", Line: 3, Severity: core.SeverityWarning, Comment: "below threshold now"},
		},
	}}

	job := newTestJob(t, client, reviewer)
	err := job.Run(context.Background(), validEvent())

	require.NoError(t, err)
	// min_severity error drops the warning; max_comments 1 caps the rest.
	require.Len(t, gotComments, 1)
	assert.Contains(t, gotComments[0].Body, "first")
}

func TestReviewJobRunEmptyDiffFailsCheckRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	expectPRFetch(client)

	client.EXPECT().GetPullRequestDiff(gomock.Any(), "acme", "widgets", 7).Return("", nil)
	client.EXPECT().ListChangedFiles(gomock.Any(), "acme", "widgets", 7).Return([]string{"a.py"}, nil)
	client.EXPECT().ListReviews(gomock.Any(), "acme", "widgets", 7).Return(nil, nil)
	client.EXPECT().UpdateCheckRun(gomock.Any(), "acme", "widgets", int64(11), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int64, opts gh.UpdateCheckRunOptions) (*gh.CheckRun, error) {
			assert.Equal(t, "failure", opts.GetConclusion())
			return &gh.CheckRun{}, nil
		})

	job := newTestJob(t, client, &stubReviewer{data: &core.ReviewData{Summary: "unused"}})
	err := job.Run(context.Background(), validEvent())

	assert.Error(t, err)
}

func TestReviewJobRunReviewerFailureFailsCheckRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := mocks.NewMockClient(ctrl)
	expectPRFetch(client)

	client.EXPECT().GetPullRequestDiff(gomock.Any(), "acme", "widgets", 7).Return(testDiff, nil)
	client.EXPECT().ListChangedFiles(gomock.Any(), "acme", "widgets", 7).Return([]string{"a.py"}, nil)
	client.EXPECT().ListReviews(gomock.Any(), "acme", "widgets", 7).Return(nil, nil)
	client.EXPECT().GetFileContent(gomock.Any(), "acme", "widgets", repoConfigPath, "headsha").
		Return("", errors.New("404 not found"))
	client.EXPECT().UpdateCheckRun(gomock.Any(), "acme", "widgets", int64(11), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, _ int64, opts gh.UpdateCheckRunOptions) (*gh.CheckRun, error) {
			assert.Equal(t, "failure", opts.GetConclusion())
			return &gh.CheckRun{}, nil
		})

	job := newTestJob(t, client, &stubReviewer{err: errors.New("model unavailable")})
	err := job.Run(context.Background(), validEvent())

	assert.ErrorContains(t, err, "failed to generate review")
}

func TestReviewJobRunInvalidEvent(t *testing.T) {
	job := NewReviewJob(testConfig(), &stubReviewer{}, nil, nil, slog.Default())

	err := job.Run(context.Background(), &core.GitHubEvent{})

	assert.ErrorContains(t, err, "input validation failed")
}
