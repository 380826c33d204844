package summary

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/sprintbrief/internal/errors"
	"github.com/rohankatakam/sprintbrief/internal/models"
)

func intPtr(n int) *int { return &n }

func fixtureEvidence() *models.Evidence {
	base := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	return &models.Evidence{
		Repo:   "acme/api",
		Login:  "octo",
		Window: models.Window{Since: base.AddDate(0, 0, -30), Until: base},
		PRs: []models.PullRequest{
			{
				Number:    42,
				URL:       "https://github.com/acme/api/pull/42",
				Title:     "Migrate billing to v2",
				CreatedAt: base.AddDate(0, 0, -1),
				Labels:    []string{"Documentation"},
				Files:     []string{"src/billing/api.ts", "src/billing/__tests__/api.test.ts", "docs/billing.md"},
			},
			{
				Number:    40,
				URL:       "https://github.com/acme/api/pull/40",
				Title:     "Fix flaky retry",
				CreatedAt: base.AddDate(0, 0, -3),
				Files:     []string{"src/retry.ts"},
			},
		},
		Commits: []models.Commit{
			{
				SHA:           "abcdef1234567890",
				URL:           "https://github.com/acme/api/commit/abcdef1234567890",
				Message:       "Remove legacy exporter\n\nIt has been dead since v1.",
				CommittedDate: base.AddDate(0, 0, -2),
				Additions:     intPtr(10),
				Deletions:     intPtr(2500),
			},
			{
				SHA:           "1234567abcdef",
				URL:           "https://github.com/acme/api/commit/1234567abcdef",
				Message:       "Move handlers",
				CommittedDate: base.AddDate(0, 0, -4),
				Additions:     intPtr(5),
				Deletions:     intPtr(5),
				Files:         []models.CommitFile{{Filename: "handlers/a.go", Status: "renamed", PreviousFilename: "old/a.go"}},
			},
		},
		ReviewsGiven: []models.ReviewGiven{
			{PRNumber: 37, URL: "https://github.com/acme/api/pull/37", State: "APPROVED", Body: "Looks great!\nnit: rename var"},
			{PRNumber: 38, URL: "https://github.com/acme/api/pull/38", State: "CHANGES_REQUESTED"},
		},
	}
}

const fixtureBrief = `## Headline
octo led migration work: Migrate billing to v2

### Key impacts
- PR #42: Migrate billing to v2
- PR #40: Fix flaky retry

### Collaboration & review notes
- Reviewed PR #37 (approved): Looks great!
- Reviewed PR #38 (changes_requested): left a concise review

### Engineering signals
- Kept tests in lockstep with feature work.
- Delivered cleanup commit abcdef1 with 2,500 deletions.
- Handled file moves/renames carefully during the sprint.

### Growth & coaching
- Consider slicing future PRs so reviews land even faster.

### Next-sprint suggestions
- Follow through on documentation updates so onboarding stays easy.
- Schedule focused follow-up on the src area to capitalise on momentum.`

func TestDeterministic_FullBrief(t *testing.T) {
	ev := fixtureEvidence()
	text, err := Deterministic().Run(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, fixtureBrief, text)

	again, err := Deterministic().Run(context.Background(), fixtureEvidence())
	require.NoError(t, err)
	assert.Equal(t, text, again, "identical evidence renders identical bytes")
}

func TestHeadline(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Migrate auth tables", "octo led migration work: Migrate auth tables"},
		{"Refactor the router", `octo refactored core flows with "Refactor the router"`},
		{"Patch CVE in parser", `octo unblocked teammates by shipping "Patch CVE in parser"`},
		{"Enable dark mode", `octo helped unblock the team with "Enable dark mode"`},
		{"Refactor migration runner", "octo led migration work: Refactor migration runner"},
		{"Add search", `octo advanced acme/api with "Add search"`},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			ev := &models.Evidence{Repo: "acme/api", Login: "octo", PRs: []models.PullRequest{{Number: 1, Title: tt.title}}}
			assert.Equal(t, tt.want, headline(ev))
		})
	}

	ev := &models.Evidence{Repo: "acme/api", Login: "octo"}
	assert.Equal(t, "octo contributed steady improvements across the codebase", headline(ev))

	ev.Commits = []models.Commit{{SHA: "abc", Message: "Tune cache\nbody"}}
	assert.Equal(t, `octo contributed updates like "Tune cache"`, headline(ev))
}

func TestKeyImpacts_CommitsWhenNoPRs(t *testing.T) {
	ev := &models.Evidence{Login: "octo"}
	for i := 0; i < 5; i++ {
		ev.Commits = append(ev.Commits, models.Commit{SHA: fmt.Sprintf("%d234567890", i), Message: fmt.Sprintf("change %d\nbody", i)})
	}
	assert.Equal(t, []string{
		"Commit 0234567 — change 0",
		"Commit 1234567 — change 1",
		"Commit 2234567 — change 2",
	}, keyImpacts(ev))

	for i := 1; i <= 6; i++ {
		ev.PRs = append(ev.PRs, models.PullRequest{Number: i, Title: fmt.Sprintf("pr %d", i)})
	}
	assert.Len(t, keyImpacts(ev), 4)
}

func TestCollaborationNotes(t *testing.T) {
	ev := &models.Evidence{}
	assert.Equal(t, []string{"Pair with another maintainer to spread the migration context next sprint."}, collaborationNotes(ev))

	long := strings.Repeat("é", 150)
	for i := 0; i < 7; i++ {
		ev.ReviewsGiven = append(ev.ReviewsGiven, models.ReviewGiven{PRNumber: i, State: "COMMENTED", Body: long})
	}
	notes := collaborationNotes(ev)
	require.Len(t, notes, 5)
	assert.Equal(t, "Reviewed PR #0 (commented): "+strings.Repeat("é", 120), notes[0])
}

func TestCollaborationNotes_BodySnippets(t *testing.T) {
	ev := &models.Evidence{ReviewsGiven: []models.ReviewGiven{
		{PRNumber: 1, State: "APPROVED"},
		{PRNumber: 2, State: "APPROVED", Body: "  "},
		{PRNumber: 3, State: "COMMENTED", Body: "\nsecond line"},
	}}
	assert.Equal(t, []string{
		"Reviewed PR #1 (approved): left a concise review",
		"Reviewed PR #2 (approved):   ",
		"Reviewed PR #3 (commented): ",
	}, collaborationNotes(ev))
}

func TestEngineeringSignals_Default(t *testing.T) {
	ev := &models.Evidence{
		PRs:     []models.PullRequest{{Files: []string{"src/app.ts"}}},
		Commits: []models.Commit{{SHA: "abc", Additions: intPtr(10), Deletions: intPtr(15)}},
	}
	assert.Equal(t, []string{"Maintained reliable delivery with incremental, review-friendly changes."}, engineeringSignals(ev))
}

func TestIsTestPath(t *testing.T) {
	for _, p := range []string{
		"src/__tests__/a.ts",
		"__spec__/b.js",
		"test/fixtures/x.json",
		"pkg/tests/helpers.py",
		"web/Button.test.tsx",
		"web/Button.SPEC.js",
		"web/Button.test.css",
		"spec/models/widget.spec.rb",
		"internal/summary/summary_test.go",
	} {
		assert.True(t, IsTestPath(p), p)
	}
	for _, p := range []string{"src/testing.ts", "contest/a.ts", "docs/test.md", "latest/file.go", "web/test.spec/readme"} {
		assert.False(t, IsTestPath(p), p)
	}
}

func TestNextSprintSuggestions(t *testing.T) {
	ev := &models.Evidence{}
	assert.Equal(t, []string{"Identify one stretch area with the EM for next sprint."}, nextSprintSuggestions(ev))

	ev.PRs = []models.PullRequest{{Labels: []string{"INFRA"}, Files: []string{"deploy/a.tf", "web/a.ts", "/abs", "web/b.ts", "deploy/b.tf"}}}
	assert.Equal(t, []string{
		"Plan a sync with infra owners to de-risk upcoming changes.",
		"Schedule focused follow-up on the deploy area to capitalise on momentum.",
	}, nextSprintSuggestions(ev), "ties go to the first area seen")

	ev.PRs[0].Labels = []string{"documentation", "infrastructure"}
	assert.Equal(t, []string{
		"Follow through on documentation updates so onboarding stays easy.",
		"Plan a sync with infra owners to de-risk upcoming changes.",
	}, nextSprintSuggestions(ev))
}

func TestCitations(t *testing.T) {
	ev := fixtureEvidence()
	assert.Equal(t, []string{
		"https://github.com/acme/api/pull/42",
		"https://github.com/acme/api/pull/40",
		"https://github.com/acme/api/commit/abcdef1234567890",
		"https://github.com/acme/api/commit/1234567abcdef",
	}, Citations(ev))

	ev.Commits[1].URL = ev.PRs[0].URL
	assert.Len(t, Citations(ev), 3, "duplicates collapse")

	ev = &models.Evidence{}
	for i := 1; i <= 7; i++ {
		ev.PRs = append(ev.PRs, models.PullRequest{URL: fmt.Sprintf("https://github.com/acme/api/pull/%d", i)})
	}
	ev.Commits = []models.Commit{{URL: "https://github.com/acme/api/commit/abc"}}
	links := Citations(ev)
	require.Len(t, links, MaxCitations)
	assert.Equal(t, "https://github.com/acme/api/pull/6", links[5])
}

type fakeCompleter struct {
	text    string
	err     error
	enabled bool
	block   bool
	system  string
	user    string
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.system, f.user = systemPrompt, userPrompt
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func (f *fakeCompleter) IsEnabled() bool { return f.enabled }

func TestRemoteStage(t *testing.T) {
	ctx := context.Background()
	ev := fixtureEvidence()

	fc := &fakeCompleter{text: "  ## Headline\nfrom the model\n", enabled: true}
	text, err := NewRemoteStage(fc, 0).Run(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, "## Headline\nfrom the model", text)
	assert.Contains(t, fc.system, "### Next-sprint suggestions")
	assert.Contains(t, fc.user, "Contributor: octo")
	assert.Contains(t, fc.user, `"headline": "Remove legacy exporter"`)
	assert.Contains(t, fc.user, `"renames": 1`)

	failures := map[string]*RemoteStage{
		"nil completer": NewRemoteStage(nil, 0),
		"disabled":      NewRemoteStage(&fakeCompleter{text: "x"}, 0),
		"transport":     NewRemoteStage(&fakeCompleter{err: assert.AnError, enabled: true}, 0),
		"blank":         NewRemoteStage(&fakeCompleter{text: " \n ", enabled: true}, 0),
		"timeout":       NewRemoteStage(&fakeCompleter{block: true, enabled: true}, 10*time.Millisecond),
	}
	for name, stage := range failures {
		t.Run(name, func(t *testing.T) {
			_, err := stage.Run(ctx, ev)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeLLM))
		})
	}
}

func TestWithFallback(t *testing.T) {
	calls := 0
	failing := StageFunc(func(context.Context, *models.Evidence) (string, error) {
		calls++
		return "", errors.LLMError(nil, "boom")
	})

	text, err := WithFallback(failing, Deterministic()).Run(context.Background(), fixtureEvidence())
	require.NoError(t, err)
	assert.Equal(t, fixtureBrief, text)
	assert.Equal(t, 1, calls, "the primary stage is never retried")
}

func TestComposer_Summarize(t *testing.T) {
	ev := fixtureEvidence()

	brief := NewComposer(&fakeCompleter{text: "model brief", enabled: true}, time.Second).Summarize(context.Background(), ev)
	assert.Equal(t, "model brief", brief.Summary)
	assert.Len(t, brief.Citations, 4)

	brief = NewComposer(&fakeCompleter{block: true, enabled: true}, 10*time.Millisecond).Summarize(context.Background(), ev)
	assert.Equal(t, fixtureBrief, brief.Summary)

	brief = NewComposer(nil, 0).Summarize(context.Background(), ev)
	assert.Equal(t, fixtureBrief, brief.Summary)
	assert.Equal(t, Citations(ev), brief.Citations)
}
