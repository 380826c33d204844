package collector

import (
	"context"
	"fmt"
	"testing"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/sprintbrief/internal/errors"
	"github.com/rohankatakam/sprintbrief/internal/models"
)

var fixedNow = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

var errDetail = errors.UpstreamError(500, "detail exploded")

// fakeSource serves canned pull requests and commits and counts calls
type fakeSource struct {
	prs     []*gh.PullRequest
	reviews map[int][]*gh.PullRequestReview
	files   map[int]int // number of files per PR
	commits []*gh.RepositoryCommit
	details map[string]*gh.RepositoryCommit

	listPRCalls      int
	detailCalls      []int
	fileCalls        map[int]int
	reviewCalls      []int
	listCommitCalls  int
	commitDetailSHAs []string

	failOnDetail int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		reviews:   map[int][]*gh.PullRequestReview{},
		files:     map[int]int{},
		details:   map[string]*gh.RepositoryCommit{},
		fileCalls: map[int]int{},
	}
}

func page[T any](items []T, page int) []T {
	start := (page - 1) * 100
	if start >= len(items) {
		return nil
	}
	end := start + 100
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (f *fakeSource) ListPullRequests(_ context.Context, _, _ string, p int) ([]*gh.PullRequest, error) {
	f.listPRCalls++
	return page(f.prs, p), nil
}

func (f *fakeSource) GetPullRequest(_ context.Context, _, _ string, number int) (*gh.PullRequest, error) {
	f.detailCalls = append(f.detailCalls, number)
	if number == f.failOnDetail {
		return nil, errDetail
	}
	for _, pr := range f.prs {
		if pr.GetNumber() == number {
			detail := *pr
			detail.Additions = gh.Int(number * 10)
			detail.Deletions = gh.Int(number)
			detail.ChangedFiles = gh.Int(1)
			detail.Labels = []*gh.Label{{Name: gh.String("documentation")}}
			return &detail, nil
		}
	}
	return nil, errors.UpstreamError(404, "missing")
}

func (f *fakeSource) ListPullRequestFiles(_ context.Context, _, _ string, number, p int) ([]*gh.CommitFile, error) {
	f.fileCalls[number]++
	var all []*gh.CommitFile
	for i := 0; i < f.files[number]; i++ {
		all = append(all, &gh.CommitFile{Filename: gh.String(fmt.Sprintf("src/file%d.go", i))})
	}
	return page(all, p), nil
}

func (f *fakeSource) ListPullRequestReviews(_ context.Context, _, _ string, number int) ([]*gh.PullRequestReview, error) {
	f.reviewCalls = append(f.reviewCalls, number)
	return f.reviews[number], nil
}

func (f *fakeSource) ListCommits(_ context.Context, _, _, _ string, _, _ time.Time, p int) ([]*gh.RepositoryCommit, error) {
	f.listCommitCalls++
	return page(f.commits, p), nil
}

func (f *fakeSource) GetCommit(_ context.Context, _, _, sha string) (*gh.RepositoryCommit, error) {
	f.commitDetailSHAs = append(f.commitDetailSHAs, sha)
	if d, ok := f.details[sha]; ok {
		return d, nil
	}
	return &gh.RepositoryCommit{SHA: gh.String(sha)}, nil
}

func listedPR(number int, login string, created time.Time) *gh.PullRequest {
	return &gh.PullRequest{
		Number:    gh.Int(number),
		Title:     gh.String(fmt.Sprintf("PR %d", number)),
		HTMLURL:   gh.String(fmt.Sprintf("https://github.com/acme/widgets/pull/%d", number)),
		CreatedAt: &gh.Timestamp{Time: created},
		UpdatedAt: &gh.Timestamp{Time: created.Add(time.Hour)},
		User:      &gh.User{Login: gh.String(login)},
	}
}

func listedCommit(sha string, date time.Time) *gh.RepositoryCommit {
	return &gh.RepositoryCommit{
		SHA:     gh.String(sha),
		HTMLURL: gh.String("https://github.com/acme/widgets/commit/" + sha),
		Commit: &gh.Commit{
			Message: gh.String("commit " + sha),
			Author:  &gh.CommitAuthor{Date: &gh.Timestamp{Time: date}},
		},
	}
}

func newTestCollector(src *fakeSource) *Collector {
	c := New(src)
	c.now = func() time.Time { return fixedNow }
	return c
}

func request() Request {
	return Request{Owner: "acme", Repo: "widgets", Login: "octo"}
}

func TestCollectEvidence_PaginatesUntilShortPage(t *testing.T) {
	src := newFakeSource()
	// 250 PRs across 3 pages; only 3 authored by octo (one with different casing)
	for n := 1; n <= 250; n++ {
		login := "someone"
		if n == 10 || n == 150 || n == 240 {
			login = "octo"
		}
		if n == 150 {
			login = "OCTO"
		}
		src.prs = append(src.prs, listedPR(n, login, fixedNow.AddDate(0, 0, -n/20)))
	}

	ev, err := newTestCollector(src).CollectEvidence(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, 3, src.listPRCalls)
	assert.Equal(t, []int{10, 150, 240}, src.detailCalls)
	assert.Equal(t, []int{10, 150, 240}, src.reviewCalls)
	assert.Len(t, src.fileCalls, 3)

	require.Len(t, ev.PRs, 3)
	assert.Equal(t, []int{10, 150, 240}, []int{ev.PRs[0].Number, ev.PRs[1].Number, ev.PRs[2].Number})
	assert.Equal(t, "acme/widgets", ev.Repo)
	assert.Equal(t, []string{"documentation"}, ev.PRs[0].Labels)
}

func TestCollectEvidence_WindowFiltersPullRequests(t *testing.T) {
	src := newFakeSource()
	src.prs = []*gh.PullRequest{
		listedPR(1, "octo", fixedNow.AddDate(0, 0, -5)),
		listedPR(2, "octo", fixedNow.AddDate(0, 0, -45)), // outside the default 30 days
		{Number: gh.Int(3), HTMLURL: gh.String("https://github.com/acme/widgets/pull/3"), User: &gh.User{Login: gh.String("octo")}},
	}

	ev, err := newTestCollector(src).CollectEvidence(context.Background(), request())
	require.NoError(t, err)

	// PRs without a creation time are not filtered
	assert.Equal(t, []int{1, 3}, src.detailCalls)
	assert.Len(t, ev.PRs, 2)
}

func TestCollectEvidence_StopsAtCandidateBound(t *testing.T) {
	src := newFakeSource()
	for n := 1; n <= 300; n++ {
		src.prs = append(src.prs, listedPR(n, "octo", fixedNow.Add(-time.Duration(n)*time.Minute)))
	}

	ev, err := newTestCollector(src).CollectEvidence(context.Background(), request())
	require.NoError(t, err)

	// the bound is checked per page, so the whole first page is processed
	assert.Equal(t, 1, src.listPRCalls)
	assert.Len(t, src.detailCalls, 100)
	assert.Len(t, ev.PRs, models.MaxPullRequests)
}

func TestCollectEvidence_FilesCappedAt500(t *testing.T) {
	src := newFakeSource()
	src.prs = []*gh.PullRequest{listedPR(7, "octo", fixedNow.AddDate(0, 0, -1))}
	src.files[7] = 730

	ev, err := newTestCollector(src).CollectEvidence(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, 5, src.fileCalls[7])
	assert.Len(t, ev.PRs[0].Files, 500)
}

func TestCollectEvidence_ReviewsGiven(t *testing.T) {
	src := newFakeSource()
	src.prs = []*gh.PullRequest{
		listedPR(1, "octo", fixedNow.AddDate(0, 0, -1)),
		listedPR(2, "octo", fixedNow.AddDate(0, 0, -2)),
	}
	submitted := &gh.Timestamp{Time: fixedNow.AddDate(0, 0, -1)}
	for i := 0; i < 4; i++ {
		src.reviews[1] = append(src.reviews[1], &gh.PullRequestReview{User: &gh.User{Login: gh.String("Octo")}, State: gh.String("COMMENTED"), SubmittedAt: submitted})
		src.reviews[2] = append(src.reviews[2], &gh.PullRequestReview{User: &gh.User{Login: gh.String("octo")}, State: gh.String("APPROVED")})
	}
	src.reviews[2] = append(src.reviews[2], &gh.PullRequestReview{State: gh.String("APPROVED")})

	ev, err := newTestCollector(src).CollectEvidence(context.Background(), request())
	require.NoError(t, err)

	require.Len(t, ev.ReviewsGiven, models.MaxReviewsGiven)
	for i := 0; i < 4; i++ {
		assert.Equal(t, 1, ev.ReviewsGiven[i].PRNumber)
	}
	assert.Equal(t, 2, ev.ReviewsGiven[4].PRNumber)
	assert.Equal(t, "APPROVED", ev.ReviewsGiven[4].State)
	// submittedAt falls back to the PR's updated time
	assert.Equal(t, fixedNow.AddDate(0, 0, -2).Add(time.Hour), ev.ReviewsGiven[4].SubmittedAt)

	var pr2 models.PullRequest
	for _, pr := range ev.PRs {
		if pr.Number == 2 {
			pr2 = pr
		}
	}
	assert.Equal(t, "unknown", pr2.Reviews[len(pr2.Reviews)-1].Author)
}

func TestCollectEvidence_CommitEnrichmentCap(t *testing.T) {
	src := newFakeSource()
	for i := 0; i < 40; i++ {
		src.commits = append(src.commits, listedCommit(fmt.Sprintf("sha%02d", i), fixedNow.Add(-time.Duration(i)*time.Hour)))
	}
	src.commits = append([]*gh.RepositoryCommit{{}}, src.commits...) // no sha, skipped

	ev, err := newTestCollector(src).CollectEvidence(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, 1, src.listCommitCalls)
	assert.Len(t, src.commitDetailSHAs, 10)
	assert.Len(t, ev.Commits, models.MaxCommits)
	for i := 1; i < len(ev.Commits); i++ {
		assert.False(t, ev.Commits[i].CommittedDate.After(ev.Commits[i-1].CommittedDate))
	}
}

func TestCollectEvidence_CommitDetailFields(t *testing.T) {
	src := newFakeSource()
	src.commits = []*gh.RepositoryCommit{
		{SHA: gh.String("abc"), HTMLURL: gh.String("https://github.com/acme/widgets/commit/abc")},
	}
	src.details["abc"] = &gh.RepositoryCommit{
		SHA: gh.String("abc"),
		Commit: &gh.Commit{
			Message:   gh.String("Move handlers\n\nbody"),
			Committer: &gh.CommitAuthor{Date: &gh.Timestamp{Time: fixedNow.AddDate(0, 0, -3)}},
		},
		Stats: &gh.CommitStats{Additions: gh.Int(4), Deletions: gh.Int(40)},
		Files: []*gh.CommitFile{{Filename: gh.String("b.go"), Status: gh.String("renamed"), PreviousFilename: gh.String("a.go")}},
	}

	ev, err := newTestCollector(src).CollectEvidence(context.Background(), request())
	require.NoError(t, err)

	require.Len(t, ev.Commits, 1)
	c := ev.Commits[0]
	assert.Equal(t, "Move handlers\n\nbody", c.Message)
	assert.Equal(t, fixedNow.AddDate(0, 0, -3), c.CommittedDate)
	assert.Equal(t, 40, c.DeletionsOrZero())
	assert.True(t, c.HasRename())
}

func TestCollectEvidence_CommitDateFallsBackToWindowEnd(t *testing.T) {
	src := newFakeSource()
	src.commits = []*gh.RepositoryCommit{
		{SHA: gh.String("nodate"), HTMLURL: gh.String("https://github.com/acme/widgets/commit/nodate")},
	}

	ev, err := newTestCollector(src).CollectEvidence(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, fixedNow, ev.Commits[0].CommittedDate)
}

func TestCollectEvidence_UpstreamErrorAborts(t *testing.T) {
	src := newFakeSource()
	src.prs = []*gh.PullRequest{
		listedPR(1, "octo", fixedNow.AddDate(0, 0, -1)),
		listedPR(2, "octo", fixedNow.AddDate(0, 0, -2)),
	}
	src.failOnDetail = 1

	ev, err := newTestCollector(src).CollectEvidence(context.Background(), request())
	require.Error(t, err)
	assert.Nil(t, ev)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUpstream))
	assert.Same(t, errDetail, err, "upstream errors propagate unmodified")
	assert.Equal(t, 0, src.listCommitCalls)
}

func TestCollectEvidence_ShiftedPageRepeatsPullRequest(t *testing.T) {
	src := newFakeSource()
	for i := 0; i < 99; i++ {
		src.prs = append(src.prs, listedPR(100+i, "hubot", fixedNow.AddDate(0, 0, -1)))
	}
	// #5 closes page 1 and, after a new PR opened, leads page 2
	src.prs = append(src.prs, listedPR(5, "octo", fixedNow.AddDate(0, 0, -2)))
	src.prs = append(src.prs, listedPR(5, "octo", fixedNow.AddDate(0, 0, -2)))
	src.reviews[5] = []*gh.PullRequestReview{{User: &gh.User{Login: gh.String("octo")}, State: gh.String("COMMENTED")}}

	ev, err := newTestCollector(src).CollectEvidence(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, 2, src.listPRCalls)
	assert.Equal(t, []int{5}, src.detailCalls)
	require.Len(t, ev.PRs, 1)
	assert.Equal(t, 5, ev.PRs[0].Number)
	assert.Len(t, ev.ReviewsGiven, 1)
}

func TestCollectEvidence_RepeatedCommitShaEnrichedOnce(t *testing.T) {
	src := newFakeSource()
	src.commits = []*gh.RepositoryCommit{
		listedCommit("abc", fixedNow.AddDate(0, 0, -1)),
		listedCommit("def", fixedNow.AddDate(0, 0, -2)),
		listedCommit("abc", fixedNow.AddDate(0, 0, -1)),
	}

	ev, err := newTestCollector(src).CollectEvidence(context.Background(), request())
	require.NoError(t, err)

	assert.Equal(t, []string{"abc", "def"}, src.commitDetailSHAs)
	require.Len(t, ev.Commits, 2)
}

func TestCollectEvidence_InvalidPayloadIsValidationError(t *testing.T) {
	src := newFakeSource()
	pr := listedPR(1, "octo", fixedNow.AddDate(0, 0, -1))
	pr.HTMLURL = gh.String("/relative/pull/1")
	src.prs = []*gh.PullRequest{pr}

	_, err := newTestCollector(src).CollectEvidence(context.Background(), request())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestCollectEvidence_InvalidWindow(t *testing.T) {
	src := newFakeSource()
	req := request()
	req.Since = "2024-06-10"
	req.Until = "2024-06-01"

	_, err := newTestCollector(src).CollectEvidence(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInput))
	assert.Equal(t, 0, src.listPRCalls)
}
