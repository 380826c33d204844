package selector

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/sprintbrief/internal/models"
)

var base = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func pr(number, additions, deletions, changed int, day int) models.PullRequestCandidate {
	return models.PullRequestCandidate{
		PullRequest: models.PullRequest{
			Number:    number,
			URL:       fmt.Sprintf("https://github.com/acme/widgets/pull/%d", number),
			CreatedAt: base.AddDate(0, 0, day),
		},
		Additions:    additions,
		Deletions:    deletions,
		ChangedFiles: changed,
	}
}

func commit(sha string, additions, deletions int, day int, files ...models.CommitFile) models.Commit {
	return models.Commit{
		SHA:           sha,
		URL:           "https://github.com/acme/widgets/commit/" + sha,
		CommittedDate: base.AddDate(0, 0, day),
		Additions:     &additions,
		Deletions:     &deletions,
		Files:         files,
	}
}

func numbers(prs []models.PullRequestCandidate) []int {
	out := make([]int, len(prs))
	for i, p := range prs {
		out[i] = p.Number
	}
	return out
}

func shas(commits []models.Commit) []string {
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.SHA
	}
	return out
}

func TestPullRequestWeight(t *testing.T) {
	assert.Equal(t, 10.0+5+3*5, PullRequestWeight(pr(1, 10, 5, 3, 0)))
}

func TestCommitWeight(t *testing.T) {
	assert.InDelta(t, 10+5*1.2, CommitWeight(commit("a", 10, 5, 0)), 1e-9)
	renamed := commit("b", 0, 0, 0, models.CommitFile{Filename: "new.go", Status: "renamed"})
	assert.Equal(t, 500.0, CommitWeight(renamed))
	moved := commit("c", 1, 0, 0, models.CommitFile{Filename: "x.go", Status: "modified", PreviousFilename: "y.go"})
	assert.Equal(t, 501.0, CommitWeight(moved))

	unknown := models.Commit{SHA: "d"}
	assert.Equal(t, 0.0, CommitWeight(unknown))
}

func TestSelectPullRequests_UnderCapSortsOnly(t *testing.T) {
	in := []models.PullRequestCandidate{pr(1, 1, 1, 1, 1), pr(2, 900, 0, 1, 3), pr(3, 5, 5, 1, 2)}

	out := SelectPullRequests(in, 7)
	assert.Equal(t, []int{2, 3, 1}, numbers(out))
	// input untouched
	assert.Equal(t, []int{1, 2, 3}, numbers(in))
}

func TestSelectPullRequests_TopByWeightPlusSmallest(t *testing.T) {
	// weights: PR n has weight 100*n except PR 9 which is the smallest (weight 1)
	var in []models.PullRequestCandidate
	for n := 1; n <= 8; n++ {
		in = append(in, pr(n, 100*n, 0, 0, n))
	}
	in = append(in, pr(9, 1, 0, 0, 20))

	out := SelectPullRequests(in, 3)
	require.Len(t, out, 3)
	// top three are 8, 7, 6; the smallest (9) overwrites the last slot (6)
	assert.ElementsMatch(t, []int{8, 7, 9}, numbers(out))
	// newest-first
	assert.Equal(t, []int{9, 8, 7}, numbers(out))
}

func TestSelectPullRequests_SmallestAlreadySelected(t *testing.T) {
	in := []models.PullRequestCandidate{
		pr(1, 5, 0, 0, 1),
		pr(2, 5, 0, 0, 2),
		pr(3, 5, 0, 0, 3),
	}
	out := SelectPullRequests(in, 2)
	// all equal weight: stable order keeps 1 and 2; smallest is the first minimum (1), already in
	assert.Equal(t, []int{2, 1}, numbers(out))
}

func TestSelectPullRequests_ExactlyCapTotal(t *testing.T) {
	in := make([]models.PullRequestCandidate, 0, 21)
	for n := 1; n <= 21; n++ {
		in = append(in, pr(n, n*10, n, n%4, n))
	}
	out := SelectPullRequests(in, models.MaxPullRequests)
	assert.Len(t, out, models.MaxPullRequests)
	assert.Contains(t, numbers(out), 1, "lowest-weight candidate must be forced in")
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].CreatedAt.After(out[i-1].CreatedAt))
	}
}

func TestSelectCommits_RenameForcedIntoLastSlot(t *testing.T) {
	rename := models.CommitFile{Filename: "pkg/new.go", Status: "renamed", PreviousFilename: "pkg/old.go"}
	in := []models.Commit{
		commit("c1", 1000, 0, 1),
		commit("c2", 900, 0, 2),
		commit("c3", 800, 0, 3),
		commit("r1", 0, 0, 4, rename), // weight 500, not in top 3
		commit("r2", 0, 0, 5, rename),
	}

	out := SelectCommits(in, 3)
	assert.Equal(t, []string{"r1", "c2", "c1"}, shas(out))
}

func TestSelectCommits_NoRenameKeepsTopWeights(t *testing.T) {
	in := []models.Commit{
		commit("a", 10, 0, 1),
		commit("b", 0, 100, 2),
		commit("c", 50, 0, 3),
		commit("d", 1, 1, 4),
	}
	out := SelectCommits(in, 2)
	assert.Equal(t, []string{"c", "b"}, shas(out))
}

func TestSelect_EmptyAndZeroLimit(t *testing.T) {
	assert.Empty(t, SelectCommits(nil, 7))
	assert.Empty(t, SelectCommits([]models.Commit{commit("a", 1, 1, 1)}, 0))
}

func TestLowestWeight_FirstMinimumWins(t *testing.T) {
	assert.Equal(t, 1, LowestWeight([]int{0, 0, 0, 0}, []float64{3, 1, 2, 1}))
	assert.Equal(t, -1, LowestWeight([]int{}, nil))
}
