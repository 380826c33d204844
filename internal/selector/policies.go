package selector

import (
	"strconv"
	"time"

	"github.com/rohankatakam/sprintbrief/internal/models"
)

const (
	// changedFileWeight scales a PR's changed file count
	changedFileWeight = 5

	// deletionWeight favors cleanup in commit weighting
	deletionWeight = 1.2

	// renameBonus is added to commits that move files
	renameBonus = 500
)

// PullRequestWeight is additions + deletions + changedFiles*5
func PullRequestWeight(pr models.PullRequestCandidate) float64 {
	return float64(pr.Additions + pr.Deletions + pr.ChangedFiles*changedFileWeight)
}

// CommitWeight is additions + deletions*1.2, plus 500 when any file was renamed
func CommitWeight(c models.Commit) float64 {
	w := float64(c.AdditionsOrZero()) + float64(c.DeletionsOrZero())*deletionWeight
	if c.HasRename() {
		w += renameBonus
	}
	return w
}

// PullRequestPolicy forces in the smallest pull request
var PullRequestPolicy = Policy[models.PullRequestCandidate]{
	Weight:  PullRequestWeight,
	Date:    func(pr models.PullRequestCandidate) time.Time { return pr.CreatedAt },
	Key:     func(pr models.PullRequestCandidate) string { return strconv.Itoa(pr.Number) },
	Outlier: LowestWeight[models.PullRequestCandidate],
}

// CommitPolicy forces in the first commit that renames a file
var CommitPolicy = Policy[models.Commit]{
	Weight:  CommitWeight,
	Date:    func(c models.Commit) time.Time { return c.CommittedDate },
	Key:     func(c models.Commit) string { return c.SHA },
	Outlier: FirstMatching(models.Commit.HasRename),
}

// SelectPullRequests trims candidates to at most limit
func SelectPullRequests(candidates []models.PullRequestCandidate, limit int) []models.PullRequestCandidate {
	return Select(candidates, limit, PullRequestPolicy)
}

// SelectCommits trims commits to at most limit
func SelectCommits(commits []models.Commit, limit int) []models.Commit {
	return Select(commits, limit, CommitPolicy)
}
