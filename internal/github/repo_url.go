package github

import (
	"regexp"
	"strings"

	"github.com/rohankatakam/sprintbrief/internal/errors"
)

var (
	// https://github.com/owner/repo, github.com/owner/repo/tree/main, ...
	githubURLPattern = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?github\.com/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)`)

	// git@github.com:owner/repo.git
	githubSSHPattern = regexp.MustCompile(`(?i)^git@github\.com:([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)`)

	// owner/repo
	shorthandPattern = regexp.MustCompile(`^([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)$`)
)

// NormalizeRepoURL extracts owner and repository name from a GitHub URL,
// an SSH remote or the "owner/repo" shorthand. A trailing ".git" is dropped.
func NormalizeRepoURL(raw string) (owner, repo string, err error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", "", errors.InputError("repository URL is required")
	}

	for _, pattern := range []*regexp.Regexp{githubURLPattern, githubSSHPattern, shorthandPattern} {
		m := pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		owner = m[1]
		repo = strings.TrimSuffix(m[2], ".git")
		if owner == "" || repo == "" || owner == "." || owner == ".." || repo == "." || repo == ".." {
			break
		}
		return owner, repo, nil
	}

	return "", "", errors.InputErrorf("unsupported repository URL %q: expected https://github.com/<owner>/<repo> or <owner>/<repo>", raw)
}
