package summary

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/rohankatakam/sprintbrief/internal/models"
)

const (
	maxImpactPRs     = 4
	maxImpactCommits = 3
	maxReviewNotes   = 5
	maxSnippet       = 120
	maxSuggestions   = 2
	cleanupRatio     = 1.5
)

// headlineRule turns the primary PR title into a headline when pattern matches
type headlineRule struct {
	pattern  *regexp.Regexp
	template func(title, login string) string
}

// checked in order, first match wins
var headlineRules = []headlineRule{
	{
		pattern:  regexp.MustCompile(`(?i)migrat`),
		template: func(title, login string) string { return fmt.Sprintf("%s led migration work: %s", login, title) },
	},
	{
		pattern:  regexp.MustCompile(`(?i)refactor`),
		template: func(title, login string) string { return fmt.Sprintf("%s refactored core flows with \"%s\"", login, title) },
	},
	{
		pattern:  regexp.MustCompile(`(?i)fix|patch|bug`),
		template: func(title, login string) string { return fmt.Sprintf("%s unblocked teammates by shipping \"%s\"", login, title) },
	},
	{
		pattern:  regexp.MustCompile(`(?i)enable|unlock|unblock`),
		template: func(title, login string) string { return fmt.Sprintf("%s helped unblock the team with \"%s\"", login, title) },
	},
}

var testPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:^|/)__(tests?|specs?)__/`),
	regexp.MustCompile(`(?i)(?:^|/)(test|tests|__tests__)/`),
	regexp.MustCompile(`(?i)\.(test|spec)\.[^/]+$`),
	regexp.MustCompile(`_test\.go$`),
}

// IsTestPath reports whether a repository path looks like test code
func IsTestPath(path string) bool {
	for _, re := range testPathPatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// Deterministic renders the six-section brief from rules alone.
// Identical evidence always yields identical bytes.
func Deterministic() Stage {
	return StageFunc(func(_ context.Context, evidence *models.Evidence) (string, error) {
		return render(evidence), nil
	})
}

func render(ev *models.Evidence) string {
	lines := []string{"## Headline", headline(ev)}
	sections := []struct {
		title   string
		bullets []string
	}{
		{"Key impacts", keyImpacts(ev)},
		{"Collaboration & review notes", collaborationNotes(ev)},
		{"Engineering signals", engineeringSignals(ev)},
		{"Growth & coaching", growthIdeas()},
		{"Next-sprint suggestions", nextSprintSuggestions(ev)},
	}
	for _, s := range sections {
		lines = append(lines, "", "### "+s.title)
		for _, b := range s.bullets {
			lines = append(lines, "- "+b)
		}
	}
	return strings.Join(lines, "\n")
}

func headline(ev *models.Evidence) string {
	if len(ev.PRs) == 0 {
		if len(ev.Commits) == 0 {
			return fmt.Sprintf("%s contributed steady improvements across the codebase", ev.Login)
		}
		return fmt.Sprintf("%s contributed updates like \"%s\"", ev.Login, firstLine(ev.Commits[0].Message))
	}

	title := ev.PRs[0].Title
	for _, rule := range headlineRules {
		if rule.pattern.MatchString(title) {
			return rule.template(title, ev.Login)
		}
	}
	return fmt.Sprintf("%s advanced %s with \"%s\"", ev.Login, ev.Repo, title)
}

func keyImpacts(ev *models.Evidence) []string {
	var out []string
	if len(ev.PRs) == 0 {
		for i, c := range ev.Commits {
			if i == maxImpactCommits {
				break
			}
			out = append(out, fmt.Sprintf("Commit %s — %s", shortSHA(c.SHA), firstLine(c.Message)))
		}
		return out
	}

	for i, pr := range ev.PRs {
		if i == maxImpactPRs {
			break
		}
		out = append(out, fmt.Sprintf("PR #%d: %s", pr.Number, pr.Title))
	}
	return out
}

func collaborationNotes(ev *models.Evidence) []string {
	if len(ev.ReviewsGiven) == 0 {
		return []string{"Pair with another maintainer to spread the migration context next sprint."}
	}

	var out []string
	for i, r := range ev.ReviewsGiven {
		if i == maxReviewNotes {
			break
		}
		snippet := "left a concise review"
		if r.Body != "" {
			snippet = truncateRunes(firstLine(r.Body), maxSnippet)
		}
		out = append(out, fmt.Sprintf("Reviewed PR #%d (%s): %s", r.PRNumber, strings.ToLower(r.State), snippet))
	}
	return out
}

func engineeringSignals(ev *models.Evidence) []string {
	var signals []string

	testsTouched := false
	for _, pr := range ev.PRs {
		for _, f := range pr.Files {
			if IsTestPath(f) {
				testsTouched = true
				break
			}
		}
	}
	if testsTouched {
		signals = append(signals, "Kept tests in lockstep with feature work.")
	}

	for _, c := range ev.Commits {
		if float64(c.DeletionsOrZero()) > float64(c.AdditionsOrZero())*cleanupRatio {
			signals = append(signals, fmt.Sprintf("Delivered cleanup commit %s with %s deletions.",
				shortSHA(c.SHA), humanize.Comma(int64(c.DeletionsOrZero()))))
			break
		}
	}

	for _, c := range ev.Commits {
		if c.HasRename() {
			signals = append(signals, "Handled file moves/renames carefully during the sprint.")
			break
		}
	}

	if len(signals) == 0 {
		signals = append(signals, "Maintained reliable delivery with incremental, review-friendly changes.")
	}
	return signals
}

func growthIdeas() []string {
	return []string{"Consider slicing future PRs so reviews land even faster."}
}

func nextSprintSuggestions(ev *models.Evidence) []string {
	labels := make(map[string]bool)
	for _, pr := range ev.PRs {
		for _, l := range pr.Labels {
			labels[strings.ToLower(l)] = true
		}
	}

	var out []string
	if labels["documentation"] {
		out = append(out, "Follow through on documentation updates so onboarding stays easy.")
	}
	if labels["infra"] || labels["infrastructure"] {
		out = append(out, "Plan a sync with infra owners to de-risk upcoming changes.")
	}
	if area := topArea(ev); area != "" {
		out = append(out, fmt.Sprintf("Schedule focused follow-up on the %s area to capitalise on momentum.", area))
	}

	if len(out) == 0 {
		out = append(out, "Identify one stretch area with the EM for next sprint.")
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

// topArea returns the most touched first path segment, ties going to the first seen
func topArea(ev *models.Evidence) string {
	counts := make(map[string]int)
	var order []string
	for _, pr := range ev.PRs {
		for _, path := range pr.Files {
			area, _, _ := strings.Cut(path, "/")
			if area == "" {
				continue
			}
			if counts[area] == 0 {
				order = append(order, area)
			}
			counts[area]++
		}
	}

	top := ""
	for _, area := range order {
		if top == "" || counts[area] > counts[top] {
			top = area
		}
	}
	return top
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
