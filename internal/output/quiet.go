package output

import (
	"fmt"
	"io"
	"strings"
)

// QuietFormatter outputs a one-line summary per contributor (for batch runs)
type QuietFormatter struct{}

func (f *QuietFormatter) Format(report *Report, w io.Writer) error {
	headline := headlineOf(report.Brief.Summary)

	ev := report.Evidence
	if ev == nil {
		_, err := fmt.Fprintf(w, "%s\n", headline)
		return err
	}

	_, err := fmt.Fprintf(w, "%s@%s: %d PRs, %d commits, %d reviews · %s\n",
		ev.Login, ev.Repo, len(ev.PRs), len(ev.Commits), len(ev.ReviewsGiven), headline)
	return err
}

// headlineOf returns the line after "## Headline", or the first non-empty line
func headlineOf(summary string) string {
	lines := strings.Split(summary, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "## Headline" && i+1 < len(lines) {
			return strings.TrimSpace(lines[i+1])
		}
	}
	for _, line := range lines {
		if t := strings.TrimSpace(line); t != "" {
			return strings.TrimLeft(t, "# ")
		}
	}
	return ""
}
