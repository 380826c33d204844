package summary

import "github.com/rohankatakam/sprintbrief/internal/models"

// MaxCitations caps the links attached to a brief
const MaxCitations = 6

// Citations lists PR URLs then commit URLs, deduplicated in first-seen order
func Citations(evidence *models.Evidence) []string {
	seen := make(map[string]bool)
	links := make([]string, 0, MaxCitations)
	add := func(url string) {
		if url == "" || seen[url] || len(links) == MaxCitations {
			return
		}
		seen[url] = true
		links = append(links, url)
	}

	for _, pr := range evidence.PRs {
		add(pr.URL)
	}
	for _, c := range evidence.Commits {
		add(c.URL)
	}
	return links
}
