package collector

import (
	"strings"
	"time"

	"github.com/rohankatakam/sprintbrief/internal/errors"
	"github.com/rohankatakam/sprintbrief/internal/models"
)

// DefaultWindow is the look-back used when since is not given
const DefaultWindow = 30 * 24 * time.Hour

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ResolveWindow turns an optional since/until pair into a closed interval.
// A missing until is now; a missing since is until minus 30 days.
func ResolveWindow(since, until string, now time.Time) (models.Window, error) {
	end := now.UTC()
	if strings.TrimSpace(until) != "" {
		t, err := parseTimestamp(until)
		if err != nil {
			return models.Window{}, errors.InputErrorf("invalid until %q: expected an ISO-8601 timestamp", until)
		}
		end = t
	}

	start := end.Add(-DefaultWindow)
	if strings.TrimSpace(since) != "" {
		t, err := parseTimestamp(since)
		if err != nil {
			return models.Window{}, errors.InputErrorf("invalid since %q: expected an ISO-8601 timestamp", since)
		}
		start = t
	}

	if start.After(end) {
		return models.Window{}, errors.InputError("the 'since' date must be before the 'until' date")
	}

	return models.Window{Since: start, Until: end}, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
