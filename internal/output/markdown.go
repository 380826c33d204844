package output

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownFormatter writes the brief followed by a numbered sources list
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(report *Report, w io.Writer) error {
	var sb strings.Builder

	if ev := report.Evidence; ev != nil {
		fmt.Fprintf(&sb, "<!-- %s · %s · %s to %s -->\n\n", ev.Repo, ev.Login,
			ev.Window.Since.Format("2006-01-02"), ev.Window.Until.Format("2006-01-02"))
	}

	sb.WriteString(strings.TrimRight(report.Brief.Summary, "\n"))
	sb.WriteString("\n")

	if len(report.Brief.Citations) > 0 {
		sb.WriteString("\n### Sources\n")
		for i, link := range report.Brief.Citations {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, link)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
