package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rohankatakam/sprintbrief/internal/models"
)

// Report is one analyzed contributor ready for rendering
type Report struct {
	Evidence *models.Evidence
	Brief    models.Brief
}

// Formatter defines output formatting interface
type Formatter interface {
	Format(report *Report, w io.Writer) error
}

// Format selects an output encoding
type Format string

const (
	FormatMarkdown Format = "markdown" // brief plus sources
	FormatQuiet    Format = "quiet"    // one line per contributor
	FormatJSON     Format = "json"     // machine-readable, mirrors the HTTP response
	FormatYAML     Format = "yaml"
)

// ParseFormat accepts md/markdown, quiet, json and yaml/yml
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "quiet":
		return FormatQuiet, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want markdown, quiet, json or yaml)", s)
}

// NewFormatter creates appropriate formatter based on format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatQuiet:
		return &QuietFormatter{}
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &MarkdownFormatter{}
	}
}

// GetDefaultFormat returns appropriate default based on environment
func GetDefaultFormat() Format {
	if v := os.Getenv("BRIEF_OUTPUT"); v != "" {
		if f, err := ParseFormat(v); err == nil {
			return f
		}
	}

	// AI assistant context
	if os.Getenv("BRIEF_AI_MODE") == "1" {
		return FormatJSON
	}

	return FormatMarkdown
}

// document is the structured shape shared by the JSON and YAML formatters
type document struct {
	OK        bool             `json:"ok" yaml:"ok"`
	Summary   string           `json:"summary" yaml:"summary"`
	Citations []string         `json:"citations" yaml:"citations"`
	Evidence  *models.Evidence `json:"evidence" yaml:"evidence"`
}

func newDocument(report *Report) document {
	citations := report.Brief.Citations
	if citations == nil {
		citations = []string{}
	}
	return document{
		OK:        true,
		Summary:   report.Brief.Summary,
		Citations: citations,
		Evidence:  report.Evidence,
	}
}
