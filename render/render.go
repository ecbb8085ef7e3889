// Package render turns analyzer reports into charts and terminal tables.
// Renderers only read the report.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/raywall/issue-insights/analyzer"
)

// ErrEmptyReport is returned when a report carries no result at all.
var ErrEmptyReport = errors.New("report has no result")

// Renderer writes a report to w.
type Renderer interface {
	Render(w io.Writer, report *analyzer.Report) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(w io.Writer, report *analyzer.Report) error

// Render calls f.
func (f RendererFunc) Render(w io.Writer, report *analyzer.Report) error {
	return f(w, report)
}

// ForFormat returns the renderer for "text", "html", "json" or "yaml".
func ForFormat(format string, noColor bool) (Renderer, error) {
	switch f := strings.ToLower(format); f {
	case "text":
		return NewText(noColor), nil
	case "html":
		return NewHTML(), nil
	case "json", "yaml":
		return RendererFunc(func(w io.Writer, report *analyzer.Report) error {
			return analyzer.Encode(w, report, f)
		}), nil
	}
	return nil, fmt.Errorf("%w: %q", analyzer.ErrUnknownFormat, format)
}

// Extension returns the file extension used when a format is written to disk.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "html":
		return ".html"
	case "json":
		return ".json"
	case "yaml":
		return ".yaml"
	}
	return ".txt"
}

func title(report *analyzer.Report) string {
	switch report.Meta.Feature {
	case analyzer.FeatureOverview:
		return "Issue Snapshot Overview"
	case analyzer.FeatureCreationTrend:
		return "Issue Creation Trend"
	case analyzer.FeatureContributors:
		return "Top Comment Contributors (Grouped)"
	case analyzer.FeatureResolution:
		return "Issue Labels and Resolution Time"
	case analyzer.FeatureLabelTrend:
		return "Trend of Most Common Issue Labels"
	}
	return "Issue Report"
}

func filterSubtitle(f analyzer.Filter) string {
	var parts []string
	if f.Label != "" {
		parts = append(parts, "label="+f.Label)
	}
	if f.User != "" {
		parts = append(parts, "user="+f.User)
	}
	return strings.Join(parts, ", ")
}
