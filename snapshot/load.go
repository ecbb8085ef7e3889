// Package snapshot reads, writes and fetches the issue snapshot consumed by
// the analyzers.
package snapshot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/raywall/issue-insights/analyzer"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type rawIssue struct {
	Number      int             `json:"number"`
	Title       string          `json:"title"`
	Creator     string          `json:"creator"`
	State       string          `json:"state"`
	Labels      json.RawMessage `json:"labels"`
	CreatedDate string          `json:"created_date"`
	UpdatedDate string          `json:"updated_date"`
	Events      []rawEvent      `json:"events"`
}

type rawEvent struct {
	EventType string `json:"event_type"`
	Author    string `json:"author"`
	EventDate string `json:"event_date"`
}

// Stats reports what the loader had to tolerate.
type Stats struct {
	Issues          int
	BadTimestamps   int
	MalformedLabels int
}

// Load reads a snapshot file.
func Load(path string, logger *slog.Logger) ([]analyzer.Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	issues, stats, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}

	if logger != nil {
		logger.Info("snapshot loaded",
			"path", path,
			"issues", stats.Issues,
			"bad_timestamps", stats.BadTimestamps,
			"malformed_labels", stats.MalformedLabels,
		)
	}

	return issues, nil
}

// Decode parses snapshot JSON. Missing or malformed timestamps, on issues
// and on events, become the zero time and labels that are not a list of
// strings become the empty set.
func Decode(data []byte) ([]analyzer.Issue, Stats, error) {
	var raw []rawIssue
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{Issues: len(raw)}
	issues := make([]analyzer.Issue, 0, len(raw))

	for _, r := range raw {
		labels, ok := decodeLabels(r.Labels)
		if !ok {
			stats.MalformedLabels++
		}

		created, ok := parseTime(r.CreatedDate)
		if !ok {
			stats.BadTimestamps++
		}
		updated, ok := parseTime(r.UpdatedDate)
		if !ok {
			stats.BadTimestamps++
		}

		issue := analyzer.Issue{
			Number:    r.Number,
			Title:     r.Title,
			Creator:   r.Creator,
			State:     analyzer.State(strings.ToLower(r.State)),
			Labels:    labels,
			CreatedAt: created,
			UpdatedAt: updated,
		}

		if len(r.Events) > 0 {
			issue.Events = make([]analyzer.Event, 0, len(r.Events))
			for _, e := range r.Events {
				at, ok := parseTime(e.EventDate)
				if !ok {
					stats.BadTimestamps++
				}
				issue.Events = append(issue.Events, analyzer.Event{
					Type:   e.EventType,
					Author: e.Author,
					At:     at,
				})
			}
		}

		issues = append(issues, issue)
	}

	return issues, stats, nil
}

// decodeLabels returns false only when labels is present but not a string list.
func decodeLabels(raw json.RawMessage) ([]string, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, true
	}

	var labels []string
	if err := json.Unmarshal(raw, &labels); err != nil {
		return nil, false
	}

	return labels, true
}

// parseTime returns false only for a non-empty value that cannot be parsed.
func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, true
	}

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// Save writes issues in the snapshot format read by Load.
func Save(path string, issues []analyzer.Issue) error {
	raw := make([]rawIssue, len(issues))

	for i, issue := range issues {
		labels, err := json.Marshal(issue.Labels)
		if err != nil {
			return fmt.Errorf("encode labels of #%d: %w", issue.Number, err)
		}

		r := rawIssue{
			Number:      issue.Number,
			Title:       issue.Title,
			Creator:     issue.Creator,
			State:       string(issue.State),
			Labels:      labels,
			CreatedDate: formatTime(issue.CreatedAt),
			UpdatedDate: formatTime(issue.UpdatedAt),
		}

		for _, e := range issue.Events {
			r.Events = append(r.Events, rawEvent{
				EventType: e.Type,
				Author:    e.Author,
				EventDate: formatTime(e.At),
			})
		}

		raw[i] = r
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
