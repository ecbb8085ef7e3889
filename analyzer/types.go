package analyzer

import (
	"errors"
	"log/slog"
	"time"
)

// State is the lifecycle state of an issue.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// EventCommented is the timeline event type emitted for issue comments.
const EventCommented = "commented"

// ErrInsufficientData is returned when a share or mean would be computed over zero observations.
var ErrInsufficientData = errors.New("insufficient data")

// Issue is a single issue record from the snapshot. A zero CreatedAt or
// UpdatedAt means the timestamp was missing or malformed.
type Issue struct {
	Number    int       `json:"number"`
	Title     string    `json:"title,omitempty"`
	Creator   string    `json:"creator,omitempty"`
	State     State     `json:"state"`
	Labels    []string  `json:"labels,omitempty"`
	CreatedAt time.Time `json:"created_date"`
	UpdatedAt time.Time `json:"updated_date"`
	Events    []Event   `json:"events,omitempty"`
}

// Event is one timeline entry of an issue.
type Event struct {
	Type   string    `json:"event_type"`
	Author string    `json:"author,omitempty"`
	At     time.Time `json:"event_date"`
}

// LabelSet returns the issue labels without duplicates, in first-appearance order.
func (i Issue) LabelSet() []string {
	if len(i.Labels) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(i.Labels))
	set := make([]string, 0, len(i.Labels))

	for _, l := range i.Labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		set = append(set, l)
	}

	return set
}

// HasLabel reports whether the issue carries label.
func (i Issue) HasLabel(label string) bool {
	for _, l := range i.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Closed reports whether the issue is closed.
func (i Issue) Closed() bool {
	return i.State == StateClosed
}

// Options holds the tunable thresholds of every analysis.
type Options struct {
	MinSample           int         `json:"min_sample" yaml:"min_sample"`
	TopLabels           int         `json:"top_labels" yaml:"top_labels"`
	TrendTopN           int         `json:"trend_top_n" yaml:"trend_top_n"`
	TopContributors     int         `json:"top_contributors" yaml:"top_contributors"`
	SmallSliceThreshold float64     `json:"small_slice_threshold" yaml:"small_slice_threshold"`
	TrendBucket         BucketWidth `json:"trend_bucket" yaml:"trend_bucket"`
	CreationBucket      BucketWidth `json:"creation_bucket" yaml:"creation_bucket"`
}

// DefaultOptions returns the thresholds used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MinSample:           10,
		TopLabels:           15,
		TrendTopN:           6,
		TopContributors:     10,
		SmallSliceThreshold: 5.0,
		TrendBucket:         Quarter,
		CreationBucket:      Month,
	}
}

// Filter narrows the issue set before a feature runs.
type Filter struct {
	User  string `json:"user,omitempty" yaml:"user,omitempty"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Analyzer runs report features over an in-memory issue snapshot.
type Analyzer struct {
	Issues  []Issue
	Options Options
	logger  *slog.Logger
	now     func() time.Time
}

// Meta describes a single feature run.
type Meta struct {
	RunID       string    `json:"run_id" yaml:"run_id"`
	Feature     Feature   `json:"feature" yaml:"feature"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	IssueCount  int       `json:"issue_count" yaml:"issue_count"`
	Filter      Filter    `json:"filter" yaml:"filter"`
}

// Report holds the output of one feature run. Exactly one of the result
// fields is set, matching Meta.Feature.
type Report struct {
	Meta          Meta              `json:"meta" yaml:"meta"`
	Overview      *Overview         `json:"overview,omitempty" yaml:"overview,omitempty"`
	CreationTrend *TrendTable       `json:"creation_trend,omitempty" yaml:"creation_trend,omitempty"`
	Contributors  *ContributorShare `json:"contributors,omitempty" yaml:"contributors,omitempty"`
	Resolution    *LabelResolution  `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	LabelTrend    *TrendTable       `json:"label_trend,omitempty" yaml:"label_trend,omitempty"`
}

// Overview summarises the snapshot as a whole.
type Overview struct {
	TotalIssues       int `json:"total_issues" yaml:"total_issues"`
	OpenIssues        int `json:"open_issues" yaml:"open_issues"`
	ClosedIssues      int `json:"closed_issues" yaml:"closed_issues"`
	DistinctLabels    int `json:"distinct_labels" yaml:"distinct_labels"`
	UnlabeledIssues   int `json:"unlabeled_issues" yaml:"unlabeled_issues"`
	MissingTimestamps int `json:"missing_timestamps" yaml:"missing_timestamps"`
	CommentEvents     int `json:"comment_events" yaml:"comment_events"`
	Commenters        int `json:"commenters" yaml:"commenters"`
}

// LabelResolution is the output of the label resolution feature.
type LabelResolution struct {
	Frequency []LabelCount `json:"frequency" yaml:"frequency"`
	// Counts covers every label, not only the displayed top-K.
	Counts    map[string]int `json:"counts" yaml:"counts"`
	Means     []LabelMean    `json:"means" yaml:"means"`
	MinSample int            `json:"min_sample" yaml:"min_sample"`
}

// ContributorShare is the output of the contributor feature.
type ContributorShare struct {
	Shares        []Share `json:"shares" yaml:"shares"`
	TotalComments int     `json:"total_comments" yaml:"total_comments"`
	Threshold     float64 `json:"small_slice_threshold" yaml:"small_slice_threshold"`
	User          string  `json:"user,omitempty" yaml:"user,omitempty"`
	UserComments  int     `json:"user_comments,omitempty" yaml:"user_comments,omitempty"`
}
