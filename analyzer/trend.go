package analyzer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// BucketWidth is the calendar period used to group issues by creation date.
type BucketWidth int

const (
	Month BucketWidth = iota + 1
	Quarter
)

const monthsPerQuarter = 3

// CreationSeries is the single column of a creation trend table.
const CreationSeries = "issues"

// ErrUnknownBucket is returned for an unsupported bucket width name.
var ErrUnknownBucket = errors.New("unknown bucket width")

// ParseBucketWidth parses "month" or "quarter".
func ParseBucketWidth(s string) (BucketWidth, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month", "monthly", "m":
		return Month, nil
	case "quarter", "quarterly", "q":
		return Quarter, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBucket, s)
}

func (w BucketWidth) String() string {
	switch w {
	case Month:
		return "month"
	case Quarter:
		return "quarter"
	}
	return fmt.Sprintf("BucketWidth(%d)", int(w))
}

// MarshalText implements encoding.TextMarshaler.
func (w BucketWidth) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *BucketWidth) UnmarshalText(text []byte) error {
	parsed, err := ParseBucketWidth(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Start returns the first day of the period containing t. The period is
// read from t's own calendar, so an offset timestamp stays in its local
// quarter; the result is that date at midnight UTC.
func (w BucketWidth) Start(t time.Time) time.Time {
	month := t.Month()
	if w == Quarter {
		month = time.Month((int(month)-1)/monthsPerQuarter*monthsPerQuarter + 1)
	}
	return time.Date(t.Year(), month, 1, 0, 0, 0, 0, time.UTC)
}

// Format renders a bucket start as "2021-01" or "2021-Q1".
func (w BucketWidth) Format(start time.Time) string {
	if w == Quarter {
		return fmt.Sprintf("%d-Q%d", start.Year(), (int(start.Month())-1)/monthsPerQuarter+1)
	}
	return start.Format("2006-01")
}

// TrendRow is one time bucket of a trend table.
type TrendRow struct {
	Bucket time.Time      `json:"bucket" yaml:"bucket"`
	Counts map[string]int `json:"counts" yaml:"counts"`
}

// TrendTable is a dense bucket-by-label count table. Rows are chronological
// and every row has a count for every label.
type TrendTable struct {
	Width  BucketWidth `json:"width" yaml:"width"`
	Labels []string    `json:"labels" yaml:"labels"`
	Rows   []TrendRow  `json:"rows" yaml:"rows"`
}

// Empty reports whether the table has no rows.
func (t TrendTable) Empty() bool {
	return len(t.Rows) == 0
}

// BucketLabels returns the formatted bucket of every row.
func (t TrendTable) BucketLabels() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = t.Width.Format(r.Bucket)
	}
	return out
}

// Series returns the column for label, one value per row.
func (t TrendTable) Series(label string) []int {
	out := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Counts[label]
	}
	return out
}

// TopLabels returns the n most frequent labels, or all of them if there are fewer.
func TopLabels(issues []Issue, n int) []string {
	if n <= 0 {
		return nil
	}

	top := Frequency(issues).Top(n)
	labels := make([]string, len(top))
	for i, lc := range top {
		labels[i] = lc.Label
	}
	return labels
}

// BuildTrendTable counts, per creation bucket, the issues carrying each of
// labels. Issues without a creation date or without any of the labels are
// ignored. Buckets with no observation at all are not rows.
func BuildTrendTable(issues []Issue, labels []string, width BucketWidth) TrendTable {
	wanted := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		wanted[l] = struct{}{}
	}

	cells := make(map[time.Time]map[string]int)

	for _, issue := range issues {
		if issue.CreatedAt.IsZero() {
			continue
		}

		bucket := width.Start(issue.CreatedAt)

		for _, label := range issue.LabelSet() {
			if _, ok := wanted[label]; !ok {
				continue
			}
			if cells[bucket] == nil {
				cells[bucket] = make(map[string]int)
			}
			cells[bucket][label]++
		}
	}

	return densify(cells, labels, width)
}

// CreationTrend counts issues per creation bucket.
func CreationTrend(issues []Issue, width BucketWidth) TrendTable {
	cells := make(map[time.Time]map[string]int)

	for _, issue := range issues {
		if issue.CreatedAt.IsZero() {
			continue
		}

		bucket := width.Start(issue.CreatedAt)
		if cells[bucket] == nil {
			cells[bucket] = make(map[string]int)
		}
		cells[bucket][CreationSeries]++
	}

	return densify(cells, []string{CreationSeries}, width)
}

func densify(cells map[time.Time]map[string]int, labels []string, width BucketWidth) TrendTable {
	buckets := make([]time.Time, 0, len(cells))
	for b := range cells {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Before(buckets[j]) })

	table := TrendTable{
		Width:  width,
		Labels: append([]string(nil), labels...),
		Rows:   make([]TrendRow, 0, len(buckets)),
	}

	for _, b := range buckets {
		counts := make(map[string]int, len(labels))
		for _, l := range labels {
			counts[l] = cells[b][l]
		}
		table.Rows = append(table.Rows, TrendRow{Bucket: b, Counts: counts})
	}

	return table
}
