package analyzer

import (
	"math"
	"sort"
)

const hoursPerDay = 24

// LabelCount is one label with the number of issues carrying it.
type LabelCount struct {
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count" yaml:"count"`
}

// LabelMean is one label with its mean resolution time in days.
type LabelMean struct {
	Label   string  `json:"label" yaml:"label"`
	Mean    float64 `json:"mean_days" yaml:"mean_days"`
	Samples int     `json:"samples" yaml:"samples"`
}

// LabelCounts counts issues per label, remembering the order in which labels
// were first seen so that ranking ties are deterministic.
type LabelCounts struct {
	order  []string
	counts map[string]int
}

// Frequency counts, for every label, the number of issues carrying it.
// Duplicate labels on a single issue are counted once.
func Frequency(issues []Issue) LabelCounts {
	lc := LabelCounts{counts: make(map[string]int)}

	for _, issue := range issues {
		for _, label := range issue.LabelSet() {
			if _, ok := lc.counts[label]; !ok {
				lc.order = append(lc.order, label)
			}
			lc.counts[label]++
		}
	}

	return lc
}

// Len returns the number of distinct labels.
func (lc LabelCounts) Len() int {
	return len(lc.order)
}

// Count returns the number of issues carrying label.
func (lc LabelCounts) Count(label string) int {
	return lc.counts[label]
}

// Total returns the number of (issue, label) pairs counted.
func (lc LabelCounts) Total() int {
	total := 0
	for _, c := range lc.counts {
		total += c
	}
	return total
}

// Map returns a copy of the counts keyed by label.
func (lc LabelCounts) Map() map[string]int {
	m := make(map[string]int, len(lc.counts))
	for k, v := range lc.counts {
		m[k] = v
	}
	return m
}

// Top returns the k most frequent labels, descending. Ties keep first-seen
// order. A non-positive k returns every label.
func (lc LabelCounts) Top(k int) []LabelCount {
	ranked := make([]LabelCount, 0, len(lc.order))
	for _, label := range lc.order {
		ranked = append(ranked, LabelCount{Label: label, Count: lc.counts[label]})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})

	if k > 0 && k < len(ranked) {
		ranked = ranked[:k]
	}

	return ranked
}

// ResolutionDays returns the number of whole days between creation and last
// update. The second result is false when either timestamp is missing.
// An update earlier than creation yields a negative value.
func ResolutionDays(issue Issue) (int, bool) {
	if issue.CreatedAt.IsZero() || issue.UpdatedAt.IsZero() {
		return 0, false
	}

	hours := issue.UpdatedAt.Sub(issue.CreatedAt).Hours()

	return int(math.Floor(hours / hoursPerDay)), true
}

// MeanResolutionByLabel returns the mean resolution time in days per label,
// over closed issues with both timestamps. Labels with fewer than minSample
// observations are left out. ErrInsufficientData is returned when no closed
// issue has both timestamps.
func MeanResolutionByLabel(issues []Issue, minSample int) (map[string]LabelMean, error) {
	byLabel := make(map[string][]int)
	observed := 0

	for _, issue := range issues {
		if !issue.Closed() {
			continue
		}

		days, ok := ResolutionDays(issue)
		if !ok {
			continue
		}
		observed++

		for _, label := range issue.LabelSet() {
			byLabel[label] = append(byLabel[label], days)
		}
	}

	if observed == 0 {
		return nil, ErrInsufficientData
	}

	means := make(map[string]LabelMean)

	for label, durations := range byLabel {
		if len(durations) < minSample {
			continue
		}

		sum := 0
		for _, d := range durations {
			sum += d
		}

		means[label] = LabelMean{
			Label:   label,
			Mean:    float64(sum) / float64(len(durations)),
			Samples: len(durations),
		}
	}

	return means, nil
}

// RankResolution orders label means from slowest to fastest.
func RankResolution(means map[string]LabelMean) []LabelMean {
	ranked := make([]LabelMean, 0, len(means))
	for _, m := range means {
		ranked = append(ranked, m)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Mean != ranked[j].Mean {
			return ranked[i].Mean > ranked[j].Mean
		}
		return ranked[i].Label < ranked[j].Label
	})

	return ranked
}
