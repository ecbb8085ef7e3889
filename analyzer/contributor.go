package analyzer

import (
	"fmt"
	"sort"
)

// OthersLabel names the bucket that collects contributors outside the top K.
const OthersLabel = "Others"

const percent = 100

// Contributor is an author with the number of comments they wrote.
type Contributor struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// Share is a contributor's slice of all comments.
type Share struct {
	Name    string  `json:"name" yaml:"name"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
	// Small marks slices under the small-slice threshold.
	Small bool `json:"small" yaml:"small"`
}

// ContributorCounts counts comments per author in first-seen order.
type ContributorCounts struct {
	order  []string
	counts map[string]int
}

// CountCommenters counts "commented" events per author across all issues.
// Events without an author are skipped.
func CountCommenters(issues []Issue) ContributorCounts {
	cc := ContributorCounts{counts: make(map[string]int)}

	for _, issue := range issues {
		for _, ev := range issue.Events {
			if ev.Type != EventCommented || ev.Author == "" {
				continue
			}
			if _, ok := cc.counts[ev.Author]; !ok {
				cc.order = append(cc.order, ev.Author)
			}
			cc.counts[ev.Author]++
		}
	}

	return cc
}

// Len returns the number of distinct commenters.
func (cc ContributorCounts) Len() int {
	return len(cc.order)
}

// Count returns the number of comments written by author.
func (cc ContributorCounts) Count(author string) int {
	return cc.counts[author]
}

// Total returns the number of comments counted.
func (cc ContributorCounts) Total() int {
	total := 0
	for _, c := range cc.counts {
		total += c
	}
	return total
}

// Ranked returns every author, most comments first, ties in first-seen order.
func (cc ContributorCounts) Ranked() []Contributor {
	ranked := make([]Contributor, 0, len(cc.order))
	for _, name := range cc.order {
		ranked = append(ranked, Contributor{Name: name, Count: cc.counts[name]})
	}

	sortContributors(ranked)

	return ranked
}

// TopContributors returns at most k commenters with the most comments.
// ErrInsufficientData is returned when there are no comments at all.
func TopContributors(issues []Issue, k int) ([]Contributor, error) {
	cc := CountCommenters(issues)
	if cc.Total() == 0 {
		return nil, fmt.Errorf("top contributors: no comment events: %w", ErrInsufficientData)
	}

	ranked := cc.Ranked()
	if k >= 0 && k < len(ranked) {
		ranked = ranked[:k]
	}

	return ranked, nil
}

// WithOthersBucket appends an Others entry holding every comment not covered
// by top, then re-sorts by count. Others is omitted when it would be empty
// and is not necessarily last.
func WithOthersBucket(top []Contributor, all ContributorCounts) []Contributor {
	out := make([]Contributor, len(top), len(top)+1)
	copy(out, top)

	covered := 0
	for _, c := range top {
		covered += c.Count
	}

	if others := all.Total() - covered; others > 0 {
		out = append(out, Contributor{Name: OthersLabel, Count: others})
	}

	sortContributors(out)

	return out
}

// SliceShares converts entries into percentages of their total. Slices under
// threshold percent are marked Small. ErrInsufficientData is returned when
// the total is zero.
func SliceShares(entries []Contributor, threshold float64) ([]Share, error) {
	total := 0
	for _, e := range entries {
		total += e.Count
	}

	if total == 0 {
		return nil, fmt.Errorf("slice shares: zero total: %w", ErrInsufficientData)
	}

	shares := make([]Share, len(entries))
	for i, e := range entries {
		pct := float64(e.Count) / float64(total) * percent
		shares[i] = Share{
			Name:    e.Name,
			Count:   e.Count,
			Percent: pct,
			Small:   IsSmallSlice(pct, threshold),
		}
	}

	return shares, nil
}

// IsSmallSlice reports whether a percentage should be called out separately.
func IsSmallSlice(pct, threshold float64) bool {
	return pct < threshold
}

func sortContributors(cs []Contributor) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Count > cs[j].Count
	})
}
