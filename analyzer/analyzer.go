package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Feature selects which report a run produces.
type Feature int

const (
	FeatureOverview Feature = iota
	FeatureCreationTrend
	FeatureContributors
	FeatureResolution
	FeatureLabelTrend
)

// ErrUnknownFeature is returned for a feature code with no analysis behind it.
var ErrUnknownFeature = errors.New("unknown feature")

var featureNames = map[Feature]string{
	FeatureOverview:      "overview",
	FeatureCreationTrend: "creation-trend",
	FeatureContributors:  "contributors",
	FeatureResolution:    "label-resolution",
	FeatureLabelTrend:    "label-trend",
}

// ParseFeature validates a numeric feature code.
func ParseFeature(code int) (Feature, error) {
	f := Feature(code)
	if _, ok := featureNames[f]; !ok {
		return 0, fmt.Errorf("%w: %d (expected 0-%d)", ErrUnknownFeature, code, len(featureNames)-1)
	}
	return f, nil
}

func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Feature(%d)", int(f))
}

// NewAnalyzer creates an Analyzer over issues. A nil logger discards output.
func NewAnalyzer(issues []Issue, options Options, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Analyzer{
		Issues:  issues,
		Options: options,
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes one feature over the issues matching filter.
func (a *Analyzer) Run(ctx context.Context, feature Feature, filter Filter) (*Report, error) {
	issues := ApplyFilter(a.Issues, filter)

	a.logger.InfoContext(ctx, "running analysis",
		"feature", feature.String(),
		"issues", len(issues),
		"filtered_out", len(a.Issues)-len(issues),
	)

	report := &Report{
		Meta: Meta{
			RunID:       uuid.NewString(),
			Feature:     feature,
			GeneratedAt: a.now().UTC(),
			IssueCount:  len(issues),
			Filter:      filter,
		},
	}

	var err error

	switch feature {
	case FeatureOverview:
		report.Overview = a.overview(issues)
	case FeatureCreationTrend:
		report.CreationTrend, err = a.creationTrend(ctx, issues)
	case FeatureContributors:
		report.Contributors, err = a.contributors(ctx, issues, filter.User)
	case FeatureResolution:
		report.Resolution, err = a.resolution(ctx, issues)
	case FeatureLabelTrend:
		report.LabelTrend, err = a.labelTrend(ctx, issues)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFeature, int(feature))
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", feature, err)
	}

	return report, nil
}

// ApplyFilter returns the issues matching filter. Label keeps issues carrying
// the label; User keeps issues the user opened or has any event on.
func ApplyFilter(issues []Issue, filter Filter) []Issue {
	if filter.User == "" && filter.Label == "" {
		return issues
	}

	out := make([]Issue, 0, len(issues))

	for _, issue := range issues {
		if filter.Label != "" && !issue.HasLabel(filter.Label) {
			continue
		}
		if filter.User != "" && !involves(issue, filter.User) {
			continue
		}
		out = append(out, issue)
	}

	return out
}

func involves(issue Issue, user string) bool {
	if issue.Creator == user {
		return true
	}
	for _, ev := range issue.Events {
		if ev.Author == user {
			return true
		}
	}
	return false
}

func (a *Analyzer) overview(issues []Issue) *Overview {
	ov := &Overview{TotalIssues: len(issues)}

	for _, issue := range issues {
		switch issue.State {
		case StateOpen:
			ov.OpenIssues++
		case StateClosed:
			ov.ClosedIssues++
		}

		if len(issue.Labels) == 0 {
			ov.UnlabeledIssues++
		}

		if issue.CreatedAt.IsZero() || issue.UpdatedAt.IsZero() {
			ov.MissingTimestamps++
		}
	}

	commenters := CountCommenters(issues)
	ov.DistinctLabels = Frequency(issues).Len()
	ov.CommentEvents = commenters.Total()
	ov.Commenters = commenters.Len()

	return ov
}

func (a *Analyzer) creationTrend(ctx context.Context, issues []Issue) (*TrendTable, error) {
	table := CreationTrend(issues, a.Options.CreationBucket)
	if table.Empty() {
		a.logger.WarnContext(ctx, "no valid issue creation dates found")
	}

	return &table, nil
}

func (a *Analyzer) labelTrend(ctx context.Context, issues []Issue) (*TrendTable, error) {
	labels := TopLabels(issues, a.Options.TrendTopN)
	a.logger.DebugContext(ctx, "trend labels selected", "labels", labels)

	table := BuildTrendTable(issues, labels, a.Options.TrendBucket)
	if table.Empty() {
		a.logger.WarnContext(ctx, "no labelled issues with a creation date")
	}

	return &table, nil
}

func (a *Analyzer) resolution(ctx context.Context, issues []Issue) (*LabelResolution, error) {
	freq := Frequency(issues)

	means, err := MeanResolutionByLabel(issues, a.Options.MinSample)
	if err != nil {
		return nil, fmt.Errorf("mean resolution: no closed issues with timestamps: %w", err)
	}

	if negative := countNegativeResolutions(issues); negative > 0 {
		a.logger.WarnContext(ctx, "closed issues updated before creation", "count", negative)
	}

	a.logger.DebugContext(ctx, "label resolution computed",
		"labels", freq.Len(),
		"qualifying_labels", len(means),
		"min_sample", a.Options.MinSample,
	)

	return &LabelResolution{
		Frequency: freq.Top(a.Options.TopLabels),
		Counts:    freq.Map(),
		Means:     RankResolution(means),
		MinSample: a.Options.MinSample,
	}, nil
}

func (a *Analyzer) contributors(ctx context.Context, issues []Issue, user string) (*ContributorShare, error) {
	top, err := TopContributors(issues, a.Options.TopContributors)
	if err != nil {
		return nil, err
	}

	all := CountCommenters(issues)
	entries := WithOthersBucket(top, all)

	shares, err := SliceShares(entries, a.Options.SmallSliceThreshold)
	if err != nil {
		return nil, err
	}

	a.logger.DebugContext(ctx, "contributor shares computed",
		"commenters", all.Len(),
		"comments", all.Total(),
		"slices", len(shares),
	)

	return &ContributorShare{
		Shares:        shares,
		TotalComments: all.Total(),
		Threshold:     a.Options.SmallSliceThreshold,
		User:          user,
		UserComments:  all.Count(user),
	}, nil
}

func countNegativeResolutions(issues []Issue) int {
	n := 0
	for _, issue := range issues {
		if !issue.Closed() {
			continue
		}
		if days, ok := ResolutionDays(issue); ok && days < 0 {
			n++
		}
	}
	return n
}
