package analyzer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/issue-insights/analyzer"
)

func fixtureIssues() []analyzer.Issue {
	issues := scenarioIssues()
	issues[0].Creator = "alice"
	issues[0].Events = comments("alice", "bob", "bob")
	issues[1].Events = comments("carol")
	issues = append(issues, analyzer.Issue{
		Number:    12,
		State:     analyzer.StateClosed,
		Labels:    []string{"docs"},
		CreatedAt: day("2021-06-01"),
		Events:    comments("dave"),
	})
	return issues
}

func TestParseFeature(t *testing.T) {
	t.Parallel()

	for code := 0; code <= 4; code++ {
		f, err := analyzer.ParseFeature(code)
		require.NoError(t, err)
		assert.Equal(t, analyzer.Feature(code), f)
	}

	_, err := analyzer.ParseFeature(5)
	require.ErrorIs(t, err, analyzer.ErrUnknownFeature)

	_, err = analyzer.ParseFeature(-1)
	require.ErrorIs(t, err, analyzer.ErrUnknownFeature)

	assert.Equal(t, "label-resolution", analyzer.FeatureResolution.String())
}

func TestApplyFilter(t *testing.T) {
	t.Parallel()

	issues := fixtureIssues()

	assert.Len(t, analyzer.ApplyFilter(issues, analyzer.Filter{}), len(issues))
	assert.Len(t, analyzer.ApplyFilter(issues, analyzer.Filter{Label: "docs"}), 1)
	assert.Len(t, analyzer.ApplyFilter(issues, analyzer.Filter{Label: "bug"}), 11)

	byBob := analyzer.ApplyFilter(issues, analyzer.Filter{User: "bob"})
	require.Len(t, byBob, 1)
	assert.Equal(t, 1, byBob[0].Number)

	byAlice := analyzer.ApplyFilter(issues, analyzer.Filter{User: "alice"})
	assert.Len(t, byAlice, 1)

	assert.Empty(t, analyzer.ApplyFilter(issues, analyzer.Filter{User: "dave", Label: "bug"}))
}

func TestApplyFilterNeverWidens(t *testing.T) {
	t.Parallel()

	issues := fixtureIssues()

	for _, f := range []analyzer.Filter{{User: "carol"}, {Label: "ui"}, {User: "nobody"}, {Label: "bug", User: "bob"}} {
		assert.LessOrEqual(t, len(analyzer.ApplyFilter(issues, f)), len(issues))
	}
}

func TestRunOverview(t *testing.T) {
	t.Parallel()

	a := analyzer.NewAnalyzer(fixtureIssues(), analyzer.DefaultOptions(), nil)

	report, err := a.Run(context.Background(), analyzer.FeatureOverview, analyzer.Filter{})
	require.NoError(t, err)
	require.NotNil(t, report.Overview)

	assert.Equal(t, &analyzer.Overview{
		TotalIssues:       12,
		OpenIssues:        1,
		ClosedIssues:      11,
		DistinctLabels:    3,
		UnlabeledIssues:   0,
		MissingTimestamps: 2,
		CommentEvents:     5,
		Commenters:        4,
	}, report.Overview)

	assert.NotEmpty(t, report.Meta.RunID)
	assert.Equal(t, analyzer.FeatureOverview, report.Meta.Feature)
	assert.Equal(t, 12, report.Meta.IssueCount)
	assert.Nil(t, report.Contributors)
}

func TestRunResolution(t *testing.T) {
	t.Parallel()

	a := analyzer.NewAnalyzer(fixtureIssues(), analyzer.DefaultOptions(), nil)

	report, err := a.Run(context.Background(), analyzer.FeatureResolution, analyzer.Filter{})
	require.NoError(t, err)
	require.NotNil(t, report.Resolution)

	res := report.Resolution
	assert.Equal(t, 10, res.MinSample)
	assert.Equal(t, []analyzer.LabelCount{
		{Label: "bug", Count: 11},
		{Label: "ui", Count: 10},
		{Label: "docs", Count: 1},
	}, res.Frequency)
	assert.Equal(t, 11, res.Counts["bug"])

	require.Len(t, res.Means, 2)
	assert.Equal(t, "bug", res.Means[0].Label)
	assert.Equal(t, "ui", res.Means[1].Label)
}

func TestRunResolutionWithoutClosedIssues(t *testing.T) {
	t.Parallel()

	issues := []analyzer.Issue{{State: analyzer.StateOpen, Labels: []string{"bug"}}}
	a := analyzer.NewAnalyzer(issues, analyzer.DefaultOptions(), nil)

	_, err := a.Run(context.Background(), analyzer.FeatureResolution, analyzer.Filter{})
	require.ErrorIs(t, err, analyzer.ErrInsufficientData)
}

func TestRunContributors(t *testing.T) {
	t.Parallel()

	opts := analyzer.DefaultOptions()
	opts.TopContributors = 2

	a := analyzer.NewAnalyzer(fixtureIssues(), opts, nil)

	report, err := a.Run(context.Background(), analyzer.FeatureContributors, analyzer.Filter{})
	require.NoError(t, err)
	require.NotNil(t, report.Contributors)

	cs := report.Contributors
	assert.Equal(t, 5, cs.TotalComments)

	names := make([]string, len(cs.Shares))
	sum := 0
	for i, s := range cs.Shares {
		names[i] = s.Name
		sum += s.Count
	}
	assert.Equal(t, []string{"bob", analyzer.OthersLabel, "alice"}, names)
	assert.Equal(t, 5, sum)
}

func TestRunContributorsForUser(t *testing.T) {
	t.Parallel()

	a := analyzer.NewAnalyzer(fixtureIssues(), analyzer.DefaultOptions(), nil)

	report, err := a.Run(context.Background(), analyzer.FeatureContributors, analyzer.Filter{User: "bob"})
	require.NoError(t, err)

	assert.Equal(t, "bob", report.Contributors.User)
	assert.Equal(t, 2, report.Contributors.UserComments)
	assert.Equal(t, 3, report.Contributors.TotalComments)
	assert.Equal(t, 1, report.Meta.IssueCount)
}

func TestRunContributorsWithoutComments(t *testing.T) {
	t.Parallel()

	a := analyzer.NewAnalyzer(scenarioIssues(), analyzer.DefaultOptions(), nil)

	_, err := a.Run(context.Background(), analyzer.FeatureContributors, analyzer.Filter{})
	require.ErrorIs(t, err, analyzer.ErrInsufficientData)
}

func TestRunTrends(t *testing.T) {
	t.Parallel()

	a := analyzer.NewAnalyzer(fixtureIssues(), analyzer.DefaultOptions(), nil)

	labelTrend, err := a.Run(context.Background(), analyzer.FeatureLabelTrend, analyzer.Filter{})
	require.NoError(t, err)
	require.NotNil(t, labelTrend.LabelTrend)
	assert.Equal(t, analyzer.Quarter, labelTrend.LabelTrend.Width)
	assert.Equal(t, []string{"2021-Q1", "2021-Q2"}, labelTrend.LabelTrend.BucketLabels())
	assert.Equal(t, []int{11, 0}, labelTrend.LabelTrend.Series("bug"))
	assert.Equal(t, []int{0, 1}, labelTrend.LabelTrend.Series("docs"))

	creation, err := a.Run(context.Background(), analyzer.FeatureCreationTrend, analyzer.Filter{})
	require.NoError(t, err)
	require.NotNil(t, creation.CreationTrend)
	assert.Equal(t, []string{"2021-01", "2021-02", "2021-06"}, creation.CreationTrend.BucketLabels())
	assert.Equal(t, []int{10, 1, 1}, creation.CreationTrend.Series(analyzer.CreationSeries))
}

func TestRunTrendsOnEmptyInput(t *testing.T) {
	t.Parallel()

	a := analyzer.NewAnalyzer(nil, analyzer.DefaultOptions(), nil)

	report, err := a.Run(context.Background(), analyzer.FeatureLabelTrend, analyzer.Filter{})
	require.NoError(t, err)
	assert.True(t, report.LabelTrend.Empty())

	report, err = a.Run(context.Background(), analyzer.FeatureCreationTrend, analyzer.Filter{})
	require.NoError(t, err)
	assert.True(t, report.CreationTrend.Empty())
}

func TestRunUnknownFeature(t *testing.T) {
	t.Parallel()

	a := analyzer.NewAnalyzer(nil, analyzer.DefaultOptions(), nil)

	_, err := a.Run(context.Background(), analyzer.Feature(42), analyzer.Filter{})
	require.ErrorIs(t, err, analyzer.ErrUnknownFeature)
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	issues := fixtureIssues()
	a := analyzer.NewAnalyzer(issues, analyzer.DefaultOptions(), nil)

	first, err := a.Run(context.Background(), analyzer.FeatureResolution, analyzer.Filter{})
	require.NoError(t, err)
	second, err := a.Run(context.Background(), analyzer.FeatureResolution, analyzer.Filter{})
	require.NoError(t, err)

	assert.Equal(t, first.Resolution, second.Resolution)
	assert.NotEqual(t, first.Meta.RunID, second.Meta.RunID)
	assert.Equal(t, fixtureIssues(), issues)
}
