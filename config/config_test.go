package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raywall/issue-insights/analyzer"
	"github.com/raywall/issue-insights/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "issue-insights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "data/issues.json", cfg.Data.Path)
	assert.Equal(t, 10, cfg.Analysis.MinSample)
	assert.Equal(t, 15, cfg.Analysis.TopLabels)
	assert.Equal(t, 6, cfg.Analysis.TrendTopN)
	assert.Equal(t, 10, cfg.Analysis.TopContributors)
	assert.InDelta(t, 5.0, cfg.Analysis.SmallSliceThreshold, 1e-9)
	assert.Equal(t, "quarter", cfg.Analysis.TrendBucket)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Empty(t, cfg.Output.Dir)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
data:
  path: "/tmp/poetry.json"

github:
  owner: python-poetry
  repo: poetry

analysis:
  min_sample: 3
  top_contributors: 5
  small_slice_threshold: 2.5
  trend_bucket: month

output:
  format: HTML
  dir: reports
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/poetry.json", cfg.Data.Path)
	assert.Equal(t, "python-poetry", cfg.GitHub.Owner)
	assert.Equal(t, "poetry", cfg.GitHub.Repo)
	assert.Equal(t, 3, cfg.Analysis.MinSample)
	assert.Equal(t, 5, cfg.Analysis.TopContributors)
	assert.Equal(t, 15, cfg.Analysis.TopLabels)
	assert.Equal(t, "html", cfg.Output.Format)
	assert.Equal(t, "reports", cfg.Output.Dir)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("INSIGHTS_ANALYSIS_MIN_SAMPLE", "4")
	t.Setenv("INSIGHTS_OUTPUT_FORMAT", "json")
	t.Setenv("INSIGHTS_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "ghp_fallback")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Analysis.MinSample)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "ghp_fallback", cfg.GitHub.Token)
}

func TestLoadConfigInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"zero min sample", "analysis:\n  min_sample: 0\n", config.ErrInvalidMinSample},
		{"negative top labels", "analysis:\n  top_labels: -1\n", config.ErrInvalidTopN},
		{"threshold above 100", "analysis:\n  small_slice_threshold: 150\n", config.ErrInvalidThreshold},
		{"unknown bucket", "analysis:\n  trend_bucket: week\n", analyzer.ErrUnknownBucket},
		{"unknown output", "output:\n  format: pdf\n", config.ErrInvalidOutput},
		{"unknown log format", "logging:\n  format: xml\n", config.ErrInvalidLogFormat},
		{"empty snapshot path", "data:\n  path: \"\"\n", config.ErrMissingSnapshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()

	for _, f := range []string{"text", "HTML", "json", "yaml"} {
		require.NoError(t, config.ValidateFormat(f))
	}

	require.ErrorIs(t, config.ValidateFormat("csv"), config.ErrInvalidOutput)
}

func TestAnalyzerOptions(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, `
analysis:
  min_sample: 2
  trend_top_n: 3
  trend_bucket: month
  creation_bucket: quarter
`))
	require.NoError(t, err)

	opts := cfg.AnalyzerOptions()

	assert.Equal(t, 2, opts.MinSample)
	assert.Equal(t, 3, opts.TrendTopN)
	assert.Equal(t, 10, opts.TopContributors)
	assert.Equal(t, analyzer.Month, opts.TrendBucket)
	assert.Equal(t, analyzer.Quarter, opts.CreationBucket)
}
