package analyzer_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/raywall/issue-insights/analyzer"
)

func sampleReport() *analyzer.Report {
	return &analyzer.Report{
		Meta: analyzer.Meta{
			RunID:       "run-1",
			Feature:     analyzer.FeatureOverview,
			GeneratedAt: time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC),
			IssueCount:  3,
			Filter:      analyzer.Filter{Label: "bug"},
		},
		Overview: &analyzer.Overview{TotalIssues: 3, OpenIssues: 1, ClosedIssues: 2},
	}
}

func TestFormatDays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "12.5d", analyzer.FormatDays(12.5))
	assert.Equal(t, "0.0d", analyzer.FormatDays(0))
	assert.Equal(t, "3.3d", analyzer.FormatDays(10.0/3))
}

func TestEncodeJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, analyzer.Encode(&buf, sampleReport(), "JSON"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	meta, ok := decoded["meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "run-1", meta["run_id"])

	overview, ok := decoded["overview"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 3.0, overview["total_issues"], 1e-9)

	assert.NotContains(t, decoded, "contributors")
}

func TestEncodeYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, analyzer.Encode(&buf, sampleReport(), "yaml"))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))

	overview, ok := decoded["overview"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, overview["closed_issues"])
	assert.Contains(t, buf.String(), "label: bug")
}

func TestEncodeUnknownFormat(t *testing.T) {
	t.Parallel()

	err := analyzer.Encode(&bytes.Buffer{}, sampleReport(), "xml")
	require.ErrorIs(t, err, analyzer.ErrUnknownFormat)
}

func TestExportByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "report.json")
	require.NoError(t, analyzer.Export(sampleReport(), jsonPath))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	yamlPath := filepath.Join(dir, "report.yml")
	require.NoError(t, analyzer.Export(sampleReport(), yamlPath))

	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id: run-1")
}

func TestExportUnknownExtensionLeavesNoFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "report.csv")

	err := analyzer.Export(sampleReport(), path)
	require.ErrorIs(t, err, analyzer.ErrUnknownFormat)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
