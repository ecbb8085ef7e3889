package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raywall/issue-insights/analyzer"
	"github.com/raywall/issue-insights/config"
	"github.com/raywall/issue-insights/render"
	"github.com/raywall/issue-insights/snapshot"
)

type runOptions struct {
	feature  int
	user     string
	label    string
	dataPath string
	format   string
	outDir   string
}

func newRunCommand(global *globalFlags) *cobra.Command {
	ro := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one analysis feature",
		Long: `Run one analysis feature over the issue snapshot.

Features:
  0  overview          snapshot summary
  1  creation-trend    issues created per month
  2  contributors      top commenters with an Others bucket
  3  label-resolution  label frequency and mean resolution time
  4  label-trend       quarterly trend of the most common labels`,
		Example: `  issue-insights run -f 3
  issue-insights run -f 2 --user octocat --format html --out reports`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFeature(cmd, global, ro)
		},
	}

	cmd.Flags().IntVarP(&ro.feature, "feature", "f", -1, "feature to run (0-4)")
	cmd.Flags().StringVarP(&ro.user, "user", "u", "", "only issues the user opened or took part in")
	cmd.Flags().StringVarP(&ro.label, "label", "l", "", "only issues carrying the label")
	cmd.Flags().StringVar(&ro.dataPath, "data", "", "snapshot file (overrides data.path)")
	cmd.Flags().StringVar(&ro.format, "format", "", "output format: text, html, json, yaml (overrides output.format)")
	cmd.Flags().StringVarP(&ro.outDir, "out", "o", "", "write the report into this directory instead of stdout (overrides output.dir)")

	_ = cmd.MarkFlagRequired("feature")

	return cmd
}

func runFeature(cmd *cobra.Command, global *globalFlags, ro *runOptions) error {
	feature, err := analyzer.ParseFeature(ro.feature)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(global.configPath)
	if err != nil {
		return err
	}

	if ro.dataPath != "" {
		cfg.Data.Path = ro.dataPath
	}
	if ro.format != "" {
		if err := config.ValidateFormat(ro.format); err != nil {
			return err
		}
		cfg.Output.Format = strings.ToLower(ro.format)
	}

	if ro.outDir != "" {
		cfg.Output.Dir = ro.outDir
	}

	logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Logging, global.verbose, global.quiet)

	issues, err := snapshot.Load(cfg.Data.Path, logger)
	if err != nil {
		return err
	}

	a := analyzer.NewAnalyzer(issues, cfg.AnalyzerOptions(), logger)

	report, err := a.Run(cmd.Context(), feature, analyzer.Filter{User: ro.user, Label: ro.label})
	if err != nil {
		return err
	}

	renderer, err := render.ForFormat(cfg.Output.Format, global.noColor)
	if err != nil {
		return err
	}

	if cfg.Output.Dir == "" {
		return renderer.Render(cmd.OutOrStdout(), report)
	}

	path, err := writeReport(cfg.Output.Dir, cfg.Output.Format, report, renderer)
	if err != nil {
		return err
	}

	logger.Info("report written", "path", path, "run_id", report.Meta.RunID)

	return nil
}

func writeReport(dir, format string, report *analyzer.Report, renderer render.Renderer) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, report.Meta.Feature.String()+render.Extension(format))

	switch format {
	case "json", "yaml":
		if err := analyzer.Export(report, path); err != nil {
			return "", fmt.Errorf("export report: %w", err)
		}
		return path, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}

	if err := renderer.Render(f, report); err != nil {
		f.Close()
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report file: %w", err)
	}

	return path, nil
}
