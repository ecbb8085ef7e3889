package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/raywall/issue-insights/config"
	"github.com/raywall/issue-insights/snapshot"
)

type fetchOptions struct {
	owner      string
	repo       string
	since      string
	monthsBack int
	out        string
}

func newFetchCommand(global *globalFlags) *cobra.Command {
	fo := &fetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download an issue snapshot from GitHub",
		Long: `Download every issue of a repository with its timeline and write it as a snapshot.

The token is read from github.token, INSIGHTS_GITHUB_TOKEN or GITHUB_TOKEN.`,
		Example: `  issue-insights fetch --owner python-poetry --repo poetry --out data/issues.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd, global, fo)
		},
	}

	cmd.Flags().StringVar(&fo.owner, "owner", "", "repository owner (overrides github.owner)")
	cmd.Flags().StringVar(&fo.repo, "repo", "", "repository name (overrides github.repo)")
	cmd.Flags().StringVar(&fo.since, "since", "", "only issues updated since this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&fo.monthsBack, "months-back", 0, "only issues updated in the last N months")
	cmd.Flags().StringVarP(&fo.out, "out", "o", "", "snapshot file to write (overrides data.path)")

	cmd.MarkFlagsMutuallyExclusive("since", "months-back")

	return cmd
}

func runFetch(cmd *cobra.Command, global *globalFlags, fo *fetchOptions) error {
	cfg, err := config.LoadConfig(global.configPath)
	if err != nil {
		return err
	}

	if fo.owner != "" {
		cfg.GitHub.Owner = fo.owner
	}
	if fo.repo != "" {
		cfg.GitHub.Repo = fo.repo
	}
	if fo.out != "" {
		cfg.Data.Path = fo.out
	}

	since, err := sinceDate(fo, time.Now())
	if err != nil {
		return err
	}

	logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Logging, global.verbose, global.quiet)

	fetcher := snapshot.NewFetcher(cmd.Context(), cfg.GitHub.Token, logger)

	issues, err := fetcher.FetchIssues(cmd.Context(), cfg.GitHub.Owner, cfg.GitHub.Repo, since)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.Data.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	if err := snapshot.Save(cfg.Data.Path, issues); err != nil {
		return err
	}

	logger.Info("snapshot written", "path", cfg.Data.Path, "issues", len(issues))

	return nil
}

func sinceDate(fo *fetchOptions, now time.Time) (time.Time, error) {
	switch {
	case fo.since != "":
		t, err := time.Parse(time.DateOnly, fo.since)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --since %q: %w", fo.since, err)
		}
		return t, nil
	case fo.monthsBack > 0:
		return now.AddDate(0, -fo.monthsBack, 0), nil
	}
	return time.Time{}, nil
}
