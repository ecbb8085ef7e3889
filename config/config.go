// Package config provides configuration loading and validation for issue-insights.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/raywall/issue-insights/analyzer"
)

// Sentinel validation errors.
var (
	ErrInvalidMinSample = errors.New("min sample must be positive")
	ErrInvalidTopN      = errors.New("top-N sizes must be positive")
	ErrInvalidThreshold = errors.New("small slice threshold must be within [0, 100]")
	ErrInvalidOutput    = errors.New("unknown output format")
	ErrInvalidLogFormat = errors.New("unknown log format")
	ErrMissingSnapshot  = errors.New("snapshot path is required")
)

// Default configuration values.
const (
	defaultSnapshotPath    = "data/issues.json"
	defaultMinSample       = 10
	defaultTopLabels       = 15
	defaultTrendTopN       = 6
	defaultTopContributors = 10
	defaultSmallSlice      = 5.0
	defaultTrendBucket     = "quarter"
	defaultCreationBucket  = "month"
	defaultOutputFormat    = "text"
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
	maxPercent             = 100
)

// Config holds all configuration for issue-insights.
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// DataConfig locates the issue snapshot.
type DataConfig struct {
	Path string `mapstructure:"path"`
}

// GitHubConfig is used by the fetch command.
type GitHubConfig struct {
	Owner string `mapstructure:"owner"`
	Repo  string `mapstructure:"repo"`
	Token string `mapstructure:"token"`
}

// AnalysisConfig holds the analysis thresholds.
type AnalysisConfig struct {
	MinSample           int     `mapstructure:"min_sample"`
	TopLabels           int     `mapstructure:"top_labels"`
	TrendTopN           int     `mapstructure:"trend_top_n"`
	TopContributors     int     `mapstructure:"top_contributors"`
	SmallSliceThreshold float64 `mapstructure:"small_slice_threshold"`
	TrendBucket         string  `mapstructure:"trend_bucket"`
	CreationBucket      string  `mapstructure:"creation_bucket"`
}

// OutputConfig selects how reports are rendered. An empty Dir writes to stdout.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("issue-insights")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
	}

	viperCfg.SetEnvPrefix("INSIGHTS")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	config.Output.Format = strings.ToLower(config.Output.Format)

	if config.GitHub.Token == "" {
		config.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("data.path", defaultSnapshotPath)

	viperCfg.SetDefault("github.owner", "")
	viperCfg.SetDefault("github.repo", "")
	viperCfg.SetDefault("github.token", "")

	viperCfg.SetDefault("analysis.min_sample", defaultMinSample)
	viperCfg.SetDefault("analysis.top_labels", defaultTopLabels)
	viperCfg.SetDefault("analysis.trend_top_n", defaultTrendTopN)
	viperCfg.SetDefault("analysis.top_contributors", defaultTopContributors)
	viperCfg.SetDefault("analysis.small_slice_threshold", defaultSmallSlice)
	viperCfg.SetDefault("analysis.trend_bucket", defaultTrendBucket)
	viperCfg.SetDefault("analysis.creation_bucket", defaultCreationBucket)

	viperCfg.SetDefault("output.format", defaultOutputFormat)
	viperCfg.SetDefault("output.dir", "")

	viperCfg.SetDefault("logging.level", defaultLogLevel)
	viperCfg.SetDefault("logging.format", defaultLogFormat)
}

func validateConfig(config *Config) error {
	if config.Data.Path == "" {
		return ErrMissingSnapshot
	}

	if config.Analysis.MinSample <= 0 {
		return ErrInvalidMinSample
	}

	if config.Analysis.TopLabels <= 0 || config.Analysis.TrendTopN <= 0 || config.Analysis.TopContributors <= 0 {
		return ErrInvalidTopN
	}

	if config.Analysis.SmallSliceThreshold < 0 || config.Analysis.SmallSliceThreshold > maxPercent {
		return ErrInvalidThreshold
	}

	if _, err := analyzer.ParseBucketWidth(config.Analysis.TrendBucket); err != nil {
		return err
	}

	if _, err := analyzer.ParseBucketWidth(config.Analysis.CreationBucket); err != nil {
		return err
	}

	if err := ValidateFormat(config.Output.Format); err != nil {
		return err
	}

	switch strings.ToLower(config.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	return nil
}

// ValidateFormat checks an output format name.
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case "text", "html", "json", "yaml":
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidOutput, format)
}

// AnalyzerOptions converts the analysis section into analyzer options.
// The bucket names have already been validated by LoadConfig.
func (c *Config) AnalyzerOptions() analyzer.Options {
	opts := analyzer.DefaultOptions()

	opts.MinSample = c.Analysis.MinSample
	opts.TopLabels = c.Analysis.TopLabels
	opts.TrendTopN = c.Analysis.TrendTopN
	opts.TopContributors = c.Analysis.TopContributors
	opts.SmallSliceThreshold = c.Analysis.SmallSliceThreshold

	if w, err := analyzer.ParseBucketWidth(c.Analysis.TrendBucket); err == nil {
		opts.TrendBucket = w
	}
	if w, err := analyzer.ParseBucketWidth(c.Analysis.CreationBucket); err == nil {
		opts.CreationBucket = w
	}

	return opts
}
