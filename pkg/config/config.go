// Package config provides configuration loading and validation for seedpyramid.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/grid"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/observability"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/sampler"
)

// Sentinel validation errors.
var (
	ErrInvalidCanvas      = errors.New("canvas must be larger than its margins")
	ErrInvalidChunkSize   = errors.New("input chunk size must be positive")
	ErrInvalidMaxFileSize = errors.New("invalid input max file size")
	ErrInvalidLogLevel    = errors.New("invalid log level")
	ErrInvalidLogFormat   = errors.New("log format must be text or json")
)

// Config holds all configuration for a seedpyramid run.
type Config struct {
	Canvas        CanvasConfig        `mapstructure:"canvas"`
	Sampler       SamplerConfig       `mapstructure:"sampler"`
	Streaming     StreamingConfig     `mapstructure:"streaming"`
	Input         InputConfig         `mapstructure:"input"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// CanvasConfig describes the drawing surface points are scaled onto.
type CanvasConfig struct {
	Width        float64 `mapstructure:"width"`
	Height       float64 `mapstructure:"height"`
	MarginLeft   float64 `mapstructure:"margin_left"`
	MarginRight  float64 `mapstructure:"margin_right"`
	MarginTop    float64 `mapstructure:"margin_top"`
	MarginBottom float64 `mapstructure:"margin_bottom"`
	GridWidth    float64 `mapstructure:"grid_width"`
}

// SamplerConfig holds the allocation and change-detection knobs.
type SamplerConfig struct {
	StopLevel          int     `mapstructure:"stop_level"`
	DensityThreshold   float64 `mapstructure:"density_threshold"`
	OutlierWeight      float64 `mapstructure:"outlier_weight"`
	RatioThreshold     float64 `mapstructure:"ratio_threshold"`
	ReplaceProbability float64 `mapstructure:"replace_probability"`
	Reservoir          bool    `mapstructure:"reservoir"`
	HistoryLimit       int     `mapstructure:"history_limit"`
	// Seed makes representative replacement reproducible. Zero picks a random seed.
	Seed uint64 `mapstructure:"seed"`
}

// StreamingConfig holds the sliding time window settings.
type StreamingConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TimeStep   int  `mapstructure:"time_step"`
	TimeWindow int  `mapstructure:"time_window"`
}

// InputConfig holds dataset reader settings.
type InputConfig struct {
	ChunkSize   int    `mapstructure:"chunk_size"`
	MaxFileSize string `mapstructure:"max_file_size"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ObservabilityConfig holds telemetry export settings.
type ObservabilityConfig struct {
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	MetricsAddr  string  `mapstructure:"metrics_addr"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	DebugTrace   bool    `mapstructure:"debug_trace"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty path searches for seedpyramid.yaml in the working directory and
// /etc/seedpyramid; a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("seedpyramid")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("/etc/seedpyramid")
	}

	viperCfg.SetEnvPrefix("SEEDPYRAMID")
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

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("canvas.width", DefaultCanvasWidth)
	viperCfg.SetDefault("canvas.height", DefaultCanvasHeight)
	viperCfg.SetDefault("canvas.margin_left", DefaultMarginLeft)
	viperCfg.SetDefault("canvas.margin_right", DefaultMarginRight)
	viperCfg.SetDefault("canvas.margin_top", DefaultMarginTop)
	viperCfg.SetDefault("canvas.margin_bottom", DefaultMarginBottom)
	viperCfg.SetDefault("canvas.grid_width", DefaultGridWidth)

	viperCfg.SetDefault("sampler.stop_level", DefaultStopLevel)
	viperCfg.SetDefault("sampler.density_threshold", DefaultDensityThreshold)
	viperCfg.SetDefault("sampler.outlier_weight", DefaultOutlierWeight)
	viperCfg.SetDefault("sampler.ratio_threshold", DefaultRatioThreshold)
	viperCfg.SetDefault("sampler.replace_probability", DefaultReplaceProbability)
	viperCfg.SetDefault("sampler.reservoir", false)
	viperCfg.SetDefault("sampler.history_limit", 0)
	viperCfg.SetDefault("sampler.seed", 0)

	viperCfg.SetDefault("streaming.enabled", false)
	viperCfg.SetDefault("streaming.time_step", DefaultTimeStep)
	viperCfg.SetDefault("streaming.time_window", DefaultTimeWindow)

	viperCfg.SetDefault("input.chunk_size", DefaultChunkSize)
	viperCfg.SetDefault("input.max_file_size", DefaultMaxFileSize)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("observability.environment", "")
	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_headers", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.metrics_addr", "")
	viperCfg.SetDefault("observability.sample_ratio", 0.0)
	viperCfg.SetDefault("observability.debug_trace", false)
}

// Validate checks the configuration, including every sampler option.
func (c *Config) Validate() error {
	if c.Canvas.Width <= c.Canvas.MarginLeft+c.Canvas.MarginRight ||
		c.Canvas.Height <= c.Canvas.MarginTop+c.Canvas.MarginBottom {
		return fmt.Errorf("%w: %gx%g", ErrInvalidCanvas, c.Canvas.Width, c.Canvas.Height)
	}

	if c.Input.ChunkSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, c.Input.ChunkSize)
	}

	_, err := c.MaxFileSizeBytes()
	if err != nil {
		return err
	}

	_, err = c.LogLevel()
	if err != nil {
		return err
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	err = c.Options().Validate()
	if err != nil {
		return fmt.Errorf("sampler options: %w", err)
	}

	return nil
}

// Bounds returns the drawable rectangle inside the canvas margins.
func (c *Config) Bounds() grid.Rect {
	return grid.Rect{
		Left:   c.Canvas.MarginLeft,
		Top:    c.Canvas.MarginTop,
		Width:  c.Canvas.Width - c.Canvas.MarginLeft - c.Canvas.MarginRight,
		Height: c.Canvas.Height - c.Canvas.MarginTop - c.Canvas.MarginBottom,
	}
}

// Options converts the configuration into sampler options.
func (c *Config) Options() sampler.Options {
	return sampler.Options{
		Bounds:             c.Bounds(),
		GridWidth:          c.Canvas.GridWidth,
		StopLevel:          c.Sampler.StopLevel,
		DensityThreshold:   c.Sampler.DensityThreshold,
		OutlierWeight:      c.Sampler.OutlierWeight,
		RatioThreshold:     c.Sampler.RatioThreshold,
		ReplaceProbability: c.Sampler.ReplaceProbability,
		Reservoir:          c.Sampler.Reservoir,
		HistoryLimit:       c.Sampler.HistoryLimit,
		Streaming: sampler.StreamingOptions{
			Enabled:    c.Streaming.Enabled,
			TimeStep:   c.Streaming.TimeStep,
			TimeWindow: c.Streaming.TimeWindow,
		},
	}
}

// MaxFileSizeBytes parses input.max_file_size ("2GB", "512 MiB"). Zero
// means unlimited.
func (c *Config) MaxFileSizeBytes() (uint64, error) {
	if c.Input.MaxFileSize == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(c.Input.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidMaxFileSize, err)
	}

	return size, nil
}

// LogLevel parses logging.level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Logging.Level))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	return level, nil
}

// Telemetry builds the observability configuration for one run.
func (c *Config) Telemetry(version, session string) observability.Config {
	cfg := observability.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.Session = session
	cfg.Environment = c.Observability.Environment
	cfg.OTLPEndpoint = c.Observability.OTLPEndpoint
	cfg.OTLPHeaders = observability.ParseOTLPHeaders(c.Observability.OTLPHeaders)
	cfg.OTLPInsecure = c.Observability.OTLPInsecure
	cfg.MetricsAddr = c.Observability.MetricsAddr
	cfg.SampleRatio = c.Observability.SampleRatio
	cfg.DebugTrace = c.Observability.DebugTrace
	cfg.LogJSON = c.Logging.Format == "json"

	// Validate has already accepted the level.
	cfg.LogLevel, _ = c.LogLevel()

	return cfg
}
