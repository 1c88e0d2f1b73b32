package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/config"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/grid"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/sampler"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "seedpyramid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, grid.Rect{Left: 20, Top: 20, Width: 1540, Height: 840}, cfg.Bounds())
	assert.Equal(t, sampler.DefaultOptions(), cfg.Options())
	assert.Equal(t, config.DefaultChunkSize, cfg.Input.ChunkSize)

	size, err := cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000_000), size)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, `
canvas:
  width: 800
  height: 600
  grid_width: 4
sampler:
  ratio_threshold: 0
  reservoir: true
  seed: 99
streaming:
  enabled: true
  time_window: 3
input:
  chunk_size: 500
  max_file_size: "64 MiB"
logging:
  level: debug
  format: json
observability:
  metrics_addr: ":9464"
  otlp_headers: "api-key=secret"
`))
	require.NoError(t, err)

	opts := cfg.Options()
	assert.Equal(t, grid.Rect{Left: 20, Top: 20, Width: 740, Height: 540}, opts.Bounds)
	assert.InDelta(t, 4.0, opts.GridWidth, 0)
	assert.Zero(t, opts.RatioThreshold)
	assert.True(t, opts.Reservoir)
	assert.True(t, opts.Streaming.Enabled)
	assert.Equal(t, 3, opts.Streaming.TimeWindow)
	assert.Equal(t, config.DefaultTimeStep, opts.Streaming.TimeStep)
	assert.Equal(t, uint64(99), cfg.Sampler.Seed)
	assert.Equal(t, 500, cfg.Input.ChunkSize)

	size, err := cfg.MaxFileSizeBytes()
	require.NoError(t, err)
	assert.Equal(t, uint64(64<<20), size)

	tel := cfg.Telemetry("1.0.0", "sess")
	assert.True(t, tel.LogJSON)
	assert.Equal(t, slog.LevelDebug, tel.LogLevel)
	assert.Equal(t, ":9464", tel.MetricsAddr)
	assert.Equal(t, map[string]string{"api-key": "secret"}, tel.OTLPHeaders)
	assert.Equal(t, "sess", tel.Session)
	assert.Equal(t, "1.0.0", tel.ServiceVersion)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SEEDPYRAMID_SAMPLER_OUTLIER_WEIGHT", "0.75")
	t.Setenv("SEEDPYRAMID_STREAMING_ENABLED", "true")

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.InDelta(t, 0.75, cfg.Sampler.OutlierWeight, 1e-9)
	assert.True(t, cfg.Streaming.Enabled)
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		want    error
	}{
		{"canvas", "canvas:\n  width: 50\n", config.ErrInvalidCanvas},
		{"chunk", "input:\n  chunk_size: 0\n", config.ErrInvalidChunkSize},
		{"file size", "input:\n  max_file_size: lots\n", config.ErrInvalidMaxFileSize},
		{"level", "logging:\n  level: loud\n", config.ErrInvalidLogLevel},
		{"format", "logging:\n  format: xml\n", config.ErrInvalidLogFormat},
		{"grid", "canvas:\n  grid_width: 0\n", grid.ErrInvalidGridWidth},
		{"weight", "sampler:\n  outlier_weight: 2\n", sampler.ErrInvalidOutlierWeight},
		{"window", "streaming:\n  enabled: true\n  time_window: -1\n", sampler.ErrInvalidTimeWindow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tc.content))
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoadConfig_MissingExplicitFileFails(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
