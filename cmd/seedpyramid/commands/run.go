// Package commands implements CLI command handlers for seedpyramid.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/seedpyramid/internal/dataset"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/config"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/engine"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/observability"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/report"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/safeconv"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/sampler"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/version"
)

const metricsReadHeaderTimeout = 5 * time.Second

// Flag errors.
var (
	ErrServeWithoutMetrics = errors.New("--serve requires observability.metrics_addr")
	ErrInvalidClass        = errors.New("--classes value out of range")
)

// RunCommand holds the flags of the run command.
type RunCommand struct {
	configPath string
	format     string
	output     string
	noColor    bool
	serve      bool
	classes    []uint

	streaming      bool
	timeStep       int
	timeWindow     int
	chunkSize      int
	gridWidth      float64
	stopLevel      int
	ratioThreshold float64
	reservoir      bool
	seed           uint64
	logLevel       string
	metricsAddr    string

	// logOut receives log output; stderr when nil.
	logOut io.Writer
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return newRunCommand(nil)
}

func newRunCommand(logOut io.Writer) *cobra.Command {
	rc := &RunCommand{logOut: logOut}

	cmd := &cobra.Command{
		Use:   "run <dataset.csv>",
		Short: "Sample a dataset frame by frame",
		Long: `Read a CSV of "x,y,label" rows (or "yyyy-MM-dd,x,y,label" with --streaming),
feed it to the sampler one chunk per frame and report every frame and the final seed set.`,
		Args: cobra.ExactArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().StringVarP(&rc.configPath, "config", "c", "", "Config file path (default: ./seedpyramid.yaml)")
	cmd.Flags().StringVarP(&rc.format, "format", "f", report.FormatTable, "Output format: table, json, yaml, html")
	cmd.Flags().StringVarP(&rc.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored table output")
	cmd.Flags().BoolVar(&rc.serve, "serve", false, "Keep serving /metrics after the run until interrupted")
	cmd.Flags().UintSliceVar(&rc.classes, "classes", nil, "Only sample these class IDs (first-seen label order)")

	cmd.Flags().BoolVar(&rc.streaming, "streaming", false, "Dated input with a sliding time window")
	cmd.Flags().IntVar(&rc.timeStep, "time-step", 0, "Days per frame in streaming mode")
	cmd.Flags().IntVar(&rc.timeWindow, "time-window", 0, "Days kept in the streaming window")
	cmd.Flags().IntVar(&rc.chunkSize, "chunk-size", 0, "Points per frame without streaming")
	cmd.Flags().Float64Var(&rc.gridWidth, "grid-width", 0, "Bin edge length in canvas units")
	cmd.Flags().IntVar(&rc.stopLevel, "stop-level", 0, "Level where proportional splitting switches to visibility splitting")
	cmd.Flags().Float64Var(&rc.ratioThreshold, "ratio-threshold", 0, "Density drift that triggers recomputation (0 recomputes every frame)")
	cmd.Flags().BoolVar(&rc.reservoir, "reservoir", false, "Replace representatives with reservoir sampling")
	cmd.Flags().Uint64Var(&rc.seed, "seed", 0, "Random seed for representative replacement (0 = random)")
	cmd.Flags().StringVar(&rc.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&rc.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(rc.configPath)
	if err != nil {
		return err
	}

	rc.applyFlags(cmd, cfg)

	err = cfg.Validate()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if rc.serve && cfg.Observability.MetricsAddr == "" {
		return ErrServeWithoutMetrics
	}

	session := uuid.NewString()

	telemetry := cfg.Telemetry(version.Version, session)
	if rc.serve {
		telemetry.Mode = observability.ModeServe
	}

	logOut := rc.logOut
	if logOut == nil {
		logOut = os.Stderr
	}

	prov, err := observability.InitWithWriter(telemetry, logOut)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}

	defer func() {
		shutdownErr := prov.Shutdown(context.Background())
		if shutdownErr != nil {
			prov.Logger.Warn("telemetry shutdown", "error", shutdownErr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if prov.MetricsHandler != nil {
		ln, err := net.Listen("tcp", cfg.Observability.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listen: %w", err)
		}

		stopMetrics := serveMetrics(ln, prov.MetricsHandler, prov.Logger)

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsReadHeaderTimeout)
			defer cancel()

			shutdownErr := stopMetrics(shutdownCtx)
			if shutdownErr != nil {
				prov.Logger.Warn("metrics shutdown", "error", shutdownErr)
			}
		}()
	}

	rep, err := rc.sample(ctx, cfg, args[0], session, prov, telemetry.LogLevel == slog.LevelDebug)
	if err != nil {
		return err
	}

	err = rc.write(cmd, rep)
	if err != nil {
		return err
	}

	if rc.serve {
		prov.Logger.InfoContext(ctx, "serving metrics until interrupted", "addr", cfg.Observability.MetricsAddr)
		<-ctx.Done()
	}

	return nil
}

func (rc *RunCommand) sample(
	ctx context.Context, cfg *config.Config, path, session string, prov observability.Providers, debug bool,
) (report.Report, error) {
	maxBytes, err := cfg.MaxFileSizeBytes()
	if err != nil {
		return report.Report{}, err
	}

	f, err := dataset.Open(path, maxBytes)
	if err != nil {
		return report.Report{}, err
	}
	defer f.Close()

	reader, err := dataset.NewReader(f, dataset.ReaderOptions{
		Dated:     cfg.Streaming.Enabled,
		ChunkSize: cfg.Input.ChunkSize,
		TimeStep:  cfg.Streaming.TimeStep,
	})
	if err != nil {
		return report.Report{}, err
	}

	samplerOpts := []sampler.Option{sampler.WithLogger(prov.Logger)}
	if cfg.Sampler.Seed != 0 {
		samplerOpts = append(samplerOpts, sampler.WithSeed(cfg.Sampler.Seed))
	}

	if debug {
		samplerOpts = append(samplerOpts, sampler.WithConservationChecks())
	}

	s, err := sampler.New(cfg.Options(), samplerOpts...)
	if err != nil {
		return report.Report{}, err
	}

	metrics, err := observability.NewSamplerMetrics(prov.Meter)
	if err != nil {
		return report.Report{}, err
	}

	classes := make([]uint32, 0, len(rc.classes))
	for _, c := range rc.classes {
		if c > math.MaxUint32 {
			return report.Report{}, fmt.Errorf("%w: %d", ErrInvalidClass, c)
		}

		classes = append(classes, safeconv.MustUintToUint32(c))
	}

	name := filepath.Base(path)
	runner := engine.New(s, name,
		engine.WithLogger(prov.Logger),
		engine.WithTracer(prov.Tracer),
		engine.WithMetrics(metrics),
		engine.WithSession(session),
		engine.WithClasses(classes...),
	)

	frames, err := runner.Run(ctx, reader)
	if err != nil {
		return report.Report{}, err
	}

	return report.New(session, name, frames, s.Displayed(), reader.Labels()), nil
}

func (rc *RunCommand) write(cmd *cobra.Command, rep report.Report) error {
	if rc.output == "" {
		return report.Write(cmd.OutOrStdout(), rc.format, rep, !rc.noColor)
	}

	f, err := os.Create(rc.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	return writeAndClose(f, rc.format, rep)
}

// writeAndClose writes an uncolored report to wc and reports a failed close
// as well as a failed write.
func writeAndClose(wc io.WriteCloser, format string, rep report.Report) error {
	writeErr := report.Write(wc, format, rep, false)

	closeErr := wc.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("close output: %w", closeErr)
	}

	return errors.Join(writeErr, closeErr)
}

// applyFlags overrides config values with explicitly set flags.
func (rc *RunCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("streaming") {
		cfg.Streaming.Enabled = rc.streaming
	}

	if flags.Changed("time-step") {
		cfg.Streaming.TimeStep = rc.timeStep
	}

	if flags.Changed("time-window") {
		cfg.Streaming.TimeWindow = rc.timeWindow
	}

	if flags.Changed("chunk-size") {
		cfg.Input.ChunkSize = rc.chunkSize
	}

	if flags.Changed("grid-width") {
		cfg.Canvas.GridWidth = rc.gridWidth
	}

	if flags.Changed("stop-level") {
		cfg.Sampler.StopLevel = rc.stopLevel
	}

	if flags.Changed("ratio-threshold") {
		cfg.Sampler.RatioThreshold = rc.ratioThreshold
	}

	if flags.Changed("reservoir") {
		cfg.Sampler.Reservoir = rc.reservoir
	}

	if flags.Changed("seed") {
		cfg.Sampler.Seed = rc.seed
	}

	if flags.Changed("log-level") {
		cfg.Logging.Level = rc.logLevel
	}

	if flags.Changed("metrics-addr") {
		cfg.Observability.MetricsAddr = rc.metricsAddr
	}
}

// serveMetrics serves /metrics on ln and returns a function that shuts the
// server down.
func serveMetrics(ln net.Listener, handler http.Handler, logger *slog.Logger) func(context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: metricsReadHeaderTimeout}

	go func() {
		serveErr := srv.Serve(ln)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("metrics server", "error", serveErr)
		}
	}()

	logger.Info("metrics endpoint", "addr", ln.Addr().String())

	return srv.Shutdown
}
