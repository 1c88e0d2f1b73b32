// Package engine drives a sampler over a chunked dataset, one frame per chunk.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/seedpyramid/internal/dataset"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/observability"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/sampler"
)

const spanFrame = "sampler.frame"

// Source yields chunks of records until io.EOF. *dataset.Reader implements it.
type Source interface {
	Next() ([]dataset.Record, error)
}

// FrameReport summarizes one executed frame.
type FrameReport struct {
	Index     int           `json:"index"            yaml:"index"`
	Points    int           `json:"points"           yaml:"points"`
	Dropped   int           `json:"dropped"          yaml:"dropped"`
	Added     int           `json:"added"            yaml:"added"`
	Removed   int           `json:"removed"          yaml:"removed"`
	Inspected int           `json:"inspected"        yaml:"inspected"`
	Evicted   int           `json:"evicted"          yaml:"evicted"`
	Displayed int           `json:"displayed"        yaml:"displayed"`
	Date      time.Time     `json:"date,omitzero"    yaml:"date,omitempty"`
	Duration  time.Duration `json:"duration_ns"      yaml:"duration_ns"`
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTracer sets the tracer used for per-frame spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

// WithMetrics sets the frame metric instruments.
func WithMetrics(metrics *observability.SamplerMetrics) Option {
	return func(r *Runner) {
		r.metrics = metrics
	}
}

// WithSession overrides the generated session ID.
func WithSession(session string) Option {
	return func(r *Runner) {
		r.session = session
	}
}

// WithClasses keeps only the given class IDs.
func WithClasses(classes ...uint32) Option {
	return func(r *Runner) {
		r.classes = classes
	}
}

// WithFrameHook calls fn after every frame.
func WithFrameHook(fn func(sampler.Frame, FrameReport)) Option {
	return func(r *Runner) {
		r.hook = fn
	}
}

// Runner feeds chunks to a sampler. A Runner drives one dataset and is not
// safe for concurrent use.
type Runner struct {
	sampler *sampler.Sampler
	name    string
	session string
	classes []uint32
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *observability.SamplerMetrics
	hook    func(sampler.Frame, FrameReport)

	scaler *dataset.Scaler
}

// New creates a runner for the dataset called name.
func New(s *sampler.Sampler, name string, opts ...Option) *Runner {
	r := &Runner{
		sampler: s,
		name:    name,
		session: uuid.NewString(),
		logger:  slog.Default(),
		tracer:  nooptrace.NewTracerProvider().Tracer(""),
	}

	for _, o := range opts {
		o(r)
	}

	return r
}

// Session returns the run's session ID.
func (r *Runner) Session() string {
	return r.session
}

// Run executes one frame per chunk until src is exhausted. The first chunk
// fixes the data extent and starts a new dataset. Cancellation is checked
// between chunks.
func (r *Runner) Run(ctx context.Context, src Source) ([]FrameReport, error) {
	var reports []FrameReport

	first := true

	for {
		err := ctx.Err()
		if err != nil {
			return reports, fmt.Errorf("run %s: %w", r.name, err)
		}

		records, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return reports, fmt.Errorf("run %s: %w", r.name, err)
		}

		if first {
			err = r.fixExtent(records)
			if err != nil {
				return reports, err
			}
		}

		report, err := r.frame(ctx, records, first)
		if err != nil {
			return reports, err
		}

		reports = append(reports, report)
		first = false
	}

	r.logger.InfoContext(ctx, "dataset complete",
		"dataset", r.name,
		"frames", len(reports),
		"displayed", len(r.sampler.SelectSeeds()),
	)

	return reports, nil
}

func (r *Runner) fixExtent(records []dataset.Record) error {
	extent, ok := dataset.ExtentOf(records)
	if !ok {
		return fmt.Errorf("run %s: %w", r.name, dataset.ErrDegenerateExtent)
	}

	scaler, err := dataset.NewScaler(extent, r.sampler.Options().Bounds, r.classes)
	if err != nil {
		return fmt.Errorf("run %s: %w", r.name, err)
	}

	r.scaler = scaler

	return nil
}

func (r *Runner) frame(ctx context.Context, records []dataset.Record, first bool) (FrameReport, error) {
	batch, dropped := r.scaler.Scale(records)

	ctx, span := r.tracer.Start(ctx, spanFrame,
		trace.WithAttributes(
			attribute.String("dataset", r.name),
			attribute.String("session", r.session),
			attribute.Bool("first", first),
			attribute.Int("points", len(batch)),
		),
	)
	defer span.End()

	start := time.Now()

	frame, err := r.sampler.Execute(batch, first)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return FrameReport{}, fmt.Errorf("run %s: %w", r.name, err)
	}

	report := FrameReport{
		Index:     frame.Index,
		Points:    len(batch),
		Dropped:   dropped,
		Added:     len(frame.Added),
		Removed:   len(frame.Removed),
		Inspected: frame.Inspected,
		Evicted:   frame.Evicted,
		Displayed: frame.Snapshot.Len(),
		Duration:  time.Since(start),
	}

	if len(records) > 0 {
		report.Date = records[0].Date
	}

	span.SetAttributes(
		attribute.Int("frame", report.Index),
		attribute.Int("added", report.Added),
		attribute.Int("removed", report.Removed),
		attribute.Int("displayed", report.Displayed),
	)

	r.metrics.RecordFrame(ctx, r.name, observability.FrameStats{
		Points:    report.Points,
		Added:     report.Added,
		Removed:   report.Removed,
		Inspected: report.Inspected,
		Evicted:   report.Evicted,
		Displayed: report.Displayed,
		First:     first,
		Duration:  report.Duration,
	})

	r.logger.DebugContext(ctx, "frame",
		"dataset", r.name,
		"frame", report.Index,
		"points", report.Points,
		"dropped", report.Dropped,
		"added", report.Added,
		"removed", report.Removed,
		"displayed", report.Displayed,
	)

	if r.hook != nil {
		r.hook(frame, report)
	}

	return report, nil
}
