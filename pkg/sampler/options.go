package sampler

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/grid"
)

// Sentinel configuration errors.
var (
	ErrInvalidStopLevel          = errors.New("sampler: stop level must not be negative")
	ErrInvalidDensityThreshold   = errors.New("sampler: density threshold must be in [0, 1]")
	ErrInvalidOutlierWeight      = errors.New("sampler: outlier weight must be in [0, 1]")
	ErrInvalidRatioThreshold     = errors.New("sampler: ratio threshold must not be negative")
	ErrInvalidReplaceProbability = errors.New("sampler: replace probability must be in [0, 1]")
	ErrInvalidHistoryLimit       = errors.New("sampler: history limit must not be negative")
	ErrInvalidTimeStep           = errors.New("sampler: time step must be at least one day")
	ErrInvalidTimeWindow         = errors.New("sampler: time window must not be negative")
)

// Default option values.
const (
	DefaultGridWidth          = 2.0
	DefaultStopLevel          = 8
	DefaultDensityThreshold   = 0.2
	DefaultOutlierWeight      = 0.2
	DefaultRatioThreshold     = 0.25
	DefaultReplaceProbability = 0.1
	DefaultTimeStep           = 1
	DefaultTimeWindow         = 7
)

// DefaultBounds is the drawable area of a 1600×900 canvas with 20px left/top
// and 40px right/bottom margins.
var DefaultBounds = grid.Rect{Left: 20, Top: 20, Width: 1540, Height: 840}

// Options configures a Sampler.
type Options struct {
	// Bounds is the screen rectangle the input points are scaled into.
	Bounds grid.Rect
	// GridWidth is the side of a finest-level bin in screen units.
	GridWidth float64

	// StopLevel is the first child level allocated by plain visibility
	// share, without outlier boosting.
	StopLevel int
	// DensityThreshold is the fraction of the densest sibling below which a
	// child is treated as low density.
	DensityThreshold float64
	// OutlierWeight blends density share (0) and visibility share (1) for
	// low-density regions.
	OutlierWeight float64
	// RatioThreshold is the change-detection sensitivity. Zero recomputes
	// every cell every frame.
	RatioThreshold float64

	// ReplaceProbability is the chance that a later point in a cell replaces
	// its representative. Ignored when Reservoir is set.
	ReplaceProbability float64
	// Reservoir replaces the representative with probability 1/n, giving a
	// uniform pick among the n points seen in the cell.
	Reservoir bool

	// HistoryLimit bounds the number of retained frame snapshots. Zero keeps all.
	HistoryLimit int

	Streaming StreamingOptions
}

// StreamingOptions configures the sliding time window.
type StreamingOptions struct {
	Enabled bool
	// TimeStep is the maximum number of days covered by one batch.
	TimeStep int
	// TimeWindow is the eviction horizon in days.
	TimeWindow int
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		Bounds:             DefaultBounds,
		GridWidth:          DefaultGridWidth,
		StopLevel:          DefaultStopLevel,
		DensityThreshold:   DefaultDensityThreshold,
		OutlierWeight:      DefaultOutlierWeight,
		RatioThreshold:     DefaultRatioThreshold,
		ReplaceProbability: DefaultReplaceProbability,
		Streaming: StreamingOptions{
			TimeStep:   DefaultTimeStep,
			TimeWindow: DefaultTimeWindow,
		},
	}
}

// Validate checks every option and returns the first violation.
func (o Options) Validate() error {
	_, err := o.geometry()
	if err != nil {
		return err
	}

	switch {
	case o.StopLevel < 0:
		return fmt.Errorf("%w: %d", ErrInvalidStopLevel, o.StopLevel)
	case !inUnit(o.DensityThreshold):
		return fmt.Errorf("%w: %g", ErrInvalidDensityThreshold, o.DensityThreshold)
	case !inUnit(o.OutlierWeight):
		return fmt.Errorf("%w: %g", ErrInvalidOutlierWeight, o.OutlierWeight)
	case !(o.RatioThreshold >= 0):
		return fmt.Errorf("%w: %g", ErrInvalidRatioThreshold, o.RatioThreshold)
	case !inUnit(o.ReplaceProbability):
		return fmt.Errorf("%w: %g", ErrInvalidReplaceProbability, o.ReplaceProbability)
	case o.HistoryLimit < 0:
		return fmt.Errorf("%w: %d", ErrInvalidHistoryLimit, o.HistoryLimit)
	}

	if o.Streaming.Enabled {
		if o.Streaming.TimeStep < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidTimeStep, o.Streaming.TimeStep)
		}

		if o.Streaming.TimeWindow < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidTimeWindow, o.Streaming.TimeWindow)
		}
	}

	return nil
}

func (o Options) geometry() (grid.Geometry, error) {
	geo, err := grid.New(o.Bounds, o.GridWidth)
	if err != nil {
		return grid.Geometry{}, fmt.Errorf("sampler geometry: %w", err)
	}

	return geo, nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
