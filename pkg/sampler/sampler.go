// Package sampler selects which points of a growing scatterplot are drawn.
//
// Points are binned into a finest-level grid and aggregated into a density
// pyramid. Each frame, the number of visible bins at the root is split top
// down among children: densest children first, sparse children boosted so
// that outliers stay visible, then neighbors across sibling boundaries are
// smoothed. The finest level decides which bins display their
// representative point. After the first frame only regions whose density
// distribution drifted from the previous assignment are recomputed, so the
// picture stays stable while data streams in.
//
// In streaming mode points carry a date and contributions older than the
// time window are evicted.
package sampler

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/grid"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/pyramid"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/window"
)

// Sentinel errors returned by Execute.
var (
	ErrPointOutOfBounds = errors.New("sampler: point outside bin rectangle")
	ErrMissingDate      = errors.New("sampler: streaming point has no date")
	ErrNoDataset        = errors.New("sampler: no dataset started, first frame required")
)

// Option customizes a Sampler.
type Option func(*Sampler)

// WithLogger sets the logger used for per-frame debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sampler) {
		s.logger = logger
	}
}

// WithSeed makes representative replacement deterministic.
func WithSeed(seed uint64) Option {
	return func(s *Sampler) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithConservationChecks verifies after every aggregation that each coarse
// cell equals the sum of its children and panics otherwise. It costs one
// extra pass over the pyramid per frame.
func WithConservationChecks() Option {
	return func(s *Sampler) {
		s.checks = true
	}
}

// Sampler is the stateful seed selector. It is not safe for concurrent use.
type Sampler struct {
	opts    Options
	geo     grid.Geometry
	py      *pyramid.Pyramid
	changes *pyramid.ChangeMap
	plan    [][]int
	cells   *cellStore
	window  *window.Window // nil unless streaming.
	history history

	// prev is the last published snapshot and shown the seed each displayed
	// bin reported when it was added.
	prev  *Snapshot
	shown []Seed

	started bool
	checks  bool
	logger  *slog.Logger
	rng     *rand.Rand
}

// New validates opts and allocates a sampler for its geometry.
func New(opts Options, options ...Option) (*Sampler, error) {
	err := opts.Validate()
	if err != nil {
		return nil, err
	}

	s := &Sampler{
		logger: slog.Default(),
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}

	for _, o := range options {
		o(s)
	}

	err = s.allocate(opts)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Sampler) allocate(opts Options) error {
	geo, err := opts.geometry()
	if err != nil {
		return err
	}

	s.opts = opts
	s.geo = geo
	s.py = pyramid.New(geo.MaxLevel)
	s.changes = pyramid.NewChangeMap(geo.MaxLevel)
	s.plan = newPlan(geo.MaxLevel)
	s.cells = newCellStore(geo.Horizontal, geo.Vertical, s.rng)
	s.cells.configure(opts.ReplaceProbability, opts.Reservoir)
	s.shown = make([]Seed, geo.Horizontal*geo.Vertical)
	s.history = history{limit: opts.HistoryLimit}
	s.prev = nil
	s.started = false
	s.window = nil

	if opts.Streaming.Enabled {
		s.window, err = window.New(geo.Horizontal, geo.Vertical, opts.Streaming.TimeWindow)
		if err != nil {
			return fmt.Errorf("sampler window: %w", err)
		}
	}

	return nil
}

// Geometry returns the bin geometry in use.
func (s *Sampler) Geometry() grid.Geometry {
	return s.geo
}

// Options returns the active configuration.
func (s *Sampler) Options() Options {
	return s.opts
}

// Reconfigure applies new options. Changing the bounds, the grid width or the
// streaming mode discards all state, and the next Execute must start a new
// dataset. Other options take effect on the next frame.
func (s *Sampler) Reconfigure(opts Options) error {
	err := opts.Validate()
	if err != nil {
		return err
	}

	geo, err := opts.geometry()
	if err != nil {
		return err
	}

	if !geo.SameGrid(s.geo) || opts.Streaming.Enabled != s.opts.Streaming.Enabled {
		return s.allocate(opts)
	}

	s.opts = opts
	s.cells.configure(opts.ReplaceProbability, opts.Reservoir)
	s.history.setLimit(opts.HistoryLimit)

	if s.window != nil {
		err = s.window.SetHorizon(opts.Streaming.TimeWindow)
		if err != nil {
			return fmt.Errorf("sampler window: %w", err)
		}
	}

	return nil
}

// Execute ingests one batch and produces the next frame. first starts a new
// dataset and drops all accumulated state. A rejected batch leaves the
// sampler untouched.
func (s *Sampler) Execute(batch Batch, first bool) (Frame, error) {
	if !first && !s.started {
		return Frame{}, ErrNoDataset
	}

	bins, err := s.locate(batch)
	if err != nil {
		return Frame{}, err
	}

	if first {
		s.reset()
	}

	s.started = true
	frame := Frame{Index: s.history.next()}

	if len(batch) == 0 {
		if s.prev == nil {
			s.prev = newSnapshot(s.geo.Horizontal, s.geo.Vertical)
		}

		frame.Snapshot = s.prev

		return frame, s.record(frame)
	}

	full := first || s.opts.RatioThreshold == 0
	frame.Evicted = s.ingest(batch, bins)

	s.prepare(full)

	gen := generator{
		py:          s.py,
		changes:     s.changes,
		plan:        s.plan,
		opts:        s.opts,
		incremental: !full,
	}
	finest := gen.run()

	diff, next := Diff(DiffInput{
		Previous:   s.prev,
		Assignment: finest,
		Visibility: s.py.Level(pyramid.Visibility, s.geo.MaxLevel),
		Side:       s.geo.Side(),
		Changed:    s.changes,
		Horizontal: s.geo.Horizontal,
		Vertical:   s.geo.Vertical,
		Full:       full,
	})

	frame.Removed = make([]Seed, 0, len(diff.Removed))
	for _, c := range diff.Removed {
		frame.Removed = append(frame.Removed, s.shown[c.I*s.geo.Vertical+c.J])
		s.shown[c.I*s.geo.Vertical+c.J] = Seed{}
	}

	frame.Added = make([]Seed, 0, len(diff.Added))
	for _, c := range diff.Added {
		seed, ok := s.cells.seed(c.I, c.J)
		if !ok {
			panic(fmt.Sprintf("sampler: bin (%d, %d) assigned without a representative", c.I, c.J))
		}

		frame.Added = append(frame.Added, seed)
		s.shown[c.I*s.geo.Vertical+c.J] = seed
	}

	if next.Len() > s.py.Get(pyramid.Visibility, 0, 0, 0) {
		panic(fmt.Sprintf("sampler: %d seeds displayed for %d visible bins",
			next.Len(), s.py.Get(pyramid.Visibility, 0, 0, 0)))
	}

	s.prev = next
	frame.Snapshot = next
	frame.Inspected = diff.Inspected

	return frame, s.record(frame)
}

func (s *Sampler) record(frame Frame) error {
	err := s.history.append(frame.Snapshot)
	if err != nil {
		return err
	}

	s.logger.Debug("frame executed",
		"frame", frame.Index,
		"added", len(frame.Added),
		"removed", len(frame.Removed),
		"displayed", frame.Snapshot.Len(),
		"inspected", frame.Inspected,
		"evicted_days", frame.Evicted,
	)

	return nil
}

func (s *Sampler) reset() {
	s.py.Reset()
	s.cells.reset()
	clear(s.shown)
	s.history.reset()
	s.prev = nil

	if s.window != nil {
		s.window.Reset()
	}
}

// locate bins every point and checks streaming dates before anything is mutated.
func (s *Sampler) locate(batch Batch) ([]cell, error) {
	bins := make([]cell, len(batch))

	for k, p := range batch {
		i, j, ok := s.geo.Bin(p.X, p.Y)
		if !ok {
			return nil, fmt.Errorf("%w: point %d at (%g, %g)", ErrPointOutOfBounds, p.ID, p.X, p.Y)
		}

		if s.window != nil && p.Date.IsZero() {
			return nil, fmt.Errorf("%w: point %d", ErrMissingDate, p.ID)
		}

		bins[k] = cell{i, j}
	}

	return bins, nil
}

// ingest adds the batch to the finest density and representatives and, in
// streaming mode, evicts expired days. It returns the number of evicted days.
func (s *Sampler) ingest(batch Batch, bins []cell) int {
	maxLevel := s.geo.MaxLevel
	latest := math.MinInt

	for k, p := range batch {
		c := bins[k]

		first := s.py.Add(pyramid.Density, maxLevel, c.i, c.j, 1) == 1
		s.cells.observe(c.i, c.j, p, first)

		if s.window != nil {
			day := window.Day(p.Date)
			s.window.Add(day, c.i, c.j)
			latest = max(latest, day)
		}
	}

	if s.window == nil {
		return 0
	}

	evicted := s.window.Evict(latest, func(i, j, count int) {
		if s.py.Add(pyramid.Density, maxLevel, i, j, -count) < 0 {
			panic(fmt.Sprintf("sampler: negative density at bin (%d, %d)", i, j))
		}
	})

	return len(evicted)
}

// prepare derives visibility, seeds the finest assignment with the displayed
// snapshot on incremental frames and aggregates every level.
func (s *Sampler) prepare(full bool) {
	maxLevel := s.geo.MaxLevel
	side := s.geo.Side()

	s.py.DeriveVisibility(s.geo.Horizontal, s.geo.Vertical)

	assignment := s.py.Level(pyramid.Assignment, maxLevel)
	clear(assignment)

	if !full && s.prev != nil {
		for idx, v := range s.prev.cells {
			if v != 0 {
				assignment[(idx/s.prev.vertical)*side+idx%s.prev.vertical] = 1
			}
		}
	}

	s.changes.Reset(full)
	s.py.Build(!full)

	if s.checks {
		s.checkConservation(!full)
	}
}

// checkConservation panics when a coarse cell differs from the sum of its
// children.
func (s *Sampler) checkConservation(withAssignment bool) {
	kinds := []pyramid.Kind{pyramid.Density, pyramid.Visibility}
	if withAssignment {
		kinds = append(kinds, pyramid.Assignment)
	}

	for _, kind := range kinds {
		err := s.py.Check(kind)
		if err != nil {
			panic(fmt.Sprintf("sampler: %v", err))
		}
	}
}

// SelectSeeds returns the identifiers displayed after the latest frame, in
// bin order.
func (s *Sampler) SelectSeeds() []uint64 {
	if s.prev == nil {
		return nil
	}

	ids := make([]uint64, 0, s.prev.Len())
	for _, off := range s.prev.Offsets() {
		ids = append(ids, s.shown[off].ID)
	}

	return ids
}

// Displayed returns the seeds on screen after the latest frame, as they were
// when added.
func (s *Sampler) Displayed() []Seed {
	if s.prev == nil {
		return nil
	}

	seeds := make([]Seed, 0, s.prev.Len())
	for _, off := range s.prev.Offsets() {
		seeds = append(seeds, s.shown[off])
	}

	return seeds
}

// SeedsForFrame returns the identifiers displayed by a past frame. Bins are
// reported with their current representative.
func (s *Sampler) SeedsForFrame(idx int) ([]uint64, error) {
	offsets, err := s.history.offsets(idx)
	if err != nil {
		return nil, err
	}

	return s.resolve(offsets), nil
}

// CompareFrames splits the seeds of frame to into those also displayed by
// frame from and those that are new. A negative from compares against an
// empty frame.
func (s *Sampler) CompareFrames(from, to int) (kept, introduced []uint64, err error) {
	target, err := s.history.offsets(to)
	if err != nil {
		return nil, nil, err
	}

	base := map[uint32]struct{}{}

	if from >= 0 {
		offsets, err := s.history.offsets(from)
		if err != nil {
			return nil, nil, err
		}

		for _, off := range offsets {
			base[off] = struct{}{}
		}
	}

	for _, off := range target {
		ids := s.resolve([]uint32{off})
		if len(ids) == 0 {
			continue
		}

		if _, ok := base[off]; ok {
			kept = append(kept, ids[0])
		} else {
			introduced = append(introduced, ids[0])
		}
	}

	return kept, introduced, nil
}

func (s *Sampler) resolve(offsets []uint32) []uint64 {
	ids := make([]uint64, 0, len(offsets))

	for _, off := range offsets {
		i, j := int(off)/s.geo.Vertical, int(off)%s.geo.Vertical
		if seed, ok := s.cells.seed(i, j); ok {
			ids = append(ids, seed.ID)
		}
	}

	return ids
}

// SeedAt returns the representative of the bin under a screen position,
// whether or not that bin is currently displayed.
func (s *Sampler) SeedAt(x, y float64) (Seed, bool) {
	i, j, ok := s.geo.Bin(x, y)
	if !ok {
		return Seed{}, false
	}

	return s.cells.seed(i, j)
}

// ClassesAt returns, for the bin under a screen position, the last elected
// point identifier of every class label seen there.
func (s *Sampler) ClassesAt(x, y float64) map[uint32]uint64 {
	i, j, ok := s.geo.Bin(x, y)
	if !ok {
		return nil
	}

	return s.cells.classes(i, j)
}

// Stats summarizes the sampler state.
type Stats struct {
	Frames       int
	Retained     int
	Displayed    int
	Visible      int
	Points       int
	HistoryBytes int
	WindowDays   int
}

// Stats returns counters describing the current state.
func (s *Sampler) Stats() Stats {
	st := Stats{
		Frames:       s.history.next(),
		Retained:     len(s.history.blocks),
		Displayed:    s.prev.Len(),
		Visible:      s.py.Get(pyramid.Visibility, 0, 0, 0),
		Points:       s.py.Get(pyramid.Density, 0, 0, 0),
		HistoryBytes: s.history.bytes(),
	}

	if s.window != nil {
		st.WindowDays = s.window.Len()
	}

	return st
}
