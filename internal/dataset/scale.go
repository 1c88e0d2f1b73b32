package dataset

import (
	"errors"
	"fmt"
	"math"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/grid"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/sampler"
)

// ErrDegenerateExtent is returned when the data extent has no width or height.
var ErrDegenerateExtent = errors.New("dataset: data extent is degenerate")

// Extent is the data-space bounding box.
type Extent struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// ExtentOf returns the bounding box of records. ok is false for an empty slice.
func ExtentOf(records []Record) (ext Extent, ok bool) {
	if len(records) == 0 {
		return Extent{}, false
	}

	ext = Extent{MinX: math.Inf(1), MaxX: math.Inf(-1), MinY: math.Inf(1), MaxY: math.Inf(-1)}

	for _, rec := range records {
		ext.MinX = min(ext.MinX, rec.X)
		ext.MaxX = max(ext.MaxX, rec.X)
		ext.MinY = min(ext.MinY, rec.Y)
		ext.MaxY = max(ext.MaxY, rec.Y)
	}

	return ext, true
}

// Contains reports whether (x, y) lies strictly inside the extent.
func (e Extent) Contains(x, y float64) bool {
	return x > e.MinX && x < e.MaxX && y > e.MinY && y < e.MaxY
}

// Scaler maps data coordinates onto the canvas rectangle. Larger data y is
// drawn higher up.
type Scaler struct {
	extent  Extent
	bounds  grid.Rect
	classes map[uint32]bool
}

// NewScaler fixes the data extent used for the whole dataset. A non-empty
// classes set keeps only those class IDs.
func NewScaler(extent Extent, bounds grid.Rect, classes []uint32) (*Scaler, error) {
	if !(extent.MaxX > extent.MinX) || !(extent.MaxY > extent.MinY) {
		return nil, fmt.Errorf("%w: x [%g, %g] y [%g, %g]",
			ErrDegenerateExtent, extent.MinX, extent.MaxX, extent.MinY, extent.MaxY)
	}

	s := &Scaler{extent: extent, bounds: bounds}

	if len(classes) > 0 {
		s.classes = make(map[uint32]bool, len(classes))
		for _, c := range classes {
			s.classes[c] = true
		}
	}

	return s, nil
}

// Scale converts the records strictly inside the extent into a batch and
// reports how many were dropped.
func (s *Scaler) Scale(records []Record) (batch sampler.Batch, dropped int) {
	batch = make(sampler.Batch, 0, len(records))

	for _, rec := range records {
		if !s.extent.Contains(rec.X, rec.Y) || (s.classes != nil && !s.classes[rec.Class]) {
			dropped++

			continue
		}

		batch = append(batch, sampler.Point{
			ID:    rec.ID,
			X:     lerp(rec.X, s.extent.MinX, s.extent.MaxX, s.bounds.Left, s.bounds.Right()),
			Y:     lerp(rec.Y, s.extent.MinY, s.extent.MaxY, s.bounds.Bottom(), s.bounds.Top),
			Class: rec.Class,
			Date:  rec.Date,
		})
	}

	return batch, dropped
}

func lerp(v, fromLo, fromHi, toLo, toHi float64) float64 {
	return toLo + (v-fromLo)/(fromHi-fromLo)*(toHi-toLo)
}
