package sampler

import (
	"github.com/Sumatoshi-tech/seedpyramid/pkg/pyramid"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/safeconv"
)

// Snapshot is the displayed finest-level assignment after a frame. It covers
// the bin rectangle only and is never modified once published.
type Snapshot struct {
	cells      []uint8 // indexed i*vertical+j, 1 when a seed is shown.
	horizontal int
	vertical   int
	count      int
}

func newSnapshot(horizontal, vertical int) *Snapshot {
	return &Snapshot{
		cells:      make([]uint8, horizontal*vertical),
		horizontal: horizontal,
		vertical:   vertical,
	}
}

// Horizontal returns the number of bins along x.
func (s *Snapshot) Horizontal() int { return s.horizontal }

// Vertical returns the number of bins along y.
func (s *Snapshot) Vertical() int { return s.vertical }

// Len returns the number of displayed seeds.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}

	return s.count
}

// Shown reports whether bin (i, j) displays a seed.
func (s *Snapshot) Shown(i, j int) bool {
	if s == nil || i < 0 || j < 0 || i >= s.horizontal || j >= s.vertical {
		return false
	}

	return s.cells[i*s.vertical+j] != 0
}

// Offsets returns the ascending bin offsets (i*vertical+j) of displayed seeds.
func (s *Snapshot) Offsets() []uint32 {
	if s == nil {
		return nil
	}

	out := make([]uint32, 0, s.count)

	for idx, v := range s.cells {
		if v != 0 {
			out = append(out, safeconv.MustIntToUint32(idx))
		}
	}

	return out
}

// Cell is a finest-level bin coordinate.
type Cell struct {
	I, J int
}

// DiffInput carries everything the frame differ reads. None of it is modified.
type DiffInput struct {
	// Previous is the last displayed snapshot, nil on the first frame of a dataset.
	Previous *Snapshot
	// Assignment and Visibility are finest-level planes indexed i*Side+j.
	Assignment []int
	Visibility []int
	Side       int
	// Changed limits the comparison to marked cells. Unused when Full is set.
	Changed    *pyramid.ChangeMap
	Horizontal int
	Vertical   int
	// Full compares every bin.
	Full bool
}

// CellDiff lists the bins whose seed appeared or disappeared, in j-major,
// i-minor order.
type CellDiff struct {
	Removed []Cell
	Added   []Cell
	// Inspected is the number of bins compared against the new assignment.
	Inspected int
}

// Diff compares the new finest assignment against the previous snapshot and
// returns the seed changes together with the next snapshot.
//
// Bins outside the changed region keep their previous value, except that a
// displayed bin whose Visibility dropped to zero is always removed.
func Diff(in DiffInput) (CellDiff, *Snapshot) {
	full := in.Full || in.Previous == nil

	next := newSnapshot(in.Horizontal, in.Vertical)
	if in.Previous != nil {
		copy(next.cells, in.Previous.cells)
	}

	var out CellDiff

	for j := range in.Vertical {
		for i := range in.Horizontal {
			idx := i*in.Vertical + j
			src := i*in.Side + j

			if full || in.Changed.Finest(i, j) {
				out.Inspected++

				old, cur := next.cells[idx], in.Assignment[src]

				switch {
				case old != 0 && cur == 0:
					out.Removed = append(out.Removed, Cell{I: i, J: j})
				case old == 0 && cur != 0:
					out.Added = append(out.Added, Cell{I: i, J: j})
				}

				next.cells[idx] = 0
				if cur != 0 {
					next.cells[idx] = 1
				}
			}

			if in.Visibility[src] == 0 && next.cells[idx] != 0 {
				out.Removed = append(out.Removed, Cell{I: i, J: j})
				next.cells[idx] = 0
			}
		}
	}

	for _, v := range next.cells {
		next.count += int(v)
	}

	return out, next
}
