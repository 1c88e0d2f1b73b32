package sampler

import (
	"math"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/pyramid"
)

// regionChanged compares the density distribution of a parent's children
// against the previous frame's assignment distribution. A parent that showed
// nothing last frame always counts as changed.
func (g *generator) regionChanged(parent, i, j int, children [4]cell) bool {
	prev := g.py.Get(pyramid.Assignment, parent, i, j)
	if prev == 0 {
		return true
	}

	dp := g.py.Get(pyramid.Density, parent, i, j)
	if dp == 0 {
		return true
	}

	level := parent + 1
	drift := 0.0

	for _, c := range children {
		drift += math.Abs(float64(g.density(level, c))/float64(dp) - float64(g.previous(level, c))/float64(prev))
	}

	return drift/float64(len(children)) > g.opts.RatioThreshold
}

// examineAdjacent marks unchanged cells whose ratio to a changed neighbor
// across a sibling-group boundary has drifted past RatioThreshold.
func (g *generator) examineAdjacent(level int) {
	g.eachBoundaryPair(level, func(a, b cell) {
		g.examinePair(level, a, b)
	})
}

func (g *generator) examinePair(level int, a, b cell) {
	changedA := g.changes.IsChanged(level, a.i, a.j)
	if changedA == g.changes.IsChanged(level, b.i, b.j) {
		return
	}

	moved, still := a, b
	if !changedA {
		moved, still = b, a
	}

	dm, ds := float64(g.density(level, moved)), float64(g.density(level, still))
	am := float64(g.planAt(level, moved))
	prev := float64(g.previous(level, still))

	var drift float64

	if dm > ds {
		if am == 0 {
			return
		}

		drift = math.Abs(ds/dm - prev/am)
	} else {
		if ds == 0 || g.planAt(level, still) == 0 {
			return
		}

		if prev == 0 {
			if am > 0 {
				g.changes.SetChanged(level, still.i, still.j)
			}

			return
		}

		drift = math.Abs(dm/ds - am/prev)
	}

	if drift > g.opts.RatioThreshold {
		g.changes.SetChanged(level, still.i, still.j)
	}
}
