package sampler

import "math"

// eachBoundaryPair visits the pairs of level cells that face each other
// across the boundary between two sibling groups: horizontal pairs
// (2i+1, 2i+2) first, then vertical pairs (2j+1, 2j+2).
func (g *generator) eachBoundaryPair(level int, fn func(a, b cell)) {
	groups := 1 << (level - 1)
	last := groups - 1

	for j := range groups {
		for i := range last {
			left, right := 2*i+1, 2*i+2
			fn(cell{left, 2 * j}, cell{right, 2 * j})
			fn(cell{left, 2*j + 1}, cell{right, 2*j + 1})
		}
	}

	for j := range last {
		for i := range groups {
			top, bottom := 2*j+1, 2*j+2
			fn(cell{2 * i, top}, cell{2 * i, bottom})
			fn(cell{2*i + 1, top}, cell{2*i + 1, bottom})
		}
	}
}

// refine evens out assignment ratios across sibling-group boundaries, which
// the per-parent split cannot see.
func (g *generator) refine(level int) {
	g.eachBoundaryPair(level, func(a, b cell) {
		g.smooth(level, a, b)
	})
}

// smooth moves budget between two neighbors without changing their sum. If
// the sparser cell holds less than its density share it gets that share. If
// it holds more than the denser cell it is pulled back towards the
// outlier-weighted share. Each cell stays within [0, Visibility].
func (g *generator) smooth(level int, a, b cell) {
	dense, sparse := a, b
	if g.density(level, b) > g.density(level, a) {
		dense, sparse = b, a
	}

	dh, dl := g.density(level, dense), g.density(level, sparse)
	if dh == 0 {
		return
	}

	ah, al := g.planAt(level, dense), g.planAt(level, sparse)

	sum := ah + al
	if sum == 0 {
		return
	}

	vh, vl := g.visibility(level, dense), g.visibility(level, sparse)

	assigned := math.Inf(1)
	if ah != 0 {
		assigned = float64(al) / float64(ah)
	}

	var target int

	switch {
	case float64(dl)/float64(dh) > assigned:
		target = roundInt(float64(sum) * float64(dh) / float64(dh+dl))
	case ah < al:
		w := g.opts.OutlierWeight
		target = roundInt(float64(sum) / ((1-w)*float64(dh+dl)/float64(dh) + w*float64(vh+vl)/float64(vh)))
	default:
		return
	}

	target = min(max(target, sum-vl, 0), vh, sum)

	g.setPlan(level, dense, target)
	g.setPlan(level, sparse, sum-target)
}
