package sampler

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/pyramid"
)

// cell addresses a pyramid cell within one level.
type cell struct {
	i, j int
}

// generator splits the root budget down the pyramid. The pyramid carries the
// current Density and Visibility, and on incremental frames the previous
// frame's aggregated Assignment, which stays read-only here. New assignments
// go to plan.
type generator struct {
	py      *pyramid.Pyramid
	changes *pyramid.ChangeMap
	plan    [][]int // per level, indexed i*side+j.
	opts    Options
	// incremental enables change detection against the previous frame.
	incremental bool
}

func newPlan(maxLevel int) [][]int {
	plan := make([][]int, maxLevel+1)
	for level := range plan {
		side := 1 << level
		plan[level] = make([]int, side*side)
	}

	return plan
}

// run fills plan level by level and returns the finest level.
func (g *generator) run() []int {
	maxLevel := g.py.MaxLevel()

	g.plan[0][0] = g.py.Get(pyramid.Visibility, 0, 0, 0)

	for parent := range maxLevel {
		level := parent + 1
		clear(g.plan[level])

		side := 1 << parent
		for j := range side {
			for i := range side {
				if budget := g.plan[parent][i*side+j]; budget > 0 {
					g.split(parent, i, j, budget)
				}
			}
		}

		if level > 1 {
			g.refine(level)

			if g.incremental {
				g.examineAdjacent(level)
			}
		}

		g.assertBudget(level)
	}

	return g.plan[maxLevel]
}

func (g *generator) split(parent, i, j, budget int) {
	vp := g.py.Get(pyramid.Visibility, parent, i, j)
	if vp == 0 {
		return
	}

	level := parent + 1
	children := [4]cell{{2 * i, 2 * j}, {2*i + 1, 2 * j}, {2 * i, 2*j + 1}, {2*i + 1, 2*j + 1}}

	markChanged := g.incremental && !g.changes.IsChanged(parent, i, j) && g.regionChanged(parent, i, j, children)

	if level < g.opts.StopLevel {
		g.splitWeighted(level, children, budget, vp, g.py.Get(pyramid.Density, parent, i, j))
	} else {
		g.splitVisible(level, children, budget, vp)
	}

	if markChanged {
		g.changes.SetChanged(parent, i, j)
	}
}

// splitWeighted gives the densest child its visibility share, scales the
// other high-density children by the same points-per-seed ratio and boosts
// the low-density ones.
func (g *generator) splitWeighted(level int, children [4]cell, budget, vp, dp int) {
	var lowBuf, highBuf [4]cell

	low, high := g.classify(level, children, lowBuf[:0], highBuf[:0])

	top := high[0]
	topV := g.visibility(level, top)
	assigned := min(ceilDiv(topV*budget, vp), topV, budget)
	g.setPlan(level, top, assigned)

	ratio := float64(assigned) / float64(g.density(level, top))
	remain := budget - assigned

	for _, c := range high[1:] {
		if remain <= 0 {
			break
		}

		d := g.density(level, c)
		if d == 0 {
			break
		}

		share := min(roundInt(ratio*float64(d)), g.visibility(level, c), remain)
		g.setPlan(level, c, share)
		remain -= share
	}

	if len(low) > 0 {
		g.boost(level, low, high, ratio, vp, dp)
	}
}

// classify puts the densest child first in high, the remaining children at
// or above DensityThreshold × max after it in descending density, and the
// rest in low.
func (g *generator) classify(level int, children [4]cell, low, high []cell) ([]cell, []cell) {
	top := 0
	for idx := 1; idx < len(children); idx++ {
		if g.density(level, children[idx]) > g.density(level, children[top]) {
			top = idx
		}
	}

	threshold := g.opts.DensityThreshold * float64(g.density(level, children[top]))
	high = append(high, children[top])

	for idx, c := range children {
		switch {
		case idx == top:
		case float64(g.density(level, c)) < threshold:
			low = append(low, c)
		default:
			high = append(high, c)
		}
	}

	slices.SortStableFunc(high[1:], func(a, b cell) int {
		return cmp.Compare(g.density(level, b), g.density(level, a))
	})

	return low, high
}

// boost raises low-density children above their plain density share. The
// boosted total blends the density ratio and the visibility ratio of the low
// group against the high group by OutlierWeight.
func (g *generator) boost(level int, low, high []cell, ratio float64, vp, dp int) {
	var lowD, lowV int

	for _, c := range low {
		lowD += g.density(level, c)
		lowV += g.visibility(level, c)
	}

	if lowD == 0 {
		return
	}

	highD, highV := dp-lowD, vp-lowV
	if highD <= 0 || highV <= 0 {
		return
	}

	highAssigned := 0
	for _, c := range high {
		highAssigned += g.planAt(level, c)
	}

	w := g.opts.OutlierWeight
	share := (1-w)*float64(lowD)/float64(highD) + w*float64(lowV)/float64(highV)
	lowAssigned := roundInt(float64(highAssigned) * share)

	for _, c := range low {
		v := g.visibility(level, c)
		if v == 0 {
			continue
		}

		boosted := ceilDiv(v*lowAssigned, lowV)
		plain := min(roundInt(ratio*float64(g.density(level, c))), v)
		g.setPlan(level, c, min(v, max(boosted, plain)))
	}
}

// splitVisible hands out the budget by visibility share, densest child first.
func (g *generator) splitVisible(level int, children [4]cell, budget, vp int) {
	order := children

	slices.SortStableFunc(order[:], func(a, b cell) int {
		return cmp.Compare(g.density(level, b), g.density(level, a))
	})

	remain := budget

	for _, c := range order {
		if remain <= 0 {
			break
		}

		v := g.visibility(level, c)
		share := min(ceilDiv(budget*v, vp), v, remain)
		g.setPlan(level, c, share)
		remain -= share
	}
}

func (g *generator) assertBudget(level int) {
	side := 1 << level
	row := g.plan[level]
	visible := g.py.Level(pyramid.Visibility, level)

	for idx, a := range row {
		if a < 0 || a > visible[idx] {
			panic(fmt.Sprintf("sampler: assignment %d outside [0, %d] at level %d cell (%d, %d)",
				a, visible[idx], level, idx/side, idx%side))
		}
	}
}

func (g *generator) density(level int, c cell) int {
	return g.py.Get(pyramid.Density, level, c.i, c.j)
}

func (g *generator) visibility(level int, c cell) int {
	return g.py.Get(pyramid.Visibility, level, c.i, c.j)
}

func (g *generator) previous(level int, c cell) int {
	return g.py.Get(pyramid.Assignment, level, c.i, c.j)
}

func (g *generator) planAt(level int, c cell) int {
	return g.plan[level][c.i<<level+c.j]
}

func (g *generator) setPlan(level int, c cell, val int) {
	g.plan[level][c.i<<level+c.j] = val
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
