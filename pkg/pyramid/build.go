package pyramid

import "fmt"

// Build fills levels maxLevel-1 down to 0 by summing each 2×2 child block of
// the finest Density and Visibility maps. When withAssignment is set the
// Assignment map is aggregated the same way, which is how the previous
// frame's displayed assignment becomes available at every level.
func (p *Pyramid) Build(withAssignment bool) {
	for level := p.maxLevel - 1; level >= 0; level-- {
		p.reduce(Density, level)
		p.reduce(Visibility, level)

		if withAssignment {
			p.reduce(Assignment, level)
		}
	}
}

func (p *Pyramid) reduce(kind Kind, level int) {
	target := p.maps[kind][level]
	source := p.maps[kind][level+1]
	side := 1 << level
	childSide := side << 1

	for i := range side {
		row1 := (2 * i) * childSide
		row2 := row1 + childSide

		for j := range side {
			c := 2 * j
			target[i*side+j] = source[row1+c] + source[row1+c+1] + source[row2+c] + source[row2+c+1]
		}
	}
}

// Check verifies that every coarse cell of kind equals the sum of its
// children. It is meant for tests and debug assertions.
func (p *Pyramid) Check(kind Kind) error {
	for level := range p.maxLevel {
		side := 1 << level

		for i := range side {
			for j := range side {
				sum := p.Get(kind, level+1, 2*i, 2*j) + p.Get(kind, level+1, 2*i+1, 2*j) +
					p.Get(kind, level+1, 2*i, 2*j+1) + p.Get(kind, level+1, 2*i+1, 2*j+1)

				if got := p.Get(kind, level, i, j); got != sum {
					return fmt.Errorf("%w: %s (%d, %d, %d) = %d, children sum %d",
						ErrConservation, kind, level, i, j, got, sum)
				}
			}
		}
	}

	return nil
}

// DeriveVisibility sets finest Visibility to 1 where Density > 0 and 0
// elsewhere, and clears padding cells beyond the bin rectangle.
func (p *Pyramid) DeriveVisibility(horizontal, vertical int) {
	side := 1 << p.maxLevel
	density := p.maps[Density][p.maxLevel]
	visibility := p.maps[Visibility][p.maxLevel]

	for i := range side {
		for j := range side {
			idx := i*side + j

			switch {
			case i >= horizontal || j >= vertical:
				density[idx] = 0
				visibility[idx] = 0
			case density[idx] > 0:
				visibility[idx] = 1
			default:
				visibility[idx] = 0
			}
		}
	}
}
