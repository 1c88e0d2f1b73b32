// Package pyramid implements the multi-resolution aggregation arena behind the
// seed sampler.
//
// A Pyramid holds three co-indexed quad-tree shaped maps (Density, Visibility
// and Assignment) as flat per-level arrays. Level L has 2^L × 2^L cells and
// cell (L, i, j) has children (L+1, 2i+{0,1}, 2j+{0,1}). Parent and child
// relationships are pure index arithmetic; there are no node objects.
package pyramid

import (
	"errors"
	"fmt"
)

// ErrConservation is returned by Check when a coarse cell does not equal the
// sum of its children.
var ErrConservation = errors.New("pyramid: level sum does not match children")

// Kind selects one of the three maps of a pyramid.
type Kind uint8

// Map kinds.
const (
	Density Kind = iota
	Visibility
	Assignment
	numKinds
)

// String returns the map name.
func (k Kind) String() string {
	switch k {
	case Density:
		return "density"
	case Visibility:
		return "visibility"
	case Assignment:
		return "assignment"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Pyramid is a fixed-depth arena of per-level count maps. It owns no points.
type Pyramid struct {
	maps     [numKinds][][]int // kind -> level -> flattened side×side cells.
	maxLevel int
}

// New allocates a pyramid with levels 0..maxLevel. It panics on a negative level.
func New(maxLevel int) *Pyramid {
	if maxLevel < 0 {
		panic("pyramid: negative max level")
	}

	py := &Pyramid{maxLevel: maxLevel}

	for kind := range py.maps {
		py.maps[kind] = make([][]int, maxLevel+1)

		for level := range py.maps[kind] {
			side := 1 << level
			py.maps[kind][level] = make([]int, side*side)
		}
	}

	return py
}

// MaxLevel returns the finest level index.
func (p *Pyramid) MaxLevel() int {
	return p.maxLevel
}

// Side returns the number of cells along one edge of level.
func (p *Pyramid) Side(level int) int {
	p.mustLevel(level)

	return 1 << level
}

// Get returns the value of a cell.
func (p *Pyramid) Get(kind Kind, level, i, j int) int {
	return p.maps[kind][level][p.offset(level, i, j)]
}

// Set stores the value of a cell.
func (p *Pyramid) Set(kind Kind, level, i, j, val int) {
	p.maps[kind][level][p.offset(level, i, j)] = val
}

// Add adds delta to a cell and returns the new value.
func (p *Pyramid) Add(kind Kind, level, i, j, delta int) int {
	idx := p.offset(level, i, j)
	p.maps[kind][level][idx] += delta

	return p.maps[kind][level][idx]
}

// Level exposes the backing array of one map level, indexed i*side+j.
// Callers own the consistency of any writes.
func (p *Pyramid) Level(kind Kind, level int) []int {
	p.mustLevel(level)

	return p.maps[kind][level]
}

// Reset zeroes every map at every level.
func (p *Pyramid) Reset() {
	for kind := range p.maps {
		for level := range p.maps[kind] {
			clear(p.maps[kind][level])
		}
	}
}

func (p *Pyramid) offset(level, i, j int) int {
	side := 1 << level
	if level < 0 || level > p.maxLevel || i < 0 || j < 0 || i >= side || j >= side {
		panic(fmt.Sprintf("pyramid: cell (%d, %d, %d) out of range for max level %d", level, i, j, p.maxLevel))
	}

	return i*side + j
}

func (p *Pyramid) mustLevel(level int) {
	if level < 0 || level > p.maxLevel {
		panic(fmt.Sprintf("pyramid: level %d out of range [0, %d]", level, p.maxLevel))
	}
}
