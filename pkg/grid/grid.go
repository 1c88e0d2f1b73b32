// Package grid maps screen-space coordinates onto the finest-level bins of a
// density pyramid.
//
// A canvas rectangle of width W and height H divided into square bins of
// side g yields floor(W/g)+1 horizontal and floor(H/g)+1 vertical bins. The
// pyramid that covers them has max level ceil(log2(max(h, v))), so its finest
// level is a 2^max × 2^max square that may extend past the bins on the right
// and bottom. Those padding cells are never occupied.
package grid

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

var (
	// ErrInvalidBounds is returned when the canvas rectangle has a non-positive width or height.
	ErrInvalidBounds = errors.New("grid: bounding rectangle must have positive width and height")

	// ErrInvalidGridWidth is returned when the bin size is not positive.
	ErrInvalidGridWidth = errors.New("grid: grid width must be positive")

	// ErrTooManyBins is returned when the bin count exceeds the supported pyramid depth.
	ErrTooManyBins = errors.New("grid: bin count exceeds maximum pyramid depth")
)

// MaxLevel is the deepest pyramid the geometry accepts (a 8192 × 8192 finest level).
const MaxLevel = 13

// Rect is a screen-space rectangle.
type Rect struct {
	Left   float64 `json:"left"   yaml:"left"`
	Top    float64 `json:"top"    yaml:"top"`
	Width  float64 `json:"width"  yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Geometry describes the binning of a canvas rectangle.
type Geometry struct {
	Bounds     Rect
	GridWidth  float64
	Horizontal int
	Vertical   int
	MaxLevel   int
}

// New computes the bin geometry for a canvas rectangle and bin size.
func New(bounds Rect, gridWidth float64) (Geometry, error) {
	if !(bounds.Width > 0) || !(bounds.Height > 0) {
		return Geometry{}, fmt.Errorf("%w: %gx%g", ErrInvalidBounds, bounds.Width, bounds.Height)
	}

	if !(gridWidth > 0) {
		return Geometry{}, fmt.Errorf("%w: %g", ErrInvalidGridWidth, gridWidth)
	}

	horizontal := int(math.Floor(bounds.Width/gridWidth)) + 1
	vertical := int(math.Floor(bounds.Height/gridWidth)) + 1

	level := LevelFor(max(horizontal, vertical))
	if level > MaxLevel {
		return Geometry{}, fmt.Errorf("%w: %d bins need level %d", ErrTooManyBins, max(horizontal, vertical), level)
	}

	return Geometry{
		Bounds:     bounds,
		GridWidth:  gridWidth,
		Horizontal: horizontal,
		Vertical:   vertical,
		MaxLevel:   level,
	}, nil
}

// LevelFor returns the smallest level L with 2^L >= n. n <= 1 yields 0.
func LevelFor(n int) int {
	if n <= 1 {
		return 0
	}

	return bits.Len(uint(n - 1))
}

// Side returns the number of cells along one edge of the finest level.
func (g Geometry) Side() int {
	return 1 << g.MaxLevel
}

// Bin maps a screen position to its finest-level cell. ok is false when the
// position falls outside the bin rectangle.
func (g Geometry) Bin(x, y float64) (i, j int, ok bool) {
	fi := math.Floor((x - g.Bounds.Left) / g.GridWidth)
	fj := math.Floor((y - g.Bounds.Top) / g.GridWidth)

	if math.IsNaN(fi) || math.IsNaN(fj) {
		return 0, 0, false
	}

	if fi < 0 || fj < 0 || fi >= float64(g.Horizontal) || fj >= float64(g.Vertical) {
		return 0, 0, false
	}

	return int(fi), int(fj), true
}

// CellOrigin returns the screen position of the top-left corner of a finest cell.
func (g Geometry) CellOrigin(i, j int) (x, y float64) {
	return float64(i)*g.GridWidth + g.Bounds.Left, float64(j)*g.GridWidth + g.Bounds.Top
}

// SameGrid reports whether two geometries bin points identically.
func (g Geometry) SameGrid(other Geometry) bool {
	return g.Bounds == other.Bounds && g.GridWidth == other.GridWidth
}
