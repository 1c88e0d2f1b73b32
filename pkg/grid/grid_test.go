package grid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/grid"
)

func TestNew_BinCounts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		bounds    grid.Rect
		gridWidth float64
		wantH     int
		wantV     int
		wantLevel int
	}{
		{
			name:      "default_canvas",
			bounds:    grid.Rect{Left: 20, Top: 20, Width: 1540, Height: 840},
			gridWidth: 2,
			wantH:     771,
			wantV:     421,
			wantLevel: 10,
		},
		{
			name:      "tiny_canvas",
			bounds:    grid.Rect{Width: 1, Height: 1},
			gridWidth: 1,
			wantH:     2,
			wantV:     2,
			wantLevel: 1,
		},
		{
			name:      "exact_power_of_two",
			bounds:    grid.Rect{Width: 7, Height: 3},
			gridWidth: 1,
			wantH:     8,
			wantV:     4,
			wantLevel: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			geo, err := grid.New(tt.bounds, tt.gridWidth)
			require.NoError(t, err)
			assert.Equal(t, tt.wantH, geo.Horizontal)
			assert.Equal(t, tt.wantV, geo.Vertical)
			assert.Equal(t, tt.wantLevel, geo.MaxLevel)
			assert.GreaterOrEqual(t, geo.Side(), max(geo.Horizontal, geo.Vertical))
		})
	}
}

func TestNew_RejectsInvalidConfiguration(t *testing.T) {
	t.Parallel()

	_, err := grid.New(grid.Rect{Width: 0, Height: 10}, 1)
	require.ErrorIs(t, err, grid.ErrInvalidBounds)

	_, err = grid.New(grid.Rect{Width: 10, Height: -1}, 1)
	require.ErrorIs(t, err, grid.ErrInvalidBounds)

	_, err = grid.New(grid.Rect{Width: 10, Height: 10}, 0)
	require.ErrorIs(t, err, grid.ErrInvalidGridWidth)

	_, err = grid.New(grid.Rect{Width: 1e6, Height: 10}, 1)
	require.ErrorIs(t, err, grid.ErrTooManyBins)
}

func TestLevelFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, grid.LevelFor(0))
	assert.Equal(t, 0, grid.LevelFor(1))
	assert.Equal(t, 1, grid.LevelFor(2))
	assert.Equal(t, 2, grid.LevelFor(3))
	assert.Equal(t, 2, grid.LevelFor(4))
	assert.Equal(t, 3, grid.LevelFor(5))
	assert.Equal(t, 13, grid.LevelFor(8192))
}

func TestBin(t *testing.T) {
	t.Parallel()

	geo, err := grid.New(grid.Rect{Left: 10, Top: 20, Width: 8, Height: 8}, 2)
	require.NoError(t, err)

	i, j, ok := geo.Bin(10, 20)
	require.True(t, ok)
	assert.Equal(t, 0, i)
	assert.Equal(t, 0, j)

	i, j, ok = geo.Bin(13.9, 25)
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, 2, j)

	// The right/bottom edge belongs to the extra bin.
	i, j, ok = geo.Bin(18, 28)
	require.True(t, ok)
	assert.Equal(t, 4, i)
	assert.Equal(t, 4, j)

	_, _, ok = geo.Bin(9.9, 20)
	assert.False(t, ok)

	_, _, ok = geo.Bin(20, 20)
	assert.False(t, ok)

	x, y := geo.CellOrigin(1, 2)
	assert.InDelta(t, 12.0, x, 1e-9)
	assert.InDelta(t, 24.0, y, 1e-9)
}
