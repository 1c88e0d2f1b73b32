package sampler_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/pyramid"
	"github.com/Sumatoshi-tech/seedpyramid/pkg/sampler"
)

// plane builds a side×side finest plane with the given cells set to 1.
func plane(side int, cells ...sampler.Cell) []int {
	out := make([]int, side*side)
	for _, c := range cells {
		out[c.I*side+c.J] = 1
	}

	return out
}

func TestDiff_FirstFrameComparesEverything(t *testing.T) {
	t.Parallel()

	in := sampler.DiffInput{
		Assignment: plane(4, sampler.Cell{I: 0, J: 1}, sampler.Cell{I: 2, J: 0}),
		Visibility: plane(4, sampler.Cell{I: 0, J: 1}, sampler.Cell{I: 2, J: 0}, sampler.Cell{I: 1, J: 1}),
		Side:       4,
		Horizontal: 3,
		Vertical:   2,
	}

	diff, next := sampler.Diff(in)

	assert.Empty(t, diff.Removed)
	assert.Equal(t, []sampler.Cell{{I: 2, J: 0}, {I: 0, J: 1}}, diff.Added)
	assert.Equal(t, 6, diff.Inspected)
	assert.Equal(t, 2, next.Len())
	assert.Equal(t, []uint32{1, 4}, next.Offsets())
}

func TestDiff_IsIdempotent(t *testing.T) {
	t.Parallel()

	_, prev := sampler.Diff(sampler.DiffInput{
		Assignment: plane(4, sampler.Cell{I: 0, J: 0}, sampler.Cell{I: 1, J: 1}),
		Visibility: plane(4, sampler.Cell{I: 0, J: 0}, sampler.Cell{I: 1, J: 1}),
		Side:       4,
		Horizontal: 4,
		Vertical:   4,
	})

	changes := pyramid.NewChangeMap(2)
	changes.SetChanged(1, 0, 0)

	in := sampler.DiffInput{
		Previous:   prev,
		Assignment: plane(4, sampler.Cell{I: 1, J: 0}, sampler.Cell{I: 3, J: 3}),
		Visibility: plane(4, sampler.Cell{I: 1, J: 0}, sampler.Cell{I: 1, J: 1}, sampler.Cell{I: 3, J: 3}),
		Side:       4,
		Changed:    changes,
		Horizontal: 4,
		Vertical:   4,
	}

	first, nextA := sampler.Diff(in)
	second, nextB := sampler.Diff(in)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("diff not idempotent (-first +second):\n%s", diff)
	}

	assert.Equal(t, nextA.Offsets(), nextB.Offsets())
	assert.Equal(t, []uint32{0, 5}, prev.Offsets(), "previous snapshot must not change")

	// (3, 3) lies outside the changed block and is not picked up.
	assert.Equal(t, []sampler.Cell{{I: 0, J: 0}, {I: 1, J: 1}}, first.Removed)
	assert.Equal(t, []sampler.Cell{{I: 1, J: 0}}, first.Added)
	assert.Equal(t, 4, first.Inspected)
}

func TestDiff_EvictsInvisibleCellsOutsideChangedRegion(t *testing.T) {
	t.Parallel()

	_, prev := sampler.Diff(sampler.DiffInput{
		Assignment: plane(2, sampler.Cell{I: 1, J: 1}),
		Visibility: plane(2, sampler.Cell{I: 1, J: 1}),
		Side:       2,
		Horizontal: 2,
		Vertical:   2,
	})

	diff, next := sampler.Diff(sampler.DiffInput{
		Previous:   prev,
		Assignment: plane(2),
		Visibility: plane(2),
		Side:       2,
		Changed:    pyramid.NewChangeMap(1),
		Horizontal: 2,
		Vertical:   2,
	})

	require.Equal(t, []sampler.Cell{{I: 1, J: 1}}, diff.Removed)
	assert.Empty(t, diff.Added)
	assert.Zero(t, diff.Inspected)
	assert.Zero(t, next.Len())
	assert.False(t, next.Shown(1, 1))
}
