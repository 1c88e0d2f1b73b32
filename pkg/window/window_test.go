package window_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/window"
)

func TestDay(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, window.Day(time.Date(1970, 1, 1, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, 1, window.Day(time.Date(1970, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, window.Day(time.Date(1969, 12, 31, 12, 0, 0, 0, time.UTC)))

	d1 := window.Day(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC))
	d2 := window.Day(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2, d2-d1)
}

func TestNew_RejectsNegativeHorizon(t *testing.T) {
	t.Parallel()

	_, err := window.New(2, 2, -1)
	require.ErrorIs(t, err, window.ErrInvalidHorizon)
}

func TestEvict_OldestFirst(t *testing.T) {
	t.Parallel()

	w, err := window.New(3, 2, 2)
	require.NoError(t, err)

	w.Add(5, 0, 0)
	w.Add(1, 2, 1)
	w.Add(1, 2, 1)
	w.Add(3, 1, 0)

	assert.Equal(t, []int{1, 3, 5}, w.Days())
	assert.Equal(t, 2, w.Count(1, 2, 1))

	type sub struct{ i, j, n int }

	var subs []sub

	evicted := w.Evict(5, func(i, j, n int) { subs = append(subs, sub{i, j, n}) })

	// Day 3 is exactly two days old and stays.
	assert.Equal(t, []int{1}, evicted)
	assert.Equal(t, []sub{{2, 1, 2}}, subs)
	assert.Equal(t, []int{3, 5}, w.Days())
	assert.Equal(t, 0, w.Count(1, 2, 1))

	evicted = w.Evict(9, func(int, int, int) {})
	assert.Equal(t, []int{3, 5}, evicted)
	assert.Equal(t, 0, w.Len())
}

func TestReset(t *testing.T) {
	t.Parallel()

	w, err := window.New(1, 1, 0)
	require.NoError(t, err)

	w.Add(1, 0, 0)
	w.Reset()

	assert.Equal(t, 0, w.Len())
	assert.Equal(t, 0, w.Horizon())
}
