package safeconv_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/safeconv"
)

func TestMustIntToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(0), safeconv.MustIntToUint32(0))
	assert.Equal(t, uint32(math.MaxUint32), safeconv.MustIntToUint32(math.MaxUint32))

	assert.PanicsWithValue(t, "safeconv: int to uint32 out of bounds", func() {
		safeconv.MustIntToUint32(-1)
	})
	assert.PanicsWithValue(t, "safeconv: int to uint32 out of bounds", func() {
		safeconv.MustIntToUint32(math.MaxUint32 + 1)
	})
}

func TestMustUintToUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, uint32(7), safeconv.MustUintToUint32(7))

	assert.PanicsWithValue(t, "safeconv: uint to uint32 overflow", func() {
		safeconv.MustUintToUint32(math.MaxUint32 + 1)
	})
}
