package framecodec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/framecodec"
)

func TestEncodeDecode_DenseFrame(t *testing.T) {
	t.Parallel()

	offsets := make([]uint32, 0, 4096)
	for v := uint32(100); v < 100+4096*3; v += 3 {
		offsets = append(offsets, v)
	}

	block, err := framecodec.Encode(offsets)
	require.NoError(t, err)
	assert.Equal(t, len(offsets), block.Len())
	assert.Less(t, block.Size(), len(offsets)*4, "regular deltas should compress")

	decoded, err := framecodec.Decode(block)
	require.NoError(t, err)
	assert.Equal(t, offsets, decoded)
}

func TestEncodeDecode_SmallFrameStoredRaw(t *testing.T) {
	t.Parallel()

	offsets := []uint32{7, 1000, 65536}

	block, err := framecodec.Encode(offsets)
	require.NoError(t, err)

	decoded, err := framecodec.Decode(block)
	require.NoError(t, err)
	assert.Equal(t, offsets, decoded)
	assert.Equal(t, []uint32{7, 1000, 65536}, offsets, "input must not be modified")
}

func TestEncodeDecode_Empty(t *testing.T) {
	t.Parallel()

	block, err := framecodec.Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, block.Len())

	decoded, err := framecodec.Decode(block)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestEncode_RejectsUnsorted(t *testing.T) {
	t.Parallel()

	_, err := framecodec.Encode([]uint32{3, 3})
	require.ErrorIs(t, err, framecodec.ErrUnsorted)

	_, err = framecodec.Encode([]uint32{5, 2})
	require.ErrorIs(t, err, framecodec.ErrUnsorted)
}

func TestDelta_RoundTrip(t *testing.T) {
	t.Parallel()

	data := []uint32{2, 5, 9, 20}
	framecodec.DeltaEncode(data)
	assert.Equal(t, []uint32{2, 3, 4, 11}, data)

	framecodec.DeltaDecode(data)
	assert.Equal(t, []uint32{2, 5, 9, 20}, data)
}
