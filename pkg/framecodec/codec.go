// Package framecodec compresses per-frame seed sets for the sampler's frame
// history. A frame is stored as the ascending list of occupied finest-cell
// offsets, delta-encoded and packed with LZ4.
package framecodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"

	"github.com/pierrec/lz4/v4"
)

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

// Block encodings.
const (
	encodingRaw byte = iota
	encodingLZ4
)

var (
	// ErrCorrupt is returned when a block cannot be decoded.
	ErrCorrupt = errors.New("framecodec: corrupt block")

	// ErrUnsorted is returned when offsets are not strictly ascending.
	ErrUnsorted = errors.New("framecodec: offsets must be strictly ascending")
)

// Block is one encoded frame.
type Block struct {
	data  []byte
	count int
}

// Len returns the number of offsets in the block.
func (b Block) Len() int {
	return b.count
}

// Size returns the encoded size in bytes.
func (b Block) Size() int {
	return len(b.data)
}

// Encode packs strictly ascending offsets into a block. The input is not modified.
func Encode(offsets []uint32) (Block, error) {
	for idx := 1; idx < len(offsets); idx++ {
		if offsets[idx] <= offsets[idx-1] {
			return Block{}, fmt.Errorf("%w: %d after %d", ErrUnsorted, offsets[idx], offsets[idx-1])
		}
	}

	deltas := slices.Clone(offsets)
	DeltaEncode(deltas)

	raw := make([]byte, len(deltas)*uint32ByteSize)
	for idx, v := range deltas {
		binary.LittleEndian.PutUint32(raw[idx*uint32ByteSize:], v)
	}

	compressed := make([]byte, 1+lz4.CompressBlockBound(len(raw)))

	written, err := lz4.CompressBlock(raw, compressed[1:], nil)
	if err != nil {
		return Block{}, fmt.Errorf("lz4 compress: %w", err)
	}

	// Incompressible input reports zero bytes written.
	if written == 0 || written >= len(raw) {
		data := make([]byte, 1+len(raw))
		data[0] = encodingRaw
		copy(data[1:], raw)

		return Block{data: data, count: len(offsets)}, nil
	}

	compressed[0] = encodingLZ4

	return Block{data: compressed[:1+written], count: len(offsets)}, nil
}

// Decode restores the offsets stored in a block.
func Decode(b Block) ([]uint32, error) {
	if b.count == 0 {
		return nil, nil
	}

	if len(b.data) == 0 {
		return nil, ErrCorrupt
	}

	raw := make([]byte, b.count*uint32ByteSize)

	switch b.data[0] {
	case encodingRaw:
		if len(b.data)-1 != len(raw) {
			return nil, ErrCorrupt
		}

		copy(raw, b.data[1:])
	case encodingLZ4:
		n, err := lz4.UncompressBlock(b.data[1:], raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}

		if n != len(raw) {
			return nil, ErrCorrupt
		}
	default:
		return nil, ErrCorrupt
	}

	offsets := make([]uint32, b.count)
	for idx := range offsets {
		offsets[idx] = binary.LittleEndian.Uint32(raw[idx*uint32ByteSize:])
	}

	DeltaDecode(offsets)

	return offsets, nil
}

// DeltaEncode replaces each element with the difference from its
// predecessor, in place. The first element is left unchanged.
func DeltaEncode(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// DeltaDecode performs a prefix sum restoring values produced by DeltaEncode.
func DeltaDecode(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
