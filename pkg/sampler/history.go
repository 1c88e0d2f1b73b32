package sampler

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/framecodec"
)

// ErrFrameOutOfRange is returned when a frame index was never produced or has
// been dropped from the history.
var ErrFrameOutOfRange = errors.New("sampler: frame index out of range")

// history keeps the displayed set of every frame as a compressed block.
// With a limit, only the newest limit frames are retained.
type history struct {
	blocks []framecodec.Block
	first  int // index of blocks[0].
	limit  int
}

func (h *history) reset() {
	h.blocks = h.blocks[:0]
	h.first = 0
}

// next returns the index the next appended frame will get.
func (h *history) next() int {
	return h.first + len(h.blocks)
}

func (h *history) append(s *Snapshot) error {
	block, err := framecodec.Encode(s.Offsets())
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", h.next(), err)
	}

	h.blocks = append(h.blocks, block)
	h.trim()

	return nil
}

func (h *history) setLimit(limit int) {
	h.limit = limit
	h.trim()
}

func (h *history) trim() {
	if h.limit == 0 || len(h.blocks) <= h.limit {
		return
	}

	drop := len(h.blocks) - h.limit
	h.blocks = append(h.blocks[:0], h.blocks[drop:]...)
	h.first += drop
}

// offsets decodes the bin offsets displayed by frame idx.
func (h *history) offsets(idx int) ([]uint32, error) {
	if idx < h.first || idx >= h.next() {
		return nil, fmt.Errorf("%w: %d not in [%d, %d)", ErrFrameOutOfRange, idx, h.first, h.next())
	}

	offsets, err := framecodec.Decode(h.blocks[idx-h.first])
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", idx, err)
	}

	return offsets, nil
}

// bytes returns the total encoded size of the retained frames.
func (h *history) bytes() int {
	total := 0
	for _, b := range h.blocks {
		total += b.Size()
	}

	return total
}
