package sampler

import (
	"maps"
	"math/rand/v2"
)

// representative is the point a finest bin reports when it displays a seed.
type representative struct {
	id    uint64
	x, y  float64
	class uint32
	seen  int
	set   bool
}

// cellStore holds one representative per bin and, per bin, the latest point
// identifier elected for each class label.
type cellStore struct {
	reps     []representative
	index    []map[uint32]uint64
	vertical int

	rng         *rand.Rand
	probability float64
	reservoir   bool
}

func newCellStore(horizontal, vertical int, rng *rand.Rand) *cellStore {
	return &cellStore{
		reps:     make([]representative, horizontal*vertical),
		index:    make([]map[uint32]uint64, horizontal*vertical),
		vertical: vertical,
		rng:      rng,
	}
}

func (s *cellStore) configure(probability float64, reservoir bool) {
	s.probability = probability
	s.reservoir = reservoir
}

func (s *cellStore) reset() {
	clear(s.reps)
	clear(s.index)
}

// observe offers p to bin (i, j). empty is true when the bin's live density
// is zero before p is counted, in which case p is always elected.
func (s *cellStore) observe(i, j int, p Point, empty bool) {
	idx := i*s.vertical + j
	rep := &s.reps[idx]

	if empty {
		rep.seen = 0
	}

	rep.seen++

	if !empty && !s.replace(rep.seen) {
		return
	}

	rep.id, rep.x, rep.y, rep.class, rep.set = p.ID, p.X, p.Y, p.Class, true

	if s.index[idx] == nil {
		s.index[idx] = make(map[uint32]uint64, 1)
	}

	s.index[idx][p.Class] = p.ID
}

func (s *cellStore) replace(seen int) bool {
	if s.reservoir {
		return s.rng.IntN(seen) == 0
	}

	return s.rng.Float64() < s.probability
}

// seed returns the representative of bin (i, j). ok is false when no point
// has ever landed there.
func (s *cellStore) seed(i, j int) (Seed, bool) {
	idx := i*s.vertical + j
	rep := s.reps[idx]

	if !rep.set {
		return Seed{}, false
	}

	return Seed{ID: rep.id, X: rep.x, Y: rep.y, Class: rep.class, I: i, J: j}, true
}

// classes returns a copy of the class-to-identifier index of bin (i, j).
func (s *cellStore) classes(i, j int) map[uint32]uint64 {
	return maps.Clone(s.index[i*s.vertical+j])
}
