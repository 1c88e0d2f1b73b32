package sampler

import "time"

// Point is one input record, already scaled into the sampler's bounds.
type Point struct {
	// ID is unique per ingested point and assigned monotonically by the reader.
	ID    uint64
	X, Y  float64
	Class uint32
	// Date is required in streaming mode and ignored otherwise.
	Date time.Time
}

// Batch is the set of points received for one frame.
type Batch []Point

// Seed is a representative point reported by a frame.
type Seed struct {
	ID    uint64  `json:"id"    yaml:"id"`
	X     float64 `json:"x"     yaml:"x"`
	Y     float64 `json:"y"     yaml:"y"`
	Class uint32  `json:"class" yaml:"class"`
	// I and J locate the finest-level cell the seed stands for.
	I int `json:"i" yaml:"i"`
	J int `json:"j" yaml:"j"`
}

// Frame is the outcome of one Execute call.
type Frame struct {
	Index    int
	Removed  []Seed
	Added    []Seed
	Snapshot *Snapshot
	// Inspected is the number of bins compared by the differ.
	Inspected int
	// Evicted is the number of day buckets dropped from the time window.
	Evicted int
}
