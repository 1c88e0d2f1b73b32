package pyramid

// ChangeMap is a finest-level bitmap of regions that must be recomputed in
// the current frame. Marks are addressed at any pyramid level and cover the
// whole finest-level block beneath that cell.
type ChangeMap struct {
	bits     []bool
	maxLevel int
	side     int
}

// NewChangeMap allocates an all-false bitmap for a pyramid of the given depth.
func NewChangeMap(maxLevel int) *ChangeMap {
	side := 1 << maxLevel

	return &ChangeMap{
		bits:     make([]bool, side*side),
		maxLevel: maxLevel,
		side:     side,
	}
}

// Reset sets every finest cell to val.
func (c *ChangeMap) Reset(val bool) {
	for idx := range c.bits {
		c.bits[idx] = val
	}
}

// IsChanged reads the mark of (level, i, j) at the origin of its finest block.
func (c *ChangeMap) IsChanged(level, i, j int) bool {
	block := c.block(level, i, j)

	return c.bits[(block*i)*c.side+block*j]
}

// SetChanged marks the whole finest block beneath (level, i, j).
func (c *ChangeMap) SetChanged(level, i, j int) {
	block := c.block(level, i, j)
	row0, col0 := block*i, block*j

	for row := row0; row < row0+block; row++ {
		cells := c.bits[row*c.side+col0 : row*c.side+col0+block]
		for idx := range cells {
			cells[idx] = true
		}
	}
}

// Finest reports whether the finest cell (i, j) is marked.
func (c *ChangeMap) Finest(i, j int) bool {
	return c.bits[i*c.side+j]
}

// Count returns the number of marked finest cells.
func (c *ChangeMap) Count() int {
	n := 0

	for _, b := range c.bits {
		if b {
			n++
		}
	}

	return n
}

func (c *ChangeMap) block(level, i, j int) int {
	if level < 0 || level > c.maxLevel || i < 0 || j < 0 || i >= 1<<level || j >= 1<<level {
		panic("pyramid: change map cell out of range")
	}

	return 1 << (c.maxLevel - level)
}
