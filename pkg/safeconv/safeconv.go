// Package safeconv converts between integer types and panics when a value
// does not fit. Callers use it where the range is already guaranteed, such
// as bin offsets bounded by the grid size.
package safeconv

import "math"

// MustIntToUint32 converts v, panicking when it is negative or above MaxUint32.
func MustIntToUint32(v int) uint32 {
	if v < 0 || v > math.MaxUint32 {
		panic("safeconv: int to uint32 out of bounds")
	}

	return uint32(v)
}

// MustUintToUint32 converts v, panicking above MaxUint32.
func MustUintToUint32(v uint) uint32 {
	if v > math.MaxUint32 {
		panic("safeconv: uint to uint32 overflow")
	}

	return uint32(v)
}
