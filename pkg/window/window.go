// Package window keeps per-day finest-level density contributions so that a
// streaming sampler can evict points older than a fixed time horizon.
//
// Buckets are keyed by calendar day (days since the Unix epoch, UTC) and kept
// in a tree map ordered by day, so eviction walks from the oldest bucket and
// stops at the first one still inside the horizon.
package window

import (
	"errors"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
)

// ErrInvalidHorizon is returned when the time window is negative.
var ErrInvalidHorizon = errors.New("window: time window must not be negative")

const secondsPerDay = 24 * 60 * 60

// Day converts a timestamp to its calendar day number in UTC.
func Day(t time.Time) int {
	sec := t.UTC().Unix()
	day := sec / secondsPerDay

	if sec < 0 && sec%secondsPerDay != 0 {
		day--
	}

	return int(day)
}

// Window is a set of day buckets over a horizontal × vertical bin grid.
// It is not safe for concurrent use.
type Window struct {
	buckets    *treemap.Map // day (int) -> []int bucket, indexed i*vertical+j.
	horizon    int
	horizontal int
	vertical   int
}

// New creates an empty window. horizon is the eviction age in days.
func New(horizontal, vertical, horizon int) (*Window, error) {
	if horizon < 0 {
		return nil, ErrInvalidHorizon
	}

	return &Window{
		buckets:    treemap.NewWith(utils.IntComparator),
		horizon:    horizon,
		horizontal: horizontal,
		vertical:   vertical,
	}, nil
}

// Add records one point received on day in bin (i, j).
func (w *Window) Add(day, i, j int) {
	var bucket []int

	if val, found := w.buckets.Get(day); found {
		bucket = val.([]int)
	} else {
		bucket = make([]int, w.horizontal*w.vertical)
		w.buckets.Put(day, bucket)
	}

	bucket[i*w.vertical+j]++
}

// Evict drops every bucket whose day is more than the horizon before latest.
// subtract is called for each non-zero bin of an evicted bucket so the caller
// can remove the contribution from its live density. It returns the evicted
// days in ascending order.
func (w *Window) Evict(latest int, subtract func(i, j, count int)) []int {
	var evicted []int

	for !w.buckets.Empty() {
		key, val := w.buckets.Min()
		day := key.(int)

		if latest-day <= w.horizon {
			break
		}

		bucket := val.([]int)
		for idx, count := range bucket {
			if count != 0 {
				subtract(idx/w.vertical, idx%w.vertical, count)
			}
		}

		w.buckets.Remove(key)
		evicted = append(evicted, day)
	}

	return evicted
}

// Days returns the retained days in ascending order.
func (w *Window) Days() []int {
	keys := w.buckets.Keys()
	days := make([]int, len(keys))

	for idx, key := range keys {
		days[idx] = key.(int)
	}

	return days
}

// Count returns the number of points recorded for bin (i, j) on day.
func (w *Window) Count(day, i, j int) int {
	val, found := w.buckets.Get(day)
	if !found {
		return 0
	}

	return val.([]int)[i*w.vertical+j]
}

// Len returns the number of retained buckets.
func (w *Window) Len() int {
	return w.buckets.Size()
}

// Horizon returns the eviction age in days.
func (w *Window) Horizon() int {
	return w.horizon
}

// SetHorizon changes the eviction age. Buckets are re-examined on the next Evict.
func (w *Window) SetHorizon(horizon int) error {
	if horizon < 0 {
		return ErrInvalidHorizon
	}

	w.horizon = horizon

	return nil
}

// Reset drops every bucket.
func (w *Window) Reset() {
	w.buckets.Clear()
}
