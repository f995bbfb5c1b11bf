// Package jitter computes randomized sleep intervals for pollers.
package jitter

import (
	"math/rand"
	"time"
)

// MinDelay is the shortest interval ever returned.
const MinDelay = time.Microsecond

// Policy produces the next sleep interval.
type Policy interface {
	Next() time.Duration
}

// Constant always waits the same interval.
type Constant struct {
	Interval time.Duration
}

func (c Constant) Next() time.Duration {
	return floor(c.Interval)
}

// VariedByRatio waits Interval scaled by a random factor in
// [1-Variance, 1+Variance]. Variance is clamped to [0, 1].
type VariedByRatio struct {
	Interval time.Duration
	Variance float64
}

func (v VariedByRatio) Next() time.Duration {
	variance := min(max(v.Variance, 0), 1)
	factor := 1 + variance*(2*rand.Float64()-1)
	return floor(time.Duration(float64(v.Interval) * factor))
}

// VariedByDuration waits Interval plus or minus up to Variance.
type VariedByDuration struct {
	Interval time.Duration
	Variance time.Duration
}

func (v VariedByDuration) Next() time.Duration {
	variance := v.Variance
	if variance < 0 {
		variance = -variance
	}
	if variance == 0 {
		return floor(v.Interval)
	}
	offset := rand.Int63n(2*int64(variance)+1) - int64(variance)
	return floor(v.Interval + time.Duration(offset))
}

func floor(d time.Duration) time.Duration {
	return max(d, MinDelay)
}
