package watcher

import (
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

// velocityWindow keeps the processing time, in seconds, of the most recent blocks.
type velocityWindow struct {
	mu        sync.Mutex
	intervals stats.Float64Data
	size      int
	max       float64
}

func newVelocityWindow(size int) *velocityWindow {
	size = max(size, 1)
	return &velocityWindow{intervals: make(stats.Float64Data, 0, size), size: size}
}

// record adds the read and handle time of one block and returns the updated velocity.
func (v *velocityWindow) record(interval time.Duration) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.intervals) == v.size {
		copy(v.intervals, v.intervals[1:])
		v.intervals = v.intervals[:v.size-1]
	}
	v.intervals = append(v.intervals, interval.Seconds())

	velocity, _ := v.currentLocked()
	v.max = max(v.max, velocity)

	return velocity
}

// current returns the blocks per second, the mean seconds per block and the highest velocity seen.
func (v *velocityWindow) current() (velocity, interval, maxVelocity float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	velocity, interval = v.currentLocked()

	return velocity, interval, v.max
}

func (v *velocityWindow) currentLocked() (velocity, interval float64) {
	mean, err := v.intervals.Mean()
	if err != nil || mean <= 0 {
		return 0, 0
	}

	return 1 / mean, mean
}
