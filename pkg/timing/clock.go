// Package timing provides the clocks used by the pulse capture and replay loops.
//
// Both clocks are free-running 32-bit tick counters, one in milliseconds and one
// in microseconds. Differences are taken modulo 2^32 so a counter that wraps in
// the middle of a measurement still yields the right elapsed value.
package timing

import "time"

// Ticks is a reading of a wrapping 32-bit counter.
type Ticks uint32

// Since returns the ticks elapsed from start to t, robust to one wraparound.
func (t Ticks) Since(start Ticks) uint32 {
	return uint32(t - start)
}

// Clock is the time source for busy-wait loops.
type Clock interface {
	// Millis returns the millisecond counter, used for timeout windows.
	Millis() Ticks
	// Micros returns the microsecond counter, used for pulse widths.
	Micros() Ticks
	// Delay blocks for exactly us microseconds without yielding.
	Delay(us uint32)
}

// Millis converts a duration to a millisecond tick count.
func Millis(d time.Duration) uint32 {
	return uint32(d / time.Millisecond)
}
