package timing

// ManualClock is a simulated clock that only moves when told to. It lets
// capture and replay run against synthetic timestamps.
type ManualClock struct {
	now uint64 // microseconds
}

// NewManualClock returns a clock whose microsecond counter starts at start.
func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the absolute simulated time in microseconds.
func (c *ManualClock) Now() uint64 {
	return c.now
}

// Advance moves the clock forward by us microseconds.
func (c *ManualClock) Advance(us uint64) {
	c.now += us
}

// Millis implements Clock.
func (c *ManualClock) Millis() Ticks {
	return Ticks(c.now / 1000)
}

// Micros implements Clock.
func (c *ManualClock) Micros() Ticks {
	return Ticks(c.now)
}

// Delay implements Clock by advancing simulated time.
func (c *ManualClock) Delay(us uint32) {
	c.now += uint64(us)
}
