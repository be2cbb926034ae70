package timing

import "golang.org/x/sys/unix"

// System reads CLOCK_MONOTONIC_RAW, which is not slewed by NTP.
type System struct{}

// NewSystem returns the monotonic system clock.
func NewSystem() *System {
	return &System{}
}

func (s *System) nanos() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		_ = unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts)
	}
	return ts.Nano()
}

// Millis implements Clock.
func (s *System) Millis() Ticks {
	return Ticks(s.nanos() / 1e6)
}

// Micros implements Clock.
func (s *System) Micros() Ticks {
	return Ticks(s.nanos() / 1e3)
}

// Delay spins on the microsecond counter and never sleeps.
func (s *System) Delay(us uint32) {
	start := s.Micros()
	for s.Micros().Since(start) < us {
	}
}
