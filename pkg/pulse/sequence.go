// Package pulse captures and replays on-off keyed signals as sequences of
// pulse durations.
//
// A Sequence is the wire representation shared by both directions: the time,
// in microseconds, between consecutive level transitions of a digital line.
// Levels are implicit and alternate, starting High.
package pulse

import "time"

// Level is the logic level of a digital line.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

// Flip returns the opposite level.
func (l Level) Flip() Level {
	if l == High {
		return Low
	}
	return High
}

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Sequence is an ordered list of pulse durations in microseconds.
// Entry 0 is High, entry 1 Low, and so on.
type Sequence []uint32

// Total returns the sum of all durations.
func (s Sequence) Total() time.Duration {
	var total uint64
	for _, d := range s {
		total += uint64(d)
	}
	return time.Duration(total) * time.Microsecond
}

// Levels reconstructs the level held during each entry.
func (s Sequence) Levels() []Level {
	levels := make([]Level, len(s))
	level := High
	for i := range s {
		levels[i] = level
		level = level.Flip()
	}
	return levels
}

// Shortest returns the smallest duration, or 0 for an empty sequence.
func (s Sequence) Shortest() uint32 {
	if len(s) == 0 {
		return 0
	}
	shortest := s[0]
	for _, d := range s[1:] {
		if d < shortest {
			shortest = d
		}
	}
	return shortest
}

// Longest returns the largest duration, or 0 for an empty sequence.
func (s Sequence) Longest() uint32 {
	var longest uint32
	for _, d := range s {
		if d > longest {
			longest = d
		}
	}
	return longest
}

// Clone returns an independent copy. The copy of an empty sequence is empty, not nil.
func (s Sequence) Clone() Sequence {
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}
