// Package pulsetest provides simulated lines and radios for exercising the
// pulse capture and replay loops against a timing.ManualClock.
package pulsetest

import (
	"errors"
	"sort"

	"github.com/herlein/ookclone/pkg/pulse"
	"github.com/herlein/ookclone/pkg/timing"
)

// ErrInjected is the default error returned by injected faults.
var ErrInjected = errors.New("injected fault")

// Write is one level change driven on a Line, stamped with simulated time.
type Write struct {
	Level pulse.Level
	At    uint64
}

// Line is a simulated pin. As an input, each sample costs Step microseconds
// of simulated time and the level is Low until the first edge, toggling at
// every time in Edges. As an output, every SetLevel is recorded in Writes.
type Line struct {
	Clock *timing.ManualClock
	Step  uint64
	Edges []uint64

	// ReadErrAt makes the n-th sample (1-based) fail. Zero disables it.
	ReadErrAt int
	// WriteErrAt makes the n-th SetLevel (1-based) fail. Zero disables it.
	WriteErrAt int
	// WriteCost is the simulated time each SetLevel takes.
	WriteCost uint64
	// OutputErr and InputErr make the role switches fail.
	OutputErr error
	InputErr  error

	Samples int
	Writes  []Write
	Roles   []string
	level   pulse.Level
}

// NewLine returns a line on clock that samples every step microseconds and
// toggles at each of edges (absolute microseconds).
func NewLine(clock *timing.ManualClock, step uint64, edges ...uint64) *Line {
	sorted := append([]uint64(nil), edges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return &Line{Clock: clock, Step: step, Edges: sorted}
}

// AsInput implements pulse.Line.
func (l *Line) AsInput() (pulse.InputLine, error) {
	if l.InputErr != nil {
		return nil, l.InputErr
	}
	l.Roles = append(l.Roles, "input")
	return input{l}, nil
}

// AsOutput implements pulse.Line.
func (l *Line) AsOutput(initial pulse.Level) (pulse.OutputLine, error) {
	if l.OutputErr != nil {
		return nil, l.OutputErr
	}
	l.Roles = append(l.Roles, "output")
	l.level = initial
	return output{l}, nil
}

// LevelAt returns the scripted input level at absolute time t.
func (l *Line) LevelAt(t uint64) pulse.Level {
	n := sort.Search(len(l.Edges), func(i int) bool { return l.Edges[i] > t })
	if n%2 == 1 {
		return pulse.High
	}
	return pulse.Low
}

// Driven returns the level last set on the output view.
func (l *Line) Driven() pulse.Level {
	return l.level
}

// Role returns the most recent role, or "" if none was requested.
func (l *Line) Role() string {
	if len(l.Roles) == 0 {
		return ""
	}
	return l.Roles[len(l.Roles)-1]
}

// Widths returns the time between consecutive recorded writes.
func (l *Line) Widths() []uint64 {
	var widths []uint64
	for i := 1; i < len(l.Writes); i++ {
		widths = append(widths, l.Writes[i].At-l.Writes[i-1].At)
	}
	return widths
}

type input struct{ l *Line }

func (i input) Level() (pulse.Level, error) {
	l := i.l
	l.Samples++
	if l.ReadErrAt > 0 && l.Samples == l.ReadErrAt {
		return pulse.Low, ErrInjected
	}
	l.Clock.Advance(l.Step)
	return l.LevelAt(l.Clock.Now()), nil
}

type output struct{ l *Line }

func (o output) SetLevel(level pulse.Level) error {
	l := o.l
	if l.WriteErrAt > 0 && len(l.Writes)+1 == l.WriteErrAt {
		l.WriteErrAt = 0
		return ErrInjected
	}
	l.level = level
	l.Writes = append(l.Writes, Write{Level: level, At: l.Clock.Now()})
	l.Clock.Advance(l.WriteCost)
	return nil
}

// Radio records the mode requests it receives.
type Radio struct {
	Calls    []string
	Settings pulse.RadioSettings
	Ready    bool

	ConfigureErr error
	TransmitErr  error
	IdleErr      error
}

// NewRadio returns a radio that already counts as configured.
func NewRadio() *Radio {
	return &Radio{Ready: true}
}

// Configure implements pulse.Radio.
func (r *Radio) Configure(s pulse.RadioSettings) error {
	r.Calls = append(r.Calls, "configure")
	if r.ConfigureErr != nil {
		return r.ConfigureErr
	}
	r.Settings = s
	r.Ready = true
	return nil
}

// EnterTransmit implements pulse.Radio.
func (r *Radio) EnterTransmit() error {
	r.Calls = append(r.Calls, "transmit")
	return r.TransmitErr
}

// EnterIdle implements pulse.Radio.
func (r *Radio) EnterIdle() error {
	r.Calls = append(r.Calls, "idle")
	return r.IdleErr
}

// Configured implements pulse.Radio.
func (r *Radio) Configured() bool {
	return r.Ready
}
