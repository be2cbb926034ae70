package pulse

import (
	"context"
	"errors"
	"time"

	"github.com/herlein/ookclone/pkg/timing"
)

// Report describes a finished replay.
type Report struct {
	Pulses   int
	Expected time.Duration // sum of the sequence
	Elapsed  time.Duration // measured on the microsecond clock
}

// Drift is Elapsed minus Expected.
func (r Report) Drift() time.Duration {
	return r.Elapsed - r.Expected
}

// Replayer drives a Sequence onto a line while the radio transmits.
type Replayer struct {
	clock timing.Clock
	radio Radio
}

// NewReplayer creates a Replayer keying the given radio.
func NewReplayer(clock timing.Clock, radio Radio) *Replayer {
	return &Replayer{clock: clock, radio: radio}
}

// Replay puts the radio in transmit mode, drives seq onto line starting High,
// then forces the line Low, idles the radio and hands the line back as an
// input. The Low/idle/input restore is attempted on every exit path once the
// line has been claimed, including the empty sequence and failures.
//
// ctx is checked between entries, never in the middle of a pulse.
func (r *Replayer) Replay(ctx context.Context, line Line, seq Sequence) (report Report, err error) {
	if !r.radio.Configured() {
		return Report{}, ErrRadioNotConfigured
	}

	report.Expected = seq.Total()

	out, err := line.AsOutput(Low)
	if err != nil {
		cause := errors.Join(
			&HardwareError{Op: OpConfigure, Err: err},
			r.restoreInput(line),
			r.radio.EnterIdle(),
		)
		return report, &ReplayError{Step: -1, Err: cause}
	}
	defer func() {
		ierr := r.restoreInput(line)
		if ierr == nil {
			return
		}
		var rerr *ReplayError
		if errors.As(err, &rerr) {
			rerr.Err = errors.Join(rerr.Err, ierr)
			return
		}
		err = &ReplayError{Step: len(seq), Err: ierr}
	}()

	if err := r.radio.EnterTransmit(); err != nil {
		return report, r.abort(out, -1, err)
	}

	// Each edge is timed against start so write latency does not accumulate.
	start := r.clock.Micros()
	var deadline uint64
	level := High
	for i, d := range seq {
		if err := ctx.Err(); err != nil {
			return report, r.abort(out, i, err)
		}
		if err := out.SetLevel(level); err != nil {
			return report, r.abort(out, i, &HardwareError{Op: OpWrite, Err: err})
		}
		deadline += uint64(d)
		if elapsed := uint64(r.clock.Micros().Since(start)); elapsed < deadline {
			r.clock.Delay(uint32(deadline - elapsed))
		}
		level = level.Flip()
		report.Pulses++
	}
	report.Elapsed = time.Duration(r.clock.Micros().Since(start)) * time.Microsecond

	if err := r.quiesce(out); err != nil {
		return report, &ReplayError{Step: len(seq), Err: err}
	}
	return report, nil
}

// abort wraps cause and tries to leave the transmitter silent.
func (r *Replayer) abort(out OutputLine, step int, cause error) error {
	if qerr := r.quiesce(out); qerr != nil {
		cause = errors.Join(cause, qerr)
	}
	return &ReplayError{Step: step, Err: cause}
}

// restoreInput hands the line back in input mode for the next capture.
func (r *Replayer) restoreInput(line Line) error {
	if _, err := line.AsInput(); err != nil {
		return &HardwareError{Op: OpConfigure, Err: err}
	}
	return nil
}

// quiesce forces the line Low and requests idle. Both are always attempted.
func (r *Replayer) quiesce(out OutputLine) error {
	var errs []error
	if err := out.SetLevel(Low); err != nil {
		errs = append(errs, &HardwareError{Op: OpWrite, Err: err})
	}
	if err := r.radio.EnterIdle(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
