package pulse

import (
	"context"
	"time"

	"github.com/herlein/ookclone/pkg/timing"
)

// Capture defaults. A remote typically repeats its frame several times within
// the window.
const (
	DefaultArmTimeout    = 5000 * time.Millisecond
	DefaultCaptureWindow = 600 * time.Millisecond
	DefaultCancelEvery   = 1024
)

// CaptureConfig bounds a capture.
type CaptureConfig struct {
	// ArmTimeout is how long to wait for the line to first go High.
	ArmTimeout time.Duration
	// Window is how long to record once armed.
	Window time.Duration
	// CancelEvery is the number of samples between context checks.
	CancelEvery int
}

// DefaultCaptureConfig returns the 5 s arm / 600 ms window configuration.
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		ArmTimeout:  DefaultArmTimeout,
		Window:      DefaultCaptureWindow,
		CancelEvery: DefaultCancelEvery,
	}
}

// Capturer records the level history of an input line as a Sequence.
type Capturer struct {
	clock  timing.Clock
	config CaptureConfig
}

// NewCapturer creates a Capturer. Zero fields in config take the defaults.
func NewCapturer(clock timing.Clock, config CaptureConfig) *Capturer {
	if config.ArmTimeout <= 0 {
		config.ArmTimeout = DefaultArmTimeout
	}
	if config.Window <= 0 {
		config.Window = DefaultCaptureWindow
	}
	if config.CancelEvery <= 0 {
		config.CancelEvery = DefaultCancelEvery
	}
	return &Capturer{clock: clock, config: config}
}

// Config returns the effective configuration.
func (c *Capturer) Config() CaptureConfig {
	return c.config
}

// captureSession is the state of one recording pass.
type captureSession struct {
	level Level
	last  timing.Ticks
	seq   Sequence
}

// Capture waits for the line to go High, then records every level transition
// for the configured window. The first entry is measured from the arming
// instant. An empty, non-nil sequence means the line went High but never
// changed again; ErrNoSignalDetected means it never went High at all.
//
// Capture busy-polls and blocks the calling goroutine for up to
// ArmTimeout + Window.
func (c *Capturer) Capture(ctx context.Context, in InputLine) (Sequence, error) {
	if err := c.arm(ctx, in); err != nil {
		return nil, err
	}
	return c.record(ctx, in)
}

func (c *Capturer) arm(ctx context.Context, in InputLine) error {
	timeout := timing.Millis(c.config.ArmTimeout)
	start := c.clock.Millis()

	for n := 1; ; n++ {
		level, err := in.Level()
		if err != nil {
			return &HardwareError{Op: OpRead, Err: err}
		}
		if level == High {
			return nil
		}
		if c.clock.Millis().Since(start) > timeout {
			return ErrNoSignalDetected
		}
		if n%c.config.CancelEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
}

func (c *Capturer) record(ctx context.Context, in InputLine) (Sequence, error) {
	window := timing.Millis(c.config.Window)
	s := captureSession{
		level: High,
		last:  c.clock.Micros(),
		seq:   make(Sequence, 0, 256),
	}
	start := c.clock.Millis()

	for n := 1; c.clock.Millis().Since(start) < window; n++ {
		level, err := in.Level()
		if err != nil {
			return nil, &HardwareError{Op: OpRead, Err: err}
		}
		if level != s.level {
			now := c.clock.Micros()
			s.seq = append(s.seq, now.Since(s.last))
			s.last = now
			s.level = level
		}
		if n%c.config.CancelEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	return s.seq, nil
}
