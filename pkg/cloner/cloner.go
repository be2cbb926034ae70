// Package cloner ties the radio, the data line, the pulse engine and the
// capture store together into the sniff and play operations.
package cloner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/herlein/ookclone/pkg/metrics"
	"github.com/herlein/ookclone/pkg/pulse"
	"github.com/herlein/ookclone/pkg/store"
	"github.com/herlein/ookclone/pkg/timing"
)

// Receiver is implemented by radios that must be put in receive mode before
// the demodulated signal appears on the data line.
type Receiver interface {
	EnterReceive() error
}

type Options struct {
	Logger   *log.Logger
	Clock    timing.Clock
	Capture  pulse.CaptureConfig
	Radio    pulse.Radio
	Settings pulse.RadioSettings
	Line     pulse.Line
	Store    *store.Store
	Metrics  *metrics.Recorder
	Realtime timing.RealtimeConfig
	// SaveEmpty persists captures with no transitions instead of reporting
	// ErrEmptyCapture.
	SaveEmpty bool
	// Now names captures saved without an explicit name.
	Now func() time.Time
}

type Cloner struct {
	opts     Options
	logger   *log.Logger
	capturer *pulse.Capturer
	replayer *pulse.Replayer
}

// Capture is the result of a sniff.
type Capture struct {
	Name     string
	Path     string
	Sequence pulse.Sequence
	Elapsed  time.Duration
}

// Summary describes a stored sequence.
type Summary struct {
	Name     string
	Path     string
	Pulses   int
	Total    time.Duration
	Shortest uint32
	Longest  uint32
}

// New builds a cloner. Radio and Line may be nil for a cloner that only
// inspects the store.
func New(opts Options) *Cloner {
	if opts.Clock == nil {
		opts.Clock = timing.NewSystem()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Cloner{
		opts:     opts,
		logger:   opts.Logger,
		capturer: pulse.NewCapturer(opts.Clock, opts.Capture),
		replayer: pulse.NewReplayer(opts.Clock, opts.Radio),
	}
}

func (c *Cloner) hardware() error {
	if c.opts.Radio == nil || c.opts.Line == nil {
		return ErrNoHardware
	}
	return nil
}

// Setup configures the radio with the cloner's settings.
func (c *Cloner) Setup() error {
	if c.opts.Radio == nil {
		return ErrNoHardware
	}
	s := c.opts.Settings
	if err := c.opts.Radio.Configure(s); err != nil {
		return fmt.Errorf("radio setup: %w", err)
	}
	c.logger.Info("radio configured",
		"frequency_mhz", float64(s.FrequencyHz)/1e6,
		"modulation", s.Modulation,
		"baud", s.SymbolRateBaud)
	return nil
}

// Sniff waits for a signal, records it and saves it under name. An empty
// name is derived from the current time. A failed or empty capture writes
// nothing; the sequence is still returned for an empty one.
func (c *Cloner) Sniff(ctx context.Context, name string) (*Capture, error) {
	if c.opts.Store == nil {
		return nil, ErrNoStore
	}
	if err := c.hardware(); err != nil {
		return nil, err
	}

	seq, elapsed, err := c.capture(ctx)
	switch {
	case errors.Is(err, pulse.ErrNoSignalDetected):
		c.opts.Metrics.ObserveCapture(metrics.ResultNoSignal, 0, elapsed)
		c.logger.Warn("no signal detected", "timeout", c.capturer.Config().ArmTimeout)
		return nil, err
	case err != nil:
		c.opts.Metrics.ObserveCapture(metrics.ResultError, 0, elapsed)
		return nil, err
	}

	result := &Capture{Name: name, Sequence: seq, Elapsed: elapsed}
	if len(seq) == 0 {
		c.opts.Metrics.ObserveCapture(metrics.ResultEmpty, 0, elapsed)
		if !c.opts.SaveEmpty {
			c.logger.Warn("signal went high but never changed", "window", c.capturer.Config().Window)
			return result, ErrEmptyCapture
		}
	} else {
		c.opts.Metrics.ObserveCapture(metrics.ResultOK, len(seq), elapsed)
	}

	if result.Name == "" {
		result.Name = c.opts.Store.NewName(c.opts.Now())
	}
	result.Path, err = c.opts.Store.Save(result.Name, seq)
	if err != nil {
		return nil, err
	}

	c.logger.Info("capture saved", "path", result.Path, "pulses", len(seq), "total", seq.Total())
	return result, nil
}

func (c *Cloner) capture(ctx context.Context) (pulse.Sequence, time.Duration, error) {
	recv, isReceiver := c.opts.Radio.(Receiver)
	if isReceiver {
		if err := recv.EnterReceive(); err != nil {
			return nil, 0, fmt.Errorf("radio receive: %w", err)
		}
		defer func() {
			if err := c.opts.Radio.EnterIdle(); err != nil {
				c.logger.Warn("failed to idle radio after capture", "err", err)
			}
		}()
	}

	in, err := c.opts.Line.AsInput()
	if err != nil {
		return nil, 0, &pulse.HardwareError{Op: pulse.OpConfigure, Err: err}
	}

	c.logger.Info("waiting for signal", "timeout", c.capturer.Config().ArmTimeout)

	var seq pulse.Sequence
	var elapsed time.Duration
	err = c.withRealtime(func() error {
		start := c.opts.Clock.Millis()
		var err error
		seq, err = c.capturer.Capture(ctx, in)
		elapsed = time.Duration(c.opts.Clock.Millis().Since(start)) * time.Millisecond
		return err
	})
	return seq, elapsed, err
}

// Play loads the named capture and replays it.
func (c *Cloner) Play(ctx context.Context, name string) (pulse.Report, error) {
	if c.opts.Store == nil {
		return pulse.Report{}, ErrNoStore
	}
	seq, err := c.opts.Store.Load(name)
	if err != nil {
		return pulse.Report{}, err
	}
	return c.Replay(ctx, seq)
}

// PlayRepeat loads the named capture and replays it count times, pausing gap
// between transmissions. It stops at the first failure.
func (c *Cloner) PlayRepeat(ctx context.Context, name string, count int, gap time.Duration) ([]pulse.Report, error) {
	if c.opts.Store == nil {
		return nil, ErrNoStore
	}
	seq, err := c.opts.Store.Load(name)
	if err != nil {
		return nil, err
	}

	reports := make([]pulse.Report, 0, count)
	for i := 0; i < count; i++ {
		if i > 0 && gap > 0 {
			select {
			case <-ctx.Done():
				return reports, ctx.Err()
			case <-time.After(gap):
			}
		}
		report, err := c.Replay(ctx, seq)
		if err != nil {
			return reports, fmt.Errorf("transmission %d of %d: %w", i+1, count, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Replay transmits seq.
func (c *Cloner) Replay(ctx context.Context, seq pulse.Sequence) (pulse.Report, error) {
	if err := c.hardware(); err != nil {
		return pulse.Report{}, err
	}
	c.logger.Info("transmitting", "pulses", len(seq), "total", seq.Total())

	var report pulse.Report
	err := c.withRealtime(func() error {
		var err error
		report, err = c.replayer.Replay(ctx, c.opts.Line, seq)
		return err
	})
	if err != nil {
		c.opts.Metrics.ObserveReplay(metrics.ResultError, report.Pulses, 0)
		return report, err
	}

	c.opts.Metrics.ObserveReplay(metrics.ResultOK, report.Pulses, report.Drift())
	c.logger.Info("transmission complete", "pulses", report.Pulses, "elapsed", report.Elapsed, "drift", report.Drift())
	return report, nil
}

// withRealtime runs fn holding the configured real-time context.
func (c *Cloner) withRealtime(fn func() error) error {
	rt, err := timing.AcquireRealtime(c.opts.Realtime)
	if err != nil {
		return err
	}
	for _, d := range rt.Degraded {
		c.logger.Warn("running without real-time step", "err", d)
	}

	err = fn()

	if rerr := rt.Release(); rerr != nil {
		c.logger.Warn("failed to release real-time context", "err", rerr)
	}
	return err
}

// Show summarizes a stored capture.
func (c *Cloner) Show(name string) (*Summary, error) {
	if c.opts.Store == nil {
		return nil, ErrNoStore
	}
	seq, err := c.opts.Store.Load(name)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Name:     name,
		Path:     c.opts.Store.Path(name),
		Pulses:   len(seq),
		Total:    seq.Total(),
		Shortest: seq.Shortest(),
		Longest:  seq.Longest(),
	}, nil
}

// List returns the stored captures, oldest first.
func (c *Cloner) List() ([]store.Entry, error) {
	if c.opts.Store == nil {
		return nil, ErrNoStore
	}
	return c.opts.Store.List()
}
