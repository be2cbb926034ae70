// Package gpio exposes Linux GPIO character-device lines as pulse lines.
package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/herlein/ookclone/pkg/pulse"
)

const DefaultConsumer = "ookclone"

// Config selects a line.
type Config struct {
	Chip      string // e.g. "gpiochip0"
	Offset    int
	Consumer  string
	ActiveLow bool
}

// cdevLine is the part of *gpiocdev.Line used here.
type cdevLine interface {
	Value() (int, error)
	SetValue(int) error
	Reconfigure(...gpiocdev.LineConfigOption) error
	Close() error
}

// Line is a requested GPIO line that can be switched between input and
// output. It implements pulse.Line.
type Line struct {
	cfg  Config
	dev  cdevLine
	role string
}

func requestOptions(cfg Config, direction gpiocdev.LineReqOption) []gpiocdev.LineReqOption {
	consumer := cfg.Consumer
	if consumer == "" {
		consumer = DefaultConsumer
	}
	opts := []gpiocdev.LineReqOption{direction, gpiocdev.WithConsumer(consumer)}
	if cfg.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	return opts
}

// Open requests the line as an input.
func Open(cfg Config) (*Line, error) {
	dev, err := gpiocdev.RequestLine(cfg.Chip, cfg.Offset, requestOptions(cfg, gpiocdev.AsInput)...)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s line %d: %w", cfg.Chip, cfg.Offset, err)
	}
	return &Line{cfg: cfg, dev: dev, role: "input"}, nil
}

// OpenOutput requests the line as an output driven to initial.
func OpenOutput(cfg Config, initial pulse.Level) (*Line, error) {
	dev, err := gpiocdev.RequestLine(cfg.Chip, cfg.Offset, requestOptions(cfg, gpiocdev.AsOutput(int(initial)))...)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s line %d: %w", cfg.Chip, cfg.Offset, err)
	}
	return &Line{cfg: cfg, dev: dev, role: "output"}, nil
}

func (l *Line) String() string {
	return fmt.Sprintf("%s:%d", l.cfg.Chip, l.cfg.Offset)
}

// Role returns "input" or "output".
func (l *Line) Role() string {
	return l.role
}

// AsInput implements pulse.Line.
func (l *Line) AsInput() (pulse.InputLine, error) {
	if err := l.dev.Reconfigure(gpiocdev.AsInput); err != nil {
		return nil, fmt.Errorf("failed to reconfigure %s as input: %w", l, err)
	}
	l.role = "input"
	return input{l.dev}, nil
}

// AsOutput implements pulse.Line.
func (l *Line) AsOutput(initial pulse.Level) (pulse.OutputLine, error) {
	if err := l.dev.Reconfigure(gpiocdev.AsOutput(int(initial))); err != nil {
		return nil, fmt.Errorf("failed to reconfigure %s as output: %w", l, err)
	}
	l.role = "output"
	return output{l.dev}, nil
}

// SetLevel drives a line opened with OpenOutput.
func (l *Line) SetLevel(level pulse.Level) error {
	return output{l.dev}.SetLevel(level)
}

// Close releases the line.
func (l *Line) Close() error {
	return l.dev.Close()
}

type input struct{ dev cdevLine }

func (i input) Level() (pulse.Level, error) {
	v, err := i.dev.Value()
	if err != nil {
		return pulse.Low, err
	}
	if v != 0 {
		return pulse.High, nil
	}
	return pulse.Low, nil
}

type output struct{ dev cdevLine }

func (o output) SetLevel(level pulse.Level) error {
	return o.dev.SetValue(int(level))
}

// Chips lists the GPIO character devices present on the system.
func Chips() []string {
	return gpiocdev.Chips()
}
