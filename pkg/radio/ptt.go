package radio

import (
	"errors"
	"fmt"

	"github.com/herlein/ookclone/pkg/profiles"
	"github.com/herlein/ookclone/pkg/pulse"
)

// ErrFixedFrequency is returned when a PTT module is asked for a frequency
// other than its crystal's.
var ErrFixedFrequency = errors.New("transmitter is fixed frequency")

// PTT is a fixed-frequency OOK transmitter module (FS1000A style) whose
// supply or enable pin is keyed by a GPIO line. The data pin is driven by
// the replay line.
type PTT struct {
	enable     pulse.OutputLine
	invert     bool
	frequency  uint32
	configured bool
	keyed      bool
}

// NewPTT keys the module with enable. frequencyHz is the module's fixed
// carrier; zero accepts any requested frequency. invert drives the enable
// line Low to transmit.
func NewPTT(enable pulse.OutputLine, frequencyHz uint32, invert bool) *PTT {
	return &PTT{enable: enable, frequency: frequencyHz, invert: invert}
}

// Configure checks that s matches what the module can do and releases the
// enable line.
func (p *PTT) Configure(s pulse.RadioSettings) error {
	if s.Modulation != pulse.ModulationOOK {
		return fmt.Errorf("%w: %v", profiles.ErrUnsupportedModulation, s.Modulation)
	}
	if p.frequency != 0 && s.FrequencyHz != p.frequency {
		return fmt.Errorf("%w: module is %d Hz, asked for %d Hz", ErrFixedFrequency, p.frequency, s.FrequencyHz)
	}
	if err := p.set(false); err != nil {
		return err
	}
	p.configured = true
	return nil
}

// EnterTransmit implements pulse.Radio.
func (p *PTT) EnterTransmit() error {
	return p.set(true)
}

// EnterIdle implements pulse.Radio.
func (p *PTT) EnterIdle() error {
	return p.set(false)
}

// Configured implements pulse.Radio.
func (p *PTT) Configured() bool {
	return p.configured
}

// Keyed reports whether the transmitter is currently enabled.
func (p *PTT) Keyed() bool {
	return p.keyed
}

func (p *PTT) set(on bool) error {
	level := pulse.Low
	if on != p.invert {
		level = pulse.High
	}
	if err := p.enable.SetLevel(level); err != nil {
		return &pulse.HardwareError{Op: pulse.OpWrite, Err: err}
	}
	p.keyed = on
	return nil
}
