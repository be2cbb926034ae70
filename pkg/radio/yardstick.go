// Package radio implements pulse.Radio for the supported transmitters.
package radio

import (
	"fmt"

	"github.com/herlein/ookclone/pkg/profiles"
	"github.com/herlein/ookclone/pkg/pulse"
	"github.com/herlein/ookclone/pkg/registers"
	"github.com/herlein/ookclone/pkg/yardstick"
)

// Transceiver is the part of *yardstick.Device the YardStick radio uses.
type Transceiver interface {
	registers.Accessor
	SetModeRX() error
	SetModeTX() error
	SetModeIDLE() error
	SetAmpMode(mode uint8) error
}

// YardStick drives a CC1111 in asynchronous serial mode: the carrier follows
// the data line while transmitting and the demodulated signal appears on GDO0
// while receiving.
type YardStick struct {
	dev        Transceiver
	amplifier  bool
	configured bool
	settings   pulse.RadioSettings
	profile    *profiles.Profile
}

// NewYardStick wraps dev. With amplifier set, the front-end amplifiers are
// enabled during Configure.
func NewYardStick(dev Transceiver, amplifier bool) *YardStick {
	return &YardStick{dev: dev, amplifier: amplifier}
}

// Configure idles the radio and programs the register file for s.
func (y *YardStick) Configure(s pulse.RadioSettings) error {
	y.configured = false

	p, err := profiles.FromSettings(s)
	if err != nil {
		return err
	}
	if err := y.dev.SetModeIDLE(); err != nil {
		return err
	}
	if err := registers.WriteAll(y.dev, p.ToRegisters()); err != nil {
		return fmt.Errorf("failed to program %s: %w", p.Name, err)
	}

	mode := uint8(yardstick.AmpModeOff)
	if y.amplifier {
		mode = yardstick.AmpModeOn
	}
	if err := y.dev.SetAmpMode(mode); err != nil {
		return err
	}

	y.settings = s
	y.profile = p
	y.configured = true
	return nil
}

// EnterReceive puts the radio in RX so the demodulated carrier reaches GDO0.
func (y *YardStick) EnterReceive() error {
	if !y.configured {
		return pulse.ErrRadioNotConfigured
	}
	return y.dev.SetModeRX()
}

// EnterTransmit implements pulse.Radio.
func (y *YardStick) EnterTransmit() error {
	return y.dev.SetModeTX()
}

// EnterIdle implements pulse.Radio.
func (y *YardStick) EnterIdle() error {
	return y.dev.SetModeIDLE()
}

// Configured implements pulse.Radio.
func (y *YardStick) Configured() bool {
	return y.configured
}

// Profile returns the profile programmed by the last successful Configure.
func (y *YardStick) Profile() *profiles.Profile {
	return y.profile
}

// Settings returns the settings of the last successful Configure.
func (y *YardStick) Settings() pulse.RadioSettings {
	return y.settings
}
