package yardstick

import (
	"fmt"
	"time"

	"github.com/herlein/ookclone/pkg/registers"
)

// setRFMode runs the firmware's RFMODE handler, which programs MCSM1 and
// issues the strobe.
func (d *Device) setRFMode(strobe uint8) error {
	_, err := d.Send(AppSystem, SysCmdRFMode, []byte{strobe}, USBDefaultTimeout)
	return err
}

// SetModeRX idles the radio, enters RX and verifies MARCSTATE.
func (d *Device) SetModeRX() error {
	if err := d.setRFMode(RFSTSidle); err != nil {
		return fmt.Errorf("failed to set IDLE before RX: %w", err)
	}
	time.Sleep(5 * time.Millisecond)

	if err := d.setRFMode(RFSTSrx); err != nil {
		return fmt.Errorf("failed to set RX mode: %w", err)
	}
	return d.WaitForState(registers.StateRX, 50*time.Millisecond)
}

// SetModeTX puts the radio into transmit mode. In async serial mode the
// carrier then follows the data pin.
func (d *Device) SetModeTX() error {
	if err := d.setRFMode(RFSTStx); err != nil {
		return fmt.Errorf("failed to set TX mode: %w", err)
	}
	return nil
}

// SetModeIDLE puts the radio into idle mode
func (d *Device) SetModeIDLE() error {
	if err := d.setRFMode(RFSTSidle); err != nil {
		return fmt.Errorf("failed to set IDLE mode: %w", err)
	}
	return nil
}

// State returns the radio state machine state.
func (d *Device) State() (registers.RadioState, error) {
	return registers.State(d)
}

// WaitForState polls MARCSTATE until want is reached or timeout passes.
func (d *Device) WaitForState(want registers.RadioState, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		state, err := d.State()
		if err != nil {
			return err
		}
		if state == want {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("radio in %s, want %s", state, want)
		}
		time.Sleep(time.Millisecond)
	}
}

// SetAmpMode enables or disables the YardStick One front-end amplifiers
// (AmpModeOn / AmpModeOff).
func (d *Device) SetAmpMode(mode uint8) error {
	if _, err := d.Send(AppNIC, NICSetAmpMode, []byte{mode}, USBDefaultTimeout); err != nil {
		return fmt.Errorf("failed to set amplifier mode: %w", err)
	}
	return nil
}

// AmpMode returns the current amplifier mode.
func (d *Device) AmpMode() (uint8, error) {
	response, err := d.Send(AppNIC, NICGetAmpMode, nil, USBDefaultTimeout)
	if err != nil {
		return 0, fmt.Errorf("failed to get amplifier mode: %w", err)
	}
	if len(response) < 1 {
		return 0, fmt.Errorf("empty amplifier mode response")
	}
	return response[0], nil
}
