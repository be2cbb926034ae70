package yardstick

import (
	"github.com/google/gousb"
)

// ResetResult is the outcome of resetting one device.
type ResetResult struct {
	Serial string
	Err    error
}

// ResetAll issues a USB port reset to every YardStick One without claiming
// its interface, which recovers devices whose endpoints are wedged.
func ResetAll(usb *gousb.Context) ([]ResetResult, error) {
	devs, err := usb.OpenDevices(isYardStick)
	if err != nil && len(devs) == 0 {
		return nil, err
	}
	if len(devs) == 0 {
		return nil, ErrNoDevice
	}

	results := make([]ResetResult, 0, len(devs))
	for _, dev := range devs {
		serial, _ := dev.SerialNumber()
		results = append(results, ResetResult{Serial: serial, Err: dev.Reset()})
		dev.Close()
	}
	return results, nil
}
