package yardstick

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gousb"
)

// Selector identifies one YardStick One:
//   - ""         first available device
//   - "serial"   serial number (e.g. "009a")
//   - "bus:addr" USB bus and address (e.g. "1:10")
//   - "#N"       Nth device, 0-indexed (e.g. "#1")
type Selector struct {
	Index   int // -1 unless "#N"
	Bus     int
	Address int
	Serial  string
}

// ParseSelector parses a -d style selector.
func ParseSelector(s string) (Selector, error) {
	sel := Selector{Index: -1}
	switch {
	case s == "":
		sel.Index = 0
	case strings.HasPrefix(s, "#"):
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 0 {
			return sel, fmt.Errorf("invalid device index: %s", s)
		}
		sel.Index = n
	case strings.Contains(s, ":"):
		bus, addr, _ := strings.Cut(s, ":")
		var err error
		if sel.Bus, err = strconv.Atoi(bus); err != nil {
			return sel, fmt.Errorf("invalid bus number: %s", bus)
		}
		if sel.Address, err = strconv.Atoi(addr); err != nil {
			return sel, fmt.Errorf("invalid address number: %s", addr)
		}
	default:
		sel.Serial = s
	}
	return sel, nil
}

func (s Selector) String() string {
	switch {
	case s.Index >= 0:
		return fmt.Sprintf("#%d", s.Index)
	case s.Serial != "":
		return "serial " + s.Serial
	}
	return fmt.Sprintf("bus %d address %d", s.Bus, s.Address)
}

// pick returns the index into devices that s selects.
func (s Selector) pick(devices []*Device) (int, error) {
	if len(devices) == 0 {
		return -1, ErrNoDevice
	}
	if s.Index >= 0 {
		if s.Index >= len(devices) {
			return -1, fmt.Errorf("device index %d out of range (found %d devices)", s.Index, len(devices))
		}
		return s.Index, nil
	}

	found := -1
	for i, d := range devices {
		match := d.Serial == s.Serial
		if s.Serial == "" {
			match = d.Bus == s.Bus && d.Address == s.Address
		}
		if !match {
			continue
		}
		if found >= 0 {
			return -1, fmt.Errorf("multiple devices found with %s; use bus:addr or #N", s)
		}
		found = i
	}
	if found < 0 {
		return -1, fmt.Errorf("no YardStick One found with %s", s)
	}
	return found, nil
}

// SelectDevice opens the YardStick One matching selector and closes the rest.
func SelectDevice(usb *gousb.Context, selector string) (*Device, error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil, err
	}
	devices, err := FindAllDevices(usb)
	if err != nil {
		return nil, err
	}

	idx, err := sel.pick(devices)
	for i, d := range devices {
		if i != idx {
			d.Close()
		}
	}
	if err != nil {
		return nil, err
	}
	return devices[idx], nil
}

// SelectorUsage documents the -d flag.
const SelectorUsage = `device selector: "" first device, "009a" serial, "1:10" bus:addr, "#0" index`
