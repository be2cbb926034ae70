package yardstick

import "time"

// USB Device Identifiers
const (
	VendorID  = 0x1D50
	ProductID = 0x605B // YardStick One
)

// USB Endpoint Configuration
const (
	EP5Number        = 5
	EP5OutBufferSize = 516
	ResponseMarker   = 0x40 // '@' marks the start of a response
)

// USB Timeouts
const (
	USBDefaultTimeout = 1000 * time.Millisecond
	usbReadSlice      = 100 * time.Millisecond
)

// Application IDs for EP5 protocol
const (
	AppNIC    = 0x42
	AppSystem = 0xFF
)

// System Commands (APP_SYSTEM)
const (
	SysCmdPeek      = 0x80
	SysCmdPoke      = 0x81
	SysCmdPing      = 0x82
	SysCmdBuildType = 0x86
	SysCmdRFMode    = 0x88
	SysCmdPartNum   = 0x8E
)

// NIC Commands (APP_NIC)
const (
	NICSetAmpMode = 0x0A
	NICGetAmpMode = 0x0B
)

// Radio Strobe Commands (RFST register values)
const (
	RFSTSrx   = 0x02
	RFSTStx   = 0x03
	RFSTSidle = 0x04
)

// Chip Part Numbers
const (
	PartNumCC1110 = 0x01
	PartNumCC1111 = 0x11
	PartNumCC2510 = 0x81
	PartNumCC2511 = 0x91
)

// ChipName names a part number.
func ChipName(partNum uint8) string {
	switch partNum {
	case PartNumCC1110:
		return "CC1110"
	case PartNumCC1111:
		return "CC1111"
	case PartNumCC2510:
		return "CC2510"
	case PartNumCC2511:
		return "CC2511"
	}
	return "Unknown"
}

// Amplifier Mode values
const (
	AmpModeOff = 0x00
	AmpModeOn  = 0x01
)
