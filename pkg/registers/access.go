package registers

import (
	"fmt"
)

// Accessor reads and writes device XDATA memory. *yardstick.Device
// implements it.
type Accessor interface {
	Peek(address uint16, length uint16) ([]byte, error)
	PeekByte(address uint16) (uint8, error)
	Poke(address uint16, data []byte) error
	PokeByte(address uint16, value uint8) error
}

// CrystalMHz is the CC1111 crystal on the YardStick One.
const CrystalMHz = 24.0

// block is a run of contiguous registers.
type block struct {
	name     string
	address  uint16
	fields   []*uint8
	readOnly bool
}

func (r *RegisterMap) blocks() []block {
	return []block{
		{name: "config", address: RegSYNC1, fields: []*uint8{
			&r.SYNC1, &r.SYNC0, &r.PKTLEN, &r.PKTCTRL1, &r.PKTCTRL0, &r.ADDR, &r.CHANNR,
			&r.FSCTRL1, &r.FSCTRL0, &r.FREQ2, &r.FREQ1, &r.FREQ0,
			&r.MDMCFG4, &r.MDMCFG3, &r.MDMCFG2, &r.MDMCFG1, &r.MDMCFG0, &r.DEVIATN,
			&r.MCSM2, &r.MCSM1, &r.MCSM0, &r.FOCCFG, &r.BSCFG,
			&r.AGCCTRL2, &r.AGCCTRL1, &r.AGCCTRL0, &r.FREND1, &r.FREND0,
			&r.FSCAL3, &r.FSCAL2, &r.FSCAL1, &r.FSCAL0,
		}},
		{name: "test", address: RegTEST2, fields: []*uint8{&r.TEST2, &r.TEST1, &r.TEST0}},
		{name: "pa_table/iocfg", address: RegPA_TABLE7, fields: []*uint8{
			&r.PA_TABLE[7], &r.PA_TABLE[6], &r.PA_TABLE[5], &r.PA_TABLE[4],
			&r.PA_TABLE[3], &r.PA_TABLE[2], &r.PA_TABLE[1], &r.PA_TABLE[0],
			&r.IOCFG2, &r.IOCFG1, &r.IOCFG0,
		}},
		{name: "status", address: RegPARTNUM, readOnly: true, fields: []*uint8{
			&r.PARTNUM, &r.CHIPID, &r.FREQEST, &r.LQI, &r.RSSI, &r.MARCSTATE, &r.PKTSTATUS, &r.VCO_VC_DAC,
		}},
	}
}

// ReadAll reads every register block into a RegisterMap.
func ReadAll(dev Accessor) (*RegisterMap, error) {
	reg := &RegisterMap{}
	for _, b := range reg.blocks() {
		data, err := dev.Peek(b.address, uint16(len(b.fields)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s registers: %w", b.name, err)
		}
		if len(data) < len(b.fields) {
			return nil, fmt.Errorf("short read of %s registers: got %d of %d bytes", b.name, len(data), len(b.fields))
		}
		for i, f := range b.fields {
			*f = data[i]
		}
	}
	return reg, nil
}

// WriteAll writes the writable register blocks of reg.
func WriteAll(dev Accessor, reg *RegisterMap) error {
	for _, b := range reg.blocks() {
		if b.readOnly {
			continue
		}
		data := make([]byte, len(b.fields))
		for i, f := range b.fields {
			data[i] = *f
		}
		if err := dev.Poke(b.address, data); err != nil {
			return fmt.Errorf("failed to write %s registers: %w", b.name, err)
		}
	}
	return nil
}

// Strobe issues an RFST command strobe.
func Strobe(dev Accessor, command uint8) error {
	return dev.PokeByte(RegRFST, command)
}

// State reads MARCSTATE.
func State(dev Accessor) (RadioState, error) {
	state, err := dev.PeekByte(RegMARCSTATE)
	if err != nil {
		return 0, fmt.Errorf("failed to read radio state: %w", err)
	}
	return RadioState(state & 0x1F), nil
}

// Frequency returns the carrier frequency programmed in reg.
func Frequency(reg *RegisterMap) float64 {
	freq := uint32(reg.FREQ2)<<16 | uint32(reg.FREQ1)<<8 | uint32(reg.FREQ0)
	return float64(freq) * (CrystalMHz * 1e6 / 65536.0)
}

// Modulation returns MDMCFG2[6:4].
func Modulation(reg *RegisterMap) uint8 {
	return reg.MDMCFG2 & 0x70
}

// PacketFormat returns PKTCTRL0[5:4].
func PacketFormat(reg *RegisterMap) uint8 {
	return reg.PKTCTRL0 & 0x30
}
