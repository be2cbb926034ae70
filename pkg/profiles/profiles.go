// Package profiles turns radio settings into CC1111 register maps for raw
// pulse work: the modem runs in asynchronous serial mode and GDO0 carries the
// demodulated data, so the host samples and drives the carrier directly.
package profiles

import (
	"errors"
	"fmt"
	"math"

	"github.com/herlein/ookclone/pkg/pulse"
	"github.com/herlein/ookclone/pkg/registers"
)

// CrystalMHz is the crystal frequency for CC1111 (YardStick One)
const CrystalMHz = registers.CrystalMHz

// DefaultChannelBWHz suits the frequency drift of cheap remotes.
const DefaultChannelBWHz = 58000

var (
	ErrUnsupportedFrequency  = errors.New("frequency outside CC1111 bands")
	ErrUnsupportedModulation = errors.New("unsupported modulation")
	ErrUnsupportedSymbolRate = errors.New("symbol rate out of range")
)

// Profile is a complete radio configuration for async serial capture/replay.
type Profile struct {
	Name         string  `yaml:"name"`
	Description  string  `yaml:"description"`
	FrequencyHz  float64 `yaml:"frequency_hz"`
	Modulation   uint8   `yaml:"modulation"`
	DataRateBaud float64 `yaml:"data_rate_baud"`
	DeviationHz  float64 `yaml:"deviation_hz,omitempty"`
	ChannelBWHz  float64 `yaml:"channel_bandwidth_hz"`
}

// Band reports whether freqHz is tunable: 300-348, 391-464 and 782-928 MHz.
func Band(freqHz float64) bool {
	switch {
	case freqHz >= 300e6 && freqHz <= 348e6:
		return true
	case freqHz >= 391e6 && freqHz <= 464e6:
		return true
	case freqHz >= 782e6 && freqHz <= 928e6:
		return true
	}
	return false
}

// FromSettings builds the profile for s.
func FromSettings(s pulse.RadioSettings) (*Profile, error) {
	freq := float64(s.FrequencyHz)
	if !Band(freq) {
		return nil, fmt.Errorf("%w: %d Hz", ErrUnsupportedFrequency, s.FrequencyHz)
	}

	var mod uint8
	switch s.Modulation {
	case pulse.ModulationOOK:
		mod = registers.ModASKOOK
	case pulse.Modulation2FSK:
		mod = registers.Mod2FSK
	case pulse.ModulationGFSK:
		mod = registers.ModGFSK
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedModulation, s.Modulation)
	}

	// DRATE_E/M cover roughly 24 baud to 1.6 Mbaud; the modem tops out at 500 k.
	if s.SymbolRateBaud < 100 || s.SymbolRateBaud > 500000 {
		return nil, fmt.Errorf("%w: %d baud", ErrUnsupportedSymbolRate, s.SymbolRateBaud)
	}

	return &Profile{
		Name:         fmt.Sprintf("%.2fmhz-%s-%s", freq/1e6, s.Modulation, formatDataRate(float64(s.SymbolRateBaud))),
		Description:  fmt.Sprintf("%.2f MHz %s at %d baud, async serial on GDO0", freq/1e6, s.Modulation, s.SymbolRateBaud),
		FrequencyHz:  freq,
		Modulation:   mod,
		DataRateBaud: float64(s.SymbolRateBaud),
		ChannelBWHz:  DefaultChannelBWHz,
	}, nil
}

// CalcFreqRegs calculates FREQ2/1/0 register values for a given frequency
func CalcFreqRegs(freqHz float64) (freq2, freq1, freq0 uint8) {
	num := uint32(freqHz * 65536.0 / (CrystalMHz * 1e6))
	return uint8(num >> 16), uint8(num >> 8), uint8(num)
}

// CalcDataRateRegs calculates MDMCFG4[3:0] (DRATE_E) and MDMCFG3 (DRATE_M)
func CalcDataRateRegs(drateBaud float64) (drateE, drateM uint8) {
	crystalHz := CrystalMHz * 1e6
	for e := 0; e < 16; e++ {
		m := int(drateBaud*math.Pow(2, 28)/(math.Pow(2, float64(e))*crystalHz) - 256 + 0.5)
		if m >= 0 && m < 256 {
			return uint8(e), uint8(m)
		}
	}
	return 15, 255
}

// DataRate is the inverse of CalcDataRateRegs.
func DataRate(drateE, drateM uint8) float64 {
	return (256 + float64(drateM)) * math.Pow(2, float64(drateE)) * CrystalMHz * 1e6 / math.Pow(2, 28)
}

// CalcChannelBWRegs calculates MDMCFG4[7:4]
func CalcChannelBWRegs(bwHz float64) (chanbwE, chanbwM uint8) {
	crystalHz := CrystalMHz * 1e6
	for e := 0; e < 4; e++ {
		m := int(crystalHz/(bwHz*math.Pow(2, float64(e))*8.0) - 4 + 0.5)
		if m >= 0 && m < 4 {
			return uint8(e), uint8(m)
		}
	}
	return 0, 0
}

// CalcDeviationRegs calculates DEVIATN for FSK deviation
func CalcDeviationRegs(devHz float64) uint8 {
	crystalHz := CrystalMHz * 1e6
	for e := 0; e < 8; e++ {
		m := int(devHz*math.Pow(2, 17)/(math.Pow(2, float64(e))*crystalHz) - 8 + 0.5)
		if m >= 0 && m < 8 {
			return uint8(e)<<4 | uint8(m)
		}
	}
	return 0x47
}

// MaxPower returns the highest PA_TABLE setting for the band.
func MaxPower(freqHz float64) uint8 {
	switch {
	case freqHz <= 400e6:
		return 0xC2
	case freqHz <= 464e6:
		return 0xC0
	case freqHz <= 849e6:
		return 0xC2
	}
	return 0xC0
}

// VCOSelection returns the FSCAL2 value for the band.
func VCOSelection(freqHz float64) uint8 {
	if freqHz < 318e6 || (freqHz >= 391e6 && freqHz < 424e6) || (freqHz >= 782e6 && freqHz < 848e6) {
		return 0x0A
	}
	return 0x2A
}

// ToRegisters converts p to a RegisterMap with the packet engine bypassed:
// infinite length, no sync word, async serial data on GDO0.
func (p *Profile) ToRegisters() *registers.RegisterMap {
	reg := &registers.RegisterMap{}

	reg.FREQ2, reg.FREQ1, reg.FREQ0 = CalcFreqRegs(p.FrequencyHz)
	reg.FSCAL2 = VCOSelection(p.FrequencyHz)

	drateE, drateM := CalcDataRateRegs(p.DataRateBaud)
	chanbwE, chanbwM := CalcChannelBWRegs(p.ChannelBWHz)
	reg.MDMCFG4 = chanbwE<<6 | chanbwM<<4 | drateE
	reg.MDMCFG3 = drateM
	reg.MDMCFG2 = p.Modulation | registers.SyncNone
	reg.MDMCFG1 = 0x22
	reg.MDMCFG0 = 0xF8

	if p.Modulation != registers.ModASKOOK {
		dev := p.DeviationHz
		if dev <= 0 {
			dev = p.DataRateBaud * 0.5
		}
		reg.DEVIATN = CalcDeviationRegs(dev)
	}

	reg.PKTCTRL0 = registers.PktFormatAsyncSerial | registers.PktLenInfinite
	reg.PKTCTRL1 = 0x00
	reg.PKTLEN = 0xFF

	power := MaxPower(p.FrequencyHz)
	if p.Modulation == registers.ModASKOOK {
		// carrier off for a 0 bit, PA_TABLE1 for a 1 bit
		reg.PA_TABLE[1] = power
		reg.FREND0 = 0x11
	} else {
		reg.PA_TABLE[0] = power
		reg.FREND0 = 0x10
	}
	if p.ChannelBWHz > 102000 {
		reg.FREND1 = 0xB6
	} else {
		reg.FREND1 = 0x56
	}

	if p.ChannelBWHz > 325000 {
		reg.TEST2, reg.TEST1 = 0x88, 0x31
	} else {
		reg.TEST2, reg.TEST1 = 0x81, 0x35
	}
	reg.TEST0 = 0x09

	reg.FSCTRL1 = 0x06
	reg.FSCAL3 = 0xE9
	reg.FSCAL0 = 0x1F

	// fixed-threshold AGC for OOK
	reg.AGCCTRL2 = 0x03
	reg.AGCCTRL1 = 0x00
	reg.AGCCTRL0 = 0x91
	reg.FOCCFG = 0x16
	reg.BSCFG = 0x6C

	reg.MCSM0 = 0x18
	reg.MCSM1 = 0x00
	reg.MCSM2 = 0x07

	reg.IOCFG2 = registers.GDOHighImpedance
	reg.IOCFG1 = registers.GDOHighImpedance
	reg.IOCFG0 = registers.GDOAsyncSerialData

	return reg
}

func formatDataRate(rate float64) string {
	if rate >= 1000 && math.Mod(rate, 1000) == 0 {
		return fmt.Sprintf("%.0fk", rate/1000)
	}
	return fmt.Sprintf("%.0f", rate)
}
