// Package registers describes the CC111x radio register file as seen through
// XDATA memory at 0xDF00 and provides block access to it.
package registers

// RegisterMap holds the CC1111 radio configuration and status registers.
type RegisterMap struct {
	SYNC1 uint8 `yaml:"sync1"`
	SYNC0 uint8 `yaml:"sync0"`

	PKTLEN   uint8 `yaml:"pktlen"`
	PKTCTRL1 uint8 `yaml:"pktctrl1"`
	PKTCTRL0 uint8 `yaml:"pktctrl0"`
	ADDR     uint8 `yaml:"addr"`
	CHANNR   uint8 `yaml:"channr"`

	FSCTRL1 uint8 `yaml:"fsctrl1"`
	FSCTRL0 uint8 `yaml:"fsctrl0"`

	FREQ2 uint8 `yaml:"freq2"`
	FREQ1 uint8 `yaml:"freq1"`
	FREQ0 uint8 `yaml:"freq0"`

	MDMCFG4 uint8 `yaml:"mdmcfg4"`
	MDMCFG3 uint8 `yaml:"mdmcfg3"`
	MDMCFG2 uint8 `yaml:"mdmcfg2"`
	MDMCFG1 uint8 `yaml:"mdmcfg1"`
	MDMCFG0 uint8 `yaml:"mdmcfg0"`
	DEVIATN uint8 `yaml:"deviatn"`

	MCSM2 uint8 `yaml:"mcsm2"`
	MCSM1 uint8 `yaml:"mcsm1"`
	MCSM0 uint8 `yaml:"mcsm0"`

	FOCCFG uint8 `yaml:"foccfg"`
	BSCFG  uint8 `yaml:"bscfg"`

	AGCCTRL2 uint8 `yaml:"agcctrl2"`
	AGCCTRL1 uint8 `yaml:"agcctrl1"`
	AGCCTRL0 uint8 `yaml:"agcctrl0"`

	FREND1 uint8 `yaml:"frend1"`
	FREND0 uint8 `yaml:"frend0"`

	FSCAL3 uint8 `yaml:"fscal3"`
	FSCAL2 uint8 `yaml:"fscal2"`
	FSCAL1 uint8 `yaml:"fscal1"`
	FSCAL0 uint8 `yaml:"fscal0"`

	TEST2 uint8 `yaml:"test2"`
	TEST1 uint8 `yaml:"test1"`
	TEST0 uint8 `yaml:"test0"`

	// PA_TABLE[0] is PA_TABLE0; memory holds PA_TABLE7 first.
	PA_TABLE [8]uint8 `yaml:"pa_table,flow"`

	IOCFG2 uint8 `yaml:"iocfg2"`
	IOCFG1 uint8 `yaml:"iocfg1"`
	IOCFG0 uint8 `yaml:"iocfg0"`

	// read-only
	PARTNUM    uint8 `yaml:"partnum"`
	CHIPID     uint8 `yaml:"chipid"`
	FREQEST    uint8 `yaml:"freqest"`
	LQI        uint8 `yaml:"lqi"`
	RSSI       uint8 `yaml:"rssi"`
	MARCSTATE  uint8 `yaml:"marcstate"`
	PKTSTATUS  uint8 `yaml:"pktstatus"`
	VCO_VC_DAC uint8 `yaml:"vco_vc_dac"`
}

// RadioState is the MARCSTATE main radio control state.
type RadioState uint8

const (
	StateSLEEP      RadioState = 0x00
	StateIDLE       RadioState = 0x01
	StateXOFF       RadioState = 0x02
	StateFS_LOCK    RadioState = 0x0A
	StateRX         RadioState = 0x0D
	StateRX_END     RadioState = 0x0E
	StateRXFIFO_OVF RadioState = 0x11
	StateFSTXON     RadioState = 0x12
	StateTX         RadioState = 0x13
	StateTX_END     RadioState = 0x14
	StateTXFIFO_UNF RadioState = 0x16
)

var stateNames = map[RadioState]string{
	StateSLEEP:      "SLEEP",
	StateIDLE:       "IDLE",
	StateXOFF:       "XOFF",
	StateFS_LOCK:    "FS_LOCK",
	StateRX:         "RX",
	StateRX_END:     "RX_END",
	StateRXFIFO_OVF: "RXFIFO_OVERFLOW",
	StateFSTXON:     "FSTXON",
	StateTX:         "TX",
	StateTX_END:     "TX_END",
	StateTXFIFO_UNF: "TXFIFO_UNDERFLOW",
}

func (s RadioState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	if s >= 0x03 && s <= 0x0C {
		return "CALIBRATING"
	}
	return "UNKNOWN"
}

// Register addresses used directly.
const (
	RegSYNC1     = 0xDF00
	RegPKTCTRL0  = 0xDF04
	RegFREQ2     = 0xDF09
	RegMDMCFG2   = 0xDF0E
	RegMCSM1     = 0xDF13
	RegTEST2     = 0xDF23
	RegPA_TABLE7 = 0xDF27
	RegIOCFG2    = 0xDF2F
	RegIOCFG0    = 0xDF31
	RegPARTNUM   = 0xDF36
	RegMARCSTATE = 0xDF3B
	RegRFST      = 0xDFE1
)

// RFST strobe commands.
const (
	StrobeSFSTXON = 0x00
	StrobeSCAL    = 0x01
	StrobeSRX     = 0x02
	StrobeSTX     = 0x03
	StrobeSIDLE   = 0x04
	StrobeSNOP    = 0x05
)

// MDMCFG2[6:4]
const (
	Mod2FSK   = 0x00
	ModGFSK   = 0x10
	ModASKOOK = 0x30
	Mod4FSK   = 0x40
	ModMSK    = 0x70
)

// MDMCFG2[2:0]
const (
	SyncNone    = 0x00
	Sync16of16  = 0x02
	SyncCarrier = 0x04
)

// PKTCTRL0 fields.
const (
	PktLenFixed    = 0x00
	PktLenVariable = 0x01
	PktLenInfinite = 0x02

	CRCEnabled = 0x04

	// PKT_FORMAT, bits 5:4
	PktFormatNormal      = 0x00
	PktFormatSyncSerial  = 0x10
	PktFormatRandomTX    = 0x20
	PktFormatAsyncSerial = 0x30
)

// IOCFGx GDOx_CFG values.
const (
	GDOSyncWord        = 0x06
	GDOCarrierSense    = 0x0E
	GDOSerialClock     = 0x0B
	GDOSyncSerialData  = 0x0C
	GDOAsyncSerialData = 0x0D
	GDOHighImpedance   = 0x2E
)
