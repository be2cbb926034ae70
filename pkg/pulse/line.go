package pulse

// InputLine is a digital line that can be sampled.
type InputLine interface {
	// Level samples the line synchronously, without buffering.
	Level() (Level, error)
}

// OutputLine is a digital line that can be driven. SetLevel takes effect
// before it returns.
type OutputLine interface {
	SetLevel(Level) error
}

// Line is a pin that switches between input and output roles. Each accessor
// reconfigures the pin and returns a view that can only do that role.
type Line interface {
	AsInput() (InputLine, error)
	AsOutput(initial Level) (OutputLine, error)
}

// Modulation is an opaque modulation format handed to the radio.
type Modulation uint8

const (
	ModulationOOK Modulation = iota
	Modulation2FSK
	ModulationGFSK
)

func (m Modulation) String() string {
	switch m {
	case ModulationOOK:
		return "ook"
	case Modulation2FSK:
		return "2fsk"
	case ModulationGFSK:
		return "gfsk"
	default:
		return "unknown"
	}
}

// RadioSettings is the tuning the radio needs before capture or replay.
type RadioSettings struct {
	FrequencyHz    uint32
	Modulation     Modulation
	SymbolRateBaud uint32
}

// Radio is the transceiver. The pulse loops only request mode changes; they
// never touch registers.
type Radio interface {
	Configure(RadioSettings) error
	EnterTransmit() error
	EnterIdle() error
	// Configured reports whether Configure has succeeded.
	Configured() bool
}
