package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herlein/ookclone/pkg/pulse"
	"github.com/herlein/ookclone/pkg/registers"
)

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ook-clone.yaml")
	data := `
gpio:
  data_line: 17
capture:
  window: 750ms
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendYardStick, cfg.Radio.Backend)
	assert.Equal(t, 5*time.Second, cfg.Capture.ArmTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.Capture.Window)
	assert.False(t, cfg.Capture.SaveEmpty)
	assert.Equal(t, "captures", cfg.Store.Dir)
	assert.Equal(t, "capture-%Y%m%d-%H%M%S", cfg.Store.NamePattern)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel())

	s, err := cfg.RadioSettings()
	require.NoError(t, err)
	assert.Equal(t, pulse.RadioSettings{FrequencyHz: 433_920_000, Modulation: pulse.ModulationOOK, SymbolRateBaud: 2400}, s)

	line := cfg.DataLine()
	assert.Equal(t, "gpiochip0", line.Chip)
	assert.Equal(t, 17, line.Offset)
	assert.Equal(t, "ookclone", line.Consumer)

	cc := cfg.CaptureConfig()
	assert.Equal(t, 750*time.Millisecond, cc.Window)
	assert.Equal(t, pulse.DefaultCancelEvery, cc.CancelEvery)
}

func TestParseFull(t *testing.T) {
	cfg, err := Parse([]byte(`
radio:
  backend: ptt
  frequency_hz: 315000000
  modulation: ASK
  symbol_rate_baud: 1200
  ptt_line: 0
  ptt_invert: true
gpio:
  chip: gpiochip4
  data_line: 4
  active_low: true
realtime:
  enabled: true
  priority: 80
  lock_memory: true
metrics:
  pushgateway: http://localhost:9091
log:
  level: debug
`))
	require.NoError(t, err)

	s, err := cfg.RadioSettings()
	require.NoError(t, err)
	assert.Equal(t, pulse.RadioSettings{FrequencyHz: 315_000_000, Modulation: pulse.ModulationOOK, SymbolRateBaud: 1200}, s)

	ptt := cfg.PTTLine()
	assert.Equal(t, "gpiochip4", ptt.Chip)
	assert.Equal(t, 0, ptt.Offset)
	assert.Equal(t, "ookclone-ptt", ptt.Consumer)
	assert.False(t, ptt.ActiveLow)
	assert.True(t, cfg.DataLine().ActiveLow)

	assert.True(t, cfg.Realtime.Enabled)
	assert.Equal(t, 80, cfg.Realtime.Priority)
	assert.Equal(t, "ook-clone", cfg.Metrics.Job)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel())
}

func TestPresetReplacesExplicitTuning(t *testing.T) {
	cfg, err := Parse([]byte("radio:\n  preset: 868-ook\n  frequency_hz: 433920000\ngpio:\n  data_line: 1\n"))
	require.NoError(t, err)

	s, err := cfg.RadioSettings()
	require.NoError(t, err)
	assert.Equal(t, uint32(868_350_000), s.FrequencyHz)
}

func TestValidate(t *testing.T) {
	for name, doc := range map[string]string{
		"backend":    "radio: {backend: sdr}\ngpio: {data_line: 1}",
		"ptt line":   "radio: {backend: ptt}\ngpio: {data_line: 1}",
		"preset":     "radio: {preset: 2g4}\ngpio: {data_line: 1}",
		"modulation": "radio: {modulation: qam}\ngpio: {data_line: 1}",
		"data line":  "gpio: {chip: gpiochip0}",
		"window":     "capture: {window: -1s}\ngpio: {data_line: 1}",
		"priority":   "realtime: {priority: 120}\ngpio: {data_line: 1}",
		"log level":  "log: {level: chatty}\ngpio: {data_line: 1}",
	} {
		cfg, err := Parse([]byte(doc))
		require.NoError(t, err, name)
		assert.Error(t, cfg.Validate(), name)
	}

	_, err := Parse([]byte("gpio: [1, 2]"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg, err := Parse([]byte("radio: {backend: sdr}\nlog: {level: chatty}"))
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "radio.backend")
	assert.ErrorContains(t, err, "gpio.data_line")
	assert.ErrorContains(t, err, "log.level")
}

func TestOverridesApplyBeforeValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ook-clone.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  dir: /tmp/caps\nradio:\n  backend: ptt\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/caps", cfg.Store.Dir)
	assert.Error(t, cfg.Validate())

	data, ptt := 17, 27
	cfg.GPIO.DataLine = &data
	cfg.Radio.PTTLine = &ptt
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 17, cfg.DataLine().Offset)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, uint32(2400), cfg.Radio.SymbolRateBaud)
	assert.ErrorContains(t, cfg.Validate(), "gpio.data_line")

	line := 22
	cfg.GPIO.DataLine = &line
	assert.NoError(t, cfg.Validate())
}

func TestParseModulation(t *testing.T) {
	for in, want := range map[string]pulse.Modulation{
		"ook":     pulse.ModulationOOK,
		"OOK":     pulse.ModulationOOK,
		"ask/ook": pulse.ModulationOOK,
		"2fsk":    pulse.Modulation2FSK,
		"GFSK":    pulse.ModulationGFSK,
	} {
		got, err := ParseModulation(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseModulation("msk")
	assert.Error(t, err)
}

type radio struct {
	mem   [0x10000]byte
	modes []string
}

func (r *radio) Peek(address uint16, length uint16) ([]byte, error) {
	out := make([]byte, length)
	copy(out, r.mem[address:])
	return out, nil
}

func (r *radio) PeekByte(address uint16) (uint8, error) { return r.mem[address], nil }

func (r *radio) Poke(address uint16, data []byte) error {
	copy(r.mem[address:], data)
	return nil
}

func (r *radio) PokeByte(address uint16, value uint8) error {
	return r.Poke(address, []byte{value})
}

func (r *radio) setState(name string, state registers.RadioState) error {
	r.modes = append(r.modes, name)
	r.mem[registers.RegMARCSTATE] = byte(state)
	return nil
}

func (r *radio) SetModeRX() error   { return r.setState("rx", registers.StateRX) }
func (r *radio) SetModeTX() error   { return r.setState("tx", registers.StateTX) }
func (r *radio) SetModeIDLE() error { return r.setState("idle", registers.StateIDLE) }

func (r *radio) BuildType() (string, error) { return "YARDSTICKONE r0543", nil }
func (r *radio) PartNum() (uint8, error)    { return 0x11, nil }

func TestSnapshotDumpApply(t *testing.T) {
	src := &radio{}
	src.mem[registers.RegFREQ2] = 0x12
	src.mem[registers.RegFREQ2+1] = 0x14
	src.mem[registers.RegFREQ2+2] = 0x7A
	src.mem[registers.RegIOCFG0] = registers.GDOAsyncSerialData
	src.mem[registers.RegMARCSTATE] = byte(registers.StateRX)

	snap, err := Dump(src, "009a")
	require.NoError(t, err)
	assert.Equal(t, []string{"idle", "rx"}, src.modes)
	assert.Equal(t, "009a", snap.Serial)
	assert.Equal(t, "YARDSTICKONE r0543", snap.BuildType)
	assert.InDelta(t, 433.92e6, snap.Frequency(), 400)
	assert.Equal(t, registers.StateIDLE, snap.State())

	path := filepath.Join(t.TempDir(), "etc", "009a.yaml")
	require.NoError(t, SaveSnapshot(snap, path))
	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snap.Registers, loaded.Registers)

	dst := &radio{}
	dst.mem[registers.RegMARCSTATE] = byte(registers.StateIDLE)
	require.NoError(t, Apply(dst, loaded))
	assert.Empty(t, dst.modes)
	assert.Equal(t, byte(registers.GDOAsyncSerialData), dst.mem[registers.RegIOCFG0])
	assert.Equal(t, src.mem[registers.RegFREQ2:registers.RegFREQ2+3], dst.mem[registers.RegFREQ2:registers.RegFREQ2+3])
}

func TestSnapshotPath(t *testing.T) {
	assert.Equal(t, filepath.Join("etc", "yardsticks", "009a.yaml"), SnapshotPath("009a"))
}
