// Package config loads the ook-clone YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/herlein/ookclone/pkg/gpio"
	"github.com/herlein/ookclone/pkg/profiles"
	"github.com/herlein/ookclone/pkg/pulse"
	"github.com/herlein/ookclone/pkg/store"
	"github.com/herlein/ookclone/pkg/timing"
)

// Radio backends.
const (
	BackendYardStick = "yardstick"
	BackendPTT       = "ptt"
)

type Config struct {
	Radio    RadioConfig           `yaml:"radio"`
	GPIO     GPIOConfig            `yaml:"gpio"`
	Capture  CaptureConfig         `yaml:"capture"`
	Store    StoreConfig           `yaml:"store"`
	Realtime timing.RealtimeConfig `yaml:"realtime"`
	Metrics  MetricsConfig         `yaml:"metrics"`
	Log      LogConfig             `yaml:"log"`
}

type RadioConfig struct {
	Backend string `yaml:"backend"`
	// Device selects a YardStick: "", "#N", "bus:addr" or a serial number.
	Device string `yaml:"device"`
	// Preset names a profiles.Presets entry. When set it replaces the
	// frequency, modulation and symbol rate fields.
	Preset         string `yaml:"preset"`
	FrequencyHz    uint32 `yaml:"frequency_hz"`
	Modulation     string `yaml:"modulation"`
	SymbolRateBaud uint32 `yaml:"symbol_rate_baud"`
	Amplifier      bool   `yaml:"amplifier"`
	// PTTLine is the enable pin offset on gpio.chip for the ptt backend.
	PTTLine   *int `yaml:"ptt_line"`
	PTTInvert bool `yaml:"ptt_invert"`
}

type GPIOConfig struct {
	Chip      string `yaml:"chip"`
	DataLine  *int   `yaml:"data_line"`
	Consumer  string `yaml:"consumer"`
	ActiveLow bool   `yaml:"active_low"`
}

type CaptureConfig struct {
	ArmTimeout time.Duration `yaml:"arm_timeout"`
	Window     time.Duration `yaml:"window"`
	SaveEmpty  bool          `yaml:"save_empty"`
}

type StoreConfig struct {
	Dir         string `yaml:"dir"`
	NamePattern string `yaml:"name_pattern"`
}

type MetricsConfig struct {
	Pushgateway string `yaml:"pushgateway"`
	Job         string `yaml:"job"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given: a YardStick
// on 433.92 MHz OOK at 2400 baud.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path and fills defaults. The result is not validated, so that
// command-line overrides can be applied first; call Validate before use.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse is Load without the file read.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Radio.Backend == "" {
		c.Radio.Backend = BackendYardStick
	}
	if c.Radio.FrequencyHz == 0 {
		c.Radio.FrequencyHz = 433_920_000
	}
	if c.Radio.Modulation == "" {
		c.Radio.Modulation = pulse.ModulationOOK.String()
	}
	if c.Radio.SymbolRateBaud == 0 {
		c.Radio.SymbolRateBaud = 2400
	}
	if c.GPIO.Chip == "" {
		c.GPIO.Chip = "gpiochip0"
	}
	if c.GPIO.Consumer == "" {
		c.GPIO.Consumer = gpio.DefaultConsumer
	}
	if c.Capture.ArmTimeout == 0 {
		c.Capture.ArmTimeout = pulse.DefaultArmTimeout
	}
	if c.Capture.Window == 0 {
		c.Capture.Window = pulse.DefaultCaptureWindow
	}
	if c.Store.Dir == "" {
		c.Store.Dir = "captures"
	}
	if c.Store.NamePattern == "" {
		c.Store.NamePattern = store.DefaultNamePattern
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "ook-clone"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks the fields that defaults cannot repair.
func (c *Config) Validate() error {
	var errs []error

	switch c.Radio.Backend {
	case BackendYardStick:
	case BackendPTT:
		if c.Radio.PTTLine == nil {
			errs = append(errs, errors.New("radio.ptt_line is required for the ptt backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("radio.backend %q is not one of %s, %s", c.Radio.Backend, BackendYardStick, BackendPTT))
	}
	if c.Radio.Preset != "" {
		if _, err := profiles.Preset(c.Radio.Preset); err != nil {
			errs = append(errs, fmt.Errorf("radio.preset: %w", err))
		}
	}
	if _, err := ParseModulation(c.Radio.Modulation); err != nil {
		errs = append(errs, fmt.Errorf("radio.modulation: %w", err))
	}
	if c.GPIO.DataLine == nil {
		errs = append(errs, errors.New("gpio.data_line is required"))
	}
	if c.Capture.ArmTimeout < 0 || c.Capture.Window < 0 {
		errs = append(errs, errors.New("capture timeouts must be positive"))
	}
	if c.Realtime.Priority < 0 || c.Realtime.Priority > 99 {
		errs = append(errs, fmt.Errorf("realtime.priority %d out of range 0-99", c.Realtime.Priority))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// RadioSettings returns the tuning from the preset, or from the explicit
// fields when no preset is named.
func (c *Config) RadioSettings() (pulse.RadioSettings, error) {
	mod, err := ParseModulation(c.Radio.Modulation)
	if err != nil {
		return pulse.RadioSettings{}, err
	}
	s := pulse.RadioSettings{
		FrequencyHz:    c.Radio.FrequencyHz,
		Modulation:     mod,
		SymbolRateBaud: c.Radio.SymbolRateBaud,
	}
	if c.Radio.Preset == "" {
		return s, nil
	}
	return profiles.Preset(c.Radio.Preset)
}

// DataLine returns the GPIO configuration of the pulse data line.
func (c *Config) DataLine() gpio.Config {
	cfg := gpio.Config{Chip: c.GPIO.Chip, Consumer: c.GPIO.Consumer, ActiveLow: c.GPIO.ActiveLow}
	if c.GPIO.DataLine != nil {
		cfg.Offset = *c.GPIO.DataLine
	}
	return cfg
}

// PTTLine returns the GPIO configuration of the transmitter enable line.
func (c *Config) PTTLine() gpio.Config {
	cfg := gpio.Config{Chip: c.GPIO.Chip, Consumer: c.GPIO.Consumer + "-ptt"}
	if c.Radio.PTTLine != nil {
		cfg.Offset = *c.Radio.PTTLine
	}
	return cfg
}

// CaptureConfig returns the capturer bounds.
func (c *Config) CaptureConfig() pulse.CaptureConfig {
	return pulse.CaptureConfig{
		ArmTimeout:  c.Capture.ArmTimeout,
		Window:      c.Capture.Window,
		CancelEvery: pulse.DefaultCancelEvery,
	}
}

// LogLevel returns the parsed log level, defaulting to info.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// ParseModulation accepts the names printed by pulse.Modulation.String.
func ParseModulation(s string) (pulse.Modulation, error) {
	for _, m := range []pulse.Modulation{pulse.ModulationOOK, pulse.Modulation2FSK, pulse.ModulationGFSK} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	if strings.EqualFold(s, "ask") || strings.EqualFold(s, "ask/ook") {
		return pulse.ModulationOOK, nil
	}
	return 0, fmt.Errorf("unknown modulation %q", s)
}
