package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/herlein/ookclone/pkg/registers"
)

// Radio is the part of *yardstick.Device a snapshot needs.
type Radio interface {
	registers.Accessor
	SetModeRX() error
	SetModeTX() error
	SetModeIDLE() error
	BuildType() (string, error)
	PartNum() (uint8, error)
}

// Snapshot is the register file of one YardStick, as dumped by ook-devices.
type Snapshot struct {
	Serial    string                `yaml:"serial"`
	BuildType string                `yaml:"build_type,omitempty"`
	PartNum   uint8                 `yaml:"part_num,omitempty"`
	Timestamp time.Time             `yaml:"timestamp"`
	Registers registers.RegisterMap `yaml:"registers"`
}

// Dump reads every register of dev. The radio is idled for the read and put
// back into RX or TX afterwards.
func Dump(dev Radio, serial string) (*Snapshot, error) {
	var snap *Snapshot
	err := whileIdle(dev, func() error {
		reg, err := registers.ReadAll(dev)
		if err != nil {
			return fmt.Errorf("failed to read registers: %w", err)
		}
		snap = &Snapshot{Serial: serial, Timestamp: time.Now(), Registers: *reg}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap.BuildType, _ = dev.BuildType()
	snap.PartNum, _ = dev.PartNum()
	return snap, nil
}

// Apply writes the snapshot's registers to dev, idling it for the write.
func Apply(dev Radio, snap *Snapshot) error {
	return whileIdle(dev, func() error {
		if err := registers.WriteAll(dev, &snap.Registers); err != nil {
			return fmt.Errorf("failed to write registers: %w", err)
		}
		return nil
	})
}

func whileIdle(dev Radio, fn func() error) error {
	state, err := registers.State(dev)
	if err != nil {
		return fmt.Errorf("failed to get radio state: %w", err)
	}
	if state != registers.StateIDLE {
		if err := dev.SetModeIDLE(); err != nil {
			return fmt.Errorf("failed to set IDLE state: %w", err)
		}
	}

	err = fn()

	switch state {
	case registers.StateRX:
		err = firstErr(err, dev.SetModeRX())
	case registers.StateTX:
		err = firstErr(err, dev.SetModeTX())
	}
	return err
}

func firstErr(a, b error) error {
	if a != nil {
		return a
	}
	return b
}

// Frequency returns the programmed carrier in Hz.
func (s *Snapshot) Frequency() float64 {
	return registers.Frequency(&s.Registers)
}

// State returns the radio state at the time of the dump.
func (s *Snapshot) State() registers.RadioState {
	return registers.RadioState(s.Registers.MARCSTATE & 0x1F)
}

// Marshal encodes the snapshot as YAML.
func (s *Snapshot) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// SaveSnapshot writes snap to path, creating the directory.
func SaveSnapshot(snap *Snapshot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := snap.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// SnapshotPath is the default location of a device's snapshot.
func SnapshotPath(serial string) string {
	return filepath.Join("etc", "yardsticks", serial+".yaml")
}
