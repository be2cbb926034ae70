package profiles

import (
	"fmt"
	"sort"

	"github.com/herlein/ookclone/pkg/pulse"
)

// Presets are common fixed-code remote settings, selectable by name.
var Presets = map[string]pulse.RadioSettings{
	"433-ook":      {FrequencyHz: 433920000, Modulation: pulse.ModulationOOK, SymbolRateBaud: 2400},
	"433-ook-fast": {FrequencyHz: 433920000, Modulation: pulse.ModulationOOK, SymbolRateBaud: 4800},
	"315-ook":      {FrequencyHz: 315000000, Modulation: pulse.ModulationOOK, SymbolRateBaud: 2400},
	"868-ook":      {FrequencyHz: 868350000, Modulation: pulse.ModulationOOK, SymbolRateBaud: 2400},
	"433-2fsk":     {FrequencyHz: 433920000, Modulation: pulse.Modulation2FSK, SymbolRateBaud: 4800},
}

// Preset looks up a named preset.
func Preset(name string) (pulse.RadioSettings, error) {
	s, ok := Presets[name]
	if !ok {
		return pulse.RadioSettings{}, fmt.Errorf("unknown preset %q (have %v)", name, PresetNames())
	}
	return s, nil
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
