package config

import "sort"

var Presets = map[string]*Config{
	"smoke": {
		Steps: 1000, Dt: DefaultDt, Workers: 1, SampleEvery: 10, DataDir: DefaultDataDir,
	},
	"reference": {
		Steps: 1000, Dt: DefaultDt, Preview: true, RequireFinite: true, Workers: 1, SampleEvery: 10, DataDir: DefaultDataDir,
	},
	"conservation": {
		Steps: 10000, Dt: DefaultDt, Preview: true, RequireFinite: true, Workers: 1, SampleEvery: 50, DataDir: DefaultDataDir,
	},
	"benchmark": {
		Steps: 50000000, Dt: DefaultDt, Preview: true, RequireFinite: true, Workers: 1, DataDir: DefaultDataDir,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
