package config

import "sort"

var Presets = map[string]map[string]*Config{
	"lorenz": {
		"classic": {
			System: "lorenz", Stepper: "rk4", Dt: 0.01, Duration: 50.0,
			Init: []float64{1, 1, 1},
		},
		"stable": {
			System: "lorenz", Stepper: "rk4", Dt: 0.01, Duration: 30.0,
			Params: map[string]float64{"rho": 14},
			Init:   []float64{1, 1, 1},
		},
		"periodic": {
			System: "lorenz", Stepper: "rk4", Dt: 0.005, Duration: 30.0,
			Params: map[string]float64{"rho": 160},
			Init:   []float64{1, 1, 1},
		},
	},
	"double_pendulum": {
		"symmetric": {
			System: "double_pendulum", Stepper: "rk4", Dt: 0.005, Duration: 30.0,
			Init: []float64{1.5, 1.5, 0.0, 0.0},
		},
		"chaos": {
			System: "double_pendulum", Stepper: "rk4", Dt: 0.005, Duration: 60.0,
			Init: []float64{3.0, 3.0, 0.0, 0.0},
		},
		"gentle": {
			System: "double_pendulum", Stepper: "rk4", Dt: 0.01, Duration: 30.0,
			Init: []float64{0.3, 0.3, 0.0, 0.0},
		},
	},
	"logistic": {
		"fixed": {
			System: "logistic", Stepper: "map", Dt: 1, Duration: 200,
			Params: map[string]float64{"r": 2.8},
			Init:   []float64{0.3},
		},
		"period2": {
			System: "logistic", Stepper: "map", Dt: 1, Duration: 200,
			Params: map[string]float64{"r": 3.2},
			Init:   []float64{0.3},
		},
		"period4": {
			System: "logistic", Stepper: "map", Dt: 1, Duration: 200,
			Params: map[string]float64{"r": 3.5},
			Init:   []float64{0.3},
		},
		"chaos": {
			System: "logistic", Stepper: "map", Dt: 1, Duration: 500,
			Params: map[string]float64{"r": 4.0},
			Init:   []float64{0.3},
		},
	},
}

// GetPreset returns a copy of the named preset layered over the defaults, or
// nil if it does not exist.
func GetPreset(system, preset string) *Config {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	p, ok := systemPresets[preset]
	if !ok {
		return nil
	}

	cfg := DefaultConfig()
	cfg.System = p.System
	cfg.Stepper = p.Stepper
	cfg.Dt = p.Dt
	cfg.Duration = p.Duration
	out := p.Clone()
	cfg.Params = out.Params
	cfg.Init = out.Init
	return cfg
}

func ListPresets(system string) []string {
	systemPresets, ok := Presets[system]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(systemPresets))
	for name := range systemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
