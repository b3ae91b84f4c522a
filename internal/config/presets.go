package config

var presets = map[string]map[string]*Config{
	"brusselator": {
		"classic": {
			Model: "brusselator", Stepper: "rk4", Forcing: "none", Boundary: "clamped",
			Grid:   GridConfig{N: 32, XMin: 0, XMax: 1, YMin: 0, YMax: 1},
			Params: ParamsConfig{Alpha: 10, A: 1, B: 3.4},
			Dt:     0.001, Duration: 11.5, SampleEvery: 0.1,
		},
		"forced": {
			Model: "brusselator", Stepper: "rk4", Forcing: "pulse", Boundary: "clamped",
			Grid:   GridConfig{N: 32, XMin: 0, XMax: 1, YMin: 0, YMax: 1},
			Params: ParamsConfig{Alpha: 10, A: 1, B: 3.4},
			Pulse:  PulseConfig{Amp: 5, X: 0.3, Y: 0.6, Radius2: 0.01, Onset: 1.1},
			Dt:     0.001, Duration: 11.5, SampleEvery: 0.1,
		},
		"periodic": {
			Model: "brusselator", Stepper: "rk4", Forcing: "none", Boundary: "periodic",
			Grid:   GridConfig{N: 32, XMin: 0, XMax: 1, YMin: 0, YMax: 1},
			Params: ParamsConfig{Alpha: 10, A: 1, B: 3.4},
			Dt:     0.001, Duration: 11.5, SampleEvery: 0.1,
		},
		"fine": {
			Model: "brusselator", Stepper: "rk45", Forcing: "pulse", Boundary: "clamped",
			Grid:   GridConfig{N: 64, XMin: 0, XMax: 1, YMin: 0, YMax: 1},
			Params: ParamsConfig{Alpha: 10, A: 1, B: 3.4},
			Pulse:  PulseConfig{Amp: 5, X: 0.3, Y: 0.6, Radius2: 0.01, Onset: 1.1},
			Dt:     0.0005, Duration: 11.5, SampleEvery: 0.1, Workers: 4,
		},
	},
	"diffusion": {
		"spot": {
			Model: "diffusion", Stepper: "rk4", Forcing: "none", Boundary: "periodic",
			Grid:   GridConfig{N: 48, XMin: 0, XMax: 1, YMin: 0, YMax: 1},
			Params: ParamsConfig{Alpha: 1},
			Dt:     0.0001, Duration: 0.5, SampleEvery: 0.01,
		},
		"neumann": {
			Model: "diffusion", Stepper: "rk4", Forcing: "none", Boundary: "clamped",
			Grid:   GridConfig{N: 48, XMin: 0, XMax: 1, YMin: 0, YMax: 1},
			Params: ParamsConfig{Alpha: 1},
			Dt:     0.0001, Duration: 0.5, SampleEvery: 0.01,
		},
	},
}

func GetPreset(model, name string) *Config {
	group, ok := presets[model]
	if !ok {
		return nil
	}
	cfg, ok := group[name]
	if !ok {
		return nil
	}
	clone := *cfg
	return &clone
}

func ListPresets(model string) []string {
	group, ok := presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	return names
}
