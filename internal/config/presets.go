package config

var Presets = map[string]*Config{
	"gentle": {
		Integrator: "rk4", Dt: 0.001, Duration: 20.0,
		InitState: InitStateConfig{Theta1: 0.3, Theta2: 0.3},
	},
	"symmetric": {
		Integrator: "rk4", Dt: 0.001, Duration: 30.0,
		InitState: InitStateConfig{Theta1: 1.5, Theta2: 1.5},
	},
	"chaos": {
		Integrator: "rk45", Dt: 0.001, Duration: 60.0,
		InitState: InitStateConfig{Theta1: 3.0, Theta2: 3.0},
	},
	"spinning": {
		Integrator: "rk4", Dt: 0.0005, Duration: 15.0,
		InitState: InitStateConfig{Theta1: 0.1, Theta2: 0.0, Omega1: 6.0, Omega2: 0.0},
	},
	"pointmass": {
		Integrator: "rk4", Dt: 0.001, Duration: 20.0,
		Pendulum: PendulumConfig{
			M1: 1, M2: 1, L1: 1, L2: 1, LC1: 1, LC2: 1,
			Gravity: 9.81,
		},
		InitState: InitStateConfig{Theta1: 0.8, Theta2: -0.4},
	},
}

// GetPreset returns a named preset with unset fields filled from the
// defaults, or nil if the name is unknown.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Integrator = p.Integrator
	if p.Dt > 0 {
		cfg.Dt = p.Dt
	}
	if p.Duration > 0 {
		cfg.Duration = p.Duration
	}
	if p.Pendulum != (PendulumConfig{}) {
		cfg.Pendulum = p.Pendulum
	}
	cfg.InitState = p.InitState
	return cfg
}

// ListPresets returns the available preset names.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
