package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mechdiff/internal/mech"
)

const (
	DefaultDt       = 0.001
	DefaultDuration = 10.0
	DefaultTheta    = 0.5
)

type Config struct {
	Integrator string          `yaml:"integrator"`
	Dt         float64         `yaml:"dt"`
	Duration   float64         `yaml:"duration"`
	Pendulum   PendulumConfig  `yaml:"pendulum"`
	InitState  InitStateConfig `yaml:"init_state"`
}

type PendulumConfig struct {
	M1      float64 `yaml:"m1"`
	M2      float64 `yaml:"m2"`
	L1      float64 `yaml:"l1"`
	L2      float64 `yaml:"l2"`
	LC1     float64 `yaml:"lc1"`
	LC2     float64 `yaml:"lc2"`
	I1      float64 `yaml:"i1"`
	I2      float64 `yaml:"i2"`
	Gravity float64 `yaml:"gravity"`
}

type InitStateConfig struct {
	Theta1 float64 `yaml:"theta1"`
	Theta2 float64 `yaml:"theta2"`
	Omega1 float64 `yaml:"omega1"`
	Omega2 float64 `yaml:"omega2"`
}

func DefaultConfig() *Config {
	p := mech.DefaultDoublePendulumParams()
	return &Config{
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Pendulum: PendulumConfig{
			M1: p.M1, M2: p.M2,
			L1: p.L1, L2: p.L2,
			LC1: p.LC1, LC2: p.LC2,
			I1: p.I1, I2: p.I2,
			Gravity: p.Gravity,
		},
		InitState: InitStateConfig{
			Theta1: DefaultTheta,
			Theta2: DefaultTheta,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("config: duration must be positive, got %f", c.Duration)
	}
	p := c.Pendulum
	for name, v := range map[string]float64{
		"m1": p.M1, "m2": p.M2, "l1": p.L1, "l2": p.L2,
	} {
		if v <= 0 {
			return fmt.Errorf("config: pendulum %s must be positive, got %f", name, v)
		}
	}
	return nil
}

// Params converts the pendulum section into mechanism parameters.
func (c *Config) Params() mech.DoublePendulumParams {
	p := c.Pendulum
	return mech.DoublePendulumParams{
		M1: p.M1, M2: p.M2,
		L1: p.L1, L2: p.L2,
		LC1: p.LC1, LC2: p.LC2,
		I1: p.I1, I2: p.I2,
		Gravity: p.Gravity,
	}
}

// GetInitState packs the initial condition as [q; v].
func (c *Config) GetInitState() []float64 {
	return []float64{
		c.InitState.Theta1, c.InitState.Theta2,
		c.InitState.Omega1, c.InitState.Omega2,
	}
}
