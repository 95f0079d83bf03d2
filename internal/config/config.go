package config

import (
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/integrators"
	"github.com/san-kum/chaoslab/internal/physics"
)

const (
	DefaultSystem         = "lorenz"
	DefaultStepper        = "rk4"
	DefaultDt             = 0.01
	DefaultDuration       = 10.0
	DefaultSeed           = 42
	DefaultRuns           = 10
	DefaultLyapunovSteps  = 20000
	DefaultMapIterations  = 100000
	DefaultBifurcationX0  = 0.3
	DefaultTransientIters = 500
	DefaultKeptIters      = 100
)

type Config struct {
	System      string             `yaml:"system"`
	Stepper     string             `yaml:"stepper"`
	Dt          float64            `yaml:"dt"`
	Duration    float64            `yaml:"duration"`
	Seed        int64              `yaml:"seed"`
	Params      map[string]float64 `yaml:"params,omitempty"`
	Init        []float64          `yaml:"init,omitempty"`
	Noise       float64            `yaml:"noise,omitempty"`
	Runs        int                `yaml:"runs"`
	Lyapunov    LyapunovConfig     `yaml:"lyapunov"`
	Bifurcation BifurcationConfig  `yaml:"bifurcation"`
}

type LyapunovConfig struct {
	Steps      int `yaml:"steps"`      // ticks for continuous systems
	Iterations int `yaml:"iterations"` // iterations for discrete maps
}

type BifurcationConfig struct {
	RMin      float64 `yaml:"r_min"`
	RMax      float64 `yaml:"r_max"`
	RStep     float64 `yaml:"r_step"`
	X0        float64 `yaml:"x0"`
	Transient int     `yaml:"transient"`
	Keep      int     `yaml:"keep"`
}

func DefaultConfig() *Config {
	return &Config{
		System:   DefaultSystem,
		Stepper:  DefaultStepper,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Seed:     DefaultSeed,
		Runs:     DefaultRuns,
		Lyapunov: LyapunovConfig{
			Steps:      DefaultLyapunovSteps,
			Iterations: DefaultMapIterations,
		},
		Bifurcation: BifurcationConfig{
			RMin:      2.5,
			RMax:      4.0,
			RStep:     0.005,
			X0:        DefaultBifurcationX0,
			Transient: DefaultTransientIters,
			Keep:      DefaultKeptIters,
		},
	}
}

// Load reads a YAML file on top of DefaultConfig, so omitted keys keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
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

func (c *Config) Clone() *Config {
	out := *c
	out.Params = maps.Clone(c.Params)
	out.Init = append([]float64(nil), c.Init...)
	return &out
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	if c.Noise < 0 {
		return fmt.Errorf("noise must not be negative, got %f", c.Noise)
	}
	if c.Runs < 0 {
		return fmt.Errorf("runs must not be negative, got %d", c.Runs)
	}
	if _, err := physics.New(c.System); err != nil {
		return err
	}
	if _, err := integrators.New(c.Stepper); err != nil {
		return err
	}
	return nil
}

// Build instantiates the configured system with Params applied.
func (c *Config) Build() (dynamo.System, error) {
	sys, err := physics.New(c.System)
	if err != nil {
		return nil, err
	}
	if err := physics.Apply(sys, c.Params); err != nil {
		return nil, err
	}
	return sys, nil
}

// InitState returns the configured initial state, or the system default when
// none is set.
func (c *Config) InitState(sys dynamo.System) (dynamo.State, error) {
	if len(c.Init) == 0 {
		return physics.DefaultState(sys), nil
	}
	x := dynamo.State(append([]float64(nil), c.Init...))
	if err := dynamo.CheckDimension(sys, x); err != nil {
		return nil, fmt.Errorf("init state: %w", err)
	}
	return x, nil
}
