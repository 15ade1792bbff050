package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPolyOrder = 1
	DefaultNumMasses = 6
	DefaultCacheDir  = "model_cache"
	DefaultMassBody  = 0.5
	DefaultMassEnd   = 0.5
	DefaultLength    = 1.0
	DefaultDiameter  = 0.1
)

type Config struct {
	PolyOrder int         `yaml:"poly_order"`
	NumMasses int         `yaml:"num_masses"`
	CacheDir  string      `yaml:"cache_dir"`
	Robot     RobotConfig `yaml:"robot"`
	InitState []float64   `yaml:"init_state"`
	Gamma     float64     `yaml:"gamma"`
}

// RobotConfig holds the physical parameters of the appendage.
type RobotConfig struct {
	MassBody float64 `yaml:"mass_body"` // distributed mass m_L
	MassEnd  float64 `yaml:"mass_end"`  // tip mass m_E
	Length   float64 `yaml:"length"`
	Diameter float64 `yaml:"diameter"`
}

func DefaultConfig() *Config {
	return &Config{
		PolyOrder: DefaultPolyOrder,
		NumMasses: DefaultNumMasses,
		CacheDir:  DefaultCacheDir,
		Robot: RobotConfig{
			MassBody: DefaultMassBody,
			MassEnd:  DefaultMassEnd,
			Length:   DefaultLength,
			Diameter: DefaultDiameter,
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
	if c.PolyOrder < 0 || c.PolyOrder > 2 {
		return fmt.Errorf("config: poly_order %d out of range [0,2]", c.PolyOrder)
	}
	if c.NumMasses < 1 {
		return fmt.Errorf("config: num_masses must be positive, got %d", c.NumMasses)
	}
	if c.Robot.Length <= 0 {
		return fmt.Errorf("config: length must be positive, got %g", c.Robot.Length)
	}
	if c.Robot.Diameter <= 0 {
		return fmt.Errorf("config: diameter must be positive, got %g", c.Robot.Diameter)
	}
	if c.Robot.MassBody < 0 || c.Robot.MassEnd < 0 {
		return fmt.Errorf("config: masses must be non-negative")
	}
	if len(c.InitState) != 0 && len(c.InitState) != c.PolyOrder+1 {
		return fmt.Errorf("config: init_state has %d values, model has %d states",
			len(c.InitState), c.PolyOrder+1)
	}
	return nil
}

// Params packs the robot parameters in the (m_L, m_E, L, D) order the
// evaluation layer expects.
func (c *Config) Params() []float64 {
	return []float64{c.Robot.MassBody, c.Robot.MassEnd, c.Robot.Length, c.Robot.Diameter}
}

// GetInitState returns the initial states, zero-filled when unset.
func (c *Config) GetInitState() []float64 {
	if len(c.InitState) == c.PolyOrder+1 {
		return append([]float64{}, c.InitState...)
	}
	return make([]float64, c.PolyOrder+1)
}
