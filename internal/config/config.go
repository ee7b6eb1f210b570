package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultKp    = 3.345
	DefaultKi    = 0.014
	DefaultKd    = 3.486
	DefaultMass  = 1.0
	DefaultWind  = 0.0
	DefaultSpeed = 2.2

	DefaultDt       = 1.0 / 60.0
	DefaultDuration = 20.0

	DefaultMaxPoints  = 300
	DefaultTimeWindow = 10.0
)

type Config struct {
	Controller ControllerConfig `yaml:"controller"`
	Platform   PlatformConfig   `yaml:"platform"`
	Run        RunConfig        `yaml:"run"`
	Graph      GraphConfig      `yaml:"graph"`
}

type ControllerConfig struct {
	Kp        float64 `yaml:"kp"`
	Ki        float64 `yaml:"ki"`
	Kd        float64 `yaml:"kd"`
	PEnabled  bool    `yaml:"p_enabled"`
	IEnabled  bool    `yaml:"i_enabled"`
	DEnabled  bool    `yaml:"d_enabled"`
}

type PlatformConfig struct {
	Mass  float64 `yaml:"mass"`
	Wind  float64 `yaml:"wind"`
	Start float64 `yaml:"start"` // initial position; 0 means track center
}

type RunConfig struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
	Speed    float64 `yaml:"speed"`
}

type GraphConfig struct {
	MaxPoints  int     `yaml:"max_points"`
	TimeWindow float64 `yaml:"time_window"`
}

func DefaultConfig() *Config {
	return &Config{
		Controller: ControllerConfig{
			Kp:       DefaultKp,
			Ki:       DefaultKi,
			Kd:       DefaultKd,
			PEnabled: true,
			IEnabled: true,
			DEnabled: true,
		},
		Platform: PlatformConfig{
			Mass: DefaultMass,
			Wind: DefaultWind,
		},
		Run: RunConfig{
			Dt:       DefaultDt,
			Duration: DefaultDuration,
			Speed:    DefaultSpeed,
		},
		Graph: GraphConfig{
			MaxPoints:  DefaultMaxPoints,
			TimeWindow: DefaultTimeWindow,
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
		return nil, fmt.Errorf("config %s: %w", path, err)
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
	if c.Platform.Mass <= 0 {
		return fmt.Errorf("platform mass must be positive, got %f", c.Platform.Mass)
	}
	if c.Run.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", c.Run.Dt)
	}
	if c.Run.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Run.Duration)
	}
	if c.Run.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %f", c.Run.Speed)
	}
	return nil
}
