package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ledkeys/ledkeys/internal/lighting"
)

type Config struct {
	Input      InputConfig      `yaml:"input"`
	Controller ControllerConfig `yaml:"controller"`
	State      StateConfig      `yaml:"state"`
	Status     StatusConfig     `yaml:"status"`
	Log        LogConfig        `yaml:"log"`
}

type InputConfig struct {
	Dir            string        `yaml:"dir"`
	Prefix         string        `yaml:"prefix"`
	RescanInterval time.Duration `yaml:"rescan_interval"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
}

type ControllerConfig struct {
	URL      string        `yaml:"url"`
	Category string        `yaml:"category"`
	Timeout  time.Duration `yaml:"timeout"`
}

// StateConfig is the lighting state at startup.
type StateConfig struct {
	Direction string `yaml:"direction"`
	Effect    string `yaml:"effect"`
	Preset    string `yaml:"preset"`
}

type StatusConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// File receives log output instead of stderr. The terminal variant
	// needs one because the TTY belongs to the UI.
	File string `yaml:"file"`
}

func defaultConfig() *Config {
	initial := lighting.DefaultState()
	return &Config{
		Input: InputConfig{
			Dir:            "/dev/input",
			Prefix:         "event",
			RescanInterval: 5 * time.Second,
			SettleDelay:    500 * time.Millisecond,
		},
		Controller: ControllerConfig{
			URL:      lighting.DefaultURL,
			Category: lighting.DefaultCategory,
			Timeout:  10 * time.Second,
		},
		State: StateConfig{
			Direction: initial.Direction.String(),
			Effect:    initial.Effect.String(),
			Preset:    initial.Preset,
		},
		Status: StatusConfig{
			Host: "127.0.0.1",
			Port: 8899,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads the YAML file at path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return defaultConfig(), nil
	}
	return cfg, err
}

// Validate checks the values a component would otherwise trip over at
// runtime.
func (c *Config) Validate() error {
	if c.Input.Dir == "" {
		return errors.New("input.dir must be set")
	}
	if c.Input.RescanInterval <= 0 {
		return fmt.Errorf("input.rescan_interval must be positive, got %s", c.Input.RescanInterval)
	}
	if c.Input.SettleDelay < 0 {
		return fmt.Errorf("input.settle_delay must not be negative, got %s", c.Input.SettleDelay)
	}
	if c.Controller.Timeout <= 0 {
		return fmt.Errorf("controller.timeout must be positive, got %s", c.Controller.Timeout)
	}
	u, err := url.Parse(c.Controller.URL)
	if err != nil {
		return fmt.Errorf("controller.url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("controller.url: unsupported scheme %q", u.Scheme)
	}
	if _, err := c.InitialState(); err != nil {
		return err
	}
	if c.Status.Enabled && (c.Status.Port <= 0 || c.Status.Port >= 65536) {
		return fmt.Errorf("status.port out of range: %d", c.Status.Port)
	}
	return nil
}

// InitialState converts the state section into a lighting.State.
func (c *Config) InitialState() (lighting.State, error) {
	dir, err := lighting.ParseDirection(c.State.Direction)
	if err != nil {
		return lighting.State{}, fmt.Errorf("state.direction: %w", err)
	}
	effect, err := lighting.ParseEffect(c.State.Effect)
	if err != nil {
		return lighting.State{}, fmt.Errorf("state.effect: %w", err)
	}
	if c.State.Preset == "" {
		return lighting.State{}, errors.New("state.preset must be set")
	}
	return lighting.State{Direction: dir, Effect: effect, Preset: c.State.Preset}, nil
}
