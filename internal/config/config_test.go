package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ledkeys/ledkeys/internal/lighting"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ledkeys.yaml")

	yaml := `
input:
  dir: /tmp/input
  rescan_interval: 2s
controller:
  url: "http://127.0.0.1:9999/api/virtuals/both/presets"
state:
  direction: out
  effect: energy
  preset: rtb
status:
  enabled: true
  port: 9000
log:
  level: debug
`
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Input.Dir != "/tmp/input" {
		t.Errorf("Input.Dir = %q, want /tmp/input", cfg.Input.Dir)
	}
	if cfg.Input.RescanInterval != 2*time.Second {
		t.Errorf("Input.RescanInterval = %s, want 2s", cfg.Input.RescanInterval)
	}
	if cfg.Controller.URL != "http://127.0.0.1:9999/api/virtuals/both/presets" {
		t.Errorf("Controller.URL = %q", cfg.Controller.URL)
	}
	if !cfg.Status.Enabled || cfg.Status.Port != 9000 {
		t.Errorf("Status = %+v", cfg.Status)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}

	// Defaults should still be applied for unspecified fields.
	if cfg.Input.SettleDelay != 500*time.Millisecond {
		t.Errorf("Input.SettleDelay = %s, want default 500ms", cfg.Input.SettleDelay)
	}
	if cfg.Input.Prefix != "event" {
		t.Errorf("Input.Prefix = %q, want default event", cfg.Input.Prefix)
	}
	if cfg.Controller.Category != "user_presets" {
		t.Errorf("Controller.Category = %q, want default", cfg.Controller.Category)
	}
	if cfg.Status.Host != "127.0.0.1" {
		t.Errorf("Status.Host = %q, want default", cfg.Status.Host)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	st, err := cfg.InitialState()
	if err != nil {
		t.Fatal(err)
	}
	want := lighting.State{Direction: lighting.Out, Effect: lighting.Energy, Preset: "rtb"}
	if st != want {
		t.Errorf("InitialState() = %+v, want %+v", st, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/ledkeys.yaml")
	if err == nil {
		t.Fatal("Load() on missing file should return error")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "ledkeys.yaml")
	if err := os.WriteFile(cfgPath, []byte("input: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(cfgPath); err == nil {
		t.Fatal("LoadOrDefault() on malformed file should return error")
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/path/ledkeys.yaml")
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}

	if cfg.Input.Dir != "/dev/input" {
		t.Errorf("Input.Dir = %q, want default /dev/input", cfg.Input.Dir)
	}
	if cfg.Input.RescanInterval != 5*time.Second {
		t.Errorf("Input.RescanInterval = %s, want default 5s", cfg.Input.RescanInterval)
	}
	if cfg.Controller.URL != lighting.DefaultURL {
		t.Errorf("Controller.URL = %q, want default", cfg.Controller.URL)
	}
	if cfg.Status.Enabled {
		t.Error("Status.Enabled = true, want default false")
	}

	st, err := cfg.InitialState()
	if err != nil {
		t.Fatal(err)
	}
	if st != lighting.DefaultState() {
		t.Errorf("InitialState() = %+v, want default", st)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"bad direction", func(c *Config) { c.State.Direction = "sideways" }, "state.direction"},
		{"bad effect", func(c *Config) { c.State.Effect = "strobe" }, "state.effect"},
		{"empty preset", func(c *Config) { c.State.Preset = "" }, "state.preset"},
		{"zero rescan", func(c *Config) { c.Input.RescanInterval = 0 }, "rescan_interval"},
		{"negative settle", func(c *Config) { c.Input.SettleDelay = -time.Second }, "settle_delay"},
		{"empty dir", func(c *Config) { c.Input.Dir = "" }, "input.dir"},
		{"zero timeout", func(c *Config) { c.Controller.Timeout = 0 }, "controller.timeout"},
		{"ws scheme", func(c *Config) { c.Controller.URL = "ws://host/presets" }, "unsupported scheme"},
		{"status port", func(c *Config) { c.Status.Enabled = true; c.Status.Port = 0 }, "status.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
