package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"shnth-control/flash"
)

// FlashConfig selects where presets are persisted.
type FlashConfig struct {
	Backend string `json:"backend"`
	Path    string `json:"path,omitempty"` // directory; defaults to ~/.config/shnth-control/flash
}

// TopologyConfig sizes the simulated module.
type TopologyConfig struct {
	Gates   int `json:"gates"`
	Presets int `json:"presets"`
	CVs     int `json:"cvs"`
}

// MIDIConfig defines the MIDI input
type MIDIConfig struct {
	InputPort   string `json:"inputPort,omitempty"` // substring of the port name
	AutoConnect bool   `json:"autoConnect"`
}

// Config is the main configuration structure
type Config struct {
	Flash           FlashConfig    `json:"flash"`
	Topology        TopologyConfig `json:"topology"`
	ScreenRefreshMS int            `json:"screenRefreshMs"`
	MIDI            MIDIConfig     `json:"midi"`
	Debug           bool           `json:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Flash: FlashConfig{Backend: flash.BackendSQLite},
		Topology: TopologyConfig{
			Gates:   4,
			Presets: 8,
			CVs:     4,
		},
		ScreenRefreshMS: 63,
		MIDI:            MIDIConfig{AutoConnect: true},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "shnth-control"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from the default path, or returns defaults if not
// found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path. Keys missing from the file keep their
// defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the controller cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Flash.Backend {
	case flash.BackendMemory, flash.BackendFile, flash.BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("flash.backend %q: want %s, %s or %s",
			c.Flash.Backend, flash.BackendSQLite, flash.BackendFile, flash.BackendMemory))
	}
	if c.Topology.Gates < 1 {
		errs = append(errs, fmt.Errorf("topology.gates %d: must be at least 1", c.Topology.Gates))
	}
	if c.Topology.Presets < 1 {
		errs = append(errs, fmt.Errorf("topology.presets %d: must be at least 1", c.Topology.Presets))
	}
	if c.Topology.CVs < 1 {
		errs = append(errs, fmt.Errorf("topology.cvs %d: must be at least 1", c.Topology.CVs))
	}
	if c.ScreenRefreshMS < 1 || c.ScreenRefreshMS > 0xFFFF {
		errs = append(errs, fmt.Errorf("screenRefreshMs %d: must be between 1 and 65535", c.ScreenRefreshMS))
	}
	return errors.Join(errs...)
}

// Save writes the config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// OpenFlash opens the configured persistence medium.
func (c *Config) OpenFlash() (flash.Medium, error) {
	return flash.Open(c.Flash.Backend, c.Flash.Path)
}
