package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	DefaultFolder string   `koanf:"default_folder"`
	Volume        *float64 `koanf:"volume"` // 0.0-1.0 (default: 1.0)

	// Silence skipping settings
	Silence SilenceConfig `koanf:"silence"`
}

// SilenceConfig holds silence detection and skip settings.
type SilenceConfig struct {
	Enabled      *bool    `koanf:"enabled"`        // skip silence at track boundaries (default: true)
	ThresholdDB  *float64 `koanf:"threshold_db"`   // amplitude threshold in dBFS, -100 to 0 (default: -60)
	MinSilenceMs int      `koanf:"min_silence_ms"` // minimum qualifying run in ms, 100-5000 (default: 500)
}

// SilenceSettings is SilenceConfig with defaults and clamps applied.
type SilenceSettings struct {
	Enabled     bool
	ThresholdDB float64
	MinSilence  time.Duration
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		DefaultFolder: "", // empty means use cwd
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Expand ~ in default_folder
	if cfg.DefaultFolder != "" {
		cfg.DefaultFolder = expandPath(cfg.DefaultFolder)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/hush/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "hush", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetVolume returns the configured volume clamped to 0.0-1.0.
func (c *Config) GetVolume() float64 {
	if c.Volume == nil {
		return 1.0
	}
	v := *c.Volume
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// GetSilenceSettings returns the silence configuration with defaults and
// clamps applied.
func (c *Config) GetSilenceSettings() SilenceSettings {
	s := SilenceSettings{
		Enabled:     true,
		ThresholdDB: -60,
		MinSilence:  500 * time.Millisecond,
	}

	if c.Silence.Enabled != nil {
		s.Enabled = *c.Silence.Enabled
	}
	if c.Silence.ThresholdDB != nil {
		s.ThresholdDB = *c.Silence.ThresholdDB
	}
	if c.Silence.MinSilenceMs != 0 {
		s.MinSilence = time.Duration(c.Silence.MinSilenceMs) * time.Millisecond
	}

	// Clamp to supported detection ranges
	if s.ThresholdDB < -100 {
		s.ThresholdDB = -100
	}
	if s.ThresholdDB > 0 {
		s.ThresholdDB = 0
	}
	if s.MinSilence < 100*time.Millisecond {
		s.MinSilence = 100 * time.Millisecond
	}
	if s.MinSilence > 5*time.Second {
		s.MinSilence = 5 * time.Second
	}

	return s
}
