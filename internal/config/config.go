// Package config loads the command-line tool's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file-level configuration. Command-line flags override it.
type Config struct {
	LogLevel    string `yaml:"log_level"`
	Section     string `yaml:"section"`
	Workers     int    `yaml:"workers"`
	DetectAtmos *bool  `yaml:"detect_atmos"`
	ScanSEI     *bool  `yaml:"scan_sei"`
	Remote      Remote `yaml:"remote"`
}

// Remote configures HTTP sources.
type Remote struct {
	ChunkSize  int64    `yaml:"chunk_size"`
	MaxFetches int      `yaml:"max_fetches"`
	Timeout    Duration `yaml:"timeout"`
}

// Duration is a time.Duration written as "30s" or "1m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "warn",
		Remote: Remote{
			ChunkSize:  32 * 1024,
			MaxFetches: 100,
			Timeout:    Duration{30 * time.Second},
		},
	}
}

// Load reads path over the defaults. An empty path, or a missing file when
// optional is set, yields the defaults.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseLevel maps "debug", "info", "warn" or "error" to a slog level.
// Unknown names give slog.LevelInfo.
func ParseLevel(level string) slog.Level {
	var lv slog.LevelVar
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lv.Level()
}
