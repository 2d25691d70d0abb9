// Package config handles voxforge configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/voxforge/pkg/rtree"
)

// ErrInvalidConfig is returned when loaded values are out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Index    IndexConfig    `yaml:"index"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// IndexConfig holds spatial index tuning.
type IndexConfig struct {
	MaxEntries int `yaml:"max_entries" env:"VOXFORGE_INDEX_MAX_ENTRIES"` // Node capacity
	MinEntries int `yaml:"min_entries" env:"VOXFORGE_INDEX_MIN_ENTRIES"` // 0 = 40% of max
}

// Options converts the config into R-tree options.
func (c IndexConfig) Options() rtree.Options {
	return rtree.Options{MaxEntries: c.MaxEntries, MinEntries: c.MinEntries}
}

// SnapshotConfig holds snapshot file settings.
type SnapshotConfig struct {
	Dir      string `yaml:"dir" env:"VOXFORGE_SNAPSHOT_DIR"`
	Compress bool   `yaml:"compress" env:"VOXFORGE_SNAPSHOT_COMPRESS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" env:"VOXFORGE_LOG_LEVEL"`
	LogFile string `yaml:"log_file" env:"VOXFORGE_LOG_FILE"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Index: IndexConfig{
			MaxEntries: rtree.DefaultMaxEntries,
			MinEntries: 0,
		},
		Snapshot: SnapshotConfig{
			Dir:      ".",
			Compress: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks value ranges that would otherwise panic deep inside the index.
func (c *Config) Validate() error {
	maxEntries := c.Index.MaxEntries
	if maxEntries < 2 {
		return fmt.Errorf("%w: index.max_entries must be at least 2, got %d", ErrInvalidConfig, maxEntries)
	}
	if c.Index.MinEntries < 0 || c.Index.MinEntries > maxEntries/2 {
		return fmt.Errorf("%w: index.min_entries must be in [0, %d], got %d", ErrInvalidConfig, maxEntries/2, c.Index.MinEntries)
	}
	return nil
}
