package config

import (
	"fmt"

	"github.com/kilianp07/wwcp/infra/commandlog"
)

// CommandLogConfig defines settings for command log storage and rotation.
type CommandLogConfig struct {
	// Backend selects the store type: "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
	// Buffer is the number of pending commands before publishers wait for
	// the store.
	Buffer int `json:"buffer"`
}

// SetDefaults applies sane defaults.
func (c *CommandLogConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "none"
	}
	if c.Path == "" && c.Backend != "none" {
		c.Path = "commands.log"
	}
	if c.Buffer <= 0 {
		c.Buffer = 1024
	}
}

// Validate checks mandatory fields.
func (c CommandLogConfig) Validate() error {
	switch c.Backend {
	case "none":
		return nil
	case "jsonl", "sqlite":
	default:
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// Store returns the store configuration.
func (c CommandLogConfig) Store() commandlog.Config {
	return commandlog.Config{
		Backend:    c.Backend,
		Path:       c.Path,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
	}
}
