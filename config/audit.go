package config

import (
	"fmt"
)

// AuditConfig defines settings for audit trail storage and rotation.
type AuditConfig struct {
	// Backend selects the audit store type: "memory", "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the audit store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *AuditConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "audit.log"
	}
}

// Validate checks mandatory fields.
func (c AuditConfig) Validate() error {
	switch c.Backend {
	case "memory", "jsonl", "sqlite":
	default:
		return fmt.Errorf("unknown audit backend %s", c.Backend)
	}
	if c.Backend != "memory" && c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// StoreConfig selects the assignment store backend.
type StoreConfig struct {
	// Backend selects the assignment store type: "memory" or "sqlite".
	Backend string `json:"backend"`
	// Path is the SQLite database file, ignored for the memory backend.
	Path string `json:"path"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "assignments.db"
	}
}

func (c StoreConfig) Validate() error {
	switch c.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %s", c.Backend)
	}
	return nil
}

// APIConfig configures the optional HTTP audit endpoint.
type APIConfig struct {
	// Enabled starts the HTTP server when true.
	Enabled bool `json:"enabled"`
	// Address is the listen address, e.g. ":8880".
	Address string `json:"address"`
	// Token is the bearer token required on every request.
	Token string `json:"token"`
}
