package config

import (
	"fmt"
	"strings"
)

// Config represents the full application configuration.
type Config struct {
	Placement PlacementConfig `mapstructure:"placement"`
	Git       GitConfig       `mapstructure:"git"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// PlacementConfig holds the engine limits.
type PlacementConfig struct {
	// MaxComments caps inline comments per review batch.
	MaxComments int `mapstructure:"maxComments"`

	// PlatformCeiling is the host's hard per-review comment limit.
	// It wins over MaxComments regardless of configuration.
	PlatformCeiling int `mapstructure:"platformCeiling"`

	// SeverityThreshold drops findings strictly below it (HIGH, MEDIUM, LOW).
	SeverityThreshold string `mapstructure:"severityThreshold"`

	// AdjustTolerance is the maximum line distance a near-miss finding
	// may be moved onto a hunk boundary.
	AdjustTolerance int `mapstructure:"adjustTolerance"`

	// LabelSeverities maps AI suggestion labels (e.g. "Enhancement")
	// to severities. Unmapped labels default to MEDIUM.
	LabelSeverities map[string]string `mapstructure:"labelSeverities"`
}

type GitConfig struct {
	RepositoryDir string `mapstructure:"repositoryDir"`
}

// GitHubConfig identifies where reviews are published.
type GitHubConfig struct {
	Owner string `mapstructure:"owner"`
	Repo  string `mapstructure:"repo"`
}

// StoreConfig configures the diagnostics persistence layer.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // human, json, auto
}

// Validate rejects configuration the pipeline must never run with.
// Called eagerly at startup so bad limits fail before any work begins.
func (c Config) Validate() error {
	p := c.Placement
	if p.MaxComments <= 0 {
		return fmt.Errorf("config: placement.maxComments must be positive, got %d", p.MaxComments)
	}
	if p.PlatformCeiling <= 0 {
		return fmt.Errorf("config: placement.platformCeiling must be positive, got %d", p.PlatformCeiling)
	}
	if p.AdjustTolerance < 0 {
		return fmt.Errorf("config: placement.adjustTolerance must not be negative, got %d", p.AdjustTolerance)
	}
	switch strings.ToUpper(p.SeverityThreshold) {
	case "HIGH", "MEDIUM", "LOW":
	default:
		return fmt.Errorf("config: placement.severityThreshold must be HIGH, MEDIUM or LOW, got %q", p.SeverityThreshold)
	}
	for label, sev := range p.LabelSeverities {
		switch strings.ToUpper(sev) {
		case "HIGH", "MEDIUM", "LOW":
		default:
			return fmt.Errorf("config: placement.labelSeverities[%s] must be HIGH, MEDIUM or LOW, got %q", label, sev)
		}
	}
	return nil
}
