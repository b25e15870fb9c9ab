package config

import (
	"fmt"
	"path/filepath"
)

// Rule severities accepted in lint.rules.
const (
	SeverityError = "error"
	SeverityWarn  = "warn"
	SeverityOff   = "off"
)

// LintConfig configures the route linter. Rules take no options; only their severity
// can be changed here.
type LintConfig struct {
	Include     []string          `yaml:"include"`
	Exclude     []string          `yaml:"exclude"`
	Rules       map[string]string `yaml:"rules"`
	Concurrency int               `yaml:"concurrency" env:"SMARTCOOK_LINT_CONCURRENCY"`
	Format      string            `yaml:"format"` // text, json
	CacheDir    string            `yaml:"cache_dir" env:"SMARTCOOK_LINT_CACHE_DIR"`
	NoCache     bool              `yaml:"no_cache"`
}

// CachePath is the sqlite file holding cached lint results.
func (c LintConfig) CachePath() string {
	return filepath.Join(c.CacheDir, "lintcache.db")
}

func (c LintConfig) validate() error {
	for id, sev := range c.Rules {
		switch sev {
		case SeverityError, SeverityWarn, SeverityOff:
		default:
			return fmt.Errorf("invalid severity %q for rule %s (valid: error, warn, off)", sev, id)
		}
	}
	switch c.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid lint format: %s (valid: text, json)", c.Format)
	}
	return nil
}

// ValidateLint checks only the lint section.
func (c *Config) ValidateLint() error {
	return c.Lint.validate()
}
