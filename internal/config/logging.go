package config

import "smartcook/internal/logging"

// LoggingConfig configures category file logging.
type LoggingConfig struct {
	Level      string          `yaml:"level" env:"SMARTCOOK_LOG_LEVEL"`      // debug, info, warn, error
	Format     string          `yaml:"format"`                               // json, text
	DebugMode  bool            `yaml:"debug_mode" env:"SMARTCOOK_DEBUG"`     // Master toggle - false = no logging (production)
	Categories map[string]bool `yaml:"categories"`                           // Per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Returns false if debug_mode is false (production mode).
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// ToLogging converts to the logging package's options.
func (c LoggingConfig) ToLogging() logging.Config {
	return logging.Config{
		DebugMode:  c.DebugMode,
		Level:      c.Level,
		JSONFormat: c.Format == "json",
		Categories: c.Categories,
	}
}
