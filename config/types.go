package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	BinDB   BinDBConfig   `mapstructure:"bindb"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// BinDBConfig holds bindb API connection details
type BinDBConfig struct {
	// Token is decoded separately so that a non-string value is rejected
	// rather than coerced.
	Token     string        `mapstructure:"-"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	VerifyTLS bool          `mapstructure:"verify_tls"`
	ErrorMode bool          `mapstructure:"error_mode"`
	Fields    []string      `mapstructure:"fields"`
}

// RulesConfig maps preset names to match expressions
type RulesConfig map[string]string

// OutputConfig controls how records are printed
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Color      bool   `mapstructure:"color"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}
