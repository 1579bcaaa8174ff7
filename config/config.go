package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/s0up4200/bindb/bindb"
)

// Load loads the configuration from file and environment. A missing file is
// only an error when configPath names it explicitly.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix("BINDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("bindb.token", "BINDB_TOKEN"); err != nil {
		return nil, fmt.Errorf("error binding environment: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".bindb"))
		}

		// Check /etc
		v.AddConfigPath("/etc/bindb/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && configPath == "":
			// defaults and environment only
		case errors.As(err, &notFound):
			return nil, fmt.Errorf("config file not found: %w", err)
		default:
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	token, err := bindb.ParseToken(v.Get("bindb.token"))
	if err != nil {
		return nil, fmt.Errorf("invalid bindb.token: %w", err)
	}
	cfg.BinDB.Token = token

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// bindb defaults
	v.SetDefault("bindb.base_url", bindb.DefaultBaseURL)
	v.SetDefault("bindb.timeout", bindb.DefaultTimeout)
	v.SetDefault("bindb.verify_tls", false)
	v.SetDefault("bindb.error_mode", false)
	v.SetDefault("bindb.fields", []string{})

	// Output defaults
	v.SetDefault("output.format", "auto")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	u, err := url.Parse(cfg.BinDB.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("bindb.base_url must be an absolute http(s) URL: %q", cfg.BinDB.BaseURL)
	}

	if cfg.BinDB.Timeout <= 0 {
		return fmt.Errorf("bindb.timeout must be positive, got %s", cfg.BinDB.Timeout)
	}

	for _, field := range cfg.BinDB.Fields {
		if strings.TrimSpace(field) == "" || strings.ContainsAny(field, ",&?#/ ") {
			return fmt.Errorf("invalid field name in bindb.fields: %q", field)
		}
	}

	// Validate output format
	validOutputs := map[string]bool{
		"auto":  true,
		"json":  true,
		"table": true,
	}
	if !validOutputs[cfg.Output.Format] {
		return fmt.Errorf("invalid output format: %s", cfg.Output.Format)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	for name, expression := range cfg.Rules {
		if strings.TrimSpace(expression) == "" {
			return fmt.Errorf("rule %q has an empty expression", name)
		}
	}

	return nil
}
