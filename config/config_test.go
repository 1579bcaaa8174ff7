package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/bindb/bindb"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() *Config {
	return &Config{
		BinDB: BinDBConfig{
			BaseURL: bindb.DefaultBaseURL,
			Timeout: bindb.DefaultTimeout,
		},
		Output: OutputConfig{Format: "auto"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
bindb:
  token: fakeToken
  timeout: 5s
  error_mode: true
  fields: [bin, issuer]
rules:
  visa: vendor == "VISA"
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fakeToken", cfg.BinDB.Token)
	assert.Equal(t, bindb.DefaultBaseURL, cfg.BinDB.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.BinDB.Timeout)
	assert.True(t, cfg.BinDB.ErrorMode)
	assert.False(t, cfg.BinDB.VerifyTLS)
	assert.Equal(t, []string{"bin", "issuer"}, cfg.BinDB.Fields)
	assert.Equal(t, `vendor == "VISA"`, cfg.Rules["visa"])
	assert.Equal(t, "auto", cfg.Output.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Empty(t, cfg.BinDB.Token)
	assert.Equal(t, bindb.DefaultBaseURL, cfg.BinDB.BaseURL)
	assert.Equal(t, bindb.DefaultTimeout, cfg.BinDB.Timeout)
	assert.False(t, cfg.BinDB.ErrorMode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.True(t, cfg.Logging.Color)
}

func TestLoadTokenTypes(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "string", token: "fakeToken"},
		{name: "quoted number", token: `"123456"`},
		{name: "null", token: "null"},
		{name: "number", token: "123456", wantErr: true},
		{name: "boolean", token: "true", wantErr: true},
		{name: "list", token: "[fakeToken]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "bindb:\n  token: "+tt.token+"\n"))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, bindb.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLoadTokenFromEnv(t *testing.T) {
	t.Setenv("BINDB_TOKEN", "envToken")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)
	assert.Equal(t, "envToken", cfg.BinDB.Token)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:    "relative base URL",
			modify:  func(c *Config) { c.BinDB.BaseURL = "bindb.me" },
			wantErr: "bindb.base_url",
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.BinDB.Timeout = 0 },
			wantErr: "bindb.timeout",
		},
		{
			name:    "field with comma",
			modify:  func(c *Config) { c.BinDB.Fields = []string{"bin,issuer"} },
			wantErr: "bindb.fields",
		},
		{
			name:    "invalid output",
			modify:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: "invalid output format",
		},
		{
			name:    "invalid level",
			modify:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "invalid logging level",
		},
		{
			name:    "invalid logging format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format",
		},
		{
			name:    "empty rule",
			modify:  func(c *Config) { c.Rules = RulesConfig{"visa": " "} },
			wantErr: "empty expression",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
