package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validCfg returns a fully-valid Config for mutation testing.
func validCfg() *Config {
	return &Config{
		Store:   StoreConfig{Backend: BackendMemory},
		Neo4j:   Neo4jConfig{URI: "bolt://localhost:7687", Username: "neo4j", Database: "neo4j"},
		SLA:     SLAConfig{DefaultHours: DefaultSLAHours, SweepSchedule: DefaultSweepSchedule},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"neo4j backend", func(c *Config) { c.Store.Backend = BackendNeo4j }, ""},
		{"unknown backend", func(c *Config) { c.Store.Backend = "postgres" }, "store.backend"},
		{"neo4j without uri", func(c *Config) { c.Store.Backend = BackendNeo4j; c.Neo4j.URI = "" }, "neo4j.uri"},
		{"memory ignores uri", func(c *Config) { c.Neo4j.URI = "" }, ""},
		{"sla zero", func(c *Config) { c.SLA.DefaultHours = 0 }, "sla.default_hours"},
		{"sla too long", func(c *Config) { c.SLA.DefaultHours = MaxSLAHours + 1 }, "sla.default_hours"},
		{"sla max", func(c *Config) { c.SLA.DefaultHours = MaxSLAHours }, ""},
		{"empty schedule", func(c *Config) { c.SLA.SweepSchedule = "" }, "sla.sweep_schedule"},
		{"bad level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validCfg()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  backend: neo4j
neo4j:
  uri: bolt://db:7687
sla:
  default_hours: 48
logging:
  level: debug
`), 0o600))
	t.Setenv("COMPLAINT_ROUTER_NEO4J_PASSWORD", "s3cret-password")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test-key")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendNeo4j, cfg.Store.Backend)
	assert.Equal(t, "bolt://db:7687", cfg.Neo4j.URI)
	assert.Equal(t, "s3cret-password", cfg.Neo4j.Password)
	assert.Equal(t, 48, cfg.SLA.DefaultHours)
	assert.Equal(t, DefaultSweepSchedule, cfg.SLA.SweepSchedule)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "sk-ant-test-key", cfg.Claude.APIKey)
	assert.Equal(t, ":8080", cfg.API.ListenAddr)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sla:\n  default_hours: 0\n"), 0o600))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sla.default_hours")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSecretsAreMasked(t *testing.T) {
	c := ClaudeConfig{APIKey: "sk-ant-abcdefghijklmnop", Model: "m"}
	assert.False(t, strings.Contains(c.String(), "abcdefghijkl"))
	assert.Contains(t, c.String(), "sk-a****mnop")

	n := Neo4jConfig{URI: "bolt://x", Password: "short"}
	assert.Contains(t, n.String(), "Password:***")
}
