package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// DefaultSLAHours applies to complaints no department claims.
	DefaultSLAHours = 72

	// MaxSLAHours is the longest SLA a department or the default may carry (30 days).
	MaxSLAHours = 720

	// DefaultSweepSchedule runs the SLA sweep every 15 minutes.
	DefaultSweepSchedule = "@every 15m"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendNeo4j  = "neo4j"
)

// Config holds all configuration for complaint-router.
type Config struct {
	Store      StoreConfig      `mapstructure:"store"`
	Neo4j      Neo4jConfig      `mapstructure:"neo4j"`
	Claude     ClaudeConfig     `mapstructure:"claude"`
	SLA        SLAConfig        `mapstructure:"sla"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	API        APIConfig        `mapstructure:"api"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

// Neo4jConfig holds Neo4j connection settings.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// String returns a safe representation of Neo4jConfig with the password masked.
func (c Neo4jConfig) String() string {
	return fmt.Sprintf("Neo4jConfig{URI:%s, Username:%s, Password:%s, Database:%s}",
		c.URI, c.Username, maskAPIKey(c.Password), c.Database)
}

// ClaudeConfig holds Anthropic Claude API settings. An empty key disables
// the narrated insights briefing.
type ClaudeConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// String returns a safe representation of ClaudeConfig with the API key masked.
func (c ClaudeConfig) String() string {
	masked := maskAPIKey(c.APIKey)
	return fmt.Sprintf("ClaudeConfig{APIKey:%s, Model:%s}", masked, c.Model)
}

// maskAPIKey shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskAPIKey(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		return "***"
	}
	return key[:visible] + "****" + key[len(key)-visible:]
}

// SLAConfig holds deadline and sweep settings.
type SLAConfig struct {
	DefaultHours  int    `mapstructure:"default_hours"`
	SweepSchedule string `mapstructure:"sweep_schedule"`
}

// ClassifierConfig points at an optional keyword dictionary override.
type ClassifierConfig struct {
	DictionaryPath string `mapstructure:"dictionary_path"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables. When
// configFile is empty, config.yaml is searched in ~/.complaint-router and
// the working directory.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("store.backend", BackendMemory)

	v.SetDefault("neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "neo4j")

	v.SetDefault("claude.model", "claude-haiku-4-5-20251001")

	v.SetDefault("sla.default_hours", DefaultSLAHours)
	v.SetDefault("sla.sweep_schedule", DefaultSweepSchedule)

	v.SetDefault("classifier.dictionary_path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(homeDir(), ".complaint-router"))
		v.AddConfigPath(".")
	}

	// Environment variables
	v.SetEnvPrefix("COMPLAINT_ROUTER")
	v.AutomaticEnv()

	// Map specific env vars
	_ = v.BindEnv("claude.api_key", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("store.backend", "COMPLAINT_ROUTER_STORE_BACKEND")
	_ = v.BindEnv("neo4j.uri", "COMPLAINT_ROUTER_NEO4J_URI")
	_ = v.BindEnv("neo4j.password", "COMPLAINT_ROUTER_NEO4J_PASSWORD")
	_ = v.BindEnv("sla.default_hours", "COMPLAINT_ROUTER_SLA_DEFAULT_HOURS")
	_ = v.BindEnv("api.listen_addr", "COMPLAINT_ROUTER_API_LISTEN_ADDR")
	_ = v.BindEnv("api.auth_token", "COMPLAINT_ROUTER_API_AUTH_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK; use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendNeo4j:
		if c.Neo4j.URI == "" {
			return fmt.Errorf("neo4j.uri must not be empty when store.backend is neo4j")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendMemory, BackendNeo4j, c.Store.Backend)
	}
	if c.SLA.DefaultHours < 1 || c.SLA.DefaultHours > MaxSLAHours {
		return fmt.Errorf("sla.default_hours must be between 1 and %d", MaxSLAHours)
	}
	if c.SLA.SweepSchedule == "" {
		return fmt.Errorf("sla.sweep_schedule must not be empty")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
