package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the trovex API configuration.
type Config struct {
	HTTP        HTTPConfig               `yaml:"http"`
	Database    DatabaseConfig           `yaml:"database"`
	Auth        AuthConfig               `yaml:"auth"`
	Backends    map[string]BackendConfig `yaml:"backends"`
	Aggregation AggregationConfig        `yaml:"aggregation"`
	Summary     SummaryConfig            `yaml:"summary"`
	Logging     LoggingConfig            `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// BackendConfig holds one search backend's settings. A backend requiring an
// API key is skipped at startup when the key is empty.
type BackendConfig struct {
	Enabled    bool    `yaml:"enabled"`
	APIKey     string  `yaml:"api_key"`
	BaseURL    string  `yaml:"base_url"`
	Weight     float64 `yaml:"weight"`
	RatePerSec float64 `yaml:"rate_per_sec"` // 0 = unlimited
	Burst      int     `yaml:"burst"`
}

// AggregationConfig holds result pipeline tuning.
type AggregationConfig struct {
	MaxSources         int     `yaml:"max_sources"`
	MinCredibility     float64 `yaml:"min_credibility"`
	AdmissionThreshold float64 `yaml:"admission_threshold"`
	DomainCap          int     `yaml:"domain_cap"`
	RequestTimeoutSec  int     `yaml:"request_timeout_sec"`
	PerBackendResults  int     `yaml:"per_backend_results"`
}

// SummaryConfig holds the optional LLM summary provider settings.
type SummaryConfig struct {
	Provider string `yaml:"provider"` // empty disables LLM summaries
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Aggregation.MaxSources <= 0 {
		c.Aggregation.MaxSources = 15
	}
	if c.Aggregation.MinCredibility <= 0 {
		c.Aggregation.MinCredibility = 0.4
	}
	if c.Aggregation.AdmissionThreshold <= 0 {
		c.Aggregation.AdmissionThreshold = 0.75
	}
	if c.Aggregation.DomainCap <= 0 {
		c.Aggregation.DomainCap = 2
	}
	if c.Aggregation.RequestTimeoutSec <= 0 {
		c.Aggregation.RequestTimeoutSec = 10
	}
	if c.Aggregation.PerBackendResults <= 0 {
		c.Aggregation.PerBackendResults = 15
	}

	for name, b := range c.Backends {
		if b.Weight <= 0 {
			b.Weight = 1.0
		}
		if b.Burst <= 0 {
			b.Burst = 1
		}
		c.Backends[name] = b
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for the redis driver")
		}
	case "memory":
		// no connection settings needed
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"memory\", got %q", c.Database.Driver)
	}

	enabled := 0
	for name, b := range c.Backends {
		switch name {
		case "brave", "tavily", "searxng":
			// known
		default:
			return fmt.Errorf("unknown backend %q", name)
		}
		if b.Enabled {
			enabled++
		}
		if b.Weight < 0 || b.Weight > 1 {
			return fmt.Errorf("backends.%s.weight must be between 0 and 1, got %v", name, b.Weight)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one backend must be enabled")
	}

	if c.Aggregation.MinCredibility > 1 {
		return fmt.Errorf("aggregation.min_credibility must be between 0 and 1")
	}
	if c.Aggregation.AdmissionThreshold > 1 {
		return fmt.Errorf("aggregation.admission_threshold must be between 0 and 1")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
