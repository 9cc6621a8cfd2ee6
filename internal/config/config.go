package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/searchbridge"
)

// Config holds the searchbridge server configuration.
type Config struct {
	HTTP     HTTPConfig                  `yaml:"http"`
	Provider searchbridge.ProviderConfig `yaml:"provider"`
	Auth     AuthConfig                  `yaml:"auth"`
	Logging  LoggingConfig               `yaml:"logging"`
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
	InitTimeoutSec  int `yaml:"init_timeout_sec"`
}

// Overrides are read from the process environment after the file and win
// over it. Unset variables leave the file value alone.
type Overrides struct {
	Provider string   `env:"SEARCHBRIDGE_PROVIDER"`
	HTTPPort int      `env:"SEARCHBRIDGE_HTTP_PORT"`
	LogLevel string   `env:"SEARCHBRIDGE_LOG_LEVEL"`
	APIKeys  []string `env:"SEARCHBRIDGE_API_KEYS" envSeparator:","`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(envName string) (Config, error) {
	return LoadFile(findConfigPath(envName))
}

// LoadFile reads configuration from path, then applies environment overrides,
// defaults and validation.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML bytes. ${VAR} and ${VAR:-default} are
// substituted before parsing.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	var o Overrides
	if err := env.Parse(&o); err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.Apply(o)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(envName string) Config {
	cfg, err := Load(envName)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if e := os.Getenv("ENV"); e != "" {
		return e
	}
	return "local"
}

// Apply copies the set overrides into c.
func (c *Config) Apply(o Overrides) {
	if o.Provider != "" {
		c.Provider.Type = o.Provider
	}
	if o.HTTPPort != 0 {
		c.HTTP.Port = o.HTTPPort
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if len(o.APIKeys) > 0 {
		c.Auth.APIKeys = o.APIKeys
	}
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8090
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.InitTimeoutSec <= 0 {
		c.HTTP.InitTimeoutSec = 15
	}
	if c.Provider.Type == "" {
		c.Provider.Type = searchbridge.ProviderBleve
	}
	// bleve runs in memory without any settings.
	if c.Provider.Type == searchbridge.ProviderBleve && c.Provider.Bleve == nil {
		c.Provider.Bleve = &searchbridge.BleveConfig{}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	p := c.Provider
	var present bool
	switch p.Type {
	case searchbridge.ProviderMeilisearch:
		present = p.Meilisearch != nil && p.Meilisearch.Host != ""
	case searchbridge.ProviderTypesense:
		present = p.Typesense != nil && p.Typesense.URL != ""
	case searchbridge.ProviderRedis:
		present = p.Redis != nil && len(p.Redis.Addrs) > 0
	case searchbridge.ProviderBleve:
		present = p.Bleve != nil
	default:
		return fmt.Errorf("provider.type must be one of meilisearch, typesense, redis, bleve, got %q", p.Type)
	}
	if !present {
		return fmt.Errorf("provider.%s connection settings are required", p.Type)
	}
	for i, k := range c.Auth.APIKeys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("auth.api_keys[%d] is empty", i)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(envName string) string {
	filename := fmt.Sprintf("%s.yaml", envName)

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
