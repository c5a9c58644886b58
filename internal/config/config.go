package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverRedis    = "redis"
	DriverEmbedded = "embedded"
)

// Embedding providers.
const (
	ProviderFastEmbed = "fastembed"
	ProviderOpenAI    = "openai"
)

// Config holds the articlesearch service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Indexing  IndexingConfig  `yaml:"indexing"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"` // empty or "*" allows every origin
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, embedded (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds the article index layout and HNSW settings.
type IndexConfig struct {
	Name            string `yaml:"name"`
	KeyPrefix       string `yaml:"key_prefix"`
	HNSWM           int    `yaml:"hnsw_m"`
	HNSWEFConstruct int    `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // fastembed, openai (default: fastembed)
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheDir   string `yaml:"cache_dir"`
	MaxLength  int    `yaml:"max_length"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
}

// IndexingConfig holds startup indexing settings.
type IndexingConfig struct {
	SeedPath string `yaml:"seed_path"`
	Workers  int    `yaml:"workers"`
}

// RetrievalConfig holds retrieval defaults.
type RetrievalConfig struct {
	DefaultK    int `yaml:"default_k"`
	RandomCount int `yaml:"random_count"`
	MinimumPool int `yaml:"minimum_pool"`
	PoolLimit   int `yaml:"pool_limit"`
}

// Load reads configuration from a YAML file by environment name (local, docker, prod).
// A .env file in the working directory, if any, is loaded first.
func Load(env string) (Config, error) {
	_ = godotenv.Load()

	configPath := findConfigPath(env)
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	// Unknown keys are rejected so retired options fail loudly.
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
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
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
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
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 30
	}
	if c.Index.Name == "" {
		c.Index.Name = "articles"
	}
	if c.Index.KeyPrefix == "" {
		c.Index.KeyPrefix = "articlesearch:"
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderFastEmbed
	}
	if c.Embedding.Provider == ProviderFastEmbed && c.Embedding.Model == "" {
		c.Embedding.Model = "sentence-transformers/all-MiniLM-L6-v2"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Indexing.SeedPath == "" {
		c.Indexing.SeedPath = "data/articles.json"
	}
	if c.Retrieval.DefaultK <= 0 {
		c.Retrieval.DefaultK = 3
	}
	if c.Retrieval.RandomCount <= 0 {
		c.Retrieval.RandomCount = 9
	}
	if c.Retrieval.MinimumPool <= 0 {
		c.Retrieval.MinimumPool = c.Retrieval.RandomCount
	}
	if c.Retrieval.PoolLimit <= 0 {
		c.Retrieval.PoolLimit = 1000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			errs = append(errs, errors.New("database.addrs is required for the redis driver"))
		}
	case DriverEmbedded:
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q",
			DriverRedis, DriverEmbedded, c.Database.Driver))
	}

	switch c.Embedding.Provider {
	case ProviderFastEmbed:
	case ProviderOpenAI:
		if c.Embedding.Model == "" {
			errs = append(errs, errors.New("embedding.model is required for the openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("embedding.provider must be %q or %q, got %q",
			ProviderFastEmbed, ProviderOpenAI, c.Embedding.Provider))
	}

	if c.Retrieval.MinimumPool < c.Retrieval.RandomCount {
		errs = append(errs, fmt.Errorf("retrieval.minimum_pool (%d) must be at least retrieval.random_count (%d)",
			c.Retrieval.MinimumPool, c.Retrieval.RandomCount))
	}
	if c.Retrieval.PoolLimit < c.Retrieval.MinimumPool {
		errs = append(errs, fmt.Errorf("retrieval.pool_limit (%d) must be at least retrieval.minimum_pool (%d)",
			c.Retrieval.PoolLimit, c.Retrieval.MinimumPool))
	}

	return errors.Join(errs...)
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
