package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/amishk599/priceask/internal/ai"
	"github.com/amishk599/priceask/internal/prices"
)

// Config is the root configuration for the priceask relay.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Prices PricesConfig
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string
	AllowedOrigins  []string // CORS; "*" allows any origin
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64 // cap on the POST /api/openai body
}

// AIConfig selects and configures the completion service.
type AIConfig struct {
	Provider    string        // "openai", "gemini" or "echo"
	BaseURL     string        // openai only; defaults to https://api.openai.com/v1
	Model       string        // e.g. "gpt-4o-mini"
	APIKey      string        // expanded from env var by Load; may be empty
	Temperature float64       // sampling temperature, 0.2 unless set
	Timeout     time.Duration // per-request timeout
}

// PricesConfig controls the day-ahead price source.
type PricesConfig struct {
	BaseURL       string
	DefaultRegion string
	Timeout       time.Duration
	MinDelay      time.Duration // minimum gap between upstream requests
	MaxRetries    int
	RetryDelay    time.Duration
	Cache         CacheConfig
	Prefetch      PrefetchConfig
}

// CacheConfig selects the price cache backend.
type CacheConfig struct {
	Type      string // "sqlite", "redis" or "none"
	Path      string // sqlite file
	RedisURL  string
	Retention time.Duration
}

// PrefetchConfig controls the background cache warmer.
type PrefetchConfig struct {
	Enabled  bool
	Interval time.Duration
	Regions  []string
}

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderEcho   = "echo"

	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheNone   = "none"

	defaultTemperature = 0.2
)

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderGemini: "gemini-2.0-flash",
	ProviderEcho:   "echo",
}

var apiKeyEnv = map[string]string{
	ProviderOpenAI: "OPENAI_API_KEY",
	ProviderGemini: "GEMINI_API_KEY",
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Server rawServerConfig `yaml:"server"`
	AI     rawAIConfig     `yaml:"ai"`
	Prices rawPricesConfig `yaml:"prices"`
}

type rawServerConfig struct {
	Addr            string   `yaml:"addr"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ReadTimeout     string   `yaml:"read_timeout"`
	WriteTimeout    string   `yaml:"write_timeout"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	MaxBodyBytes    *int64   `yaml:"max_body_bytes"`
}

type rawAIConfig struct {
	Provider    string   `yaml:"provider"`
	BaseURL     string   `yaml:"base_url"`
	Model       string   `yaml:"model"`
	APIKey      string   `yaml:"api_key"`
	Temperature *float64 `yaml:"temperature"`
	Timeout     string   `yaml:"timeout"`
}

type rawPricesConfig struct {
	BaseURL       string            `yaml:"base_url"`
	DefaultRegion string            `yaml:"default_region"`
	Timeout       string            `yaml:"timeout"`
	MinDelay      string            `yaml:"min_delay"`
	MaxRetries    *int              `yaml:"max_retries"`
	RetryDelay    string            `yaml:"retry_delay"`
	Cache         rawCacheConfig    `yaml:"cache"`
	Prefetch      rawPrefetchConfig `yaml:"prefetch"`
}

type rawCacheConfig struct {
	Type      string `yaml:"type"`
	Path      string `yaml:"path"`
	RedisURL  string `yaml:"redis_url"`
	Retention string `yaml:"retention"`
}

type rawPrefetchConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval string   `yaml:"interval"`
	Regions  []string `yaml:"regions"`
}

// Load reads a .env file if present, then parses the YAML config at path,
// fills defaults, validates it, and returns Config. An empty path skips the
// file and yields the defaults.
func Load(path string) (*Config, error) {
	// A missing .env is normal; the environment may already be set.
	_ = godotenv.Load()

	var raw rawConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}

		// Expand environment variables
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg, err := build(raw)
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// durationOr parses value, or returns def when value is empty.
func durationOr(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, value, err)
	}
	return d, nil
}

func stringOr(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func build(raw rawConfig) (*Config, error) {
	cfg := &Config{}
	var err error

	// Server
	cfg.Server.Addr = stringOr(raw.Server.Addr, ":5000")
	cfg.Server.AllowedOrigins = raw.Server.AllowedOrigins
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.ReadTimeout, err = durationOr("server.read_timeout", raw.Server.ReadTimeout, 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.WriteTimeout, err = durationOr("server.write_timeout", raw.Server.WriteTimeout, 90*time.Second); err != nil {
		return nil, err
	}
	if cfg.Server.ShutdownTimeout, err = durationOr("server.shutdown_timeout", raw.Server.ShutdownTimeout, 30*time.Second); err != nil {
		return nil, err
	}
	cfg.Server.MaxBodyBytes = 1 << 20
	if raw.Server.MaxBodyBytes != nil {
		cfg.Server.MaxBodyBytes = *raw.Server.MaxBodyBytes
	}

	// AI
	cfg.AI.Provider = stringOr(raw.AI.Provider, ProviderOpenAI)
	cfg.AI.BaseURL = stringOr(raw.AI.BaseURL, ai.DefaultOpenAIBaseURL)
	cfg.AI.Model = stringOr(raw.AI.Model, defaultModels[cfg.AI.Provider])
	cfg.AI.APIKey = raw.AI.APIKey
	if cfg.AI.APIKey == "" {
		if env, ok := apiKeyEnv[cfg.AI.Provider]; ok {
			cfg.AI.APIKey = os.Getenv(env)
		}
	}
	cfg.AI.Temperature = defaultTemperature
	if raw.AI.Temperature != nil {
		cfg.AI.Temperature = *raw.AI.Temperature
	}
	if cfg.AI.Timeout, err = durationOr("ai.timeout", raw.AI.Timeout, 60*time.Second); err != nil {
		return nil, err
	}

	// Prices
	p := raw.Prices
	cfg.Prices.BaseURL = stringOr(p.BaseURL, prices.DefaultBaseURL)
	cfg.Prices.DefaultRegion = stringOr(p.DefaultRegion, "NO1")
	if cfg.Prices.Timeout, err = durationOr("prices.timeout", p.Timeout, 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Prices.MinDelay, err = durationOr("prices.min_delay", p.MinDelay, time.Second); err != nil {
		return nil, err
	}
	cfg.Prices.MaxRetries = 2
	if p.MaxRetries != nil {
		cfg.Prices.MaxRetries = *p.MaxRetries
	}
	if cfg.Prices.RetryDelay, err = durationOr("prices.retry_delay", p.RetryDelay, 2*time.Second); err != nil {
		return nil, err
	}

	cfg.Prices.Cache.Type = stringOr(p.Cache.Type, CacheSQLite)
	cfg.Prices.Cache.Path = stringOr(p.Cache.Path, "prices.db")
	cfg.Prices.Cache.RedisURL = p.Cache.RedisURL
	if cfg.Prices.Cache.Retention, err = durationOr("prices.cache.retention", p.Cache.Retention, 30*24*time.Hour); err != nil {
		return nil, err
	}

	cfg.Prices.Prefetch.Enabled = p.Prefetch.Enabled
	if cfg.Prices.Prefetch.Interval, err = durationOr("prices.prefetch.interval", p.Prefetch.Interval, time.Hour); err != nil {
		return nil, err
	}
	cfg.Prices.Prefetch.Regions = p.Prefetch.Regions
	if len(cfg.Prices.Prefetch.Regions) == 0 {
		cfg.Prices.Prefetch.Regions = []string{cfg.Prices.DefaultRegion}
	}

	return cfg, nil
}

// validate checks the assembled config. A missing API key is deliberately
// not an error here: it surfaces on the first completion call instead.
func validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if cfg.Server.WriteTimeout > 0 && cfg.Server.WriteTimeout < cfg.AI.Timeout {
		return fmt.Errorf("server.write_timeout (%v) must not be shorter than ai.timeout (%v)", cfg.Server.WriteTimeout, cfg.AI.Timeout)
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", cfg.Server.MaxBodyBytes)
	}

	switch cfg.AI.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderEcho:
	default:
		return fmt.Errorf("ai.provider must be one of openai, gemini, echo, got %q", cfg.AI.Provider)
	}
	if cfg.AI.Model == "" {
		return fmt.Errorf("ai.model is required")
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
		return fmt.Errorf("ai.temperature must be between 0 and 2, got %v", cfg.AI.Temperature)
	}
	if cfg.AI.Timeout < 0 {
		return fmt.Errorf("ai.timeout must not be negative, got %v", cfg.AI.Timeout)
	}

	region, err := prices.ParseRegion(cfg.Prices.DefaultRegion)
	if err != nil {
		return fmt.Errorf("prices.default_region: %w", err)
	}
	cfg.Prices.DefaultRegion = region

	if cfg.Prices.MaxRetries < 0 {
		return fmt.Errorf("prices.max_retries must not be negative, got %d", cfg.Prices.MaxRetries)
	}

	switch cfg.Prices.Cache.Type {
	case CacheSQLite:
		if cfg.Prices.Cache.Path == "" {
			return fmt.Errorf("prices.cache.path is required when prices.cache.type is \"sqlite\"")
		}
	case CacheRedis:
		if cfg.Prices.Cache.RedisURL == "" {
			return fmt.Errorf("prices.cache.redis_url is required when prices.cache.type is \"redis\"")
		}
	case CacheNone:
	default:
		return fmt.Errorf("prices.cache.type must be one of sqlite, redis, none, got %q", cfg.Prices.Cache.Type)
	}

	if cfg.Prices.Prefetch.Enabled {
		if cfg.Prices.Prefetch.Interval <= 0 {
			return fmt.Errorf("prices.prefetch.interval must be positive, got %v", cfg.Prices.Prefetch.Interval)
		}
		for i, r := range cfg.Prices.Prefetch.Regions {
			region, err := prices.ParseRegion(r)
			if err != nil {
				return fmt.Errorf("prices.prefetch.regions[%d]: %w", i, err)
			}
			cfg.Prices.Prefetch.Regions[i] = region
		}
	}

	return nil
}
