package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "priceask.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test")

	path := writeConfig(t, `
server:
  addr: ":8080"
  allowed_origins:
    - "https://example.com"
  write_timeout: 2m

ai:
  provider: openai
  model: gpt-4o
  api_key: ${TEST_OPENAI_KEY}
  temperature: 0
  timeout: 45s

prices:
  default_region: no3
  min_delay: 500ms
  max_retries: 4
  cache:
    type: none
  prefetch:
    enabled: true
    interval: 30m
    regions: ["NO1", "no5"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("server.addr = %q, want :8080", cfg.Server.Addr)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://example.com" {
		t.Errorf("allowed_origins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Server.WriteTimeout != 2*time.Minute {
		t.Errorf("write_timeout = %v, want 2m", cfg.Server.WriteTimeout)
	}
	if cfg.AI.Model != "gpt-4o" {
		t.Errorf("ai.model = %q, want gpt-4o", cfg.AI.Model)
	}
	if cfg.AI.APIKey != "sk-test" {
		t.Errorf("ai.api_key = %q, want expanded env var", cfg.AI.APIKey)
	}
	if cfg.AI.Temperature != 0 {
		t.Errorf("ai.temperature = %v, want explicit 0", cfg.AI.Temperature)
	}
	if cfg.AI.Timeout != 45*time.Second {
		t.Errorf("ai.timeout = %v, want 45s", cfg.AI.Timeout)
	}
	if cfg.Prices.DefaultRegion != "NO3" {
		t.Errorf("default_region = %q, want NO3", cfg.Prices.DefaultRegion)
	}
	if cfg.Prices.MinDelay != 500*time.Millisecond {
		t.Errorf("min_delay = %v, want 500ms", cfg.Prices.MinDelay)
	}
	if cfg.Prices.MaxRetries != 4 {
		t.Errorf("max_retries = %d, want 4", cfg.Prices.MaxRetries)
	}
	if cfg.Prices.Cache.Type != CacheNone {
		t.Errorf("cache.type = %q, want none", cfg.Prices.Cache.Type)
	}
	if !cfg.Prices.Prefetch.Enabled || cfg.Prices.Prefetch.Interval != 30*time.Minute {
		t.Errorf("prefetch = %+v", cfg.Prices.Prefetch)
	}
	if got := strings.Join(cfg.Prices.Prefetch.Regions, ","); got != "NO1,NO5" {
		t.Errorf("prefetch.regions = %q, want NO1,NO5", got)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":5000" {
		t.Errorf("server.addr = %q, want :5000", cfg.Server.Addr)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "*" {
		t.Errorf("allowed_origins = %v, want [*]", cfg.Server.AllowedOrigins)
	}
	if cfg.AI.Provider != ProviderOpenAI {
		t.Errorf("ai.provider = %q, want openai", cfg.AI.Provider)
	}
	if cfg.AI.Model != "gpt-4o-mini" {
		t.Errorf("ai.model = %q, want gpt-4o-mini", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0.2 {
		t.Errorf("ai.temperature = %v, want 0.2", cfg.AI.Temperature)
	}
	if cfg.AI.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("ai.base_url = %q", cfg.AI.BaseURL)
	}
	if cfg.AI.APIKey != "" {
		t.Errorf("ai.api_key = %q, want empty", cfg.AI.APIKey)
	}
	if cfg.Prices.DefaultRegion != "NO1" {
		t.Errorf("default_region = %q, want NO1", cfg.Prices.DefaultRegion)
	}
	if cfg.Prices.Cache.Type != CacheSQLite || cfg.Prices.Cache.Path != "prices.db" {
		t.Errorf("cache = %+v, want sqlite at prices.db", cfg.Prices.Cache)
	}
	if cfg.Prices.Cache.Retention != 720*time.Hour {
		t.Errorf("cache.retention = %v, want 720h", cfg.Prices.Cache.Retention)
	}
	if cfg.Prices.Prefetch.Enabled {
		t.Error("prefetch should be disabled by default")
	}
	if cfg.Server.MaxBodyBytes != 1<<20 {
		t.Errorf("server.max_body_bytes = %d, want 1 MiB", cfg.Server.MaxBodyBytes)
	}
}

func TestLoad_APIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	path := writeConfig(t, `
ai:
  provider: openai
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AI.APIKey != "sk-from-env" {
		t.Errorf("ai.api_key = %q, want sk-from-env", cfg.AI.APIKey)
	}
}

func TestLoad_GeminiDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gm-key")

	path := writeConfig(t, `
ai:
  provider: gemini
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AI.Model != "gemini-2.0-flash" {
		t.Errorf("ai.model = %q, want gemini-2.0-flash", cfg.AI.Model)
	}
	if cfg.AI.APIKey != "gm-key" {
		t.Errorf("ai.api_key = %q, want gm-key", cfg.AI.APIKey)
	}
}

func TestLoad_MissingAPIKeyIsNotAnError(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	path := writeConfig(t, `
ai:
  provider: openai
  api_key: ""
`)

	if _, err := Load(path); err != nil {
		t.Fatalf("missing api key should load, got: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/priceask.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "{{invalid yaml")

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown provider",
			yaml:    "ai:\n  provider: claude\n",
			wantErr: "ai.provider",
		},
		{
			name:    "temperature out of range",
			yaml:    "ai:\n  temperature: 3.5\n",
			wantErr: "ai.temperature",
		},
		{
			name:    "bad duration",
			yaml:    "ai:\n  timeout: soon\n",
			wantErr: "ai.timeout",
		},
		{
			name:    "write timeout shorter than ai timeout",
			yaml:    "server:\n  write_timeout: 10s\nai:\n  timeout: 60s\n",
			wantErr: "server.write_timeout",
		},
		{
			name:    "zero body cap",
			yaml:    "server:\n  max_body_bytes: 0\n",
			wantErr: "server.max_body_bytes",
		},
		{
			name:    "unknown region",
			yaml:    "prices:\n  default_region: SE3\n",
			wantErr: "prices.default_region",
		},
		{
			name:    "negative retries",
			yaml:    "prices:\n  max_retries: -1\n",
			wantErr: "prices.max_retries",
		},
		{
			name:    "unknown cache type",
			yaml:    "prices:\n  cache:\n    type: memcached\n",
			wantErr: "prices.cache.type",
		},
		{
			name:    "redis without url",
			yaml:    "prices:\n  cache:\n    type: redis\n",
			wantErr: "prices.cache.redis_url",
		},
		{
			name:    "prefetch bad region",
			yaml:    "prices:\n  prefetch:\n    enabled: true\n    regions: [\"NO9\"]\n",
			wantErr: "prices.prefetch.regions[0]",
		},
		{
			name:    "prefetch zero interval",
			yaml:    "prices:\n  prefetch:\n    enabled: true\n    interval: 0s\n",
			wantErr: "prices.prefetch.interval",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tc.wantErr)
			}
		})
	}
}
