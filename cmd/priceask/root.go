package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/priceask/internal/ai"
	"github.com/amishk599/priceask/internal/config"
	"github.com/amishk599/priceask/internal/model"
	"github.com/amishk599/priceask/internal/prices"
	"github.com/amishk599/priceask/internal/ratelimit"
	"github.com/amishk599/priceask/internal/retry"
	"github.com/amishk599/priceask/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "priceask",
	Short: "Ask questions about Norwegian power prices",
	Long:  "priceask relays questions about day-ahead power prices to a chat-completion service.",
	// Default to `serve` so that `priceask` with no args runs the HTTP relay.
	RunE:         runServe,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: PRICEASK_CONFIG env var or ./priceask.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > PRICEASK_CONFIG env var > "./priceask.yaml"
// if it exists > built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("PRICEASK_CONFIG"); env != "" {
			path = env
		} else if _, err := os.Stat("priceask.yaml"); err == nil {
			path = "priceask.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	return setupLoggerTo(os.Stdout, dbg)
}

func setupLoggerTo(w io.Writer, dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// setupProvider builds the completion provider named by ai.provider. The
// returned close func must be called on shutdown.
func setupProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ai.Provider, func(), error) {
	if cfg.AI.APIKey == "" && cfg.AI.Provider != config.ProviderEcho {
		logger.Warn("no API key configured; completion requests will fail", "provider", cfg.AI.Provider)
	}

	var (
		p       ai.Provider
		closeFn = func() {}
	)
	switch cfg.AI.Provider {
	case config.ProviderGemini:
		gp, err := ai.NewGeminiProvider(ctx, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Temperature)
		if err != nil {
			return nil, nil, err
		}
		p = gp
		closeFn = func() {
			if err := gp.Close(); err != nil {
				logger.Warn("closing gemini client", "error", err)
			}
		}
	case config.ProviderEcho:
		p = ai.NewEchoProvider()
	default:
		httpClient := &http.Client{Timeout: cfg.AI.Timeout}
		p = ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Temperature, httpClient)
	}

	logger.Info("using completion provider",
		"provider", p.Name(),
		"model", cfg.AI.Model,
		"temperature", cfg.AI.Temperature,
	)
	return ai.WithTimeout(p, cfg.AI.Timeout), closeFn, nil
}

// setupCache opens the cache backend named by prices.cache.type.
func setupCache(ctx context.Context, cfg *config.Config) (model.PriceCache, func() error, error) {
	c := cfg.Prices.Cache
	switch c.Type {
	case config.CacheRedis:
		rc, err := store.NewRedisCache(ctx, c.RedisURL, c.Retention)
		if err != nil {
			return nil, nil, err
		}
		return rc, rc.Close, nil
	case config.CacheNone:
		nc := store.NewNopCache()
		return nc, nc.Close, nil
	default:
		sc, err := store.NewSQLiteCache(c.Path)
		if err != nil {
			return nil, nil, err
		}
		return sc, sc.Close, nil
	}
}

// setupPriceSource wires the price API client behind rate limiting, retry
// and the cache: cache -> retry -> rate limit -> HTTP.
func setupPriceSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) (model.PriceFetcher, model.PriceCache, func(), error) {
	u, err := url.Parse(cfg.Prices.BaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse prices.base_url: %w", err)
	}

	cache, closeCache, err := setupCache(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open price cache: %w", err)
	}
	logger.Info("price cache ready", "type", cfg.Prices.Cache.Type)

	var fetcher model.PriceFetcher = prices.NewClient(cfg.Prices.BaseURL, &http.Client{Timeout: cfg.Prices.Timeout})
	fetcher = ratelimit.NewRateLimitedFetcher(fetcher, ratelimit.NewHostRateLimiter(cfg.Prices.MinDelay), u.Host)
	fetcher = retry.NewRetryFetcher(fetcher, retry.Policy{
		MaxRetries: cfg.Prices.MaxRetries,
		BaseDelay:  cfg.Prices.RetryDelay,
		MaxDelay:   cfg.Prices.Timeout,
	}, logger)
	fetcher = prices.NewCachedFetcher(fetcher, cache, logger)

	closeFn := func() {
		if err := closeCache(); err != nil {
			logger.Warn("closing price cache", "error", err)
		}
	}
	return fetcher, cache, closeFn, nil
}
