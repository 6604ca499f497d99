package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/priceask/internal/ai"
	"github.com/amishk599/priceask/internal/relay"
	"github.com/amishk599/priceask/internal/scheduler"
	"github.com/amishk599/priceask/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP relay",
	Long:  "Serve POST /api/openai and the price routes; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"addr", cfg.Server.Addr,
		"provider", cfg.AI.Provider,
		"model", cfg.AI.Model,
		"cache", cfg.Prices.Cache.Type,
		"prefetch", cfg.Prices.Prefetch.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, closeProvider, err := setupProvider(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up completion provider", "error", err)
		return err
	}
	defer closeProvider()

	fetcher, cache, closeCache, err := setupPriceSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to set up price source", "error", err)
		return err
	}
	defer closeCache()

	if cfg.Prices.Prefetch.Enabled {
		sched := scheduler.NewScheduler(fetcher, cache, cfg.Prices.Prefetch.Regions,
			cfg.Prices.Prefetch.Interval, cfg.Prices.Cache.Retention, logger)
		go func() {
			if err := sched.Run(ctx); err != nil {
				logger.Error("prefetch error", "error", err)
			}
		}()
	}

	srv := server.New(relay.New(provider, ai.PriceQueryTemplate, logger), fetcher, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	}, logger)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if err := server.Run(ctx, httpServer, cfg.Server.ShutdownTimeout, logger); err != nil {
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("goodbye")
	return nil
}
