package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/priceask/internal/ai"
	"github.com/amishk599/priceask/internal/prices"
	"github.com/amishk599/priceask/internal/relay"
)

var (
	askRegion     string
	askDate       string
	askPricesFile string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and print the reply",
	Long: "Fetch a day of prices (or read them from --prices-file, \"-\" for stdin), " +
		"send the question with them attached, and print the assistant's reply.",
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askRegion, "region", "r", "", "bidding zone NO1..NO5 (default: prices.default_region)")
	askCmd.Flags().StringVarP(&askDate, "date", "d", "", "day as YYYY-MM-DD (default: today in Oslo)")
	askCmd.Flags().StringVar(&askPricesFile, "prices-file", "", "JSON file with the prices block; skips the price API")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	// Logs go to stderr so stdout carries only the reply.
	logger := setupLoggerTo(os.Stderr, debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, closeProvider, err := setupProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	var pricesBlock []byte
	if askPricesFile != "" {
		pricesBlock, err = readPricesFile(askPricesFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
	} else {
		region, err := prices.ParseRegion(orDefault(askRegion, cfg.Prices.DefaultRegion))
		if err != nil {
			return err
		}
		day, err := prices.ParseDate(askDate, time.Now())
		if err != nil {
			return err
		}

		fetcher, _, closeCache, err := setupPriceSource(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeCache()

		points, err := fetcher.FetchDay(ctx, day, region)
		if err != nil {
			return fmt.Errorf("fetch prices: %w", err)
		}
		if pricesBlock, err = json.Marshal(points); err != nil {
			return fmt.Errorf("encode prices: %w", err)
		}
	}

	req, err := buildAskRequest(strings.Join(args, " "), pricesBlock)
	if err != nil {
		return err
	}

	reply, err := relay.New(provider, ai.PriceQueryTemplate, logger).Ask(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}

// readPricesFile reads a prices block from path, or from stdin for "-".
func readPricesFile(path string, stdin io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read prices file: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("prices file %s is not valid JSON", path)
	}
	return data, nil
}

// buildAskRequest pairs a plain-text question with a raw JSON prices block.
func buildAskRequest(question string, pricesBlock []byte) (relay.Request, error) {
	msg, err := json.Marshal(question)
	if err != nil {
		return relay.Request{}, fmt.Errorf("encode question: %w", err)
	}
	return relay.Request{Message: msg, Prices: json.RawMessage(pricesBlock)}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
