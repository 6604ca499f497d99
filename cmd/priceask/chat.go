package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/priceask/internal/ai"
	"github.com/amishk599/priceask/internal/config"
	"github.com/amishk599/priceask/internal/model"
	"github.com/amishk599/priceask/internal/prices"
	"github.com/amishk599/priceask/internal/relay"
	"github.com/amishk599/priceask/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat about today's prices (TUI)",
	Long:  "Shows the region picker, loads today's prices, then opens a chat view where each question is sent with those prices attached.",
	RunE:  runChatCmd,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChatCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Any log output once the alt-screen starts corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := context.Background()
	provider, closeProvider, err := setupProvider(ctx, cfg, silentLogger)
	if err != nil {
		return err
	}
	defer closeProvider()

	fetcher, _, closeCache, err := setupPriceSource(ctx, cfg, silentLogger)
	if err != nil {
		return err
	}
	defer closeCache()

	runChat(cfg, relay.New(provider, ai.PriceQueryTemplate, silentLogger), fetcher)
	return nil
}

func runChat(cfg *config.Config, r *relay.Relay, fetcher model.PriceFetcher) {
	region := cfg.Prices.DefaultRegion
	for {
		choice, err := tui.RunRegionPicker(prices.Regions, region)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return
		}
		if choice == "" {
			return
		}
		region = choice

		day := prices.Today(time.Now())
		// room for every retry attempt
		loadTimeout := cfg.Prices.Timeout * time.Duration(cfg.Prices.MaxRetries+1)
		points, err := tui.RunLoader(region, day, loadTimeout, fetcher.FetchDay)
		if errors.Is(err, tui.ErrCancelled) {
			continue
		}
		if err != nil {
			fmt.Printf("Error fetching prices: %v\n", err)
			continue
		}

		wantQuit, err := tui.RunChat(tui.ChatOptions{
			Region:  region,
			Date:    day,
			Points:  points,
			Ask:     askWithPrices(r, points),
			Timeout: cfg.AI.Timeout,
		})
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return
		}
		// else: loop → back to picker
	}
}

// askWithPrices binds one day of prices to the relay for the chat view.
func askWithPrices(r *relay.Relay, points []model.PricePoint) tui.AskFunc {
	return func(ctx context.Context, question string) (string, error) {
		req, err := relay.NewRequest(question, points)
		if err != nil {
			return "", err
		}
		return r.Ask(ctx, req)
	}
}
