package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/priceask/internal/model"
	"github.com/amishk599/priceask/internal/prices"
	"github.com/amishk599/priceask/internal/tui"
)

// maxSeries bounds a comparison so one command cannot fan out into dozens
// of upstream fetches.
const maxSeries = 10

var (
	pricesRegions []string
	pricesDates   []string
	pricesJSON    bool
)

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Print day-ahead prices for one or more bidding zones",
	Long: `Fetch (or read from cache) the day-ahead prices for --region and --date and
print them as a table, or raw JSON with --json.

Repeat --region or --date (or pass a comma-separated list) to compare days
and regions side by side; every region is paired with every date.`,
	Example: `  priceask prices -r NO5
  priceask prices -r NO1 -r NO5 -d tomorrow
  priceask prices -r NO1 -d today,tomorrow --json`,
	Args: cobra.NoArgs,
	RunE: runPrices,
}

func init() {
	pricesCmd.Flags().StringSliceVarP(&pricesRegions, "region", "r", nil, "bidding zone NO1..NO5, repeatable (default: prices.default_region)")
	pricesCmd.Flags().StringSliceVarP(&pricesDates, "date", "d", nil, "YYYY-MM-DD, today or tomorrow, repeatable (default: today in Oslo)")
	pricesCmd.Flags().BoolVar(&pricesJSON, "json", false, "print the raw price points as JSON")
	rootCmd.AddCommand(pricesCmd)
}

func runPrices(cmd *cobra.Command, args []string) error {
	logger := setupLoggerTo(os.Stderr, debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	now := time.Now()
	wanted, err := expandSeries(pricesRegions, pricesDates, cfg.Prices.DefaultRegion, now)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher, _, closeCache, err := setupPriceSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	series, err := fetchSeries(ctx, fetcher, wanted, logger)
	if err != nil {
		return err
	}

	return printSeries(cmd.OutOrStdout(), series, pricesJSON, now)
}

// expandSeries pairs every region with every date, in flag order, dropping
// duplicates.
func expandSeries(regionArgs, dateArgs []string, defaultRegion string, now time.Time) ([]prices.Series, error) {
	if len(regionArgs) == 0 {
		regionArgs = []string{defaultRegion}
	}
	if len(dateArgs) == 0 {
		dateArgs = []string{""}
	}

	var days []time.Time
	for _, d := range dateArgs {
		day, err := prices.ParseDate(d, now)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}

	var out []prices.Series
	seen := make(map[string]bool)
	for _, r := range regionArgs {
		region, err := prices.ParseRegion(r)
		if err != nil {
			return nil, err
		}
		for _, day := range days {
			s := prices.NewSeries(region, day, nil)
			if seen[s.Label()] {
				continue
			}
			seen[s.Label()] = true
			out = append(out, s)
		}
	}
	if len(out) > maxSeries {
		return nil, fmt.Errorf("too many region/date combinations (%d, max %d)", len(out), maxSeries)
	}
	return out, nil
}

// fetchSeries fills in each series. In a comparison a day that is not
// published yet is skipped with a warning; a single day fails outright.
func fetchSeries(ctx context.Context, fetcher model.PriceFetcher, wanted []prices.Series, logger *slog.Logger) ([]prices.Series, error) {
	var out []prices.Series
	for _, s := range wanted {
		points, err := fetcher.FetchDay(ctx, s.Date, s.Region)
		switch {
		case err == nil:
			s.Points = points
			out = append(out, s)
		case prices.IsNotPublished(err) && len(wanted) > 1:
			logger.Warn("prices not published yet, skipping", "region", s.Region, "date", s.Day)
		case prices.IsNotPublished(err):
			return nil, fmt.Errorf("prices for %s %s are not published yet", s.Region, s.Day)
		default:
			return nil, fmt.Errorf("fetch prices for %s: %w", s.Label(), err)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("none of the requested days are published yet")
	}
	return out, nil
}

func printSeries(out io.Writer, series []prices.Series, asJSON bool, now time.Time) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if len(series) == 1 {
			return enc.Encode(series[0].Points)
		}
		return enc.Encode(series)
	}

	if len(series) == 1 {
		s := series[0]
		fmt.Fprintf(out, "%s (%s) %s\n\n", s.Region, prices.RegionName(s.Region), s.Day)
		fmt.Fprintln(out, tui.RenderPriceTable(s.Points, now))
		return nil
	}
	fmt.Fprintln(out, tui.RenderComparison(series))
	return nil
}
