package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brunovale/price-drop-tracker/internal/config"
	"github.com/brunovale/price-drop-tracker/pkg/logger"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [url]",
	Short: "Scrape a single product page and print the extracted record",
	Long:  "Fetches the page with the configured strategy for its domain, runs extraction, and prints the resulting record as JSON. Useful for verifying a storefront before tracking it.",
	Args:  cobra.ExactArgs(1),
	RunE:  runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(_ *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec, err := newScraper(cfg, log).Scrape(ctx, args[0])
	if err != nil {
		return fmt.Errorf("scraping %s: %w", args[0], err)
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	fmt.Println(string(out))
	return nil
}
