package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brunovale/price-drop-tracker/internal/config"
	"github.com/brunovale/price-drop-tracker/internal/store"
	"github.com/brunovale/price-drop-tracker/pkg/logger"
	"github.com/brunovale/price-drop-tracker/pkg/types"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Manage tracked products and their alerts",
}

var trackAddCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Start tracking a product",
	Long:  "Scrapes the page once to resolve the product name and current price, then registers it for periodic checks.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrackAdd,
}

var trackDisableCmd = &cobra.Command{
	Use:   "disable [product-id]",
	Short: "Pause checks for a product",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setActive(args[0], false) },
}

var trackEnableCmd = &cobra.Command{
	Use:   "enable [product-id]",
	Short: "Resume checks for a product",
	Args:  cobra.ExactArgs(1),
	RunE:  func(_ *cobra.Command, args []string) error { return setActive(args[0], true) },
}

var trackAlertCmd = &cobra.Command{
	Use:   "alert [product-id] [chat-id] [type] [threshold]",
	Short: "Attach an alert to a tracked product",
	Long:  "Type is one of static, percentage, lowest_ever. static takes a target price, percentage a drop percentage; lowest_ever takes no threshold.",
	Args:  cobra.RangeArgs(3, 4),
	RunE:  runTrackAlert,
}

func init() {
	trackCmd.AddCommand(trackAddCmd, trackDisableCmd, trackEnableCmd, trackAlertCmd)
	rootCmd.AddCommand(trackCmd)
}

func openStore(ctx context.Context) (*config.Config, *store.PostgresStore, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}
	return cfg, st, nil
}

func runTrackAdd(_ *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	rec, err := newScraper(cfg, log).Scrape(ctx, args[0])
	if err != nil {
		return fmt.Errorf("scraping %s: %w", args[0], err)
	}

	p := &types.TrackedProduct{
		URL:    args[0],
		Name:   rec.Name,
		Active: true,
	}
	if err := st.CreateProduct(ctx, p); err != nil {
		return fmt.Errorf("registering product: %w", err)
	}

	if _, err := st.UpdatePrice(ctx, p.ID, *rec.Price); err != nil {
		return fmt.Errorf("recording initial price: %w", err)
	}

	fmt.Printf("tracking %q (%s) at R$ %.2f\n", p.Name, p.ID, *rec.Price)
	return nil
}

func setActive(id string, active bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetProductActive(ctx, id, active); err != nil {
		return fmt.Errorf("updating product: %w", err)
	}

	state := "disabled"
	if active {
		state = "enabled"
	}
	fmt.Printf("product %s %s\n", id, state)
	return nil
}

func runTrackAlert(_ *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chatID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("parsing chat id: %w", err)
	}

	alert := &types.Alert{
		ProductID: args[0],
		ChatID:    chatID,
		Type:      types.AlertType(args[2]),
		Active:    true,
	}

	switch alert.Type {
	case types.AlertStatic, types.AlertPercentage:
		if len(args) < 4 {
			return fmt.Errorf("alert type %s requires a threshold", alert.Type)
		}
		v, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("parsing threshold: %w", err)
		}
		if alert.Type == types.AlertStatic {
			alert.ThresholdPrice = &v
		} else {
			alert.PercentageThreshold = &v
		}
	case types.AlertLowestEver:
	default:
		return fmt.Errorf("unknown alert type %q (want static, percentage, or lowest_ever)", args[2])
	}

	_, st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.CreateAlert(ctx, alert); err != nil {
		return fmt.Errorf("creating alert: %w", err)
	}

	fmt.Printf("alert %s (%s) created\n", alert.ID, alert.Type)
	return nil
}
