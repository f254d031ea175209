package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brunovale/price-drop-tracker/internal/config"
	"github.com/brunovale/price-drop-tracker/pkg/logger"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one price check cycle and exit",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, st, err := newEngine(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := eng.RunCheck(ctx); err != nil {
		return fmt.Errorf("running check cycle: %w", err)
	}
	return nil
}
