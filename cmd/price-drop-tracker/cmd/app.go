package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/brunovale/price-drop-tracker/internal/config"
	"github.com/brunovale/price-drop-tracker/internal/engine"
	"github.com/brunovale/price-drop-tracker/internal/extract"
	"github.com/brunovale/price-drop-tracker/internal/fetch"
	"github.com/brunovale/price-drop-tracker/internal/notify"
	"github.com/brunovale/price-drop-tracker/internal/scrape"
	"github.com/brunovale/price-drop-tracker/internal/store"
)

// newScraper assembles the fetch strategies, the routing table, and the
// extractor registry into an orchestrator.
func newScraper(cfg *config.Config, logger *slog.Logger) *scrape.Orchestrator {
	pacer := fetch.NewPacer(
		cfg.Scrape.Pacing.PerSecond,
		cfg.Scrape.Pacing.Burst,
		cfg.Scrape.Pacing.MinDelay,
		cfg.Scrape.Pacing.MaxDelay,
	)

	light := fetch.NewHTTPFetcher(pacer,
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.Scrape.Timeout}),
		fetch.WithUserAgents(cfg.Scrape.UserAgents),
	)

	renderedOpts := []fetch.RenderedOption{
		fetch.WithSettleDelay(cfg.Scrape.SettleDelay),
		fetch.WithRenderedLogger(logger),
	}
	if len(cfg.Scrape.CompatDomains) > 0 {
		renderedOpts = append(renderedOpts, fetch.WithCompatDomains(cfg.Scrape.CompatDomains))
	}
	if cfg.Scrape.BrowserBin != "" {
		renderedOpts = append(renderedOpts, fetch.WithBrowserBin(cfg.Scrape.BrowserBin))
	}
	rendered := fetch.NewRenderedFetcher(renderedOpts...)

	router := fetch.NewRouter(cfg.Scrape.RenderDomains)
	registry := extract.NewRegistry()

	return scrape.New(router, light, rendered, registry, scrape.WithLogger(logger))
}

// newNotifier returns the Telegram notifier when enabled, the noop
// notifier otherwise.
func newNotifier(cfg *config.Config, logger *slog.Logger) (notify.Notifier, error) {
	if !cfg.Telegram.Enabled {
		logger.Info("telegram disabled, using noop notifier")
		return notify.NewNoOpNotifier(logger), nil
	}

	n, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken)
	if err != nil {
		return nil, fmt.Errorf("creating telegram notifier: %w", err)
	}
	return n, nil
}

// newEngine builds the check engine with its store, scraper, and notifier.
func newEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Engine, *store.PostgresStore, error) {
	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	eng := engine.NewEngine(st, newScraper(cfg, logger), notifier,
		engine.WithLogger(logger),
		engine.WithCooldown(cfg.Alerts.Cooldown),
		engine.WithPurgeAge(cfg.Alerts.PurgeAge),
		engine.WithProductPause(cfg.Schedule.ProductPause),
		engine.WithScrapeTimeout(cfg.Scrape.Timeout),
		engine.WithEpsilon(cfg.Alerts.Epsilon),
	)
	return eng, st, nil
}
