// Package scrape routes a URL to the right fetch strategy and extractor
// and exposes the single scrape contract the rest of the system calls.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/brunovale/price-drop-tracker/internal/extract"
	"github.com/brunovale/price-drop-tracker/internal/fetch"
	"github.com/brunovale/price-drop-tracker/internal/metrics"
	"github.com/brunovale/price-drop-tracker/pkg/types"
)

// Scraper turns a product URL into a normalized record.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*types.ProductRecord, error)
}

// Orchestrator implements Scraper over the routing table: rendered fetch
// for the render-required domains, lightweight fetch for everything else,
// with one lightweight fallback after a failed rendered-path extraction.
type Orchestrator struct {
	router   *fetch.Router
	light    fetch.Fetcher
	rendered fetch.Fetcher
	registry *extract.Registry
	log      *slog.Logger
}

// Option configures the Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = l
	}
}

// New creates the orchestrator with injected fetchers and registry.
func New(router *fetch.Router, light, rendered fetch.Fetcher, registry *extract.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		router:   router,
		light:    light,
		rendered: rendered,
		registry: registry,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Scrape implements Scraper. Fetch failures are terminal for this call;
// retries belong to the next polling cycle. A rendered-path extraction
// miss gets one lightweight retry: some pages serve usable static HTML
// even when the rendering path failed to populate the dynamic markup in
// time.
func (o *Orchestrator) Scrape(ctx context.Context, rawURL string) (*types.ProductRecord, error) {
	start := time.Now()
	defer func() {
		metrics.ScrapeDuration.Observe(time.Since(start).Seconds())
	}()

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid product URL %q: %w", rawURL, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid product URL %q: missing host", rawURL)
	}
	host := strings.ToLower(u.Hostname())
	extractor := o.registry.Resolve(host)

	mode, fetcher := "http", o.light
	if o.router.NeedsRender(host) {
		mode, fetcher = "render", o.rendered
	}

	rec, err := o.fetchAndExtract(ctx, fetcher, extractor, rawURL, mode)
	if err == nil {
		return rec, nil
	}

	var exErr *extract.ExtractionError
	if mode == "render" && errors.As(err, &exErr) {
		o.log.Debug("rendered extraction missed, retrying lightweight", "url", rawURL, "err", err)
		rec, lightErr := o.fetchAndExtract(ctx, o.light, extractor, rawURL, "http")
		if lightErr == nil {
			return rec, nil
		}
	}

	return nil, err
}

func (o *Orchestrator) fetchAndExtract(
	ctx context.Context,
	fetcher fetch.Fetcher,
	extractor extract.Extractor,
	rawURL, mode string,
) (*types.ProductRecord, error) {
	metrics.ScrapesTotal.WithLabelValues(mode).Inc()

	doc, err := fetcher.Fetch(ctx, rawURL)
	if err != nil {
		metrics.ScrapeErrorsTotal.WithLabelValues(mode).Inc()
		return nil, err
	}

	rec, err := extractor.Extract(doc, rawURL)
	if err != nil {
		metrics.ScrapeErrorsTotal.WithLabelValues(mode).Inc()
		return nil, err
	}
	return rec, nil
}
