// Package engine owns the alert evaluation core: the periodic product
// check cycle, the per-alert trigger predicates, and the in-memory
// throttle table that keeps alerts from re-firing inside the cooldown
// window.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/brunovale/price-drop-tracker/internal/metrics"
	"github.com/brunovale/price-drop-tracker/internal/notify"
	"github.com/brunovale/price-drop-tracker/internal/scrape"
	"github.com/brunovale/price-drop-tracker/internal/store"
	"github.com/brunovale/price-drop-tracker/pkg/types"
)

const (
	defaultCooldown      = time.Hour
	defaultPurgeAge      = 24 * time.Hour
	defaultProductPause  = 2 * time.Second
	defaultScrapeTimeout = 30 * time.Second
)

// Engine drives the check cycle: scrape every active product, persist
// price changes, evaluate alerts, and dispatch notifications.
type Engine struct {
	store    store.Store
	scraper  scrape.Scraper
	notifier notify.Notifier
	log      *slog.Logger

	cooldown      time.Duration
	purgeAge      time.Duration
	productPause  time.Duration
	scrapeTimeout time.Duration
	epsilon       float64
	nowFunc       func() time.Time

	// checkActive serializes check cycles: cron activations each run on
	// their own goroutine, so a cycle outliving the check interval would
	// otherwise overlap the next one and scrape the same products twice.
	checkActive atomic.Bool

	// throttle is cross-tick mutable state shared between the check and
	// housekeeping goroutines.
	mu       sync.Mutex
	throttle map[string]time.Time
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(s store.Store, sc scrape.Scraper, n notify.Notifier, opts ...EngineOption) *Engine {
	eng := &Engine{
		store:         s,
		scraper:       sc,
		notifier:      n,
		log:           slog.Default(),
		cooldown:      defaultCooldown,
		purgeAge:      defaultPurgeAge,
		productPause:  defaultProductPause,
		scrapeTimeout: defaultScrapeTimeout,
		epsilon:       defaultEpsilon,
		nowFunc:       time.Now,
		throttle:      make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithCooldown sets the minimum interval between two dispatches of the
// same alert.
func WithCooldown(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.cooldown = d
	}
}

// WithPurgeAge sets how old a throttle entry must be before housekeeping
// drops it.
func WithPurgeAge(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.purgeAge = d
	}
}

// WithProductPause sets the delay inserted between products in a tick.
func WithProductPause(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.productPause = d
	}
}

// WithScrapeTimeout bounds each product scrape inside a check cycle. A
// hung fetch must not stall the whole tick.
func WithScrapeTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.scrapeTimeout = d
		}
	}
}

// WithEpsilon sets the lowest-ever comparison margin.
func WithEpsilon(eps float64) EngineOption {
	return func(e *Engine) {
		e.epsilon = eps
	}
}

// WithNowFunc overrides the time source for testing.
func WithNowFunc(f func() time.Time) EngineOption {
	return func(e *Engine) {
		e.nowFunc = f
	}
}

// RunCheck executes one full check cycle over all active products.
// Per-product failures are logged and skipped; only listing the products
// or context cancellation aborts the cycle. A cycle that is still running
// when the next one fires makes the new one a no-op.
func (eng *Engine) RunCheck(ctx context.Context) error {
	if !eng.checkActive.CompareAndSwap(false, true) {
		eng.log.Warn("check cycle still running, skipping this tick")
		return nil
	}
	defer eng.checkActive.Store(false)

	start := time.Now()
	defer func() {
		metrics.CheckCycleDuration.Observe(time.Since(start).Seconds())
	}()

	run := uuid.NewString()

	products, err := eng.store.ListActiveProducts(ctx)
	if err != nil {
		return fmt.Errorf("listing active products: %w", err)
	}
	if len(products) == 0 {
		eng.log.Info("no active products to check", "run", run)
		return nil
	}

	var updated, fired int
	for i := range products {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		p := &products[i]
		changed, triggered := eng.checkProduct(ctx, p)
		if changed {
			updated++
		}
		fired += triggered

		// Spread load between products.
		if i < len(products)-1 && eng.productPause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(eng.productPause):
			}
		}
	}

	eng.log.Info("check cycle complete",
		"run", run,
		"products", len(products),
		"updated", updated,
		"alerts_fired", fired,
	)
	return nil
}

// checkProduct scrapes one product, persists the price, and evaluates its
// alerts. Errors never propagate past this product.
func (eng *Engine) checkProduct(ctx context.Context, p *types.TrackedProduct) (changed bool, fired int) {
	scrapeCtx, cancel := context.WithTimeout(ctx, eng.scrapeTimeout)
	rec, err := eng.scraper.Scrape(scrapeCtx, p.URL)
	cancel()
	if err != nil {
		eng.log.Error("could not update product", "product", p.ID, "url", p.URL, "error", err)
		return false, 0
	}
	if rec.Price == nil {
		eng.log.Error("scrape returned record without price", "product", p.ID, "url", p.URL)
		return false, 0
	}
	currentPrice := *rec.Price

	var oldPrice float64
	if p.CurrentPrice != nil {
		oldPrice = *p.CurrentPrice
	}

	changed, err = eng.store.UpdatePrice(ctx, p.ID, currentPrice)
	if err != nil {
		// Without a confirmed write the price is not considered changed.
		eng.log.Error("persisting price failed", "product", p.ID, "error", err)
		return false, 0
	}
	if changed {
		metrics.PriceUpdatesTotal.Inc()
		eng.log.Info("price updated", "product", p.ID, "old", oldPrice, "new", currentPrice)
	}

	return changed, eng.evaluateAlerts(ctx, p, oldPrice, currentPrice)
}

// evaluateAlerts runs every active alert on the product through its
// predicate and the throttle gate. One alert's failure never blocks its
// siblings.
func (eng *Engine) evaluateAlerts(ctx context.Context, p *types.TrackedProduct, oldPrice, currentPrice float64) int {
	allTimeLow, err := eng.store.LowestObservedPrice(ctx, p.ID)
	if err != nil {
		eng.log.Error("querying all-time low failed", "product", p.ID, "error", err)
		allTimeLow = nil
	}

	alerts, err := eng.store.ListActiveAlerts(ctx, p.ID)
	if err != nil {
		eng.log.Error("listing alerts failed", "product", p.ID, "error", err)
		return 0
	}

	var fired int
	for i := range alerts {
		a := &alerts[i]
		if !shouldTrigger(a, oldPrice, currentPrice, allTimeLow, eng.epsilon) {
			continue
		}

		if eng.throttled(a) {
			metrics.ThrottledAlertsTotal.Inc()
			eng.log.Debug("alert throttled", "alert", a.ID, "type", a.Type)
			continue
		}

		if err := eng.notifier.SendPriceAlert(ctx, notify.PriceAlert{
			ChatID:      a.ChatID,
			ProductName: p.Name,
			ProductURL:  p.URL,
			OldPrice:    oldPrice,
			NewPrice:    currentPrice,
			AlertType:   a.Type,
		}); err != nil {
			metrics.NotificationFailuresTotal.Inc()
			eng.log.Error("notification failed", "alert", a.ID, "error", err)
			continue
		}

		if err := eng.store.MarkAlertTriggered(ctx, a.ID); err != nil {
			eng.log.Error("marking alert triggered failed", "alert", a.ID, "error", err)
		}
		eng.stampThrottle(a)
		metrics.AlertsFiredTotal.Inc()
		fired++

		eng.log.Info("alert fired",
			"alert", a.ID,
			"type", a.Type,
			"product", p.ID,
			"old", oldPrice,
			"new", currentPrice,
		)
	}
	return fired
}

// throttled reports whether the alert fired within the cooldown window.
func (eng *Engine) throttled(a *types.Alert) bool {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	last, ok := eng.throttle[a.ThrottleKey()]
	return ok && eng.nowFunc().Sub(last) < eng.cooldown
}

func (eng *Engine) stampThrottle(a *types.Alert) {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	eng.throttle[a.ThrottleKey()] = eng.nowFunc()
}

// RunHousekeeping purges throttle entries older than the purge age. A
// missing entry only allows an earlier re-fire, so this is advisory, not
// correctness-critical.
func (eng *Engine) RunHousekeeping() {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	cutoff := eng.nowFunc().Add(-eng.purgeAge)
	var removed int
	for key, last := range eng.throttle {
		if last.Before(cutoff) {
			delete(eng.throttle, key)
			removed++
		}
	}
	if removed > 0 {
		eng.log.Info("purged stale throttle entries", "removed", removed)
	}
}
