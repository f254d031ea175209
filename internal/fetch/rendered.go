package fetch

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// defaultSettleDelay is how long the page is given after the load event
// before the DOM is serialized. Price widgets on these storefronts hydrate
// shortly after load.
const defaultSettleDelay = 3 * time.Second

// RenderedFetcher retrieves pages through a headless browser. Each call
// launches an isolated session that is always released on exit, success
// or not. Domains in compatDomains run with a launch profile that forces
// HTTP/1.1: some storefront CDNs reset HTTP/2 streams from headless
// Chromium.
type RenderedFetcher struct {
	settleDelay   time.Duration
	compatDomains []string
	browserBin    string
	logger        *slog.Logger
}

// RenderedOption configures the RenderedFetcher.
type RenderedOption func(*RenderedFetcher)

// WithSettleDelay overrides the post-load settle delay.
func WithSettleDelay(d time.Duration) RenderedOption {
	return func(f *RenderedFetcher) {
		f.settleDelay = d
	}
}

// WithCompatDomains sets the domains launched with the HTTP/1.1 profile.
func WithCompatDomains(domains []string) RenderedOption {
	return func(f *RenderedFetcher) {
		f.compatDomains = domains
	}
}

// WithBrowserBin pins the browser executable instead of auto-detecting,
// for containers that ship a system Chromium.
func WithBrowserBin(bin string) RenderedOption {
	return func(f *RenderedFetcher) {
		f.browserBin = bin
	}
}

// WithRenderedLogger sets the logger.
func WithRenderedLogger(l *slog.Logger) RenderedOption {
	return func(f *RenderedFetcher) {
		f.logger = l
	}
}

// NewRenderedFetcher creates the rendered strategy.
func NewRenderedFetcher(opts ...RenderedOption) *RenderedFetcher {
	f := &RenderedFetcher{
		settleDelay:   defaultSettleDelay,
		compatDomains: []string{"adidas.com", "adidas.com.br"},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch implements Fetcher. The session is scoped to this call: launcher,
// browser and page are torn down on every exit path.
//
// TODO(test): the session lifecycle needs a live browser; exercised via
// the scrape command against the mock storefront.
func (f *RenderedFetcher) Fetch(ctx context.Context, rawURL string) (*goquery.Document, error) {
	host := hostOf(rawURL)

	l := launcher.New().Headless(true).NoSandbox(true).Leakless(false)
	if f.browserBin != "" {
		l = l.Bin(f.browserBin)
	}
	if f.needsCompat(host) {
		f.logger.Debug("using http/1.1 launch profile", "host", host)
		l = l.Set("disable-http2")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, &FetchError{URL: rawURL, Op: "render", Err: err}
	}
	// Cleanup blocks until the browser process exits; Kill runs first
	// (LIFO) so teardown cannot hang when the graceful close never
	// happened (Connect failure, cancelled context killing the CDP call).
	defer l.Cleanup()
	defer l.Kill()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, &FetchError{URL: rawURL, Op: "render", Err: err}
	}
	defer func() {
		if err := browser.Close(); err != nil {
			f.logger.Debug("closing browser", "err", err)
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, &FetchError{URL: rawURL, Op: "render", Err: err}
	}
	defer func() {
		if err := page.Close(); err != nil {
			f.logger.Debug("closing page", "err", err)
		}
	}()

	if err := page.Navigate(rawURL); err != nil {
		return nil, &FetchError{URL: rawURL, Op: "render", Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return nil, &FetchError{URL: rawURL, Op: "render", Err: err}
	}

	select {
	case <-ctx.Done():
		return nil, &FetchError{URL: rawURL, Op: "render", Err: ctx.Err()}
	case <-time.After(f.settleDelay):
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &FetchError{URL: rawURL, Op: "render", Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Op: "render", Err: err}
	}
	return doc, nil
}

func (f *RenderedFetcher) needsCompat(host string) bool {
	for _, d := range f.compatDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
