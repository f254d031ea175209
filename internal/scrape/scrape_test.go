package scrape

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunovale/price-drop-tracker/internal/extract"
	"github.com/brunovale/price-drop-tracker/internal/fetch"
)

type stubFetcher struct {
	html  string
	err   error
	calls int
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (*goquery.Document, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(s.html))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const nikeHTML = `<html><body>
	<h1 data-testid="product-name">Nike Pegasus 41</h1>
	<span data-testid="main-price">R$ 999,99</span>
</body></html>`

const emptyHTML = `<html><body><div id="root"></div></body></html>`

func newOrchestrator(light, rendered fetch.Fetcher) *Orchestrator {
	return New(fetch.NewRouter(nil), light, rendered, extract.NewRegistry(), WithLogger(quietLogger()))
}

func TestScrape_LightweightPath(t *testing.T) {
	t.Parallel()

	light := &stubFetcher{html: `<html><body>
		<h1>Cafeteira Italiana</h1>
		<div class="price">R$ 110,00</div>
	</body></html>`}
	rendered := &stubFetcher{err: errors.New("must not be called")}

	o := newOrchestrator(light, rendered)
	rec, err := o.Scrape(context.Background(), "https://loja.example.com/p/cafeteira")
	require.NoError(t, err)

	assert.Equal(t, "Cafeteira Italiana", rec.Name)
	assert.Equal(t, 1, light.calls)
	assert.Equal(t, 0, rendered.calls)
}

func TestScrape_RenderedPath(t *testing.T) {
	t.Parallel()

	light := &stubFetcher{err: errors.New("must not be called")}
	rendered := &stubFetcher{html: nikeHTML}

	o := newOrchestrator(light, rendered)
	rec, err := o.Scrape(context.Background(), "https://www.nike.com/br/t/pegasus")
	require.NoError(t, err)

	require.NotNil(t, rec.Price)
	assert.InDelta(t, 999.99, *rec.Price, 0.001)
	assert.Equal(t, 1, rendered.calls)
	assert.Equal(t, 0, light.calls)
}

func TestScrape_RenderedExtractionFallsBackToLightweight(t *testing.T) {
	t.Parallel()

	// Rendering returned a shell document; the static page still carries
	// the data.
	light := &stubFetcher{html: nikeHTML}
	rendered := &stubFetcher{html: emptyHTML}

	o := newOrchestrator(light, rendered)
	rec, err := o.Scrape(context.Background(), "https://www.nike.com/br/t/pegasus")
	require.NoError(t, err)

	require.NotNil(t, rec.Price)
	assert.InDelta(t, 999.99, *rec.Price, 0.001)
	assert.Equal(t, 1, rendered.calls)
	assert.Equal(t, 1, light.calls)
}

func TestScrape_RenderedFetchErrorIsTerminal(t *testing.T) {
	t.Parallel()

	light := &stubFetcher{html: nikeHTML}
	rendered := &stubFetcher{err: &fetch.FetchError{URL: "x", Op: "render", Err: errors.New("browser died")}}

	o := newOrchestrator(light, rendered)
	_, err := o.Scrape(context.Background(), "https://www.nike.com/br/t/pegasus")

	var fetchErr *fetch.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 0, light.calls)
}

func TestScrape_BothPathsMissing(t *testing.T) {
	t.Parallel()

	light := &stubFetcher{html: emptyHTML}
	rendered := &stubFetcher{html: emptyHTML}

	o := newOrchestrator(light, rendered)
	_, err := o.Scrape(context.Background(), "https://www.nike.com/br/t/pegasus")

	var exErr *extract.ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, 1, rendered.calls)
	assert.Equal(t, 1, light.calls)
}

func TestScrape_InvalidURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		url     string
		wantMsg string
	}{
		{name: "no host", url: "not-a-url", wantMsg: "missing host"},
		{name: "relative path", url: "/p/cafeteira", wantMsg: "missing host"},
		{name: "unparseable", url: "http://bad\x7f.example.com/", wantMsg: "invalid product URL"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o := newOrchestrator(&stubFetcher{}, &stubFetcher{})
			_, err := o.Scrape(context.Background(), tt.url)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.NotContains(t, err.Error(), "%!w(<nil>)")
		})
	}
}
