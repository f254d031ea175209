// Package fetch retrieves product documents. Two strategies exist: a
// lightweight HTTP GET with identity rotation and pacing, and a rendered
// browser fetch for domains that only populate prices client-side.
package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher retrieves a URL and returns the parsed document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// FetchError reports a failed retrieval: transport error, timeout or a
// non-success status. Status is zero when the failure happened before a
// response arrived.
type FetchError struct {
	URL    string
	Op     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s fetch %s: status %d", e.Op, e.URL, e.Status)
	}
	return fmt.Sprintf("%s fetch %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DefaultRenderDomains lists the storefronts known to require client-side
// rendering for their pricing markup.
var DefaultRenderDomains = []string{"nike.com", "adidas.com", "adidas.com.br"}

// Router is the static domain-to-mode routing table.
type Router struct {
	renderDomains []string
}

// NewRouter builds a router over the given render-required domain list.
// A nil list uses DefaultRenderDomains.
func NewRouter(renderDomains []string) *Router {
	if renderDomains == nil {
		renderDomains = DefaultRenderDomains
	}
	return &Router{renderDomains: renderDomains}
}

// NeedsRender reports whether host must go through the rendered fetch.
func (r *Router) NeedsRender(host string) bool {
	host = strings.ToLower(host)
	for _, d := range r.renderDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
