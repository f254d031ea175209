package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/brunovale/price-drop-tracker/pkg/priceparse"
	"github.com/brunovale/price-drop-tracker/pkg/types"
)

// Generic is the fallback extractor for domains without a dedicated one.
// Broad attribute-substring selectors instead of site-specific ones.
type Generic struct {
	inner *selectorExtractor
}

// NewGeneric returns the generic fallback extractor.
func NewGeneric() *Generic {
	return &Generic{inner: &selectorExtractor{
		nameSelectors: []string{
			"h1", "h2",
			`[class*="title"]`, `[class*="name"]`, `[class*="product"]`,
			`[id*="title"]`, `[id*="name"]`, `[id*="product"]`,
		},
		priceSelector: []string{
			`[class*="price"]`, `[class*="cost"]`, `[class*="value"]`,
			`[id*="price"]`, `[id*="cost"]`, `[id*="value"]`,
		},
		prefer: priceparse.PreferLowest,
	}}
}

// Match always reports false: the registry hands out the generic
// extractor explicitly, never by host match.
func (x *Generic) Match(string) bool { return false }

// Extract implements Extractor.
func (x *Generic) Extract(doc *goquery.Document, url string) (*types.ProductRecord, error) {
	return x.inner.Extract(doc, url)
}
