// Package extract turns fetched product documents into normalized
// ProductRecords. One extractor per supported retailer plus a generic
// fallback; the registry dispatches on hostname.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brunovale/price-drop-tracker/pkg/priceparse"
	"github.com/brunovale/price-drop-tracker/pkg/types"
)

// Sentinel causes for ExtractionError.
var (
	ErrNoName  = errors.New("no product name found")
	ErrNoPrice = errors.New("no price candidate found")
)

// ExtractionError reports that a document could not be turned into a
// complete record. A record with a missing mandatory field is never
// returned in its place.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor produces a ProductRecord from a fetched document.
type Extractor interface {
	// Extract parses the document. It returns *ExtractionError when no
	// name or no price candidate is found.
	Extract(doc *goquery.Document, url string) (*types.ProductRecord, error)
	// Match reports whether this extractor handles the given hostname.
	Match(host string) bool
}

// Registry resolves a hostname to its extractor, defaulting to the
// generic fallback for unknown domains.
type Registry struct {
	extractors []Extractor
	generic    Extractor
}

// NewRegistry builds the default registry with every site extractor
// registered ahead of the generic fallback.
func NewRegistry() *Registry {
	return &Registry{
		extractors: []Extractor{
			NewNetshoes(),
			NewDafiti(),
			NewNike(),
			NewAdidas(),
		},
		generic: NewGeneric(),
	}
}

// Resolve returns the extractor for host, or the generic one when no
// site extractor matches.
func (r *Registry) Resolve(host string) Extractor {
	for _, ex := range r.extractors {
		if ex.Match(strings.ToLower(host)) {
			return ex
		}
	}
	return r.generic
}

// firstText walks selectors in order and returns the first non-empty
// trimmed text. Order matters: newest layouts come first, legacy
// selectors after.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if txt := strings.TrimSpace(doc.Find(sel).First().Text()); txt != "" {
			return txt
		}
	}
	return ""
}

// metaProperty returns the content attribute of <meta property=...>.
func metaProperty(doc *goquery.Document, property string) string {
	sel := fmt.Sprintf(`meta[property=%q]`, property)
	return strings.TrimSpace(doc.Find(sel).First().AttrOr("content", ""))
}

// normalizeAvailability maps schema.org availability values (plain or
// URL-prefixed) onto the record constants. Anything unrecognized is
// Unknown.
func normalizeAvailability(raw string) string {
	switch {
	case raw == "":
		return types.AvailabilityUnknown
	case strings.Contains(strings.ToLower(raw), "outofstock"):
		return types.AvailabilityOutOfStock
	case strings.Contains(strings.ToLower(raw), "instock"):
		return types.AvailabilityInStock
	default:
		return types.AvailabilityUnknown
	}
}

// productImage finds the page's primary product image, preferring the
// og:image meta tag over the first document image.
func productImage(doc *goquery.Document) string {
	if img := metaProperty(doc, "og:image"); img != "" {
		return img
	}
	return strings.TrimSpace(doc.Find("img[src]").First().AttrOr("src", ""))
}

// finishRecord applies the shared tail of every extractor: pick the
// authoritative candidate and fail when a mandatory field is missing.
func finishRecord(rec *types.ProductRecord, url string, prefer types.PriceTag) (*types.ProductRecord, error) {
	if rec.Name == "" {
		return nil, &ExtractionError{URL: url, Err: ErrNoName}
	}
	chosen, ok := priceparse.ChoosePrice(rec.RawCandidates, prefer)
	if !ok {
		return nil, &ExtractionError{URL: url, Err: ErrNoPrice}
	}
	rec.Price = &chosen.Value
	rec.PriceTag = chosen.Tag
	if rec.Currency == "" {
		rec.Currency = "BRL"
	}
	if rec.Availability == "" {
		rec.Availability = types.AvailabilityUnknown
	}
	rec.URL = url
	return rec, nil
}
