package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brunovale/price-drop-tracker/pkg/priceparse"
	"github.com/brunovale/price-drop-tracker/pkg/types"
)

// selectorExtractor is the shared shape of the sportswear extractors:
// ordered selector lists tried top to bottom per field, JSON-LD offers
// when the selectors miss, then a blind currency scan as the last resort.
type selectorExtractor struct {
	hostPart      string
	nameSelectors []string
	priceSelector []string
	prefer        types.PriceTag
}

func (x *selectorExtractor) Match(host string) bool {
	return strings.Contains(host, x.hostPart)
}

func (x *selectorExtractor) Extract(doc *goquery.Document, url string) (*types.ProductRecord, error) {
	rec := &types.ProductRecord{}

	rec.Name = firstText(doc, x.nameSelectors)
	if rec.Name == "" {
		rec.Name = metaProperty(doc, "og:title")
	}

	// Price elements often hold several amounts (list price, sale price,
	// installment). Each formatted amount becomes its own candidate; only
	// when none are currency-formatted is the whole text parsed as one.
	if txt := firstText(doc, x.priceSelector); txt != "" {
		if ms := priceparse.Matches(txt); len(ms) > 0 {
			for _, m := range ms {
				rec.RawCandidates = append(rec.RawCandidates, types.Candidate{Value: m.Value, Tag: types.TagCurrent})
			}
		} else if v, ok := priceparse.Parse(txt); ok {
			rec.RawCandidates = append(rec.RawCandidates, types.Candidate{Value: v, Tag: types.TagCurrent})
		}
	}

	if len(rec.RawCandidates) == 0 {
		offers := priceparse.ScanStructuredOffers(doc)
		for _, p := range offers.Prices {
			rec.RawCandidates = append(rec.RawCandidates, types.Candidate{Value: p, Tag: types.TagCurrent})
		}
		rec.Currency = offers.Currency
		rec.Availability = normalizeAvailability(offers.Availability)
	}

	if len(rec.RawCandidates) == 0 {
		rec.RawCandidates = priceparse.FindAll(doc.Text())
	}

	rec.ImageURL = productImage(doc)
	return finishRecord(rec, url, x.prefer)
}

// NewNike returns the nike.com extractor. The data-testid selectors are
// the current layout; the automation-id and class selectors cover pages
// still served from the previous one.
func NewNike() Extractor {
	return &selectorExtractor{
		hostPart: "nike.com",
		nameSelectors: []string{
			`h1[data-testid="product-name"]`,
			`h1[data-automation-id="product-title"]`,
			"h1.headline-5",
			"h1.pdp_product_title",
		},
		priceSelector: []string{
			`span[data-testid="main-price"]`,
			`[data-automation-id="product-price"]`,
			".product-price",
			".price-current",
		},
		prefer: types.TagCurrent,
	}
}

// NewAdidas returns the adidas.com / adidas.com.br extractor.
func NewAdidas() Extractor {
	return &selectorExtractor{
		hostPart: "adidas.com",
		nameSelectors: []string{
			`h1[data-testid="product-title"]`,
			`h1[data-auto-id="product-title"]`,
			"h1.name___JQmUl",
			"h1.product_title",
		},
		priceSelector: []string{
			`[data-testid="main-price"]`,
			`[data-auto-id="price"]`,
			".price___1JvDJ",
			".product-price",
		},
		prefer: types.TagCurrent,
	}
}
