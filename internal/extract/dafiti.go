package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brunovale/price-drop-tracker/pkg/priceparse"
	"github.com/brunovale/price-drop-tracker/pkg/types"
)

var discountRe = regexp.MustCompile(`-?\s*(\d+)\s*%`)

// Dafiti extracts dafiti.com.br product pages. The current layout exposes
// machine-readable content attributes on the price elements; those are
// preferred over the locale-formatted visible text.
type Dafiti struct {
	prefer types.PriceTag
}

// NewDafiti returns the Dafiti extractor.
func NewDafiti() *Dafiti {
	return &Dafiti{prefer: priceparse.PreferLowest}
}

// Match reports whether host belongs to Dafiti.
func (x *Dafiti) Match(host string) bool {
	return strings.Contains(host, "dafiti.com")
}

// Extract implements Extractor.
func (x *Dafiti) Extract(doc *goquery.Document, url string) (*types.ProductRecord, error) {
	rec := &types.ProductRecord{}

	rec.Name = firstText(doc, []string{
		`h1.product-name[itemprop="name"]`,
		`h1[itemprop="name"]`,
		"h1.product-name",
		"h1",
	})
	if rec.Name == "" {
		rec.Name = metaProperty(doc, "og:title")
	}

	// Current price: the content attribute carries a dot-decimal number.
	final := doc.Find(`.catalog-detail-price .catalog-detail-price-value[data-field="finalPrice"]`).First()
	if final.Length() > 0 {
		if v, ok := contentAttrFloat(final); ok {
			rec.RawCandidates = append(rec.RawCandidates, types.Candidate{Value: v, Tag: types.TagCurrent})
		} else if v, ok := priceparse.Parse(final.Text()); ok {
			rec.RawCandidates = append(rec.RawCandidates, types.Candidate{Value: v, Tag: types.TagCurrent})
		}
	}

	// Strike-through list price, kept out of the candidate set.
	special := doc.Find(`.catalog-detail-price .catalog-detail-price-special[data-field="specialPrice"]`).First()
	if v, ok := priceparse.Parse(special.Text()); ok && special.Length() > 0 {
		rec.OriginalPrice = &v
	}

	if m := discountRe.FindStringSubmatch(doc.Find(".catalog-detail-price .catalog-detail-price-discount").First().Text()); m != nil {
		if d, err := strconv.Atoi(m[1]); err == nil {
			rec.DiscountPercent = &d
		}
	}

	rec.Currency = doc.Find(`meta[itemprop="priceCurrency"]`).First().AttrOr("content", "")
	rec.Availability = normalizeAvailability(doc.Find(`meta[itemprop="availability"]`).First().AttrOr("content", ""))

	if len(rec.RawCandidates) == 0 {
		offers := priceparse.ScanStructuredOffers(doc)
		for _, p := range offers.Prices {
			rec.RawCandidates = append(rec.RawCandidates, types.Candidate{Value: p, Tag: types.TagCurrent})
		}
		if offers.Currency != "" {
			rec.Currency = offers.Currency
		}
		if rec.Availability == types.AvailabilityUnknown {
			rec.Availability = normalizeAvailability(offers.Availability)
		}
	}

	if len(rec.RawCandidates) == 0 {
		rec.RawCandidates = priceparse.FindAll(doc.Text())
	}

	// Server-rendered sold-out message beats any metadata value.
	stockMsg := doc.Find("#stock-available .stock-available-message").First().Text()
	if strings.Contains(strings.ToLower(stockMsg), "esgotad") {
		rec.Availability = types.AvailabilityOutOfStock
	}

	rec.ImageURL = productImage(doc)
	return finishRecord(rec, url, x.prefer)
}

func contentAttrFloat(s *goquery.Selection) (float64, bool) {
	raw, ok := s.Attr("content")
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
