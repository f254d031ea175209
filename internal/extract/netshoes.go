package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brunovale/price-drop-tracker/pkg/priceparse"
	"github.com/brunovale/price-drop-tracker/pkg/types"
)

// Context-window markers for the Netshoes buy box. A typical rendering is
// "R$ 599,99R$ 512,99 no Pix ou R$ 539,99 em até 7x": the marker near each
// matched amount decides its tag.
var (
	pixTokenRe  = regexp.MustCompile(`(?i)\bno\s*pix\b`)
	cardTokenRe = regexp.MustCompile(`(?i)\bou\s*R\$\s*\d`)
	// \b is ASCII-only in RE2 and never matches after the accented é, so
	// the boundary is spelled out for the unaccented form only.
	parcelRe = regexp.MustCompile(`(?i)\bem\s+at(é|e\b)`)
)

const (
	contextWindowLeft  = 25
	contextWindowRight = 40
)

// Netshoes extracts netshoes.com.br product pages. JSON-LD offers come
// first; the buy-box text scan with context-window tagging fills in the
// pix/card split that the structured data never carries.
type Netshoes struct {
	prefer types.PriceTag
}

// NewNetshoes returns the Netshoes extractor preferring the pix price,
// which is the advertised effective price on that storefront.
func NewNetshoes() *Netshoes {
	return &Netshoes{prefer: types.TagPix}
}

// Match reports whether host belongs to Netshoes.
func (x *Netshoes) Match(host string) bool {
	return strings.Contains(host, "netshoes.com")
}

// Extract implements Extractor.
func (x *Netshoes) Extract(doc *goquery.Document, url string) (*types.ProductRecord, error) {
	rec := &types.ProductRecord{}

	rec.Name = firstText(doc, []string{"h1.product-name"})
	if rec.Name == "" {
		rec.Name = metaProperty(doc, "og:title")
	}

	offers := priceparse.ScanStructuredOffers(doc)
	for _, p := range offers.Prices {
		rec.RawCandidates = append(rec.RawCandidates, types.Candidate{Value: p, Tag: types.TagCurrent})
	}
	rec.Currency = offers.Currency
	rec.Availability = normalizeAvailability(offers.Availability)

	txt := buyBoxText(doc)
	rec.RawCandidates = append(rec.RawCandidates, classifyByContext(txt)...)

	rec.ImageURL = productImage(doc)
	return finishRecord(rec, url, x.prefer)
}

// buyBoxText returns the text of the first pricing container present,
// falling back to the whole body.
func buyBoxText(doc *goquery.Document) string {
	for _, sel := range []string{".buy-box", ".product-price", ".price", ".showcase__description", "body"} {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		return strings.Join(strings.Fields(s.Text()), " ")
	}
	return ""
}

// classifyByContext tags each currency match by the marker phrases inside
// a bounded window around it. Pix markers on either side win; otherwise a
// card marker to the left or an installment marker to the right means
// card; everything else stays other.
func classifyByContext(txt string) []types.Candidate {
	var cands []types.Candidate
	for _, m := range priceparse.Matches(txt) {
		left := txt[max(0, m.Start-contextWindowLeft):m.Start]
		right := txt[m.End:min(len(txt), m.End+contextWindowRight)]

		tag := types.TagOther
		switch {
		case pixTokenRe.MatchString(right) || pixTokenRe.MatchString(left):
			tag = types.TagPix
		case cardTokenRe.MatchString(left) || parcelRe.MatchString(right):
			tag = types.TagCard
		}
		cands = append(cands, types.Candidate{Value: m.Value, Tag: tag})
	}
	return cands
}
