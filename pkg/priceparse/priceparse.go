// Package priceparse holds the pure price-parsing utilities shared by all
// site extractors: currency-string normalization, structured offer metadata
// scanning, and the candidate selection policy. No I/O happens here.
package priceparse

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/brunovale/price-drop-tracker/pkg/types"
)

// PreferLowest selects the global minimum candidate, skipping the
// tag-bucket step in ChoosePrice.
const PreferLowest types.PriceTag = "lowest"

// brlRe matches Brazilian-formatted currency amounts like "R$ 1.234,56".
var brlRe = regexp.MustCompile(`(?i)R\$\s*\d{1,3}(?:\.\d{3})*,\d{2}`)

// Parse normalizes a locale-formatted currency string to a float.
// All characters except digits, comma and dot are stripped; the rightmost
// separator is the decimal point and every other separator is a thousands
// mark. Returns ok=false on unparsable input, never an error: callers treat
// that as "no candidate".
func Parse(text string) (float64, bool) {
	var b strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if !strings.ContainsFunc(s, unicode.IsDigit) {
		return 0, false
	}

	if i := strings.LastIndexAny(s, ",."); i >= 0 {
		intPart := strings.Map(func(r rune) rune {
			if r == ',' || r == '.' {
				return -1
			}
			return r
		}, s[:i])
		s = intPart + "." + s[i+1:]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Match is one currency-formatted substring found in free text, with its
// byte offsets so callers can inspect the surrounding context.
type Match struct {
	Value float64
	Start int
	End   int
}

// Matches scans text for every Brazilian-formatted currency substring and
// returns the parsed values with their positions, in document order.
func Matches(text string) []Match {
	var out []Match
	for _, loc := range brlRe.FindAllStringIndex(text, -1) {
		v, ok := Parse(text[loc[0]:loc[1]])
		if !ok {
			continue
		}
		out = append(out, Match{Value: v, Start: loc[0], End: loc[1]})
	}
	return out
}

// FindAll is the blind last-resort scan: every currency-formatted substring
// in the text becomes a candidate tagged "other".
func FindAll(text string) []types.Candidate {
	var out []types.Candidate
	for _, m := range Matches(text) {
		out = append(out, types.Candidate{Value: m.Value, Tag: types.TagOther})
	}
	return out
}

// Offers is the result of scanning structured product metadata.
type Offers struct {
	Prices       []float64
	Currency     string
	Availability string
}

// ScanStructuredOffers walks every JSON-LD script in the document looking
// for Product nodes and collects their offer prices. Per offer the price
// preference is price, then lowPrice, then highPrice. Currency and
// availability keep the first non-empty value encountered. Scripts holding
// several concatenated JSON objects are retried as a bracketed list before
// being skipped.
func ScanStructuredOffers(doc *goquery.Document) Offers {
	var offers Offers
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		txt := strings.TrimSpace(s.Text())
		if txt == "" {
			return
		}
		var node any
		if err := json.Unmarshal([]byte(txt), &node); err != nil {
			if err := json.Unmarshal([]byte("["+txt+"]"), &node); err != nil {
				return
			}
		}
		visitProductNodes(node, &offers)
	})
	return offers
}

func visitProductNodes(node any, offers *Offers) {
	switch n := node.(type) {
	case map[string]any:
		if isProductType(n["@type"]) {
			switch o := n["offers"].(type) {
			case map[string]any:
				collectOffer(o, offers)
			case []any:
				for _, item := range o {
					if m, ok := item.(map[string]any); ok {
						collectOffer(m, offers)
					}
				}
			}
		}
		for _, v := range n {
			visitProductNodes(v, offers)
		}
	case []any:
		for _, v := range n {
			visitProductNodes(v, offers)
		}
	}
}

func isProductType(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, "product")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.EqualFold(s, "product") {
				return true
			}
		}
	}
	return false
}

func collectOffer(offer map[string]any, offers *Offers) {
	for _, key := range []string{"price", "lowPrice", "highPrice"} {
		if v, ok := offerPrice(offer[key]); ok {
			offers.Prices = append(offers.Prices, v)
			break
		}
	}
	if offers.Currency == "" {
		if c, ok := offer["priceCurrency"].(string); ok {
			offers.Currency = c
		}
	}
	if offers.Availability == "" {
		for _, key := range []string{"availability", "Availability"} {
			if a, ok := offer[key].(string); ok && a != "" {
				offers.Availability = a
				break
			}
		}
	}
}

func offerPrice(v any) (float64, bool) {
	switch p := v.(type) {
	case float64:
		if p > 0 {
			return p, true
		}
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(p, ",", "."), 64)
		if err == nil && f > 0 {
			return f, true
		}
	}
	return 0, false
}

// ChoosePrice picks the authoritative candidate. When prefer names a
// concrete tag and at least one candidate carries it, the minimum within
// that bucket wins; installment totals sometimes leak into the preferred
// bucket and the minimum is the safer read. Otherwise the global minimum
// wins. An empty list yields ok=false.
func ChoosePrice(cands []types.Candidate, prefer types.PriceTag) (types.Candidate, bool) {
	if len(cands) == 0 {
		return types.Candidate{}, false
	}

	switch prefer {
	case types.TagPix, types.TagCard, types.TagCurrent:
		best, found := types.Candidate{}, false
		for _, c := range cands {
			if c.Tag != prefer {
				continue
			}
			if !found || c.Value < best.Value {
				best, found = c, true
			}
		}
		if found {
			return best, true
		}
	}

	best := cands[0]
	for _, c := range cands[1:] {
		if c.Value < best.Value {
			best = c
		}
	}
	return best, true
}
