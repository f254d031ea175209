package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunovale/price-drop-tracker/pkg/types"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	tests := []struct {
		host string
		want Extractor
	}{
		{host: "www.netshoes.com.br", want: &Netshoes{}},
		{host: "www.dafiti.com.br", want: &Dafiti{}},
		{host: "www.nike.com", want: &selectorExtractor{}},
		{host: "www.adidas.com.br", want: &selectorExtractor{}},
		{host: "www.example.com", want: &Generic{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			assert.IsType(t, tt.want, reg.Resolve(tt.host))
		})
	}
}

func TestNetshoesExtract(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<h1 class="product-name">Tênis Corrida Max</h1>
		<div class="buy-box">R$ 599,99 R$ 512,99 no Pix ou R$ 539,99 em até 7x de R$ 77,14</div>
	</body></html>`

	rec, err := NewNetshoes().Extract(parseDoc(t, html), "https://www.netshoes.com.br/p/tenis")
	require.NoError(t, err)

	assert.Equal(t, "Tênis Corrida Max", rec.Name)
	require.NotNil(t, rec.Price)
	assert.InDelta(t, 512.99, *rec.Price, 0.001)
	assert.Equal(t, types.TagPix, rec.PriceTag)
	assert.Equal(t, "BRL", rec.Currency)
	assert.Equal(t, "https://www.netshoes.com.br/p/tenis", rec.URL)
	assert.NotEmpty(t, rec.RawCandidates)
}

func TestNetshoesExtract_JSONLDOnly(t *testing.T) {
	t.Parallel()

	html := `<html><head>
		<meta property="og:title" content="Chuteira Society"/>
		<script type="application/ld+json">
			{"@type":"Product","offers":{"price":"249.90","priceCurrency":"BRL","availability":"https://schema.org/InStock"}}
		</script>
	</head><body></body></html>`

	rec, err := NewNetshoes().Extract(parseDoc(t, html), "https://www.netshoes.com.br/p/chuteira")
	require.NoError(t, err)

	assert.Equal(t, "Chuteira Society", rec.Name)
	require.NotNil(t, rec.Price)
	assert.InDelta(t, 249.90, *rec.Price, 0.001)
	assert.Equal(t, types.TagCurrent, rec.PriceTag)
	assert.Equal(t, types.AvailabilityInStock, rec.Availability)
}

func TestNetshoesClassifyByContext(t *testing.T) {
	t.Parallel()

	t.Run("pix marker to the right", func(t *testing.T) {
		t.Parallel()

		cands := classifyByContext("R$ 512,99 no Pix")
		require.Len(t, cands, 1)
		assert.Equal(t, types.Candidate{Value: 512.99, Tag: types.TagPix}, cands[0])
	})

	t.Run("installment marker means card", func(t *testing.T) {
		t.Parallel()

		cands := classifyByContext("ou R$ 539,99 em até 7x")
		require.Len(t, cands, 1)
		assert.Equal(t, types.Candidate{Value: 539.99, Tag: types.TagCard}, cands[0])
	})

	t.Run("installment marker matches both accent forms", func(t *testing.T) {
		t.Parallel()

		// Storefront copy renders "em até"; aggregator text sometimes
		// strips the accent.
		for _, txt := range []string{"R$ 539,99 em até 7x", "R$ 539,99 em ate 7x"} {
			cands := classifyByContext(txt)
			require.Len(t, cands, 1, txt)
			assert.Equal(t, types.TagCard, cands[0].Tag, txt)
		}
	})

	t.Run("nearby pix marker wins for both amounts", func(t *testing.T) {
		t.Parallel()

		// The left window of the second amount still sees "no Pix", so it
		// is tagged pix as well; the bucket minimum keeps the real pix
		// price authoritative.
		cands := classifyByContext("R$ 512,99 no Pix ou R$ 539,99 em até 7x")
		require.Len(t, cands, 2)
		assert.Equal(t, types.TagPix, cands[0].Tag)
		assert.Equal(t, types.TagPix, cands[1].Tag)
	})

	t.Run("unmarked amount stays other", func(t *testing.T) {
		t.Parallel()

		cands := classifyByContext("De R$ 150,00 na loja")
		require.Len(t, cands, 1)
		assert.Equal(t, types.TagOther, cands[0].Tag)
	})
}

func TestDafitiExtract(t *testing.T) {
	t.Parallel()

	html := `<html><head>
		<meta itemprop="priceCurrency" content="BRL"/>
		<meta itemprop="availability" content="https://schema.org/InStock"/>
	</head><body>
		<h1 class="product-name" itemprop="name">Vestido Midi Floral</h1>
		<div class="catalog-detail-price">
			<span class="catalog-detail-price-special" data-field="specialPrice">R$ 649,99</span>
			<span class="catalog-detail-price-value" data-field="finalPrice" content="329.99">R$ 329,99</span>
			<span class="catalog-detail-price-discount">-49%</span>
		</div>
	</body></html>`

	rec, err := NewDafiti().Extract(parseDoc(t, html), "https://www.dafiti.com.br/p/vestido")
	require.NoError(t, err)

	assert.Equal(t, "Vestido Midi Floral", rec.Name)
	require.NotNil(t, rec.Price)
	assert.InDelta(t, 329.99, *rec.Price, 0.001)
	assert.Equal(t, types.TagCurrent, rec.PriceTag)
	require.NotNil(t, rec.OriginalPrice)
	assert.InDelta(t, 649.99, *rec.OriginalPrice, 0.001)
	require.NotNil(t, rec.DiscountPercent)
	assert.Equal(t, 49, *rec.DiscountPercent)
	assert.Equal(t, "BRL", rec.Currency)
	assert.Equal(t, types.AvailabilityInStock, rec.Availability)
}

func TestDafitiExtract_ContentAttributeBeatsText(t *testing.T) {
	t.Parallel()

	// Visible text disagrees with the machine-readable attribute.
	html := `<html><body>
		<h1>Bolsa Tote</h1>
		<div class="catalog-detail-price">
			<span class="catalog-detail-price-value" data-field="finalPrice" content="199.90">R$ 999,99</span>
		</div>
	</body></html>`

	rec, err := NewDafiti().Extract(parseDoc(t, html), "https://www.dafiti.com.br/p/bolsa")
	require.NoError(t, err)

	require.NotNil(t, rec.Price)
	assert.InDelta(t, 199.90, *rec.Price, 0.001)
}

func TestDafitiExtract_SoldOutOverride(t *testing.T) {
	t.Parallel()

	html := `<html><head>
		<meta itemprop="availability" content="https://schema.org/InStock"/>
	</head><body>
		<h1>Sandália Rasteira</h1>
		<div class="catalog-detail-price">
			<span class="catalog-detail-price-value" data-field="finalPrice" content="89.90">R$ 89,90</span>
		</div>
		<div id="stock-available"><p class="stock-available-message">Produto esgotado</p></div>
	</body></html>`

	rec, err := NewDafiti().Extract(parseDoc(t, html), "https://www.dafiti.com.br/p/sandalia")
	require.NoError(t, err)

	assert.Equal(t, types.AvailabilityOutOfStock, rec.Availability)
}

func TestNikeExtract(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<h1 data-testid="product-name">Nike Pegasus 41</h1>
		<span data-testid="main-price">R$ 999,99</span>
	</body></html>`

	rec, err := NewNike().Extract(parseDoc(t, html), "https://www.nike.com/br/t/pegasus")
	require.NoError(t, err)

	assert.Equal(t, "Nike Pegasus 41", rec.Name)
	require.NotNil(t, rec.Price)
	assert.InDelta(t, 999.99, *rec.Price, 0.001)
}

func TestNikeExtract_LegacySelectors(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<h1 class="headline-5">Nike Air Max 90</h1>
		<div class="product-price">R$ 799,99</div>
	</body></html>`

	rec, err := NewNike().Extract(parseDoc(t, html), "https://www.nike.com/br/t/airmax")
	require.NoError(t, err)

	assert.Equal(t, "Nike Air Max 90", rec.Name)
	require.NotNil(t, rec.Price)
	assert.InDelta(t, 799.99, *rec.Price, 0.001)
}

func TestAdidasExtract_StructuredDataFallback(t *testing.T) {
	t.Parallel()

	// No selector matches; the metadata path carries the record.
	html := `<html><head>
		<script type="application/ld+json">
			{"@type":"Product","offers":{"price":"449.99","priceCurrency":"BRL"}}
		</script>
	</head><body>
		<h1 data-testid="product-title">Adidas Ultraboost</h1>
	</body></html>`

	rec, err := NewAdidas().Extract(parseDoc(t, html), "https://www.adidas.com.br/ultraboost")
	require.NoError(t, err)

	require.NotNil(t, rec.Price)
	assert.InDelta(t, 449.99, *rec.Price, 0.001)
	assert.Equal(t, "BRL", rec.Currency)
}

func TestGenericExtract(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<h1>Cafeteira Italiana</h1>
		<div class="product-price-box">R$ 120,00 ou R$ 110,00 à vista</div>
	</body></html>`

	rec, err := NewGeneric().Extract(parseDoc(t, html), "https://loja.example.com/p/cafeteira")
	require.NoError(t, err)

	assert.Equal(t, "Cafeteira Italiana", rec.Name)
	require.NotNil(t, rec.Price)
	assert.InDelta(t, 110.0, *rec.Price, 0.001)
	assert.Equal(t, types.AvailabilityUnknown, rec.Availability)
}

func TestExtract_MandatoryFields(t *testing.T) {
	t.Parallel()

	t.Run("missing price", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><h1>Produto Sem Preço</h1></body></html>`
		_, err := NewGeneric().Extract(parseDoc(t, html), "https://example.com/p")

		var exErr *ExtractionError
		require.ErrorAs(t, err, &exErr)
		assert.ErrorIs(t, err, ErrNoPrice)
	})

	t.Run("missing name", func(t *testing.T) {
		t.Parallel()

		html := `<html><body><div class="price">R$ 10,00</div></body></html>`
		_, err := NewNetshoes().Extract(parseDoc(t, html), "https://www.netshoes.com.br/p")

		var exErr *ExtractionError
		require.ErrorAs(t, err, &exErr)
		assert.ErrorIs(t, err, ErrNoName)
	})
}

func TestNormalizeAvailability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{raw: "https://schema.org/InStock", want: types.AvailabilityInStock},
		{raw: "https://schema.org/OutOfStock", want: types.AvailabilityOutOfStock},
		{raw: "InStock", want: types.AvailabilityInStock},
		{raw: "", want: types.AvailabilityUnknown},
		{raw: "whatever", want: types.AvailabilityUnknown},
	}

	for _, tt := range tests {
		tt := tt
		assert.Equal(t, tt.want, normalizeAvailability(tt.raw))
	}
}
