package catalog

import (
	"fmt"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id, color string, price float64, date string, sizes ...string) Product {
	return Product{
		ID:      id,
		Name:    "Produto " + id,
		Price:   decimal.NewFromFloat(price),
		RawDate: date,
		Date:    ParseDate(date),
		Color:   color,
		Sizes:   sizes,
	}
}

func sampleProducts() []Product {
	return []Product{
		product("1", "Amarelo", 199.90, "2022-05-12", "P", "M"),
		product("2", "Preto", 49.90, "2021-11-01", "G"),
		product("3", "Branco", 599.00, "2023-01-20", "M", "G", "GG"),
		product("4", "Preto", 75.50, "2022-12-24", "U"),
		product("5", "Rosa", 100.00, "2020-02-02", "P"),
		product("6", "Amarelo", 50.00, "2023-03-03", "36", "38"),
		product("7", "Cinza", 500.00, "2019-07-07", "M"),
	}
}

func ids(list []Product) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		out = append(out, p.ID)
	}
	return out
}

func TestParsePriceRange(t *testing.T) {
	r := ParsePriceRange("50-100")
	require.True(t, r.Valid())
	assert.Equal(t, 50.0, r.Min)
	assert.Equal(t, 100.0, r.Max)
	assert.False(t, r.OpenEnded())

	r = ParsePriceRange("500+")
	require.True(t, r.Valid())
	assert.Equal(t, 500.0, r.Min)
	assert.True(t, r.OpenEnded())

	r = ParsePriceRange("500-")
	require.True(t, r.Valid())
	assert.True(t, r.OpenEnded())

	r = ParsePriceRange("abc-100")
	assert.False(t, r.Valid())
	assert.True(t, math.IsNaN(r.Min))
	assert.False(t, r.Contains(75))
}

func TestFilterPricesBounds(t *testing.T) {
	all := sampleProducts()

	got := FilterPrices(all, []PriceRange{ParsePriceRange("50-100")})
	require.NotEmpty(t, got)
	for _, p := range got {
		price := p.Price.InexactFloat64()
		assert.True(t, price >= 50 && price <= 100, "price %v outside 50-100", price)
	}
	assert.Equal(t, []string{"4", "5", "6"}, ids(got))

	got = FilterPrices(all, []PriceRange{ParsePriceRange("500+")})
	for _, p := range got {
		assert.True(t, p.Price.InexactFloat64() >= 500)
	}
	assert.Equal(t, []string{"3", "7"}, ids(got))
}

func TestFilterMalformedPriceExcludesEverything(t *testing.T) {
	got := FilterPrices(sampleProducts(), []PriceRange{ParsePriceRange("cheap")})
	assert.Empty(t, got)
}

func TestFilterIsSubsetMatchingPredicates(t *testing.T) {
	all := sampleProducts()
	queries := []Query{
		{},
		{Colors: []string{"Preto"}},
		{Colors: []string{"Preto", "Amarelo"}, Prices: []PriceRange{ParsePriceRange("0-60")}},
		{Size: "M"},
		{Colors: []string{"Branco"}, Size: "GG", Prices: []PriceRange{ParsePriceRange("500+")}},
	}
	index := map[string]Product{}
	for _, p := range all {
		index[p.ID] = p
	}
	for i, q := range queries {
		t.Run(fmt.Sprintf("query-%d", i), func(t *testing.T) {
			got := Filter(all, q)
			for _, p := range got {
				_, ok := index[p.ID]
				require.True(t, ok)
				if len(q.Colors) > 0 {
					assert.Contains(t, q.Colors, p.Color)
				}
				if q.Size != "" {
					assert.True(t, p.HasSize(q.Size))
				}
			}
			// every product satisfying the predicate is kept
			want := 0
			for _, p := range all {
				if len(Filter([]Product{p}, q)) == 1 {
					want++
				}
			}
			assert.Len(t, got, want)
		})
	}
}

func TestFilterEmptySelectionIsIdentity(t *testing.T) {
	all := sampleProducts()
	assert.Empty(t, cmp.Diff(ids(all), ids(Filter(all, Query{}))))
}

func TestSortReversesWithoutTies(t *testing.T) {
	all := sampleProducts()
	low := ids(Sort(all, SortLowestPrice))
	high := ids(Sort(all, SortHighestPrice))
	reversed := make([]string, len(high))
	for i, id := range high {
		reversed[len(high)-1-i] = id
	}
	if diff := cmp.Diff(low, reversed); diff != "" {
		t.Fatalf("lowest-price is not the reverse of highest-price (-low +reversed):\n%s", diff)
	}
	assert.Equal(t, []string{"2", "6", "4", "5", "1", "7", "3"}, low)
}

func TestSortRecentAndUnknown(t *testing.T) {
	all := sampleProducts()
	assert.Equal(t, []string{"6", "3", "4", "1", "2", "5", "7"}, ids(Sort(all, SortRecent)))
	assert.Equal(t, ids(all), ids(Sort(all, SortKey("bogus"))))
}

func TestSortDoesNotReorderInput(t *testing.T) {
	all := sampleProducts()
	before := ids(all)
	_ = Sort(all, SortHighestPrice)
	assert.Equal(t, before, ids(all))
}

func TestSortRecentPutsUndatedLast(t *testing.T) {
	list := []Product{
		product("a", "X", 1, "not-a-date"),
		product("b", "X", 1, "2024-01-01"),
	}
	assert.Equal(t, []string{"b", "a"}, ids(Sort(list, SortRecent)))
}

func TestWindowDefaultsAndMore(t *testing.T) {
	assert.Equal(t, 9, NewWindow(ViewportWide, 0).Visible)
	assert.Equal(t, 4, NewWindow(ViewportNarrow, 0).Visible)
	assert.Equal(t, 13, NewWindow(ViewportNarrow, 0).More().Visible)

	w := NewWindow(ViewportWide, 0)
	seven := sampleProducts()
	assert.False(t, w.HasMore(len(seven)), "7 products with default 9 hides the control")
	assert.Len(t, w.Slice(seven), 7)
}

func manyProducts(n int) []Product {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]Product, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, product(fmt.Sprintf("%d", i+1), "Preto", float64(10+i), base.AddDate(0, 0, i).Format("2006-01-02"), "M"))
	}
	return out
}

func TestRunShowMoreScenario(t *testing.T) {
	all := manyProducts(20)

	res := Run(all, Query{}, ViewportWide)
	assert.Len(t, res.Items, 9)
	assert.True(t, res.HasMore)
	assert.Equal(t, 18, res.NextVisible)

	res = Run(all, Query{Visible: res.NextVisible}, ViewportWide)
	assert.Len(t, res.Items, 18)
	assert.True(t, res.HasMore)

	res = Run(all, Query{Visible: res.NextVisible}, ViewportWide)
	assert.Equal(t, 27, res.Visible)
	assert.Len(t, res.Items, 20)
	assert.False(t, res.HasMore)
}

func TestRunCardCountInvariant(t *testing.T) {
	all := manyProducts(12)
	for _, visible := range []int{0, 1, 4, 9, 12, 13, 40} {
		for _, vp := range []Viewport{ViewportWide, ViewportNarrow} {
			res := Run(all, Query{Visible: visible, Sort: SortHighestPrice}, vp)
			assert.Equal(t, min(res.Visible, res.Total), len(res.Items))
			assert.Equal(t, res.Visible < res.Total, res.HasMore)
		}
	}
}

func TestParseQueryRoundTrip(t *testing.T) {
	values := url.Values{
		"sort":    {"lowest-price"},
		"color":   {"Preto", "Amarelo,Preto"},
		"price":   {"0-50", "500+"},
		"size":    {"M"},
		"visible": {"18"},
	}
	q := ParseQuery(values)
	assert.Equal(t, SortLowestPrice, q.Sort)
	assert.Equal(t, []string{"Preto", "Amarelo"}, q.Colors)
	require.Len(t, q.Prices, 2)
	assert.True(t, q.Prices[1].OpenEnded())
	assert.Equal(t, "M", q.Size)
	assert.Equal(t, 18, q.Visible)
	assert.True(t, q.Active())

	again := ParseQuery(q.Values())
	assert.Equal(t, q.Encode(), again.Encode())

	reset := q.WithSort(SortRecent)
	assert.Zero(t, reset.Visible)
	assert.Empty(t, reset.Values().Get("visible"))
}

func TestParseQueryIgnoresBadCursor(t *testing.T) {
	assert.Zero(t, ParseQuery(url.Values{"visible": {"-3"}}).Visible)
	assert.Zero(t, ParseQuery(url.Values{"visible": {"lots"}}).Visible)
	assert.Equal(t, SortNone, ParseQuery(url.Values{"sort": {"cheapest"}}).Sort)
}

func TestWithSizeToggles(t *testing.T) {
	q := Query{Visible: 18}.WithSize("M")
	assert.Equal(t, "M", q.Size)
	assert.Zero(t, q.Visible)
	assert.Empty(t, q.WithSize("M").Size)
}

func TestBuildFacetsCollapsesColors(t *testing.T) {
	cfg := FacetConfig{
		Colors:          []string{"Amarelo", "Azul", "Branco"},
		CollapsedColors: 2,
		Brackets:        []Bracket{{Token: "0-50", Label: "de R$0 até R$50"}, {Token: "500+"}},
	}
	f := BuildFacets(cfg, sampleProducts(), Query{Colors: []string{"Rosa"}, Size: "M"})

	var values []string
	for _, o := range f.Colors {
		values = append(values, o.Value)
	}
	assert.Equal(t, []string{"Amarelo", "Azul", "Branco", "Cinza", "Preto", "Rosa"}, values)
	assert.Equal(t, 3, f.HiddenColors, "Rosa is checked so it stays visible")
	assert.False(t, f.Colors[5].Hidden)
	assert.Equal(t, "500+", f.Prices[1].Label)

	var checkedSize string
	for _, o := range f.Sizes {
		if o.Checked {
			checkedSize = o.Value
		}
	}
	assert.Equal(t, "M", checkedSize)

	all := BuildFacets(cfg, sampleProducts(), Query{AllColors: true})
	assert.Zero(t, all.HiddenColors)
}

func TestStoreSnapshot(t *testing.T) {
	s := NewStore()
	_, ok := s.Loaded()
	assert.False(t, ok)
	assert.Empty(t, s.Snapshot())

	list := sampleProducts()
	s.Replace(list)
	list[0].Name = "mutated"
	_, ok = s.Loaded()
	assert.True(t, ok)
	assert.Len(t, s.Snapshot(), 7)
	assert.NotEqual(t, "mutated", s.Snapshot()[0].Name)

	p, ok := s.Find("3")
	require.True(t, ok)
	assert.Equal(t, "Branco", p.Color)
}

func TestStoreFailedUntilReplaced(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Failed())
	s.MarkFailed()
	assert.True(t, s.Failed())

	s.Replace(sampleProducts())
	assert.False(t, s.Failed())

	// a published list is never downgraded
	s.MarkFailed()
	assert.False(t, s.Failed())
}

func TestDecodeProducts(t *testing.T) {
	raw := []byte(`[
	  {"id":"1","name":"CAMISETA MESCLA","price":28.00,"parcelamento":[10,2.8],"color":"Cinza","image":"img/1.png","size":["P","M"],"date":"2020-07-11"},
	  {"name":"SAIA","price":"398.50","parcelamento":[3,"132.83"],"color":"Preto","image":"img/2.png","size":["36"],"date":"2021-01-01T10:00:00Z"}
	]`)
	list, err := DecodeProducts(raw)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1", list[0].ID)
	assert.Equal(t, "p-2", list[1].ID)
	assert.True(t, list[0].Price.Equal(decimal.RequireFromString("28")))
	assert.Equal(t, 10, list[0].Installments.Count)
	assert.Equal(t, "28", list[0].Installments.Total().String())
	assert.Equal(t, 3, list[1].Installments.Count)
	assert.Equal(t, 2021, list[1].Date.Year())

	_, err = DecodeProducts([]byte(`{"not":"a list"}`))
	require.Error(t, err)
}
