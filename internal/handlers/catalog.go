package handlers

import (
	"html"
	"html/template"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"finitefield.org/catalog-web/internal/catalog"
	"finitefield.org/catalog-web/internal/content"
	"finitefield.org/catalog-web/internal/format"
)

const (
	// PagePath is the canonical full-page route.
	PagePath = "/catalog"
	// GridPath serves the grid fragment for htmx swaps.
	GridPath        = "/catalog/products"
	FilterModalPath = "/catalog/modal/filter"
	OrderModalPath  = "/catalog/modal/order"
)

var namePolicy = bluemonday.StrictPolicy()

// Card is one rendered product tile.
type Card struct {
	ID           string
	Name         string
	Image        string
	Color        string
	Sizes        []string
	Price        string
	Installments string
	Date         string
}

// FacetLink is a sidebar option plus the URL that toggles it.
type FacetLink struct {
	catalog.Option
	Href     template.URL
	GridHref template.URL
}

// SortOption is one entry of the sort select and the order modal.
type SortOption struct {
	Value    string
	LabelKey string
	Selected bool
	Href     template.URL
	GridHref template.URL
}

// CatalogView is everything the catalog templates need for one request.
type CatalogView struct {
	Query    catalog.Query
	Viewport catalog.Viewport
	Cards    []Card
	Total    int
	Visible  int
	HasMore  bool
	Loaded   bool
	// the load gave up; the grid stops polling
	Failed bool

	// current state, used for HX-Push-Url and canonical links
	SelfHref     template.URL
	SelfGridHref template.URL
	// narrow-viewport modals
	FilterModalHref template.URL
	OrderModalHref  template.URL
	// show more
	MoreHref     template.URL
	MoreGridHref template.URL
	// clear all filters, keeping sort
	ResetHref     template.URL
	ResetGridHref template.URL
	// expand the collapsed color list
	ToggleColorsHref     template.URL
	ToggleColorsGridHref template.URL

	Colors        []FacetLink
	Sizes         []FacetLink
	Prices        []FacetLink
	HiddenColors  int
	ShowAllColors bool
	Sort          []SortOption

	Intro *content.Page
}

// CatalogInput collects what BuildCatalogView needs.
type CatalogInput struct {
	Products []catalog.Product
	Loaded   bool
	Failed   bool
	Query    catalog.Query
	Viewport catalog.Viewport
	Facets   catalog.FacetConfig
	Currency string
	Lang     string
	Intro    *content.Page
}

var sortLabels = map[catalog.SortKey]string{
	catalog.SortNone:         "catalog.sort.relevance",
	catalog.SortRecent:       "catalog.sort.recent",
	catalog.SortLowestPrice:  "catalog.sort.lowest_price",
	catalog.SortHighestPrice: "catalog.sort.highest_price",
}

// BuildCatalogView runs the pipeline and prepares cards and links.
func BuildCatalogView(in CatalogInput) *CatalogView {
	q := in.Query
	res := catalog.Run(in.Products, q, in.Viewport)

	v := &CatalogView{
		Query:    q,
		Viewport: in.Viewport,
		Total:    res.Total,
		Visible:  len(res.Items),
		HasMore:  res.HasMore,
		Loaded:   in.Loaded,
		Failed:   !in.Loaded && in.Failed,
		Intro:    in.Intro,
	}
	v.Cards = make([]Card, 0, len(res.Items))
	for _, p := range res.Items {
		v.Cards = append(v.Cards, NewCard(p, in.Currency, in.Lang))
	}

	v.SelfHref, v.SelfGridHref = Href(PagePath, q), Href(GridPath, q)
	v.FilterModalHref, v.OrderModalHref = Href(FilterModalPath, q), Href(OrderModalPath, q)
	more := q.WithVisible(res.NextVisible)
	v.MoreHref, v.MoreGridHref = Href(PagePath, more), Href(GridPath, more)

	reset := catalog.Query{Sort: q.Sort}
	v.ResetHref, v.ResetGridHref = Href(PagePath, reset), Href(GridPath, reset)

	expanded := q.Reset()
	expanded.AllColors = !q.AllColors
	v.ToggleColorsHref, v.ToggleColorsGridHref = Href(PagePath, expanded), Href(GridPath, expanded)

	facets := catalog.BuildFacets(in.Facets, in.Products, q)
	v.HiddenColors = facets.HiddenColors
	v.ShowAllColors = facets.ShowAllColors
	for _, o := range facets.Colors {
		v.Colors = append(v.Colors, facetLink(o, toggleColor(q, o.Value)))
	}
	for _, o := range facets.Sizes {
		v.Sizes = append(v.Sizes, facetLink(o, q.WithSize(o.Value)))
	}
	for _, o := range facets.Prices {
		v.Prices = append(v.Prices, facetLink(o, togglePrice(q, o.Value)))
	}

	for _, key := range append([]catalog.SortKey{catalog.SortNone}, catalog.SortKeys...) {
		next := q.WithSort(key)
		v.Sort = append(v.Sort, SortOption{
			Value:    string(key),
			LabelKey: sortLabels[key],
			Selected: q.Sort == key,
			Href:     Href(PagePath, next),
			GridHref: Href(GridPath, next),
		})
	}
	return v
}

// NewCard formats p for display. Names lose any markup and image URLs must be http(s) or relative.
func NewCard(p catalog.Product, currency, lang string) Card {
	c := Card{
		ID:    p.ID,
		Name:  SanitizeText(p.Name),
		Image: SafeImageURL(p.Image),
		Color: SanitizeText(p.Color),
		Sizes: p.Sizes,
		Price: format.Price(p.Price, currency, lang),
		Date:  format.Date(p.Date, lang),
	}
	if p.Installments.Count > 0 {
		c.Installments = format.Installments(p.Installments.Count, p.Installments.Amount, currency, lang)
	}
	return c
}

// SanitizeText strips all markup from backend-provided text.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(namePolicy.Sanitize(s)))
}

// SafeImageURL returns raw when it is an http(s) or path-relative URL, else "".
func SafeImageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return ""
		}
		return u.String()
	case "":
		if u.Host != "" || strings.HasPrefix(raw, "//") {
			return ""
		}
		return u.String()
	}
	return ""
}

// Href renders path?query for q as a trusted template URL.
func Href(path string, q catalog.Query) template.URL {
	enc := q.Encode()
	if enc == "" {
		return template.URL(path)
	}
	return template.URL(path + "?" + enc)
}

func facetLink(o catalog.Option, next catalog.Query) FacetLink {
	o.Label = SanitizeText(o.Label)
	return FacetLink{Option: o, Href: Href(PagePath, next), GridHref: Href(GridPath, next)}
}

func toggleColor(q catalog.Query, color string) catalog.Query {
	next := q.Reset()
	next.Colors = nil
	found := false
	for _, c := range q.Colors {
		if c == color {
			found = true
			continue
		}
		next.Colors = append(next.Colors, c)
	}
	if !found {
		next.Colors = append(next.Colors, color)
	}
	return next
}

func togglePrice(q catalog.Query, token string) catalog.Query {
	next := q.Reset()
	next.Prices = nil
	found := false
	for _, p := range q.Prices {
		if p.Token == token {
			found = true
			continue
		}
		next.Prices = append(next.Prices, p)
	}
	if !found {
		next.Prices = append(next.Prices, catalog.ParsePriceRange(token))
	}
	return next
}
