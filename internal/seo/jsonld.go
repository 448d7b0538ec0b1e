package seo

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// WebSite returns a minimal WebSite schema with optional SearchAction.
func WebSite(name, url, searchActionURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if searchActionURL != "" {
		m["potentialAction"] = map[string]any{
			"@type":       "SearchAction",
			"target":      searchActionURL + "{search_term_string}",
			"query-input": "required name=search_term_string",
		}
	}
	return m
}

// BreadcrumbItem maps name and absolute item URL.
type BreadcrumbItem struct {
	Name string
	Item string
}

// BreadcrumbList builds schema.org BreadcrumbList.
func BreadcrumbList(items []BreadcrumbItem) map[string]any {
	el := make([]map[string]any, 0, len(items))
	for i, it := range items {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     it.Name,
			"item":     it.Item,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "BreadcrumbList",
		"itemListElement": el,
	}
}

// Offer is the price part of a Product entry.
type Offer struct {
	Price    decimal.Decimal
	Currency string
	URL      string
}

// ProductEntry is the input for Product and ItemList.
type ProductEntry struct {
	SKU      string
	Name     string
	ImageURL string
	Color    string
	Offer    Offer
}

// Product returns a Product schema with a single Offer.
func Product(p ProductEntry) map[string]any {
	m := map[string]any{
		"@type": "Product",
		"name":  p.Name,
	}
	if p.SKU != "" {
		m["sku"] = p.SKU
	}
	if p.ImageURL != "" {
		m["image"] = p.ImageURL
	}
	if p.Color != "" {
		m["color"] = p.Color
	}
	offer := map[string]any{
		"@type":         "Offer",
		"price":         p.Offer.Price.StringFixed(2),
		"priceCurrency": p.Offer.Currency,
		"availability":  "https://schema.org/InStock",
	}
	if p.Offer.URL != "" {
		offer["url"] = p.Offer.URL
	}
	m["offers"] = offer
	return m
}

// ItemList lists the products currently shown on the page, in display order.
func ItemList(name string, entries []ProductEntry) map[string]any {
	el := make([]map[string]any, 0, len(entries))
	for i, e := range entries {
		el = append(el, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"item":     Product(e),
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "ItemList",
		"name":            name,
		"numberOfItems":   len(entries),
		"itemListElement": el,
	}
}
