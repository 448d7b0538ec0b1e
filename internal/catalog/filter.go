package catalog

import (
	"math"
	"strconv"
	"strings"
)

// PriceRange is a parsed price bracket token. Max is +Inf for lower-bound-only brackets.
type PriceRange struct {
	Token string
	Min   float64
	Max   float64
}

// ParsePriceRange parses "min-max" and "min+" tokens. A component that does not
// parse becomes NaN and the range matches nothing.
func ParsePriceRange(token string) PriceRange {
	token = strings.TrimSpace(token)
	r := PriceRange{Token: token, Min: math.NaN(), Max: math.NaN()}
	parts := strings.SplitN(strings.TrimSuffix(token, "+"), "-", 2)
	r.Min = parseBound(parts[0])
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		r.Max = math.Inf(1)
		return r
	}
	r.Max = parseBound(parts[1])
	return r
}

func parseBound(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Valid is false when either bound failed to parse.
func (r PriceRange) Valid() bool {
	return !math.IsNaN(r.Min) && !math.IsNaN(r.Max)
}

// OpenEnded reports a "min+" bracket.
func (r PriceRange) OpenEnded() bool {
	return math.IsInf(r.Max, 1)
}

// Contains reports min <= price <= max. NaN bounds never match.
func (r PriceRange) Contains(price float64) bool {
	return r.Min <= price && price <= r.Max
}

// FilterColors keeps products whose color is one of colors. Empty colors is identity.
func FilterColors(products []Product, colors []string) []Product {
	if len(colors) == 0 {
		return products
	}
	set := make(map[string]struct{}, len(colors))
	for _, c := range colors {
		set[c] = struct{}{}
	}
	return keep(products, func(p Product) bool {
		_, ok := set[p.Color]
		return ok
	})
}

// FilterPrices keeps products inside any of the ranges. Empty ranges is identity.
func FilterPrices(products []Product, ranges []PriceRange) []Product {
	if len(ranges) == 0 {
		return products
	}
	return keep(products, func(p Product) bool {
		price := p.Price.InexactFloat64()
		for _, r := range ranges {
			if r.Contains(price) {
				return true
			}
		}
		return false
	})
}

// FilterSize keeps products whose size set contains size. Empty size is identity.
func FilterSize(products []Product, size string) []Product {
	if size == "" {
		return products
	}
	return keep(products, func(p Product) bool { return p.HasSize(size) })
}

// Filter applies every axis of q. Axes combine with AND; values inside an axis with OR.
func Filter(products []Product, q Query) []Product {
	out := FilterColors(products, q.Colors)
	out = FilterPrices(out, q.Prices)
	out = FilterSize(out, q.Size)
	return out
}

func keep(products []Product, pred func(Product) bool) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}
