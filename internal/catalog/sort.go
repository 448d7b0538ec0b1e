package catalog

import (
	"slices"
	"strings"
)

// SortKey selects the comparator used by Sort.
type SortKey string

const (
	SortNone         SortKey = ""
	SortRecent       SortKey = "recent"
	SortLowestPrice  SortKey = "lowest-price"
	SortHighestPrice SortKey = "highest-price"
)

// SortKeys lists the supported keys in the order the sort menu shows them.
var SortKeys = []SortKey{SortRecent, SortLowestPrice, SortHighestPrice}

// ParseSortKey returns SortNone for anything unrecognised.
func ParseSortKey(s string) SortKey {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, k) {
		return k
	}
	return SortNone
}

// Sort returns a stably sorted copy of products. The input is never reordered.
// An unknown key returns the input order.
func Sort(products []Product, key SortKey) []Product {
	out := slices.Clone(products)
	switch key {
	case SortRecent:
		slices.SortStableFunc(out, func(a, b Product) int {
			return b.Date.Compare(a.Date)
		})
	case SortLowestPrice:
		slices.SortStableFunc(out, func(a, b Product) int {
			return a.Price.Cmp(b.Price)
		})
	case SortHighestPrice:
		slices.SortStableFunc(out, func(a, b Product) int {
			return b.Price.Cmp(a.Price)
		})
	}
	return out
}
