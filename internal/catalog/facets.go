package catalog

import (
	"slices"
	"sort"
)

// DefaultCollapsedColors is how many color options show before "ver todas as cores".
const DefaultCollapsedColors = 9

// Bracket is a configured price filter option.
type Bracket struct {
	Token string `yaml:"token"`
	Label string `yaml:"label"`
}

// FacetConfig drives option ordering in the filter sidebar.
type FacetConfig struct {
	Colors          []string
	Sizes           []string
	Brackets        []Bracket
	CollapsedColors int
}

// Option is a single checkbox or button in the filter sidebar.
type Option struct {
	Value   string
	Label   string
	Checked bool
	Hidden  bool
}

// Facets is the filter sidebar view.
type Facets struct {
	Colors        []Option
	Sizes         []Option
	Prices        []Option
	HiddenColors  int
	ShowAllColors bool
}

// BuildFacets merges configured option order with values present in products.
func BuildFacets(cfg FacetConfig, products []Product, q Query) Facets {
	collapsed := cfg.CollapsedColors
	if collapsed <= 0 {
		collapsed = DefaultCollapsedColors
	}

	colorSeen := map[string]struct{}{}
	sizeSeen := map[string]struct{}{}
	for _, p := range products {
		if p.Color != "" {
			colorSeen[p.Color] = struct{}{}
		}
		for _, s := range p.Sizes {
			sizeSeen[s] = struct{}{}
		}
	}

	f := Facets{ShowAllColors: q.AllColors}
	for i, c := range mergeOrder(cfg.Colors, colorSeen) {
		opt := Option{Value: c, Label: c, Checked: q.HasColor(c)}
		// selected colors stay visible even when collapsed
		if !q.AllColors && i >= collapsed && !opt.Checked {
			opt.Hidden = true
			f.HiddenColors++
		}
		f.Colors = append(f.Colors, opt)
	}
	for _, s := range mergeOrder(cfg.Sizes, sizeSeen) {
		f.Sizes = append(f.Sizes, Option{Value: s, Label: s, Checked: q.Size == s})
	}
	for _, b := range cfg.Brackets {
		label := b.Label
		if label == "" {
			label = b.Token
		}
		f.Prices = append(f.Prices, Option{Value: b.Token, Label: label, Checked: q.HasPrice(b.Token)})
	}
	return f
}

// mergeOrder returns configured values first, then any extra seen values sorted.
func mergeOrder(configured []string, seen map[string]struct{}) []string {
	out := make([]string, 0, len(configured)+len(seen))
	for _, v := range configured {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	var extra []string
	for v := range seen {
		if !slices.Contains(out, v) {
			extra = append(extra, v)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}
