package catalog

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const maxVisible = 10000

// Query is the active selection for one request: filter axes, sort key and cursor.
type Query struct {
	Sort      SortKey
	Colors    []string
	Prices    []PriceRange
	Size      string
	Visible   int
	AllColors bool
}

// ParseQuery builds a Query from URL values.
func ParseQuery(values url.Values) Query {
	if values == nil {
		values = url.Values{}
	}
	q := Query{
		Sort:      ParseSortKey(values.Get("sort")),
		Colors:    cleanList(values["color"]),
		Size:      strings.TrimSpace(values.Get("size")),
		AllColors: values.Get("colors") == "all",
	}
	for _, tok := range cleanList(values["price"]) {
		q.Prices = append(q.Prices, ParsePriceRange(tok))
	}
	if raw := strings.TrimSpace(values.Get("visible")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			q.Visible = min(n, maxVisible)
		}
	}
	return q
}

// Values encodes q back into URL values. The cursor is included only when set.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Sort != SortNone {
		v.Set("sort", string(q.Sort))
	}
	for _, c := range q.Colors {
		v.Add("color", c)
	}
	for _, p := range q.Prices {
		v.Add("price", p.Token)
	}
	if q.Size != "" {
		v.Set("size", q.Size)
	}
	if q.AllColors {
		v.Set("colors", "all")
	}
	if q.Visible > 0 {
		v.Set("visible", strconv.Itoa(q.Visible))
	}
	return v
}

// Encode is Values().Encode().
func (q Query) Encode() string {
	return q.Values().Encode()
}

// Reset drops the cursor; every filter or sort change goes through it.
func (q Query) Reset() Query {
	q.Visible = 0
	return q
}

// WithVisible returns q pointing at cursor n.
func (q Query) WithVisible(n int) Query {
	q.Visible = n
	return q
}

// WithSort returns q with a new sort key and a reset cursor.
func (q Query) WithSort(k SortKey) Query {
	q.Sort = k
	return q.Reset()
}

// WithSize toggles size: selecting the active size clears it.
func (q Query) WithSize(size string) Query {
	if q.Size == size {
		q.Size = ""
	} else {
		q.Size = size
	}
	return q.Reset()
}

// HasColor reports whether color is selected.
func (q Query) HasColor(color string) bool {
	return slices.Contains(q.Colors, color)
}

// HasPrice reports whether the bracket token is selected.
func (q Query) HasPrice(token string) bool {
	for _, p := range q.Prices {
		if p.Token == token {
			return true
		}
	}
	return false
}

// Active reports whether any filter axis is set.
func (q Query) Active() bool {
	return len(q.Colors) > 0 || len(q.Prices) > 0 || q.Size != ""
}

// Result is the derived view of the catalog for one request.
type Result struct {
	Items       []Product
	Total       int
	Visible     int
	NextVisible int
	HasMore     bool
}

// Run filters, sorts and windows all. It does not modify all.
func Run(all []Product, q Query, vp Viewport) Result {
	list := Sort(Filter(all, q), q.Sort)
	w := NewWindow(vp, q.Visible)
	return Result{
		Items:       w.Slice(list),
		Total:       len(list),
		Visible:     w.Visible,
		NextVisible: w.More().Visible,
		HasMore:     w.HasMore(len(list)),
	}
}

func cleanList(in []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}
