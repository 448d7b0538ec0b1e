package catalog

import "strings"

// Viewport is the coarse client width class that picks the default visible count.
type Viewport string

const (
	ViewportWide   Viewport = "wide"
	ViewportNarrow Viewport = "narrow"
)

const (
	// PageSize is how many more cards "show more" reveals.
	PageSize = 9

	defaultVisibleWide   = 9
	defaultVisibleNarrow = 4
)

// ParseViewport returns ViewportNarrow for "narrow"/"mobile", ViewportWide otherwise.
func ParseViewport(s string) (Viewport, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "narrow", "mobile":
		return ViewportNarrow, true
	case "wide", "desktop":
		return ViewportWide, true
	}
	return ViewportWide, false
}

// DefaultVisible is the cursor value after any fresh filter or sort action.
func DefaultVisible(v Viewport) int {
	if v == ViewportNarrow {
		return defaultVisibleNarrow
	}
	return defaultVisibleWide
}

// Window is the visible-count cursor over the current list.
type Window struct {
	Viewport Viewport
	Visible  int
}

// NewWindow starts a window at requested, or at the viewport default when requested <= 0.
func NewWindow(v Viewport, requested int) Window {
	if requested <= 0 {
		requested = DefaultVisible(v)
	}
	return Window{Viewport: v, Visible: requested}
}

// More returns the window after one "show more".
func (w Window) More() Window {
	w.Visible += PageSize
	return w
}

// Slice returns the first min(Visible, len(list)) items, order preserved.
func (w Window) Slice(list []Product) []Product {
	n := w.Visible
	if n > len(list) {
		n = len(list)
	}
	if n < 0 {
		n = 0
	}
	return list[:n]
}

// HasMore reports whether the pagination control should be shown for a list of total items.
func (w Window) HasMore(total int) bool {
	return w.Visible < total
}
