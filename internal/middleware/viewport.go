package middleware

import (
	"net/http"
	"strings"

	"finitefield.org/catalog-web/internal/catalog"
)

// ViewportCookie is written by catalog.js on load and resize.
const ViewportCookie = "vp"

// Viewport resolves the client width class: ?vp= query, then the vp cookie,
// then the Sec-CH-UA-Mobile client hint, else wide.
func Viewport(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vp := resolveViewport(r)
		// the vp cookie selects the window, so shared caches must key on it
		w.Header().Add("Vary", "Cookie")
		w.Header().Add("Vary", "Sec-CH-UA-Mobile")
		w.Header().Set("Cache-Control", "private")
		w.Header().Set("Accept-CH", "Sec-CH-UA-Mobile")
		next.ServeHTTP(w, r.WithContext(WithViewport(r.Context(), vp)))
	})
}

func resolveViewport(r *http.Request) catalog.Viewport {
	if vp, ok := catalog.ParseViewport(r.URL.Query().Get("vp")); ok {
		return vp
	}
	if c, err := r.Cookie(ViewportCookie); err == nil {
		if vp, ok := catalog.ParseViewport(c.Value); ok {
			return vp
		}
	}
	if strings.TrimSpace(r.Header.Get("Sec-CH-UA-Mobile")) == "?1" {
		return catalog.ViewportNarrow
	}
	return catalog.ViewportWide
}
