package middleware

import (
	"context"
	"net/http"
	"strings"

	"finitefield.org/catalog-web/internal/i18n"
)

// LocaleCookie remembers an explicit ?hl= choice.
const LocaleCookie = "hl"

// Locale resolves the preferred language and stores it in the session and the `hl` cookie.
func Locale(bundle *i18n.Bundle) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxKeyLocaleFB, bundle.Fallback())
			r = r.WithContext(ctx)
			s := GetSession(r)
			if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("hl"))); q != "" && bundle.IsSupported(q) {
				if s.Locale != q {
					s.Locale = q
					s.MarkDirty()
				}
				http.SetCookie(w, &http.Cookie{Name: LocaleCookie, Value: q, Path: "/", SameSite: http.SameSiteLaxMode})
			} else if s.Locale == "" || !bundle.IsSupported(s.Locale) {
				if c, err := r.Cookie(LocaleCookie); err == nil && bundle.IsSupported(strings.ToLower(c.Value)) {
					s.Locale = strings.ToLower(c.Value)
				} else {
					s.Locale = bundle.Resolve(r.Header.Get("Accept-Language"))
				}
				s.MarkDirty()
			}
			w.Header().Set("Content-Language", s.Locale)
			next.ServeHTTP(w, r)
		})
	}
}

// Lang returns the current language from the session, else the bundle fallback.
func Lang(r *http.Request) string {
	if s := GetSession(r); s != nil && s.Locale != "" {
		return s.Locale
	}
	if fb, ok := r.Context().Value(ctxKeyLocaleFB).(string); ok && fb != "" {
		return fb
	}
	return "pt"
}

// VaryLocale sets Vary header for Accept-Language on dynamic responses
func VaryLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Language")
		next.ServeHTTP(w, r)
	})
}
