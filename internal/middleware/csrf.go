package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"
)

const (
	// CSRFCookieName is readable by catalog.js, which echoes it in CSRFHeader.
	CSRFCookieName = "csrf_token"
	CSRFHeader     = "X-CSRF-Token"
	csrfFormField  = "csrf_token"
)

// CSRF issues a CSRF cookie and verifies modifying requests carry the token
// in the X-CSRF-Token header (or the csrf_token form field for plain forms).
func CSRF(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// token lives in the session so it survives cookie loss
			s := GetSession(r)
			token := s.CSRFToken
			if token == "" {
				token = newCSRFToken()
				s.CSRFToken = token
				s.MarkDirty()
			}

			if c, err := r.Cookie(CSRFCookieName); err != nil || c.Value != token {
				http.SetCookie(w, &http.Cookie{
					Name:     CSRFCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(24 * time.Hour),
				})
			}

			if !isSafeMethod(r.Method) {
				sent := r.Header.Get(CSRFHeader)
				if sent == "" {
					sent = r.PostFormValue(csrfFormField)
				}
				if !tokensEqual(sent, token) {
					WriteError(w, r, http.StatusForbidden, "invalid CSRF token")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokensEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func newCSRFToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
