package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"finitefield.org/catalog-web/internal/cart"
)

// SessionCookieName is the signed session cookie.
const SessionCookieName = "CATALOG_WEB_SESSION"

const sessionLifetime = 30 * 24 * time.Hour

// SessionData is the per-visitor state persisted in the signed cookie.
type SessionData struct {
	ID        string      `json:"id"`
	Locale    string      `json:"locale,omitempty"`
	CSRFToken string      `json:"csrf,omitempty"`
	Cart      []cart.Line `json:"cart,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	// internal dirty flag; not serialized
	dirty bool
}

// MarkDirty flags the session for writing at end of request
func (s *SessionData) MarkDirty() { s.dirty = true; s.UpdatedAt = time.Now().UTC() }

// RegenerateID assigns a new session ID and CSRF token.
func (s *SessionData) RegenerateID() {
	s.ID = uuid.NewString()
	s.CSRFToken = newCSRFToken()
	s.MarkDirty()
}

// SessionOptions configures the cookie codec.
type SessionOptions struct {
	HashKey  []byte
	BlockKey []byte
	Secure   bool
	Logger   *zap.Logger
}

// Sessions loads and persists SessionData through a securecookie codec.
type Sessions struct {
	codec  *securecookie.SecureCookie
	secure bool
}

// NewSessions builds the codec. An empty hash key yields a process-ephemeral key (dev only).
func NewSessions(opts SessionOptions) *Sessions {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hashKey := opts.HashKey
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(32)
		logger.Warn("session: using ephemeral signing key; set CATALOG_WEB_SESSION_HASH_KEY for production")
	}
	blockKey := opts.BlockKey
	switch len(blockKey) {
	case 0, 16, 24, 32:
	default:
		logger.Warn("session: block key must be 16, 24 or 32 bytes; encryption disabled", zap.Int("length", len(blockKey)))
		blockKey = nil
	}
	codec := securecookie.New(hashKey, blockKey)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(sessionLifetime / time.Second))
	return &Sessions{codec: codec, secure: opts.Secure}
}

// Middleware loads or initializes a session and stores it in request context.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, fromCookie := s.read(r)
		if sd.ID == "" {
			sd.ID = uuid.NewString()
			sd.CreatedAt = time.Now().UTC()
			sd.UpdatedAt = sd.CreatedAt
			sd.CSRFToken = newCSRFToken()
			sd.dirty = true
		}
		ctx := context.WithValue(r.Context(), ctxKeySession, sd)
		rw := NewResponseRecorder(w)
		// ensure cookie is set just before first write if needed
		rw.SetBeforeWrite(func(w http.ResponseWriter) {
			if sd.dirty || !fromCookie {
				s.write(w, sd)
			}
		})
		next.ServeHTTP(rw, r.WithContext(ctx))
		// If nothing was written yet (e.g., HEAD), persist cookie now
		if !rw.Wrote() && (sd.dirty || !fromCookie) {
			s.write(w, sd)
		}
	})
}

// Secure reports whether cookies carry the Secure attribute.
func (s *Sessions) Secure() bool { return s != nil && s.secure }

// GetSession returns session data from context
func GetSession(r *http.Request) *SessionData {
	if v := r.Context().Value(ctxKeySession); v != nil {
		if sd, ok := v.(*SessionData); ok {
			return sd
		}
	}
	return &SessionData{}
}

func (s *Sessions) read(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return &SessionData{}, false
	}
	var sd SessionData
	if err := s.codec.Decode(SessionCookieName, c.Value, &sd); err != nil {
		return &SessionData{}, false
	}
	return &sd, true
}

func (s *Sessions) write(w http.ResponseWriter, sd *SessionData) {
	val, err := s.codec.Encode(SessionCookieName, sd)
	if err != nil {
		return
	}
	// httpOnly to prevent JS access
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    val,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(sessionLifetime),
	})
}
