package middleware

import (
	"context"

	"finitefield.org/catalog-web/internal/catalog"
)

// context keys are unexported to avoid collisions
type ctxKey string

const (
	ctxKeyIsHTMX   ctxKey = "is_htmx"
	ctxKeySession  ctxKey = "session"
	ctxKeyLocaleFB ctxKey = "locale_fallback"
	ctxKeyViewport ctxKey = "viewport"
)

// WithHTMX marks request as HTMX
func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, ctxKeyIsHTMX, is)
}

// IsHTMX returns whether this is an htmx request
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyIsHTMX).(bool)
	return v
}

// WithViewport stores the resolved viewport class.
func WithViewport(ctx context.Context, vp catalog.Viewport) context.Context {
	return context.WithValue(ctx, ctxKeyViewport, vp)
}

// ViewportFrom returns the resolved viewport, defaulting to wide.
func ViewportFrom(ctx context.Context) catalog.Viewport {
	if v, ok := ctx.Value(ctxKeyViewport).(catalog.Viewport); ok && v != "" {
		return v
	}
	return catalog.ViewportWide
}
