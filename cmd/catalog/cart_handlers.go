package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"finitefield.org/catalog-web/internal/cart"
	mw "finitefield.org/catalog-web/internal/middleware"
	"finitefield.org/catalog-web/internal/observability"
)

type cartBadge struct {
	Lang  string
	Count int
	Added string
	// lines of Added in the cart
	Quantity int
}

// cartAddHandler records a buy click in the session cart and returns the header badge.
func (a *app) cartAddHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		mw.WriteError(w, r, http.StatusBadRequest, "invalid form")
		return
	}
	productID := strings.TrimSpace(r.PostFormValue("product_id"))
	if _, loaded := a.store.Loaded(); loaded && productID != "" {
		if _, ok := a.store.Find(productID); !ok {
			mw.WriteError(w, r, http.StatusNotFound, "unknown product")
			return
		}
	}

	sess := mw.GetSession(r)
	lines, line, err := cart.Add(sess.Cart, productID, time.Now())
	switch {
	case errors.Is(err, cart.ErrMissingProduct):
		mw.WriteError(w, r, http.StatusBadRequest, "missing product_id")
		return
	case errors.Is(err, cart.ErrFull):
		mw.WriteError(w, r, http.StatusConflict, "cart is full")
		return
	case err != nil:
		mw.WriteError(w, r, http.StatusInternalServerError, "cart error")
		return
	}
	sess.Cart = lines
	sess.MarkDirty()

	count := cart.Count(lines)
	qty := cart.Quantities(lines)[line.ProductID]
	observability.FromContext(r.Context()).Info("cart line added",
		zap.String("line_id", line.ID),
		zap.String("product_id", line.ProductID),
		zap.Int("count", count),
		zap.Int("quantity", qty),
	)
	trigger := map[string]any{"cart:updated": map[string]any{"count": count, "productId": line.ProductID, "quantity": qty}}
	if raw, err := json.Marshal(trigger); err == nil {
		w.Header().Set("HX-Trigger", string(raw))
	}
	a.renderTemplate(w, r, "frag_cart_badge", cartBadge{Lang: mw.Lang(r), Count: count, Added: line.ProductID, Quantity: qty})
}
