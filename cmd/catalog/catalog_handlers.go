package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"finitefield.org/catalog-web/internal/catalog"
	"finitefield.org/catalog-web/internal/content"
	handlersPkg "finitefield.org/catalog-web/internal/handlers"
	mw "finitefield.org/catalog-web/internal/middleware"
	"finitefield.org/catalog-web/internal/nav"
	"finitefield.org/catalog-web/internal/observability"
	"finitefield.org/catalog-web/internal/seo"
)

// catalogPageHandler renders the full catalog page.
func (a *app) catalogPageHandler(w http.ResponseWriter, r *http.Request) {
	vm := a.pageData(r, true)
	a.renderPage(w, r, vm)
}

// catalogGridFrag renders the product grid swapped into #product-container.
func (a *app) catalogGridFrag(w http.ResponseWriter, r *http.Request) {
	vm := a.pageData(r, false)
	w.Header().Set("HX-Push-Url", string(vm.Catalog.SelfHref))
	a.renderTemplate(w, r, "frag_catalog_grid", vm)
}

// filterModalFrag renders the narrow-viewport filter modal.
func (a *app) filterModalFrag(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, r, "frag_modal_filter", a.pageData(r, false))
}

// orderModalFrag renders the narrow-viewport order modal.
func (a *app) orderModalFrag(w http.ResponseWriter, r *http.Request) {
	a.renderTemplate(w, r, "frag_modal_order", a.pageData(r, false))
}

type productsResponse struct {
	Items       []catalog.Product `json:"items"`
	Count       int               `json:"count"`
	Total       int               `json:"total"`
	Visible     int               `json:"visible"`
	NextVisible int               `json:"nextVisible"`
	HasMore     bool              `json:"hasMore"`
	Loaded      bool              `json:"loaded"`
}

// apiProductsHandler returns the same pipeline result as the page, as JSON.
func (a *app) apiProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := catalog.ParseQuery(r.URL.Query())
	_, loaded := a.store.Loaded()
	res := catalog.Run(a.store.Snapshot(), q, mw.ViewportFrom(r.Context()))
	items := res.Items
	if items == nil {
		items = []catalog.Product{}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(productsResponse{
		Items:       items,
		Count:       len(res.Items),
		Total:       res.Total,
		Visible:     res.Visible,
		NextVisible: res.NextVisible,
		HasMore:     res.HasMore,
		Loaded:      loaded,
	})
}

// pageData builds the shared view model. withIntro loads the markdown intro (full page only).
func (a *app) pageData(r *http.Request, withIntro bool) handlersPkg.PageData {
	lang := mw.Lang(r)
	q := catalog.ParseQuery(r.URL.Query())
	_, loaded := a.store.Loaded()
	sess := mw.GetSession(r)

	var intro *content.Page
	if withIntro {
		intro = a.intro(r, lang)
	}
	view := handlersPkg.BuildCatalogView(handlersPkg.CatalogInput{
		Products: a.store.Snapshot(),
		Loaded:   loaded,
		Failed:   a.store.Failed(),
		Query:    q,
		Viewport: mw.ViewportFrom(r.Context()),
		Facets:   a.cfg.Catalog.Facets(),
		Currency: a.cfg.Catalog.Currency,
		Lang:     lang,
		Intro:    intro,
	})

	title := a.bundle.T(lang, "catalog.title")
	vm := handlersPkg.PageData{
		Title:       title,
		Lang:        lang,
		Langs:       a.bundle.Supported(),
		Analytics:   handlersPkg.AnalyticsFromConfig(a.cfg.Analytics),
		DevMode:     a.devMode,
		Path:        r.URL.Path,
		Nav:         nav.Build(r.URL.Path),
		Breadcrumbs: nav.Breadcrumbs(handlersPkg.PagePath, lang),
		CSRFToken:   sess.CSRFToken,
		CartCount:   len(sess.Cart),
		Catalog:     view,
	}
	if withIntro {
		vm.SEO = a.catalogSEO(r, lang, title, view)
	}
	return vm
}

func (a *app) intro(r *http.Request, lang string) *content.Page {
	page, err := a.content.Get(r.Context(), "catalog", "intro", lang)
	if err != nil {
		if !errors.Is(err, content.ErrNotFound) {
			observability.FromContext(r.Context()).Warn("catalog intro unavailable", zap.Error(err))
		}
		return nil
	}
	return &page
}

func (a *app) catalogSEO(r *http.Request, lang, title string, view *handlersPkg.CatalogView) seo.Meta {
	brand := a.bundle.T(lang, "brand.name")
	base := baseURL(r)
	canonical := base + string(view.SelfHref)

	meta := seo.Meta{
		Title:       title + " | " + brand,
		Description: a.bundle.T(lang, "catalog.description"),
		Canonical:   canonical,
	}
	if view.Intro != nil && view.Intro.Summary != "" {
		meta.Description = view.Intro.Summary
	}
	// filtered permutations are not worth indexing
	if view.Query.Active() || view.Query.Visible > 0 {
		meta.Robots = "noindex, follow"
	}
	meta.OG = seo.OpenGraph{Title: meta.Title, Description: meta.Description, Type: "website", URL: canonical, SiteName: brand}
	meta.Twitter.Card = "summary_large_image"
	if len(view.Cards) > 0 && view.Cards[0].Image != "" {
		meta.OG.Image = view.Cards[0].Image
		meta.Twitter.Image = view.Cards[0].Image
	}
	for _, l := range a.bundle.Supported() {
		meta.Alternates = append(meta.Alternates, seo.Alternate{Href: base + handlersPkg.PagePath + "?hl=" + url.QueryEscape(l), Hreflang: l})
	}

	entries := make([]seo.ProductEntry, 0, len(view.Cards))
	for _, c := range view.Cards {
		p, ok := a.store.Find(c.ID)
		if !ok {
			continue
		}
		entries = append(entries, seo.ProductEntry{
			SKU:      c.ID,
			Name:     c.Name,
			ImageURL: c.Image,
			Color:    c.Color,
			Offer:    seo.Offer{Price: p.Price, Currency: a.cfg.Catalog.Currency, URL: canonical},
		})
	}
	var crumbs []seo.BreadcrumbItem
	for _, c := range nav.Breadcrumbs(handlersPkg.PagePath, lang) {
		name := c.Label
		if c.LabelKey != "" {
			name = a.bundle.T(lang, c.LabelKey)
		}
		crumbs = append(crumbs, seo.BreadcrumbItem{Name: name, Item: base + c.Href})
	}
	meta.JSONLD = []string{
		seo.JSON(seo.WebSite(brand, base+"/", "")),
		seo.JSON(seo.BreadcrumbList(crumbs)),
		seo.JSON(seo.ItemList(title, entries)),
	}
	return meta
}

// baseURL returns scheme://host for absolute links, honouring X-Forwarded-Proto.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "https" || p == "http" {
		scheme = p
	}
	return scheme + "://" + r.Host
}
