package main

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/catalog-web/internal/catalog"
	"finitefield.org/catalog-web/internal/config"
	"finitefield.org/catalog-web/internal/content"
	"finitefield.org/catalog-web/internal/i18n"
	mw "finitefield.org/catalog-web/internal/middleware"
	"finitefield.org/catalog-web/internal/observability"
)

// app bundles the dependencies shared by every handler.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *catalog.Store
	bundle   *i18n.Bundle
	content  *content.Source
	sessions *mw.Sessions

	templatesDir string
	publicDir    string
	// devMode reparses templates on each request
	devMode   bool
	tmplCache *template.Template
}

func (a *app) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// RealIP trusts X-Forwarded-For; only deploy behind a proxy that sets it.
	r.Use(middleware.RealIP)
	r.Use(observability.TraceMiddleware)
	r.Use(mw.InjectLogger(a.logger))
	r.Use(mw.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", a.readyHandler)
	r.Handle("/assets/*", mw.AssetsWithCache(filepath.Join(a.publicDir, "assets"), "/assets", a.devMode))

	r.With(mw.Viewport).Get("/api/products", a.apiProductsHandler)

	r.Group(func(r chi.Router) {
		r.Use(mw.HTMX)
		r.Use(a.sessions.Middleware)
		r.Use(mw.Locale(a.bundle))
		r.Use(mw.CSRF(a.sessions.Secure()))
		r.Use(mw.VaryLocale)
		r.Use(mw.Viewport)

		r.Get("/", a.catalogPageHandler)
		r.Get("/catalog", a.catalogPageHandler)
		r.Get("/catalog/products", a.catalogGridFrag)
		r.Get("/catalog/modal/filter", a.filterModalFrag)
		r.Get("/catalog/modal/order", a.orderModalFrag)
		r.Post("/cart/items", a.cartAddHandler)
	})
	return r
}

func (a *app) funcMap() template.FuncMap {
	return template.FuncMap{
		"now": time.Now,
		"t": func(lang, key string) string {
			return a.bundle.T(lang, key)
		},
		"tf": func(lang, key string, args ...any) string {
			return fmt.Sprintf(a.bundle.T(lang, key), args...)
		},
		"year": func() int { return time.Now().Year() },
		// jsonld output comes from encoding/json, which escapes <, > and &
		"jsonld": func(s string) template.JS { return template.JS(s) },
		"dict":   dict,
	}
}

// parseTemplates recursively discovers and parses all .tmpl files. ParseGlob doesn't support **.
func (a *app) parseTemplates() (*template.Template, error) {
	var files []string
	if err := filepath.WalkDir(a.templatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", a.templatesDir)
	}
	return template.New("_root").Funcs(a.funcMap()).ParseFiles(files...)
}

func (a *app) templates() (*template.Template, error) {
	if a.devMode {
		return a.parseTemplates()
	}
	if a.tmplCache == nil {
		return nil, fmt.Errorf("template not initialized")
	}
	return a.tmplCache, nil
}

// renderPage executes the base layout.
func (a *app) renderPage(w http.ResponseWriter, r *http.Request, data any) {
	a.renderTemplate(w, r, "base", data)
}

// renderTemplate executes a named template into a buffer so a failure never leaves a half-written page.
func (a *app) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	t, err := a.templates()
	if err != nil {
		observability.FromContext(r.Context()).Error("template parse failed", zap.Error(err))
		mw.WriteError(w, r, http.StatusInternalServerError, "template error")
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		observability.FromContext(r.Context()).Error("template exec failed", zap.String("template", name), zap.Error(err))
		mw.WriteError(w, r, http.StatusInternalServerError, "template error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

func (a *app) readyHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	at, ok := a.store.Loaded()
	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
		return
	}
	_, _ = fmt.Fprintf(w, "ok %d products loaded at %s", len(a.store.Snapshot()), at.UTC().Format(time.RFC3339))
}
