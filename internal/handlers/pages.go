package handlers

import (
	"finitefield.org/catalog-web/internal/nav"
	"finitefield.org/catalog-web/internal/seo"
)

// PageData is the view model shared by every page using the layout.
type PageData struct {
	Title     string
	Lang      string
	Langs     []string
	SEO       seo.Meta
	Analytics Analytics
	DevMode   bool

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb

	CSRFToken string
	CartCount int

	Catalog *CatalogView
}
