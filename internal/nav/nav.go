package nav

import (
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Item represents a top-level navigation item.
type Item struct {
	Path     string // e.g. "/catalog"
	LabelKey string // i18n key, e.g. "nav.catalog"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	LabelKey string
	Active   bool
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Path: "/catalog", LabelKey: "nav.catalog"},
	{Path: "/api/products", LabelKey: "nav.api"},
}

// Build renders navigation items with active state given the current path.
func Build(currentPath string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     it.Path,
			LabelKey: it.LabelKey,
			Active:   isActive(it.Path, currentPath),
		})
	}
	return items
}

// the storefront root serves the catalog, so "/" counts as /catalog
func isActive(itemPath, currentPath string) bool {
	if currentPath == "/" {
		currentPath = "/catalog"
	}
	return currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/")
}

// Breadcrumbs builds breadcrumb entries from the current path, always starting with Home.
// Known top-level sections use nav label keys; deeper segments are title-cased.
func Breadcrumbs(currentPath, lang string) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: "/", LabelKey: "nav.home", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}

	clean := path.Clean(currentPath)
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return crumbs
	}
	title := cases.Title(language.Make(lang))

	top := "/" + parts[0]
	labelKey := ""
	for _, it := range Main {
		if it.Path == top {
			labelKey = it.LabelKey
			break
		}
	}
	crumbs = append(crumbs, Crumb{Href: top, LabelKey: labelKey, Label: titleFromSegment(title, parts[0]), Active: len(parts) == 1})

	href := top
	for i := 1; i < len(parts); i++ {
		href += "/" + parts[i]
		crumbs = append(crumbs, Crumb{
			Href:   href,
			Label:  titleFromSegment(title, parts[i]),
			Active: i == len(parts)-1,
		})
	}
	return crumbs
}

func titleFromSegment(title cases.Caser, seg string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(seg)
	return title.String(s)
}
