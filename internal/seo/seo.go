package seo

// OpenGraph carries og:* meta values.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
}

type Twitter struct {
	Card  string
	Site  string
	Image string
}

// Alternate is one hreflang link.
type Alternate struct {
	Href     string
	Hreflang string
}

// Meta is the head metadata rendered by the layout.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          OpenGraph
	Twitter     Twitter
	Alternates  []Alternate
	JSONLD      []string
}
