// Package content renders the localized catalog intro from markdown files
// laid out as <dir>/<kind>/<lang>/<slug>.md with optional YAML front matter.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no language variant of a page exists.
var ErrNotFound = errors.New("content: not found")

const (
	defaultDir = "content"
	defaultTTL = 5 * time.Minute
)

// Page is a rendered, sanitized markdown page.
type Page struct {
	Kind      string
	Slug      string
	Lang      string
	Title     string
	Summary   string
	HTML      template.HTML
	UpdatedAt time.Time
}

type frontMatter struct {
	Title     string `yaml:"title"`
	Summary   string `yaml:"summary"`
	Lang      string `yaml:"lang"`
	UpdatedAt string `yaml:"updated_at"`
}

type cacheEntry struct {
	page    Page
	expires time.Time
}

// Source reads pages from disk and keeps rendered results for a TTL.
type Source struct {
	dir       string
	ttl       time.Duration
	fallbacks []string
	md        goldmark.Markdown
	policy    *bluemonday.Policy
	now       func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// Option customizes a Source.
type Option func(*Source)

// WithTTL overrides the cache duration; non-positive values disable caching.
func WithTTL(d time.Duration) Option {
	return func(s *Source) { s.ttl = d }
}

// WithFallbacks sets the languages tried after the requested one.
func WithFallbacks(langs ...string) Option {
	return func(s *Source) { s.fallbacks = append([]string(nil), langs...) }
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Source) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSource builds a Source rooted at dir.
func NewSource(dir string, opts ...Option) *Source {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = defaultDir
	}
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	s := &Source{
		dir:       dir,
		ttl:       defaultTTL,
		fallbacks: []string{"pt", "en"},
		md:        goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:    policy,
		now:       time.Now,
		cache:     map[string]cacheEntry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns kind/slug in lang, trying the fallback languages in order.
func (s *Source) Get(ctx context.Context, kind, slug, lang string) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	kind = sanitizeSegment(kind)
	slug = sanitizeSegment(slug)
	lang = sanitizeSegment(lang)
	if kind == "" || slug == "" {
		return Page{}, ErrNotFound
	}

	key := kind + "|" + lang + "|" + slug
	if page, ok := s.cached(key); ok {
		return page, nil
	}

	page, err := s.read(kind, slug, lang)
	if err != nil {
		return Page{}, err
	}
	s.store(key, page)
	return page, nil
}

func (s *Source) read(kind, slug, lang string) (Page, error) {
	seen := map[string]bool{}
	candidates := make([]string, 0, len(s.fallbacks)+1)
	for _, l := range append([]string{lang}, s.fallbacks...) {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		candidates = append(candidates, l)
	}
	for _, candidate := range candidates {
		page, err := s.readFile(kind, slug, candidate)
		if err == nil {
			return page, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		// parse errors stop the search
		return Page{}, err
	}
	return Page{}, ErrNotFound
}

func (s *Source) readFile(kind, slug, lang string) (Page, error) {
	file := filepath.Join(s.dir, kind, lang, slug+".md")
	data, err := os.ReadFile(file)
	if err != nil {
		return Page{}, err
	}
	fm, body := splitFrontMatter(string(data))
	var front frontMatter
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Page{}, fmt.Errorf("content: parse front matter %s: %w", file, err)
		}
	}
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(body), &buf); err != nil {
		return Page{}, fmt.Errorf("content: render %s: %w", file, err)
	}
	safe := s.policy.SanitizeBytes(buf.Bytes())

	page := Page{
		Kind:    kind,
		Slug:    slug,
		Lang:    firstNonEmpty(strings.TrimSpace(front.Lang), lang),
		Title:   strings.TrimSpace(front.Title),
		Summary: strings.TrimSpace(front.Summary),
		HTML:    template.HTML(safe),
	}
	if page.Summary == "" {
		page.Summary = Excerpt(PlainText(string(safe)), 160)
	}
	if t, err := time.Parse("2006-01-02", strings.TrimSpace(front.UpdatedAt)); err == nil {
		page.UpdatedAt = t
	} else if info, err := os.Stat(file); err == nil {
		page.UpdatedAt = info.ModTime()
	}
	return page, nil
}

func (s *Source) cached(key string) (Page, bool) {
	if s.ttl <= 0 {
		return Page{}, false
	}
	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()
	if !ok || s.now().After(entry.expires) {
		return Page{}, false
	}
	return entry.page, true
}

func (s *Source) store(key string, page Page) {
	if s.ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cacheEntry{page: page, expires: s.now().Add(s.ttl)}
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func sanitizeSegment(v string) string {
	v = strings.Trim(strings.TrimSpace(strings.ToLower(v)), "/")
	if v == "" || strings.Contains(v, "..") || strings.ContainsAny(v, `/\`) {
		return ""
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
