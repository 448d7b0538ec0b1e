package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Bundle holds flat key/value translations per base language.
type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported []string
	matcher   language.Matcher
}

// Load reads <dir>/<lang>.json for each supported language. The fallback file is required.
func Load(dir string, fallback string, supported []string) (*Bundle, error) {
	if len(supported) == 0 {
		supported = []string{"pt", "en"}
	}
	b := &Bundle{
		dict:     map[string]map[string]string{},
		fallback: fallback,
	}
	for _, l := range supported {
		raw, err := os.ReadFile(filepath.Join(dir, l+".json"))
		if err != nil {
			// allow missing file for non-default locales
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		b.dict[l] = m
	}
	if _, ok := b.dict[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %s not loaded", fallback)
	}

	// fallback first so the matcher defaults to it
	tags := []language.Tag{language.Make(fallback)}
	b.supported = []string{fallback}
	for _, l := range supported {
		if l == fallback {
			continue
		}
		tags = append(tags, language.Make(l))
		b.supported = append(b.supported, l)
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// Supported returns the configured languages sorted.
func (b *Bundle) Supported() []string {
	out := append([]string(nil), b.supported...)
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// IsSupported reports whether lang has a bundle entry.
func (b *Bundle) IsSupported(lang string) bool {
	for _, l := range b.supported {
		if l == lang {
			return true
		}
	}
	return false
}

// T returns the translation for key in lang, falling back to the default language and finally the key.
func (b *Bundle) T(lang, key string) string {
	if b == nil {
		return key
	}
	if m, ok := b.dict[lang]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Resolve chooses the best supported base language for an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	acceptLang = strings.TrimSpace(acceptLang)
	if acceptLang == "" {
		return b.fallback
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(prefs...)
	if conf == language.No {
		return b.fallback
	}
	return b.supported[idx]
}
