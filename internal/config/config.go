package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"finitefield.org/catalog-web/internal/catalog"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultServerURL    = "http://localhost:5000"
	defaultFetchTimeout = 8 * time.Second
	defaultLang         = "pt"
	defaultCurrency     = "BRL"
)

// ErrInvalidCatalogFile is returned when the YAML catalog settings cannot be parsed.
var ErrInvalidCatalogFile = errors.New("config: invalid catalog file")

// Config captures runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Session   SessionConfig
	Catalog   CatalogConfig
	Analytics AnalyticsConfig
}

// ServerConfig configures the HTTP listener and asset locations.
type ServerConfig struct {
	Port         string
	Env          string
	DevMode      bool
	DefaultLang  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// BackendConfig points at the products service.
type BackendConfig struct {
	ServerURL    string
	FixturePath  string
	FetchTimeout time.Duration
	FetchRetries int
}

// SessionConfig holds the cookie codec keys.
type SessionConfig struct {
	HashKey  []byte
	BlockKey []byte
	Secure   bool
}

// CatalogConfig is loaded from the optional YAML catalog file.
type CatalogConfig struct {
	Currency        string            `yaml:"currency"`
	Colors          []string          `yaml:"colors"`
	Sizes           []string          `yaml:"sizes"`
	Brackets        []catalog.Bracket `yaml:"price_brackets"`
	CollapsedColors int               `yaml:"collapsed_colors"`
}

// AnalyticsConfig holds client instrumentation ids surfaced to templates.
type AnalyticsConfig struct {
	GA4MeasurementID string
	GTMContainerID   string
	Debug            bool
}

// Facets converts the catalog settings into the sidebar facet configuration.
func (c CatalogConfig) Facets() catalog.FacetConfig {
	return catalog.FacetConfig{
		Colors:          c.Colors,
		Sizes:           c.Sizes,
		Brackets:        c.Brackets,
		CollapsedColors: c.CollapsedColors,
	}
}

// Prod reports whether the service runs with production hardening.
func (c Config) Prod() bool { return c.Server.Env == "prod" }

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides. Empty disables it.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap injects explicit values that take precedence over the system environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// Load assembles configuration from defaults, .env, the environment and the catalog YAML file.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{envFile: defaultEnvFile, useSystemEnv: true}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnv, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if v, ok := options.envMap[key]; ok {
			return v, true
		}
		if options.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		if v, ok := dotEnv[key]; ok {
			return v, true
		}
		return "", false
	}

	port := stringWithDefault(lookup, "CATALOG_WEB_PORT", "")
	if port == "" {
		port = stringWithDefault(lookup, "PORT", defaultPort)
	}
	env := strings.ToLower(stringWithDefault(lookup, "CATALOG_WEB_ENV", "local"))

	cfg := Config{
		Server: ServerConfig{
			Port:         port,
			Env:          env,
			DevMode:      boolWithDefault(lookup, "CATALOG_WEB_DEV", false),
			DefaultLang:  strings.ToLower(stringWithDefault(lookup, "CATALOG_DEFAULT_LANG", defaultLang)),
			ReadTimeout:  durationWithDefault(lookup, "CATALOG_WEB_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: durationWithDefault(lookup, "CATALOG_WEB_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  durationWithDefault(lookup, "CATALOG_WEB_IDLE_TIMEOUT", 60*time.Second),
		},
		Backend: BackendConfig{
			ServerURL:    strings.TrimRight(stringWithDefault(lookup, "CATALOG_SERVER_URL", defaultServerURL), "/"),
			FixturePath:  stringWithDefault(lookup, "CATALOG_FIXTURE", ""),
			FetchTimeout: durationWithDefault(lookup, "CATALOG_FETCH_TIMEOUT", defaultFetchTimeout),
			FetchRetries: intWithDefault(lookup, "CATALOG_FETCH_RETRIES", 0),
		},
		Session: SessionConfig{
			HashKey:  []byte(stringWithDefault(lookup, "CATALOG_WEB_SESSION_HASH_KEY", "")),
			BlockKey: []byte(stringWithDefault(lookup, "CATALOG_WEB_SESSION_BLOCK_KEY", "")),
			Secure:   env == "prod",
		},
		Catalog: DefaultCatalog(),
		Analytics: AnalyticsConfig{
			GA4MeasurementID: stringWithDefault(lookup, "CATALOG_WEB_GA_MEASUREMENT_ID", ""),
			GTMContainerID:   stringWithDefault(lookup, "CATALOG_WEB_GTM_CONTAINER_ID", ""),
			Debug:            boolWithDefault(lookup, "CATALOG_WEB_ANALYTICS_DEBUG", false),
		},
	}
	if cfg.Backend.FetchRetries < 0 {
		cfg.Backend.FetchRetries = 0
	}
	// a fixture without an explicit server URL means offline mode
	if cfg.Backend.FixturePath != "" && stringWithDefault(lookup, "CATALOG_SERVER_URL", "") == "" {
		cfg.Backend.ServerURL = ""
	}

	if path := stringWithDefault(lookup, "CATALOG_CONFIG", ""); path != "" {
		cat, err := LoadCatalogFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Catalog = cat
	}
	return cfg, nil
}

// DefaultCatalog mirrors the stock filter sidebar of the storefront.
func DefaultCatalog() CatalogConfig {
	return CatalogConfig{
		Currency: defaultCurrency,
		Colors:   []string{"Amarelo", "Azul", "Branco", "Cinza", "Laranja", "Verde", "Vermelho", "Preto", "Rosa", "Vinho"},
		Sizes:    []string{"P", "M", "G", "GG", "U", "36", "38", "40", "42", "44", "46"},
		Brackets: []catalog.Bracket{
			{Token: "0-50", Label: "de R$0 até R$50"},
			{Token: "51-150", Label: "de R$51 até R$150"},
			{Token: "151-300", Label: "de R$151 até R$300"},
			{Token: "301-500", Label: "de R$301 até R$500"},
			{Token: "500+", Label: "a partir de R$ 500"},
		},
		CollapsedColors: catalog.DefaultCollapsedColors,
	}
}

// LoadCatalogFile reads catalog settings from YAML, filling unset fields from DefaultCatalog.
func LoadCatalogFile(path string) (CatalogConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CatalogConfig{}, fmt.Errorf("config: read catalog file %s: %w", path, err)
	}
	var cat CatalogConfig
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return CatalogConfig{}, fmt.Errorf("%w: %s: %v", ErrInvalidCatalogFile, path, err)
	}
	def := DefaultCatalog()
	if cat.Currency == "" {
		cat.Currency = def.Currency
	}
	if len(cat.Colors) == 0 {
		cat.Colors = def.Colors
	}
	if len(cat.Sizes) == 0 {
		cat.Sizes = def.Sizes
	}
	if len(cat.Brackets) == 0 {
		cat.Brackets = def.Brackets
	}
	if cat.CollapsedColors <= 0 {
		cat.CollapsedColors = def.CollapsedColors
	}
	for i, b := range cat.Brackets {
		if strings.TrimSpace(b.Token) == "" {
			return CatalogConfig{}, fmt.Errorf("%w: price bracket %d has no token", ErrInvalidCatalogFile, i)
		}
	}
	return cat, nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return values, nil
}

type lookupFunc func(string) (string, bool)

func stringWithDefault(lookup lookupFunc, key, def string) string {
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func boolWithDefault(lookup lookupFunc, key string, def bool) bool {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		// any other non-empty value (e.g. DEV=yes) enables the flag
		return true
	}
	return b
}

func intWithDefault(lookup lookupFunc, key string, def int) int {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func durationWithDefault(lookup lookupFunc, key string, def time.Duration) time.Duration {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
