package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Backend.ServerURL != "http://localhost:5000" {
		t.Errorf("unexpected default server url %s", cfg.Backend.ServerURL)
	}
	if cfg.Backend.FetchRetries != 0 {
		t.Errorf("expected no retries by default, got %d", cfg.Backend.FetchRetries)
	}
	if cfg.Backend.FetchTimeout != 8*time.Second {
		t.Errorf("unexpected fetch timeout %s", cfg.Backend.FetchTimeout)
	}
	if cfg.Server.DefaultLang != "pt" {
		t.Errorf("expected pt default lang, got %s", cfg.Server.DefaultLang)
	}
	if len(cfg.Catalog.Brackets) != 5 {
		t.Errorf("expected 5 default price brackets, got %d", len(cfg.Catalog.Brackets))
	}
	if cfg.Prod() {
		t.Errorf("expected local env by default")
	}
}

func TestLoadOverridesAndPortFallback(t *testing.T) {
	env := map[string]string{
		"PORT":                  "9000",
		"CATALOG_SERVER_URL":    "https://api.example.com/",
		"CATALOG_FETCH_TIMEOUT": "2s",
		"CATALOG_FETCH_RETRIES": "3",
		"CATALOG_WEB_DEV":       "1",
		"CATALOG_WEB_ENV":       "PROD",
	}
	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("expected PORT fallback, got %s", cfg.Server.Port)
	}
	if cfg.Backend.ServerURL != "https://api.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Backend.ServerURL)
	}
	if cfg.Backend.FetchTimeout != 2*time.Second || cfg.Backend.FetchRetries != 3 {
		t.Errorf("unexpected backend config %+v", cfg.Backend)
	}
	if !cfg.Server.DevMode || !cfg.Prod() || !cfg.Session.Secure {
		t.Errorf("expected dev mode and prod hardening, got %+v", cfg.Server)
	}

	env["CATALOG_WEB_PORT"] = "7000"
	cfg, err = Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Errorf("expected CATALOG_WEB_PORT to win, got %s", cfg.Server.Port)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CATALOG_SERVER_URL=http://dotenv:5000\nCATALOG_FIXTURE=data/products.json\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(WithEnvFile(path), WithoutSystemEnv(), WithEnvMap(map[string]string{"CATALOG_FIXTURE": "override.json"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.ServerURL != "http://dotenv:5000" {
		t.Errorf("expected dotenv value, got %s", cfg.Backend.ServerURL)
	}
	if cfg.Backend.FixturePath != "override.json" {
		t.Errorf("expected env map to override dotenv, got %s", cfg.Backend.FixturePath)
	}
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	body := `
currency: BRL
colors: [Preto, Branco]
price_brackets:
  - token: "0-99"
    label: "até R$99"
  - token: "100+"
collapsed_colors: 1
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(map[string]string{"CATALOG_CONFIG": path}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.Catalog.Colors; len(got) != 2 || got[0] != "Preto" {
		t.Errorf("unexpected colors %v", got)
	}
	if len(cfg.Catalog.Sizes) == 0 {
		t.Errorf("expected default sizes to fill in")
	}
	facets := cfg.Catalog.Facets()
	if facets.CollapsedColors != 1 || len(facets.Brackets) != 2 || facets.Brackets[1].Token != "100+" {
		t.Errorf("unexpected facets %+v", facets)
	}
}

func TestLoadCatalogFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte("price_brackets:\n  - label: missing token\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadCatalogFile(path)
	if !errors.Is(err, ErrInvalidCatalogFile) {
		t.Fatalf("expected ErrInvalidCatalogFile, got %v", err)
	}

	if err := os.WriteFile(path, []byte("colors: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err = LoadCatalogFile(path)
	if !errors.Is(err, ErrInvalidCatalogFile) {
		t.Fatalf("expected ErrInvalidCatalogFile for bad yaml, got %v", err)
	}
}

func TestFixtureWithoutServerURLIsOffline(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{"CATALOG_FIXTURE": "data/products.json"}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Backend.ServerURL != "" {
		t.Errorf("expected fixture-only mode, got server url %q", cfg.Backend.ServerURL)
	}
	if cfg.Backend.FixturePath != "data/products.json" {
		t.Errorf("unexpected fixture %q", cfg.Backend.FixturePath)
	}
}
