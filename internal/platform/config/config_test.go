package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("API_BASE_URL", "https://shop.example.com/")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.API.BaseURL != "https://shop.example.com" {
		t.Errorf("trailing slash must be trimmed, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("expected default API timeout 10s, got %s", cfg.API.Timeout)
	}
	if cfg.Product.ItemsPerPage != 6 || cfg.Product.MinOrderCount != 1 || cfg.Product.MaxOrderCount != 10 {
		t.Errorf("unexpected default product rules: %+v", cfg.Product)
	}
	if cfg.Session.CookieName != "STOREFRONT_SESSION" {
		t.Errorf("unexpected default cookie name %s", cfg.Session.CookieName)
	}
	if cfg.Session.IdleTTL != 30*time.Minute {
		t.Errorf("expected default idle TTL 30m, got %s", cfg.Session.IdleTTL)
	}
	if cfg.Storage.DraftTTL != 24*time.Hour {
		t.Errorf("expected default draft TTL 24h, got %s", cfg.Storage.DraftTTL)
	}
	if cfg.Storage.DraftDebounce != 500*time.Millisecond {
		t.Errorf("expected default draft debounce 500ms, got %s", cfg.Storage.DraftDebounce)
	}
}

func TestLoadMissingBaseURL(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("API_BASE_URL", "")

	if _, err := Load(); !errors.Is(err, ErrMissingAPIBaseURL) {
		t.Fatalf("expected ErrMissingAPIBaseURL, got %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("SESSION_IDLE_TTL", "120")
	t.Setenv("DRAFT_DEBOUNCE", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %s", cfg.API.Timeout)
	}
	if cfg.Session.IdleTTL != 120*time.Second {
		t.Errorf("bare integers are seconds, got %s", cfg.Session.IdleTTL)
	}
	if cfg.Storage.DraftDebounce != 250*time.Millisecond {
		t.Errorf("expected debounce 250ms, got %s", cfg.Storage.DraftDebounce)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	contents := "API_BASE_URL=https://env-file.example.com\nPORT=7070\n"
	if err := os.WriteFile(envFile, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("ENV_FILE", envFile)
	// godotenv never overrides variables that are already set, so clear them
	// while keeping the t.Setenv cleanup.
	t.Setenv("API_BASE_URL", "")
	t.Setenv("PORT", "")
	_ = os.Unsetenv("API_BASE_URL")
	_ = os.Unsetenv("PORT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "https://env-file.example.com" {
		t.Errorf("expected base URL from env file, got %s", cfg.API.BaseURL)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from env file, got %s", cfg.Server.Port)
	}
}

func TestLoadProductRulesFile(t *testing.T) {
	setBaseEnv(t)

	dir := t.TempDir()
	rulesFile := filepath.Join(dir, "rules.yaml")
	contents := "itemsPerPage: 9\nminCountForOrder: 2\nmaxCountForOrder: 20\n"
	if err := os.WriteFile(rulesFile, []byte(contents), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}
	t.Setenv("PRODUCT_RULES_FILE", rulesFile)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Product.ItemsPerPage != 9 || cfg.Product.MinOrderCount != 2 || cfg.Product.MaxOrderCount != 20 {
		t.Errorf("unexpected product rules: %+v", cfg.Product)
	}
}

func TestLoadProductRulesDefaultsFillGaps(t *testing.T) {
	dir := t.TempDir()
	rulesFile := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(rulesFile, []byte("itemsPerPage: 12\n"), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	rules, err := LoadProductRules(rulesFile)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if rules.ItemsPerPage != 12 {
		t.Errorf("expected itemsPerPage 12, got %d", rules.ItemsPerPage)
	}
	if rules.MinOrderCount != 1 || rules.MaxOrderCount != 10 {
		t.Errorf("missing fields must fall back to defaults, got %+v", rules)
	}
}

func TestLoadProductRulesMissingFile(t *testing.T) {
	if _, err := LoadProductRules(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for a missing rules file")
	}
}

func TestLoadInvalidBaseURL(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("API_BASE_URL", "://not-a-url")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed base URL")
	}
}
