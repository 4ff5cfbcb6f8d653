package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultEnvFile       = ".env"
	defaultPort          = "8080"
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultIdleTimeout   = 120 * time.Second
	defaultAPITimeout    = 10 * time.Second
	defaultItemsPerPage  = 6
	defaultMinOrderCount = 1
	defaultMaxOrderCount = 10
	defaultSessionCookie = "STOREFRONT_SESSION"
	defaultSessionTTL    = 30 * time.Minute
	defaultStateDir      = ".storefront"
	defaultDraftTTL      = 24 * time.Hour
	defaultDraftDebounce = 500 * time.Millisecond
)

// ErrMissingAPIBaseURL indicates the upstream API base URL was not configured.
var ErrMissingAPIBaseURL = errors.New("config: API_BASE_URL is required")

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	API     APIConfig
	Product ProductRules
	Session SessionConfig
	Storage StorageConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// APIConfig points the storefront at the upstream shop API.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ProductRules carries the ordering rules shared with the upstream shop.
type ProductRules struct {
	ItemsPerPage  int `yaml:"itemsPerPage"`
	MinOrderCount int `yaml:"minCountForOrder"`
	MaxOrderCount int `yaml:"maxCountForOrder"`
}

// SessionConfig controls the visitor session cookie and idle expiry.
type SessionConfig struct {
	CookieName string
	IdleTTL    time.Duration
}

// StorageConfig locates the persisted visitor state directory.
type StorageConfig struct {
	Dir           string
	DraftTTL      time.Duration
	DraftDebounce time.Duration
}

// Load reads configuration from the environment, optionally seeded from a .env file.
func Load() (Config, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = defaultEnvFile
	}
	// Missing .env files are fine; explicit files must load cleanly.
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: load env file %s: %w", envFile, err)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         envOrDefault("PORT", defaultPort),
			ReadTimeout:  envDuration("SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: envDuration("SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  envDuration("SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("API_BASE_URL")), "/"),
			Timeout: envDuration("API_TIMEOUT", defaultAPITimeout),
		},
		Product: ProductRules{
			ItemsPerPage:  defaultItemsPerPage,
			MinOrderCount: defaultMinOrderCount,
			MaxOrderCount: defaultMaxOrderCount,
		},
		Session: SessionConfig{
			CookieName: envOrDefault("SESSION_COOKIE_NAME", defaultSessionCookie),
			IdleTTL:    envDuration("SESSION_IDLE_TTL", defaultSessionTTL),
		},
		Storage: StorageConfig{
			Dir:           envOrDefault("STATE_DIR", defaultStateDir),
			DraftTTL:      envDuration("DRAFT_TTL", defaultDraftTTL),
			DraftDebounce: envDuration("DRAFT_DEBOUNCE", defaultDraftDebounce),
		},
	}

	if cfg.API.BaseURL == "" {
		return Config{}, ErrMissingAPIBaseURL
	}
	if _, err := url.ParseRequestURI(cfg.API.BaseURL); err != nil {
		return Config{}, fmt.Errorf("config: invalid API_BASE_URL: %w", err)
	}

	if rulesFile := strings.TrimSpace(os.Getenv("PRODUCT_RULES_FILE")); rulesFile != "" {
		rules, err := LoadProductRules(rulesFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Product = rules
	}
	cfg.Product = cfg.Product.withDefaults()

	return cfg, nil
}

// LoadProductRules parses the YAML ordering rules shared with the shop frontend.
func LoadProductRules(path string) (ProductRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProductRules{}, fmt.Errorf("config: read product rules %s: %w", path, err)
	}
	var rules ProductRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return ProductRules{}, fmt.Errorf("config: parse product rules %s: %w", path, err)
	}
	return rules.withDefaults(), nil
}

func (r ProductRules) withDefaults() ProductRules {
	if r.ItemsPerPage <= 0 {
		r.ItemsPerPage = defaultItemsPerPage
	}
	if r.MinOrderCount <= 0 {
		r.MinOrderCount = defaultMinOrderCount
	}
	if r.MaxOrderCount < r.MinOrderCount {
		r.MaxOrderCount = defaultMaxOrderCount
	}
	return r
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
		return parsed
	}
	if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
