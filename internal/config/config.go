// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Config holds all service configuration.
// Environment determines whether platform settings load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	ProxyID    string // names the Secret Manager secret holding platform config

	// Platform-specific configuration (loaded from secrets)
	Platform PlatformConfig
}

// PlatformConfig contains delivery-platform settings.
// In production, this is loaded from Secret Manager as JSON.
// In development, loaded from individual env vars or CONFIG_FILE.
type PlatformConfig struct {
	BaseURL string `json:"base_url"`
	Domain  string `json:"domain"` // Derived from BaseURL if not set
	Locale  string `json:"locale,omitempty"`

	// ServiceDomain is the proxy's own cookie domain for the Set-Cookie
	// rewrite. Empty leaves platform cookies untouched.
	ServiceDomain string `json:"service_domain,omitempty"`

	// HeaderOverrides replace individual fabricated browser headers, e.g.
	// to pin a different User-Agent when the platform tightens detection.
	HeaderOverrides map[string]string `json:"header_overrides,omitempty"`

	// TimeoutSeconds for outbound platform calls. Zero uses the default.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) -> ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		ProxyID:     envOrDefault("PROXY_ID", "eats-proxy"),
	}

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading platform config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port        string         `json:"port"`
		Environment string         `json:"environment"`
		LogLevel    string         `json:"log_level"`
		Platform    PlatformConfig `json:"platform"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		Platform:    fileConfig.Platform,
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches platform config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{proxy_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.ProxyID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Platform); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads platform config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Platform = PlatformConfig{
		BaseURL:       os.Getenv("PLATFORM_BASE_URL"),
		Domain:        os.Getenv("PLATFORM_DOMAIN"),
		Locale:        os.Getenv("PLATFORM_LOCALE"),
		ServiceDomain: os.Getenv("SERVICE_DOMAIN"),
	}

	// Parse header overrides JSON if provided
	if overridesJSON := os.Getenv("HEADER_OVERRIDES"); overridesJSON != "" {
		if err := json.Unmarshal([]byte(overridesJSON), &c.Platform.HeaderOverrides); err != nil {
			return fmt.Errorf("parsing HEADER_OVERRIDES JSON: %w", err)
		}
	}

	return nil
}

// applyDefaults fills in the fields a bare configuration can derive.
func (c *Config) applyDefaults() {
	if c.Platform.BaseURL == "" {
		c.Platform.BaseURL = "https://www.ubereats.com"
	}
	c.Platform.BaseURL = strings.TrimSuffix(c.Platform.BaseURL, "/")
	if c.Platform.Domain == "" {
		c.Platform.Domain = extractDomain(c.Platform.BaseURL)
	}
	if c.Platform.Locale == "" {
		c.Platform.Locale = "en-US"
	}
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	u, err := url.Parse(c.Platform.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be http(s), got %q", c.Platform.BaseURL)
	}
	if c.Platform.Domain == "" {
		return fmt.Errorf("domain could not be derived from base_url %q", c.Platform.BaseURL)
	}
	return nil
}

// extractDomain parses the domain from a URL string, dropping a leading
// "www." so cookie rewrites match the registrable domain.
func extractDomain(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		// Fallback: strip protocol prefix manually
		domain := strings.TrimPrefix(baseURL, "https://")
		domain = strings.TrimPrefix(domain, "http://")
		return strings.TrimPrefix(strings.Split(domain, "/")[0], "www.")
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
