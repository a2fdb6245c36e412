package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// clearEnv unsets every variable Load reads so tests are order-independent.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "ENVIRONMENT", "LOG_LEVEL", "GCP_PROJECT",
		"PROXY_ID", "PLATFORM_BASE_URL", "PLATFORM_DOMAIN", "PLATFORM_LOCALE",
		"SERVICE_DOMAIN", "HEADER_OVERRIDES",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q", cfg.Environment)
	}
	if cfg.Platform.BaseURL != "https://www.ubereats.com" {
		t.Errorf("BaseURL = %q", cfg.Platform.BaseURL)
	}
	if cfg.Platform.Domain != "ubereats.com" {
		t.Errorf("Domain = %q, want derived without www", cfg.Platform.Domain)
	}
	if cfg.Platform.Locale != "en-US" {
		t.Errorf("Locale = %q", cfg.Platform.Locale)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("PLATFORM_BASE_URL", "https://www.example-eats.test/")
	t.Setenv("PLATFORM_LOCALE", "fr-FR")
	t.Setenv("HEADER_OVERRIDES", `{"User-Agent":"custom/1.0"}`)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Platform.BaseURL != "https://www.example-eats.test" {
		t.Errorf("BaseURL = %q, trailing slash not trimmed", cfg.Platform.BaseURL)
	}
	if cfg.Platform.Domain != "example-eats.test" {
		t.Errorf("Domain = %q", cfg.Platform.Domain)
	}
	if cfg.Platform.HeaderOverrides["User-Agent"] != "custom/1.0" {
		t.Errorf("HeaderOverrides = %v", cfg.Platform.HeaderOverrides)
	}
}

func TestLoadBadHeaderOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HEADER_OVERRIDES", `{not json`)

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("Load() with bad HEADER_OVERRIDES should fail")
	}
}

func TestLoadProductionRequiresProject(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("Load() in production without GCP_PROJECT should fail")
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"port": "7070",
		"log_level": "debug",
		"platform": {
			"base_url": "https://www.example-eats.test",
			"service_domain": "proxy.local",
			"locale": "en-GB"
		}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "7070" || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Platform.ServiceDomain != "proxy.local" {
		t.Errorf("ServiceDomain = %q", cfg.Platform.ServiceDomain)
	}
	if cfg.Platform.Locale != "en-GB" {
		t.Errorf("Locale = %q", cfg.Platform.Locale)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.json"))

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("Load() with missing config file should fail")
	}
}

func TestValidateRejectsBadScheme(t *testing.T) {
	clearEnv(t)
	t.Setenv("PLATFORM_BASE_URL", "ftp://example.test")

	if _, err := Load(context.Background()); err == nil {
		t.Fatal("Load() with non-http base_url should fail")
	}
}
