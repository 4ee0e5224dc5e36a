package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTestConfig writes a YAML config to a temp file and returns its path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

const validConfig = `
service:
  name: vyahan
database:
  path: /tmp/test-vyahan.db
api:
  host: 127.0.0.1
  port: 9090
security:
  jwt:
    secret: "test-secret-that-is-at-least-32-chars!!"
    access_token_ttl: 5
    refresh_token_ttl: 1440
`

func TestLoad_Valid(t *testing.T) {
	path := writeTestConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.Port != 9090 {
		t.Errorf("api.port = %d, want 9090", cfg.API.Port)
	}
	if cfg.Database.Path != "/tmp/test-vyahan.db" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if got := cfg.GetAccessTokenTTL(); got != 5*time.Minute {
		t.Errorf("access TTL = %v, want 5m", got)
	}
	if got := cfg.GetRefreshTokenTTL(); got != 24*time.Hour {
		t.Errorf("refresh TTL = %v, want 24h", got)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTestConfig(t, `
database:
  path: /tmp/test.db
security:
  jwt:
    secret: "test-secret-that-is-at-least-32-chars!!"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("default api.port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Security.JWT.AccessTokenTTL != 15 {
		t.Errorf("default access_token_ttl = %d, want 15", cfg.Security.JWT.AccessTokenTTL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default logging.level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	path := writeTestConfig(t, `
database:
  path: /tmp/test.db
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should fail without a JWT secret")
	}
	if !strings.Contains(err.Error(), "jwt.secret") {
		t.Errorf("error should mention jwt.secret, got: %v", err)
	}
}

func TestLoad_ShortJWTSecret(t *testing.T) {
	path := writeTestConfig(t, `
database:
  path: /tmp/test.db
security:
  jwt:
    secret: "too-short"
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should fail with a short JWT secret")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeTestConfig(t, validConfig)

	t.Setenv("VYAHAN_DATABASE_PATH", "/tmp/override.db")
	t.Setenv("VYAHAN_JWT_SECRET", "env-secret-that-is-at-least-32-chars!!!")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/override.db" {
		t.Errorf("env override not applied: database.path = %q", cfg.Database.Path)
	}
	if cfg.Security.JWT.Secret != "env-secret-that-is-at-least-32-chars!!!" {
		t.Error("env override not applied for JWT secret")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}

func TestLoad_SMSRequiresGatewayURL(t *testing.T) {
	path := writeTestConfig(t, validConfig+`
sms:
  enabled: true
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() should fail when sms.enabled without gateway_url")
	}
}
