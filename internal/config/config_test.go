package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.APIPort != "3000" || cfg.UseAPI {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SessionTTL() != 24*time.Hour || cfg.ShutdownTimeout() != 10*time.Second {
		t.Fatalf("unexpected durations: ttl=%s shutdown=%s", cfg.SessionTTL(), cfg.ShutdownTimeout())
	}
	if origins := cfg.AllowedOrigins(); len(origins) != 1 || origins[0] != "*" {
		t.Fatalf("unexpected origins %v", origins)
	}
}

func TestFromEnv_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	body := "API_URL=http://backend:3000/\nUSE_API=true\nSESSION_TTL_HOURS=2\nCORS_ORIGINS= http://a.test , ,http://b.test\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("HTTP_CLIENT_TIMEOUT_SECONDS", "3")
	t.Cleanup(func() {
		for _, k := range []string{"API_URL", "USE_API", "SESSION_TTL_HOURS", "CORS_ORIGINS"} {
			os.Unsetenv(k)
		}
	})

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.APIURL != "http://backend:3000/" || !cfg.UseAPI {
		t.Fatalf("env file not applied: %+v", cfg)
	}
	if cfg.SessionTTL() != 2*time.Hour || cfg.HTTPClientTimeout() != 3*time.Second {
		t.Fatalf("unexpected durations: ttl=%s client=%s", cfg.SessionTTL(), cfg.HTTPClientTimeout())
	}
	origins := cfg.AllowedOrigins()
	if len(origins) != 2 || origins[0] != "http://a.test" || origins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", origins)
	}
}

func TestDurationsFallBackOnNonPositive(t *testing.T) {
	cfg := Config{SessionTTLHours: -1, ShutdownTimeoutSeconds: 0, HTTPClientTimeoutSecs: -5}
	if cfg.SessionTTL() != 24*time.Hour || cfg.ShutdownTimeout() != 10*time.Second || cfg.HTTPClientTimeout() != 10*time.Second {
		t.Fatalf("expected fallbacks, got %s %s %s", cfg.SessionTTL(), cfg.ShutdownTimeout(), cfg.HTTPClientTimeout())
	}
}
