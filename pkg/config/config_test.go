package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000/api" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.API.Timeout)
	}
	if cfg.Storage.Backend != StorageBackendSQLite {
		t.Fatalf("unexpected storage backend %q", cfg.Storage.Backend)
	}
	if !cfg.App.IsDev() {
		t.Fatalf("expected dev environment by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_API_BASE_URL", "https://shop.example.com/api")
	t.Setenv("STOREFRONT_API_TIMEOUT", "3s")
	t.Setenv("STOREFRONT_STORAGE_BACKEND", "memory")
	t.Setenv("STOREFRONT_APP_ENV", "prod")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.BaseURL != "https://shop.example.com/api" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.API.Timeout)
	}
	if !cfg.App.IsProd() {
		t.Fatalf("expected prod environment")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STOREFRONT_STORAGE_BACKEND", "etcd")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestLoadRedisBackendRequiresTarget(t *testing.T) {
	t.Setenv("STOREFRONT_STORAGE_BACKEND", "redis")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "STOREFRONT_REDIS_URL") {
		t.Fatalf("expected redis target error, got %v", err)
	}

	t.Setenv("STOREFRONT_REDIS_URL", "redis://localhost:6379/0")
	if _, err := Load(); err != nil {
		t.Fatalf("load with redis url: %v", err)
	}
}
