package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.API.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %s", cfg.API.Addr)
	}
	if cfg.API.MaxUploadBytes != 32<<20 {
		t.Fatalf("expected 32MiB upload cap, got %d", cfg.API.MaxUploadBytes)
	}
	if cfg.Queue.Name != "default" {
		t.Fatalf("expected default queue, got %s", cfg.Queue.Name)
	}
	if cfg.Artifacts.TTL != time.Hour {
		t.Fatalf("expected 1h artifact ttl, got %s", cfg.Artifacts.TTL)
	}
	if cfg.RateLimit.Capacity != 60 || cfg.RateLimit.Window != time.Minute {
		t.Fatalf("unexpected rate limit defaults: %d/%s", cfg.RateLimit.Capacity, cfg.RateLimit.Window)
	}
	if cfg.Worker.Concurrency < 2 {
		t.Fatalf("worker concurrency below floor: %d", cfg.Worker.Concurrency)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("IMAGESHARK_API_ADDR", ":9999")
	t.Setenv("IMAGESHARK_MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("IMAGESHARK_ARTIFACT_TTL", "30m")
	t.Setenv("IMAGESHARK_RATELIMIT_CAPACITY", "5")

	cfg := Load()
	if cfg.API.Addr != ":9999" {
		t.Fatalf("addr override lost: %s", cfg.API.Addr)
	}
	if cfg.API.MaxUploadBytes != 1048576 {
		t.Fatalf("upload cap override lost: %d", cfg.API.MaxUploadBytes)
	}
	if cfg.Artifacts.TTL != 30*time.Minute {
		t.Fatalf("ttl override lost: %s", cfg.Artifacts.TTL)
	}
	if cfg.RateLimit.Capacity != 5 {
		t.Fatalf("rate limit override lost: %d", cfg.RateLimit.Capacity)
	}
}

func TestEnvOverrideIgnoresUnparsable(t *testing.T) {
	t.Setenv("IMAGESHARK_ARTIFACT_TTL", "not-a-duration")
	t.Setenv("IMAGESHARK_RATELIMIT_CAPACITY", "many")

	cfg := Load()
	if cfg.Artifacts.TTL != time.Hour {
		t.Fatalf("expected fallback ttl, got %s", cfg.Artifacts.TTL)
	}
	if cfg.RateLimit.Capacity != 60 {
		t.Fatalf("expected fallback capacity, got %d", cfg.RateLimit.Capacity)
	}
}
