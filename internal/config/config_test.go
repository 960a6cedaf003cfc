package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ADMIN_ID", "admin")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MATCH_TTL_SEC", "")
	t.Setenv("HISTORY_LIMIT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.MatchTTLSec != 86400 || cfg.HistoryLimit != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DATABASE_URL should stay empty")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDIS_URL", " redis://cache:6379/2 ")
	t.Setenv("ADMIN_ID", "root")
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("SERVICE_URL", "https://hooks.example.com/results")
	t.Setenv("MATCH_TTL_SEC", "600")
	t.Setenv("HISTORY_LIMIT", "bogus")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RedisURL != "redis://cache:6379/2" {
		t.Fatalf("RedisURL not trimmed: %q", cfg.RedisURL)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" || cfg.MatchTTLSec != 600 {
		t.Fatalf("overrides ignored: %+v", cfg)
	}
	if cfg.HistoryLimit != 10 {
		t.Fatalf("invalid HISTORY_LIMIT should keep default, got %d", cfg.HistoryLimit)
	}
	if cfg.ServiceURL != "https://hooks.example.com/results" {
		t.Fatalf("ServiceURL = %q", cfg.ServiceURL)
	}
}

func TestLoadRequiresRedisAndAdmin(t *testing.T) {
	t.Setenv("REDIS_URL", "")
	t.Setenv("ADMIN_ID", "admin")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without REDIS_URL")
	}
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ADMIN_ID", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without ADMIN_ID")
	}
}
