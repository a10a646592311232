package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg := Load()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected default http addr, got %q", cfg.HTTPAddr)
	}
	if cfg.PlaylistTTL != 24*time.Hour {
		t.Errorf("expected 24h playlist ttl, got %v", cfg.PlaylistTTL)
	}
	if cfg.JWTSecret != "" {
		t.Error("authentication should be disabled by default")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("PLAYLIST_TTL", "90m")

	cfg := Load()

	if cfg.DBHost != "db.internal" {
		t.Errorf("expected DB_HOST from env, got %q", cfg.DBHost)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("expected REDIS_DB 3, got %d", cfg.RedisDB)
	}
	if !cfg.MinioUseSSL {
		t.Error("expected MINIO_USE_SSL true")
	}
	if cfg.PlaylistTTL != 90*time.Minute {
		t.Errorf("expected 90m ttl, got %v", cfg.PlaylistTTL)
	}
}
