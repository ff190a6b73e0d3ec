package config

import (
    "testing"
    "time"
)

func TestLoadRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg := LoadRateLimitConfig()
    if cfg.Capacity != 1 {
        t.Errorf("Capacity = %d, want 1", cfg.Capacity)
    }
    if cfg.TTL != 10*time.Second {
        t.Errorf("TTL = %s, want 10s", cfg.TTL)
    }
    if !cfg.Enabled || cfg.KeyStrategy != "ip_route" {
        t.Errorf("defaults not applied: %+v", cfg)
    }
}

func TestLoadCacheConfig(t *testing.T) {
    t.Setenv("CACHE_ENABLED", "yes")
    t.Setenv("CACHE_METHODS", "get, head")

    cfg := LoadCacheConfig()
    if !cfg.Enabled || !cfg.Methods["GET"] || !cfg.Methods["HEAD"] || cfg.Methods["POST"] {
        t.Fatalf("unexpected config %+v", cfg)
    }
    if cfg.TTL != 15*time.Second || cfg.MaxBodyBytes != 1<<20 {
        t.Fatalf("defaults not applied: %+v", cfg)
    }
}

func TestEnvList(t *testing.T) {
    t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")
    got := envList("CORS_ORIGINS", "")
    if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
        t.Fatalf("envList = %q", got)
    }
}

func TestIsDev(t *testing.T) {
    if !(Config{Env: "Development"}).IsDev() || (Config{Env: "prod"}).IsDev() {
        t.Fatal("IsDev mismatch")
    }
}
