package config

import (
    "strings"
    "time"
)

// CacheConfig controls the Redis response cache on the public menu reads.
// It is off by default: every booking changes openReservations, so only
// deployments that accept a short staleness window should turn it on.
// Menu and reservation writes purge the cached entries.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool // upper-case HTTP methods that are cached
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int // larger responses are served but not stored
}

// LoadCacheConfig reads CACHE_*.
func LoadCacheConfig() CacheConfig {
    methods := map[string]bool{}
    for _, m := range envList("CACHE_METHODS", "GET") {
        methods[strings.ToUpper(m)] = true
    }
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", false),
        Methods:      methods,
        TTL:          envDur("CACHE_TTL", 15*time.Second),
        KeyStrategy:  getenv("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       getenv("CACHE_PREFIX", "cache:menus"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}
