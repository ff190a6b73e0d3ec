package config

import "time"

// RateLimitConfig configures the token bucket in front of /auth.  Sign-in
// and sign-up are the only routes worth throttling, so the defaults are
// tight: 10 attempts, then one more every 6 seconds.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration // idle buckets expire after this
    KeyStrategy    string        // see middleware.buildRateKey
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* and clamps nonsensical values.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       max(envInt("RATE_LIMIT_CAPACITY", 10), 1),
        RefillTokens:   max(envInt("RATE_LIMIT_REFILL_TOKENS", 1), 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    getenv("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
        Prefix:         getenv("RATE_LIMIT_PREFIX", "rl:auth"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    if cfg.RefillInterval <= 0 {
        cfg.RefillInterval = time.Second
    }
    // a bucket must outlive a few refills or it resets to full capacity
    cfg.TTL = max(cfg.TTL, 5*cfg.RefillInterval)
    return cfg
}
