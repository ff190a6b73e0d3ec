package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/restaurant-reservation/internal/config"
)

// bucketScript refills and takes one token atomically.  It returns
// {allowed (0|1), tokens left, ms until the next refill}.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now_ms
end

local steps = math.floor(math.max(0, now_ms - ts) / interval_ms)
if steps > 0 then
  tokens = math.min(capacity, tokens + steps * refill)
  ts = ts + steps * interval_ms
end

local allowed = 0
local wait_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  wait_ms = math.max(0, interval_ms - (now_ms - ts))
end

redis.call('HSET', key, 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', key, ttl)
return {allowed, tokens, wait_ms}
`)

// bucketResult is the decoded reply of bucketScript.
type bucketResult struct {
    allowed   bool
    remaining int64
    waitMs    int64
}

func parseBucketResult(v interface{}) (bucketResult, bool) {
    arr, ok := v.([]interface{})
    if !ok || len(arr) != 3 {
        return bucketResult{}, false
    }
    return bucketResult{
        allowed:   asInt64(arr[0]) == 1,
        remaining: asInt64(arr[1]),
        waitMs:    asInt64(arr[2]),
    }, true
}

// NewTokenBucket limits requests with a Redis-side token bucket.  Each key
// (see buildRateKey) starts with cfg.Capacity tokens and regains
// cfg.RefillTokens every cfg.RefillInterval.  Without Redis, or when
// disabled, it is a pass-through; Redis errors fail open.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            reply, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL/time.Second),
            ).Result()
            if err != nil {
                if cfg.Debug {
                    c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
                }
                return next(c)
            }
            res, ok := parseBucketResult(reply)
            if !ok {
                if cfg.Debug {
                    c.Logger().Warnf("[ratelimit] unexpected script result for key=%s: %#v", key, reply)
                }
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
            if !res.allowed {
                secs := int(math.Ceil(float64(res.waitMs) / 1000.0))
                h.Set("Retry-After", strconv.Itoa(secs))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "Too many requests, retry later",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}

// keyFields lists which request attributes make up the bucket key for
// each strategy.  Unknown strategies use all of them.
var keyFields = map[string][]string{
    "ip":         {"ip"},
    "user":       {"user"},
    "route":      {"route"},
    "ip_user":    {"ip", "user"},
    "ip_route":   {"ip", "route"},
    "user_route": {"user", "route"},
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    fields, ok := keyFields[strings.ToLower(cfg.KeyStrategy)]
    if !ok {
        fields = []string{"ip", "user", "route"}
    }
    key := cfg.Prefix
    for _, f := range fields {
        var v string
        switch f {
        case "ip":
            if v = c.RealIP(); v == "" {
                v = "unknown"
            }
        case "user":
            v = currentUserID(c)
        case "route":
            v = c.Request().Method + " " + c.Path()
        }
        key += ":" + f + ":" + v
    }
    return key
}
