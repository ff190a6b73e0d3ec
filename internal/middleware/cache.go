package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/restaurant-reservation/internal/config"
)

// cachedResponse is what NewRedisCache stores per key.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h"`
    Body   []byte      `json:"b"`
}

// recorder tees the response body into a bounded buffer.
type recorder struct {
    http.ResponseWriter
    status    int
    buf       bytes.Buffer
    limit     int
    truncated bool
}

func (w *recorder) WriteHeader(code int) {
    w.status = code
    w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(b []byte) (int, error) {
    if !w.truncated {
        if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
            w.truncated = true
            w.buf.Reset()
        } else {
            w.buf.Write(b)
        }
    }
    return w.ResponseWriter.Write(b)
}

// cacheKey is <prefix>:<sha1 of the strategy parts>.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{"route", c.Path()}
    case "method_route":
        parts = []string{"method", r.Method, "route", c.Path()}
    case "method_route_query":
        parts = []string{"method", r.Method, "route", c.Path(), "q", r.URL.RawQuery}
    default: // route_query
        parts = []string{"route", c.Path(), "q", r.URL.RawQuery}
    }
    // the concrete path matters for /menus/:id style routes
    parts = append(parts, "path", r.URL.Path)
    sum := sha1.Sum([]byte(strings.Join(parts, ":")))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// NewRedisCache replays 200 responses of cacheable methods from Redis for
// cfg.TTL.  Disabled config or a nil client makes it a pass-through.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 15 * time.Second
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var cr cachedResponse
                if json.Unmarshal(bs, &cr) == nil {
                    for k, vals := range cr.Header {
                        if strings.EqualFold(k, echo.HeaderContentLength) {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(cr.Status, c.Response().Header().Get(echo.HeaderContentType), cr.Body)
                }
            }

            rec := &recorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if rec.status != http.StatusOK || rec.truncated {
                return nil
            }
            hdr := c.Response().Header().Clone()
            hdr.Del("X-Cache")
            payload, err := json.Marshal(cachedResponse{Status: rec.status, Header: hdr, Body: rec.buf.Bytes()})
            if err == nil {
                _ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
            }
            return nil
        }
    }
}

// PurgeCache drops every cached response after a successful write, so
// reads never outlive the data they were built from.
func PurgeCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            err := next(c)
            if err == nil && c.Response().Status < http.StatusBadRequest {
                if perr := Purge(context.Background(), rdb, cfg.Prefix); perr != nil {
                    c.Logger().Warnf("[cache] purge failed: %v", perr)
                }
            }
            return err
        }
    }
}

// Purge deletes all keys under prefix using SCAN.
func Purge(ctx context.Context, rdb *redis.Client, prefix string) error {
    iter := rdb.Scan(ctx, 0, prefix+":*", 200).Iterator()
    batch := make([]string, 0, 200)
    for iter.Next(ctx) {
        batch = append(batch, iter.Val())
        if len(batch) == cap(batch) {
            if err := rdb.Del(ctx, batch...).Err(); err != nil {
                return err
            }
            batch = batch[:0]
        }
    }
    if err := iter.Err(); err != nil {
        return err
    }
    if len(batch) > 0 {
        return rdb.Del(ctx, batch...).Err()
    }
    return nil
}
