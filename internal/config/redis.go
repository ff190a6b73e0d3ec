package config

import (
    "context"
    "crypto/tls"
    "net"
    "time"

    "github.com/labstack/gommon/log"
    "github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis that backs the /auth token bucket
// and the menu cache.  It returns nil when the server does not answer a
// ping; both middlewares then pass requests straight through.
//
//   REDIS_HOST, REDIS_PORT  server address (REDIS_ADDR as host:port shorthand)
//   REDIS_PASSWORD, REDIS_DB
//   REDIS_TLS               "true" enables TLS 1.2+
func NewRedisClient() *redis.Client {
    addr := getenv("REDIS_ADDR", "localhost:6379")
    if host, port := getenv("REDIS_HOST", ""), getenv("REDIS_PORT", ""); host != "" && port != "" {
        addr = net.JoinHostPort(host, port)
    }
    opts := &redis.Options{
        Addr:     addr,
        Password: getenv("REDIS_PASSWORD", ""),
        DB:       envInt("REDIS_DB", 0),
    }
    if envBool("REDIS_TLS", false) {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(opts)

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        log.Warnf("redis %s unreachable: %v", addr, err)
        _ = client.Close()
        return nil
    }
    return client
}
