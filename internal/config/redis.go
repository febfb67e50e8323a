package config

import (
    "context"
    "crypto/tls"
    "os"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"
)

// NewRedisClient connects to Redis for response caching and rate
// limiting.  The address comes from REDIS_ADDR, or REDIS_HOST plus
// REDIS_PORT, defaulting to localhost:6379; REDIS_PASSWORD, REDIS_DB
// and REDIS_TLS are honoured when set.  A failed ping returns nil so
// callers degrade to pass-through middleware instead of refusing to
// start: Redis here is an accelerator, never a correctness
// dependency.
func NewRedisClient() *redis.Client {
    addr := envStr("REDIS_ADDR", "")
    if host := os.Getenv("REDIS_HOST"); host != "" {
        addr = host + ":" + envStr("REDIS_PORT", "6379")
    }
    if addr == "" {
        addr = "localhost:6379"
    }

    opts := &redis.Options{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       envInt("REDIS_DB", 0),
    }
    if envBool("REDIS_TLS", false) {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }

    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        logrus.WithError(err).WithField("addr", addr).Warn("redis unreachable, caching and rate limiting disabled")
        return nil
    }
    return client
}
