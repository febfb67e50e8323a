package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/event-ticket-booking/internal/config"
)

// tokenBucketScript refills and drains one bucket atomically.  State
// lives in a Redis hash per key so the limit holds across replicas of
// this service.  Returns {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
    local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
    local refilled = tonumber(redis.call('HGET', KEYS[1], 'refilled_at'))
    local now = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill = tonumber(ARGV[3])
    local interval = tonumber(ARGV[4])

    if tokens == nil or refilled == nil then
        tokens = capacity
        refilled = now
    end

    local intervals = math.floor(math.max(0, now - refilled) / interval)
    if intervals > 0 then
        tokens = math.min(capacity, tokens + intervals * refill)
        refilled = refilled + intervals * interval
    end

    local allowed = 0
    local retry_after = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        retry_after = math.max(0, interval - (now - refilled))
    end

    redis.call('HSET', KEYS[1], 'tokens', tokens, 'refilled_at', refilled)
    redis.call('EXPIRE', KEYS[1], ARGV[5])
    return {allowed, tokens, retry_after}
`)

// NewTokenBucket limits request rates with a Redis-backed token
// bucket.  Booking traffic is the reason this exists: a contention
// run or a misbehaving client must not be able to monopolise the
// seat rows.  When Redis is unavailable the limiter fails open; the
// engine's own locking still protects the data.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passthrough
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := rateKey(cfg, c)
            args := []interface{}{
                time.Now().UnixMilli(),
                cfg.Capacity,
                cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(),
                int64(cfg.TTL / time.Second),
            }

            vals, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key}, args...).Int64Slice()
            if err != nil || len(vals) != 3 {
                if cfg.Debug {
                    logrus.WithError(err).WithField("key", key).Warn("rate limiter unavailable, failing open")
                }
                return next(c)
            }
            allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if !allowed {
                secs := int(math.Ceil(float64(retryMs) / 1000.0))
                h.Set("Retry-After", strconv.Itoa(secs))
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc {
    return func(c echo.Context) error { return next(c) }
}

// rateKey scopes the bucket according to the configured strategy.
// The default ties ip, user and route together, so one user hammering
// the booking endpoint does not starve the rest of their ip.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    uid := claimedUserID(c)
    route := c.Request().Method + " " + c.Path()

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", uid)
    case "ip_user":
        parts = append(parts, "ip", ip, "user", uid)
    case "user_route":
        parts = append(parts, "user", uid, "route", route)
    default: // "ip_user_route"
        parts = append(parts, "ip", ip, "user", uid, "route", route)
    }
    return strings.Join(parts, ":")
}

// claimedUserID renders the authenticated subject for key building.
// The JWT middleware stores the raw claim, which decodes as a string
// or a json number depending on the issuer.
func claimedUserID(c echo.Context) string {
    switch v := c.Get("user_id").(type) {
    case string:
        if v != "" {
            return v
        }
    case float64:
        return strconv.FormatUint(uint64(v), 10)
    }
    return "anon"
}
