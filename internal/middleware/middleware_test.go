package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/event-ticket-booking/internal/config"
)

func newContext(t *testing.T, method, target string) echo.Context {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(method, target, nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetPath("/v1/events")
    return c
}

func TestRateKeyStrategies(t *testing.T) {
    c := newContext(t, http.MethodGet, "/v1/events")
    c.Set("user_id", "42")

    cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}
    assert.Equal(t, "rl:user:42", rateKey(cfg, c))

    cfg.KeyStrategy = "ip_user_route"
    key := rateKey(cfg, c)
    assert.Contains(t, key, ":user:42:")
    assert.Contains(t, key, "GET /v1/events")
}

func TestClaimedUserIDHandlesClaimTypes(t *testing.T) {
    c := newContext(t, http.MethodGet, "/")
    assert.Equal(t, "anon", claimedUserID(c))

    c.Set("user_id", "7")
    assert.Equal(t, "7", claimedUserID(c))

    c.Set("user_id", float64(9)) // numeric subject claims decode as float64
    assert.Equal(t, "9", claimedUserID(c))
}

func TestCacheKeyVariesWithQuery(t *testing.T) {
    cfg := config.CacheConfig{Prefix: "cache", KeyStrategy: "route_query"}
    a := cacheKey(cfg, newContext(t, http.MethodGet, "/v1/events?page=1"))
    b := cacheKey(cfg, newContext(t, http.MethodGet, "/v1/events?page=2"))
    assert.NotEqual(t, a, b)

    cfg.KeyStrategy = "route"
    a = cacheKey(cfg, newContext(t, http.MethodGet, "/v1/events?page=1"))
    b = cacheKey(cfg, newContext(t, http.MethodGet, "/v1/events?page=2"))
    assert.Equal(t, a, b, "the route strategy must ignore the query string")
}

func TestBodyRecorderHonoursLimit(t *testing.T) {
    rec := httptest.NewRecorder()
    w := &bodyRecorder{ResponseWriter: rec, status: http.StatusOK, limit: 4}

    _, err := w.Write([]byte("abcdef"))
    require.NoError(t, err)

    assert.True(t, w.overflow, "a body past the cap must not be stored")
    assert.Equal(t, "abcdef", rec.Body.String(), "the client still gets the full body")
}
