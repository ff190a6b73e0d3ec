package middleware

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/config"
    "github.com/iliyamo/restaurant-reservation/internal/utils"
)

const testSecret = "test-secret"

func serve(t *testing.T, h echo.HandlerFunc, header string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    e.GET("/x", h, mw...)
    req := httptest.NewRequest(http.MethodGet, "/x", nil)
    if header != "" {
        req.Header.Set(echo.HeaderAuthorization, header)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestJWTAuth(t *testing.T) {
    tok, err := utils.NewAccessToken(testSecret, 7, "user", 5)
    if err != nil {
        t.Fatal(err)
    }
    tests := []struct {
        name   string
        header string
        code   int
        body   string
    }{
        {"missing", "", http.StatusUnauthorized, "missing bearer token"},
        {"wrong scheme", "Basic abc", http.StatusUnauthorized, "missing bearer token"},
        {"bad token", "Bearer nope", http.StatusUnauthorized, "invalid token"},
        {"valid", "Bearer " + tok.Token, http.StatusOK, "ok"},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            rec := serve(t, ok, tt.header, JWTAuth(testSecret))
            if rec.Code != tt.code || !strings.Contains(rec.Body.String(), tt.body) {
                t.Fatalf("got %d %s", rec.Code, rec.Body.String())
            }
        })
    }
}

func TestJWTAuthStoresPrincipal(t *testing.T) {
    tok, _ := utils.NewAccessToken(testSecret, 7, "admin", 5)
    rec := serve(t, func(c echo.Context) error {
        if c.Get(CtxUserID) != uint64(7) || c.Get(CtxRole) != "admin" {
            t.Errorf("context = %v %v", c.Get(CtxUserID), c.Get(CtxRole))
        }
        return ok(c)
    }, "Bearer "+tok.Token, JWTAuth(testSecret))
    if rec.Code != http.StatusOK {
        t.Fatalf("code = %d", rec.Code)
    }
}

func TestRequireRole(t *testing.T) {
    user, _ := utils.NewAccessToken(testSecret, 1, "user", 5)
    admin, _ := utils.NewAccessToken(testSecret, 2, "admin", 5)

    rec := serve(t, ok, "Bearer "+user.Token, JWTAuth(testSecret), RequireRole("admin"))
    if rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "You are not admin") {
        t.Fatalf("user: %d %s", rec.Code, rec.Body.String())
    }
    rec = serve(t, ok, "Bearer "+admin.Token, JWTAuth(testSecret), RequireRole("admin"))
    if rec.Code != http.StatusOK {
        t.Fatalf("admin: %d", rec.Code)
    }
}

func TestRedisMiddlewaresPassThroughWithoutClient(t *testing.T) {
    rl := config.RateLimitConfig{Enabled: true, Capacity: 1, RefillTokens: 1}
    cc := config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, Prefix: "cache"}
    for i := 0; i < 3; i++ {
        rec := serve(t, ok, "", NewTokenBucket(rl, nil), NewRedisCache(cc, nil), PurgeCache(cc, nil))
        if rec.Code != http.StatusOK {
            t.Fatalf("request %d: code %d", i, rec.Code)
        }
    }
}

func TestParseBucketResult(t *testing.T) {
    r, ok := parseBucketResult([]interface{}{int64(0), int64(0), int64(1500)})
    if !ok || r.allowed || r.waitMs != 1500 {
        t.Fatalf("got %+v %v", r, ok)
    }
    if _, ok := parseBucketResult("nope"); ok {
        t.Fatal("accepted a non-array reply")
    }
}
