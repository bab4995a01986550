package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"productview/catalog/internal/catalog"
	"productview/catalog/internal/config"
	"productview/catalog/internal/criteria"
	"productview/catalog/internal/domain"
	"productview/catalog/internal/service"
	"productview/catalog/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newCatalogService(load catalog.LoaderFunc) *service.Service {
	return service.NewService(catalog.New(load), nil, criteria.QueryDefaults())
}

func newTestServer(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	svc := newCatalogService(func(context.Context) ([]domain.Product, error) {
		return testutil.Products45(), nil
	})
	return NewServer(config.ServerConfig{Host: "localhost", Port: 0}, svc, opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestFilterProducts_CategoryExample(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/products-filter?category=A&inStock=1&pageNow=1&productNum=20")
	require.Equal(t, http.StatusOK, rec.Code)

	page := decode[domain.PageResult](t, rec)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 1, page.PageCount)
	assert.Equal(t, 10, page.ProductCount)
	assert.Equal(t, 1, page.PageNow)

	rec = do(t, h, http.MethodGet, "/api/products-filter?category=A&inStock=1&pageNow=2&productNum=20")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"pageCount":1,"productCount":10,"pageNow":2}`, rec.Body.String())
}

func TestFilterProducts_MalformedQueryUsesDefaults(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/products-filter?minPrice=abc&maxPrice=&sortBy=price&pageNow=zero&productNum=-3")
	require.Equal(t, http.StatusOK, rec.Code)

	page := decode[domain.PageResult](t, rec)
	assert.Equal(t, 45, page.ProductCount)
	assert.Equal(t, 1, page.PageNow)
	assert.Equal(t, 45, page.PageCount)
	assert.Len(t, page.Items, 1)
}

func TestFilterProducts_SortDescending(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/products-filter?sortBy=desc&productNum=45")
	require.Equal(t, http.StatusOK, rec.Code)

	page := decode[domain.PageResult](t, rec)
	require.Len(t, page.Items, 45)
	for i := 1; i < len(page.Items); i++ {
		assert.GreaterOrEqual(t, page.Items[i-1].Price, page.Items[i].Price)
	}
}

func TestListProducts(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/products")
	require.Equal(t, http.StatusOK, rec.Code)

	products := decode[[]domain.Product](t, rec)
	assert.Equal(t, testutil.IDs(testutil.Products45()), testutil.IDs(products))
}

func TestListCategories(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/categories")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"categories":["A","B","C","D","E"]}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSourceUnavailable(t *testing.T) {
	svc := newCatalogService(func(context.Context) ([]domain.Product, error) {
		return nil, errors.New("open items.json: no such file or directory")
	})
	h := NewServer(config.ServerConfig{}, svc).Handler()

	for _, target := range []string{"/api/products", "/api/products-filter", "/api/categories"} {
		t.Run(target, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, target)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			p := decode[Problem](t, rec)
			assert.Equal(t, ProblemTypeSourceUnavailable, p.Type)
			assert.Equal(t, http.StatusServiceUnavailable, p.Status)
			assert.Equal(t, target, p.Instance)
			assert.NotContains(t, p.Detail, "items.json")
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			rec := do(t, h, method, "/api/products-filter")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Allow"), http.MethodGet)
			assert.Equal(t, ProblemTypeMethodNotAllowed, decode[Problem](t, rec).Type)
		})
	}
}

func TestNotFound(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ProblemTypeNotFound, decode[Problem](t, rec).Type)
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/health")
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestCORS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://shop.example")
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	h := newTestServer(t)
	do(t, h, http.MethodGet, "/api/health")

	rec := do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(),
		`catalog_http_requests_total{method="GET",route="/api/health",status="200"} 1`))
}

func newRateLimitedServer(t *testing.T, limit int) (http.Handler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return newTestServer(t, WithRateLimit(rdb, config.RedisConfig{KeyPrefix: "test:", RateLimit: limit, RateWindow: 60})), mr
}

func TestRateLimiter(t *testing.T) {
	h, mr := newRateLimitedServer(t, 2)

	for range 2 {
		rec := do(t, h, http.MethodGet, "/api/categories")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := do(t, h, http.MethodGet, "/api/categories")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, ProblemTypeRateLimited, decode[Problem](t, rec).Type)

	mr.FastForward(61 * time.Second)
	rec = do(t, h, http.MethodGet, "/api/categories")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_RestoresMissingExpiry(t *testing.T) {
	h, mr := newRateLimitedServer(t, 2)

	// A counter left without a TTL must not block its client forever.
	key := "test:rl:192.0.2.1:GET:/api/categories"
	require.NoError(t, mr.Set(key, "5"))
	require.Zero(t, mr.TTL(key))

	rec := do(t, h, http.MethodGet, "/api/categories")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 60*time.Second, mr.TTL(key))

	mr.FastForward(61 * time.Second)
	rec = do(t, h, http.MethodGet, "/api/categories")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_HealthIsNotLimited(t *testing.T) {
	h, _ := newRateLimitedServer(t, 1)

	for range 5 {
		rec := do(t, h, http.MethodGet, "/api/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/categories").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/api/categories").Code)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	h := newTestServer(t, WithRateLimit(rdb, config.RedisConfig{RateLimit: 1, RateWindow: 60}))
	for range 3 {
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/categories").Code)
	}
}
