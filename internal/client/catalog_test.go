package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"productview/catalog/internal/config"
	"productview/catalog/internal/criteria"
	"productview/catalog/internal/domain"
	"productview/catalog/internal/engine"
	"productview/catalog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream serves the catalog API over a fixed product list.
func fakeUpstream(t *testing.T, products []domain.Product) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var pageCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc(productsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(products)
	})
	mux.HandleFunc(productsFilterPath, func(w http.ResponseWriter, r *http.Request) {
		pageCalls.Add(1)
		c, spec := criteria.Normalize(criteria.FromValues(r.URL.Query()), criteria.QueryDefaults())
		page := engine.Paginate(engine.Sort(engine.Filter(products, c), c.Sort), spec)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	})
	mux.HandleFunc(categoriesPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(categoriesResponse{Categories: engine.Categories(products)})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &pageCalls
}

func newTestClient(t *testing.T, baseURL string) CatalogClient {
	t.Helper()
	c := NewCatalogClient(config.UpstreamConfig{
		BaseURL:         baseURL,
		Timeout:         5,
		MaxRetries:      0,
		BreakerCooldown: 60,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCatalogClient_ListProducts(t *testing.T) {
	server, _ := fakeUpstream(t, testutil.Products45())
	c := newTestClient(t, server.URL)

	products, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testutil.Products45(), products)
}

func TestCatalogClient_ListProductsHTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(productTableHTML))
	}))
	defer server.Close()

	products, err := newTestClient(t, server.URL).ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, server.URL+"/img/lamp.png", products[0].Image)
}

func TestCatalogClient_Page(t *testing.T) {
	server, _ := fakeUpstream(t, testutil.Products45())
	c := newTestClient(t, server.URL)

	fc := criteria.QueryDefaults().Criteria()
	fc.Category = "A"
	fc.StockOnly = true

	page, err := c.Page(context.Background(), fc, domain.PageSpec{Index: 1, Size: 20})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 1, page.PageCount)
	assert.Equal(t, 10, page.ProductCount)
	assert.Equal(t, 1, page.PageNow)
	assert.Equal(t, 20, page.PageSize)

	page, err = c.Page(context.Background(), fc, domain.PageSpec{Index: 2, Size: 20})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.Equal(t, 10, page.ProductCount)
}

func TestCatalogClient_Categories(t *testing.T) {
	server, _ := fakeUpstream(t, testutil.Products45())

	categories, err := newTestClient(t, server.URL).Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, categories)
}

func TestCatalogClient_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).ListProducts(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCatalogClient_CircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	ctx := context.Background()

	_, err := c.Categories(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = c.Categories(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorContains(t, err, "circuit breaker")
	assert.Equal(t, int32(1), calls.Load())
}
