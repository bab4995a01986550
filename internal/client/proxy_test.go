package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"productview/catalog/internal/config"
	"productview/catalog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProxy answers every proxied request itself with handler.
func fakeProxy(t *testing.T, handler http.HandlerFunc) (string, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server.URL, &hits
}

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestProxyPool_KeepsWorkingProxiesInOrder(t *testing.T) {
	first, _ := fakeProxy(t, okHandler)
	second, _ := fakeProxy(t, okHandler)
	failing, _ := fakeProxy(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	pool := NewProxyPool(context.Background(), []string{first, failing, "http://127.0.0.1:1", second}, "http://catalog.invalid/api/health")

	require.Equal(t, 2, pool.Len())
	assert.Equal(t, first, pool.Next())
	assert.Equal(t, second, pool.Next())
	assert.Equal(t, first, pool.Next())
}

func TestProxyPool_Empty(t *testing.T) {
	pool := NewProxyPool(context.Background(), nil, "http://catalog.invalid/api/health")

	assert.Equal(t, 0, pool.Len())
	assert.Empty(t, pool.Next())
}

func TestCatalogClient_SwitchesProxyWhenThrottled(t *testing.T) {
	products := testutil.InStock(3)

	throttled, throttledHits := fakeProxy(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	healthy, healthyHits := fakeProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, productsPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(products)
	})

	c := NewCatalogClient(config.UpstreamConfig{
		BaseURL:         "http://catalog.invalid",
		Timeout:         5,
		BreakerCooldown: 60,
	}, WithProxyPool(&proxyPool{proxies: []string{throttled, healthy}}))
	t.Cleanup(func() { _ = c.Close() })

	got, err := c.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, products, got)
	assert.Equal(t, int32(1), throttledHits.Load())
	assert.Equal(t, int32(1), healthyHits.Load())

	// The breaker stayed closed and the healthy proxy is kept.
	_, err = c.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), throttledHits.Load())
	assert.Equal(t, int32(2), healthyHits.Load())
}
