package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"productview/catalog/internal/config"
	"productview/catalog/internal/criteria"
	"productview/catalog/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// ErrUnavailable is returned when the upstream catalog cannot be reached or
// answers with an error.
var ErrUnavailable = errors.New("upstream catalog unavailable")

// Upstream API paths.
const (
	productsPath       = "/api/products"
	productsFilterPath = "/api/products-filter"
	categoriesPath     = "/api/categories"
	healthPath         = "/api/health"
)

// HealthURL is the upstream endpoint used to probe proxies.
func HealthURL(cfg config.UpstreamConfig) string {
	return strings.TrimRight(cfg.BaseURL, "/") + healthPath
}

// CatalogClient talks to a remote catalog API.
type CatalogClient interface {
	// ListProducts fetches the full catalog in source order.
	ListProducts(ctx context.Context) ([]domain.Product, error)
	// Page fetches one server-computed page.
	Page(ctx context.Context, c domain.FilterCriteria, spec domain.PageSpec) (domain.PageResult, error)
	// Categories fetches the distinct catalog categories.
	Categories(ctx context.Context) ([]string, error)
	Close() error
}

type catalogClient struct {
	rl         ratelimit.Limiter
	config     config.UpstreamConfig
	httpClient *resty.Client
	parser     *productParser
	proxies    ProxyPool

	// Circuit breaker for upstream throttling
	circuitBreakerMutex sync.RWMutex
	throttledUntil      time.Time
	circuitBreakerDelay time.Duration
}

// ClientOption configures a CatalogClient.
type ClientOption func(*catalogClient)

// WithProxyPool routes upstream requests through pool. A throttled request is
// retried once through the next proxy before the circuit breaker opens.
func WithProxyPool(pool ProxyPool) ClientOption {
	return func(c *catalogClient) {
		c.proxies = pool
	}
}

// NewCatalogClient creates a client for the upstream described by cfg.
func NewCatalogClient(cfg config.UpstreamConfig, opts ...ClientOption) CatalogClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.TimeoutDuration()).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json, text/html;q=0.9")

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	c := &catalogClient{
		rl:                  rl,
		config:              cfg,
		httpClient:          client,
		parser:              newProductParser(cfg.BaseURL),
		circuitBreakerDelay: time.Duration(cfg.BreakerCooldown) * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.proxies != nil {
		if proxyURL := c.proxies.Next(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	return c
}

func (c *catalogClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	resp, err := c.get(ctx, productsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}

	if strings.Contains(resp.Header().Get("Content-Type"), "text/html") {
		products, err := c.parser.ParseProductTable(resp.String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse product table: %w", err)
		}
		return products, nil
	}

	var products []domain.Product
	if err := json.Unmarshal(resp.Bytes(), &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	log.Debugf("Fetched %d products from upstream", len(products))
	return products, nil
}

func (c *catalogClient) Page(ctx context.Context, fc domain.FilterCriteria, spec domain.PageSpec) (domain.PageResult, error) {
	resp, err := c.get(ctx, productsFilterPath, func(r *resty.Request) {
		r.SetQueryParamsFromValues(criteria.Values(fc, spec))
	})
	if err != nil {
		return domain.PageResult{}, fmt.Errorf("failed to fetch page %d: %w", spec.Index, err)
	}

	var page domain.PageResult
	if err := json.Unmarshal(resp.Bytes(), &page); err != nil {
		return domain.PageResult{}, fmt.Errorf("failed to decode page %d: %w", spec.Index, err)
	}
	if page.Items == nil {
		page.Items = []domain.Product{}
	}
	page.PageSize = spec.Size

	log.Debugf("Fetched page %d of %d with %d items", page.PageNow, page.PageCount, len(page.Items))
	return page, nil
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

func (c *catalogClient) Categories(ctx context.Context) ([]string, error) {
	resp, err := c.get(ctx, categoriesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	var body categoriesResponse
	if err := json.Unmarshal(resp.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	if body.Categories == nil {
		body.Categories = []string{}
	}
	return body.Categories, nil
}

func (c *catalogClient) Close() error {
	return c.httpClient.Close()
}

func (c *catalogClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := time.Now()
	wasOpen := now.Before(c.throttledUntil)
	wasTriggered := !c.throttledUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !wasOpen && wasTriggered {
		c.circuitBreakerMutex.Lock()
		if !c.throttledUntil.IsZero() && now.After(c.throttledUntil) {
			c.throttledUntil = time.Time{}
			log.Infof("✅ Circuit breaker closed - upstream requests are allowed again")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return wasOpen
}

func (c *catalogClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.throttledUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Upstream is throttling, requests disabled until %v",
		c.throttledUntil.Format("15:04:05"))
}

func (c *catalogClient) remainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	return max(time.Until(c.throttledUntil), 0)
}

func (c *catalogClient) get(ctx context.Context, path string, prepare func(*resty.Request)) (*resty.Response, error) {
	if c.isCircuitBreakerOpen() {
		remaining := c.remainingCircuitBreakerTime()
		return nil, fmt.Errorf("%w: circuit breaker is open for %v more", ErrUnavailable, remaining.Round(time.Second))
	}

	resp, err := c.do(ctx, path, prepare)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusTooManyRequests && c.switchProxy() {
		log.Infof("🔄 Retrying with new proxy...")
		if resp, err = c.do(ctx, path, prepare); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode() == http.StatusTooManyRequests && c.circuitBreakerDelay > 0 {
		c.triggerCircuitBreaker()
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%w: HTTP error: %s", ErrUnavailable, resp.Status())
	}

	return resp, nil
}

func (c *catalogClient) do(ctx context.Context, path string, prepare func(*resty.Request)) (*resty.Response, error) {
	c.rl.Take()

	req := c.httpClient.R().SetContext(ctx)
	if prepare != nil {
		prepare(req)
	}

	resp, err := req.Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

// switchProxy moves the client to the next proxy. It reports false when no
// other proxy is available.
func (c *catalogClient) switchProxy() bool {
	if c.proxies == nil || c.proxies.Len() < 2 {
		return false
	}

	proxyURL := c.proxies.Next()
	log.Infof("🔄 Switching to new proxy: %s", proxyURL)
	c.httpClient.SetProxy(proxyURL)
	return true
}
